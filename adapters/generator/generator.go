// Package generator is a minimal stand-in for a host token-generation
// loop: it drives a LazyIndex's Write/Generate instructions against a
// pluggable Sampler, demonstrating the runtime contract the index
// package exposes without depending on any real model-serving stack.
package generator

import (
	"context"
	"fmt"

	"github.com/unaidedelf8777/faster-outlines/index"
)

// Sampler picks one token id from a constrained set. A real
// implementation would consult model logits; Sampler exists so this
// package stays free of any particular inference runtime.
type Sampler interface {
	// Sample returns one token id from allowed. If all is true,
	// allowed may be empty and any vocabulary token id is acceptable.
	Sample(ctx context.Context, allowed []int32, all bool) (int32, error)
}

// Run drives generation from the automaton's initial state (façade
// state 0) until a Write instruction is produced or GetNextState returns
// TerminalState, appending every emitted token id to the returned slice.
// maxTokens bounds runaway
// generation in case a misconfigured automaton never reaches a
// terminal instruction.
func Run(ctx context.Context, idx *index.LazyIndex, sampler Sampler, maxTokens int) ([]int32, error) {
	var out []int32
	state := int32(0)

	for i := 0; i < maxTokens; i++ {
		instr := idx.GetNextInstruction(state)

		if instr.Write != nil {
			out = append(out, instr.Write.Tokens...)
			return out, nil
		}

		if instr.Generate == nil {
			return out, fmt.Errorf("generator: instruction carries neither Write nor Generate")
		}

		tok, err := sampler.Sample(ctx, instr.Generate.AllowedIDs, instr.Generate.All)
		if err != nil {
			return out, fmt.Errorf("generator: sample: %w", err)
		}
		out = append(out, tok)

		state = idx.GetNextState(state, tok)
		if state == index.TerminalState {
			return out, nil
		}
	}
	return out, fmt.Errorf("generator: exceeded maxTokens (%d) without reaching a terminal state", maxTokens)
}
