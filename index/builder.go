package index

import (
	"log/slog"

	"github.com/unaidedelf8777/faster-outlines/automaton"
	"github.com/unaidedelf8777/faster-outlines/internal/sparse"
	"github.com/unaidedelf8777/faster-outlines/vocab"
)

// tokenTransition is one entry scanTokens emits: a vocabulary token id
// that is fully legal from a given start state, together with the
// automaton state reached after consuming it.
type tokenTransition struct {
	tokenID  uint32
	endState uint32
}

// vocabularyTransitionKeys maps every vocabulary entry's token string to
// the sequence of alphabet symbol ids the automaton would need to
// consume it: one symbol id per rune, falling back to the automaton's
// "anything" symbol for runes outside its named alphabet.
func vocabularyTransitionKeys(a *automaton.Automaton, v *vocab.Vocabulary) [][]uint32 {
	keys := make([][]uint32, v.Len())
	for i := 0; i < v.Len(); i++ {
		entry := v.At(i)
		row := make([]uint32, 0, len(entry.Token))
		for _, r := range entry.Token {
			row = append(row, a.Symbol(r))
		}
		keys[i] = row
	}
	return keys
}

// walkFSM follows keys from start for as long as the automaton has a
// transition for each symbol, recording every intermediate state.
//
// When fullMatch is false (token-scanning mode): if a transition is
// missing partway through, the walk stops and returns the states
// visited up to and including the last final state seen (or an empty
// slice if none was final) — this is the "largest final prefix"
// behavior a tokenizer needs when a token is longer than what the
// automaton accepts. If every symbol is consumed, the full state
// sequence is returned regardless of whether the last state is final;
// the caller (scanTokens) accepts the token either way.
//
// When fullMatch is true: a missing transition partway through yields
// an empty slice (no match at all, not even a partial one), and full
// consumption only counts as a match if the final state reached is
// itself final.
func walkFSM(a *automaton.Automaton, start uint32, keys []uint32, fullMatch bool) []uint32 {
	states := make([]uint32, 0, len(keys))
	lastFinalIdx := -1
	if a.IsFinal(start) {
		lastFinalIdx = 0
	}
	current := start
	for i, sym := range keys {
		next, ok := a.Transition(current, sym)
		if !ok {
			if fullMatch {
				return nil
			}
			if lastFinalIdx <= 0 {
				return nil
			}
			return states[:lastFinalIdx]
		}
		states = append(states, next)
		current = next
		if a.IsFinal(current) {
			lastFinalIdx = i + 1
		}
	}
	if fullMatch && !a.IsFinal(current) {
		return nil
	}
	return states
}

// scanTokens scans every vocabulary entry from start, emitting one
// tokenTransition per token id whose full string is accepted by the
// automaton starting at start (i.e. walkFSM in non-full-match mode
// consumes every symbol of that token, landing on some state — final
// or not, since an interior automaton state fully consuming a token is
// still a legal "generate this token" move).
func scanTokens(a *automaton.Automaton, v *vocab.Vocabulary, keys [][]uint32, start uint32) []tokenTransition {
	var out []tokenTransition
	for i := 0; i < v.Len(); i++ {
		tokenKeys := keys[i]
		if len(tokenKeys) == 0 {
			continue
		}
		seq := walkFSM(a, start, tokenKeys, false)
		if len(seq) != len(tokenKeys) {
			continue
		}
		end := seq[len(seq)-1]
		for _, id := range v.At(i).IDs {
			out = append(out, tokenTransition{tokenID: id, endState: end})
		}
	}
	return out
}

// builder drives the breadth-first discovery of every automaton state
// reachable from the start state, publishing each state's token-id ->
// next-state map into buf as soon as it is computed.
type builder struct {
	a      *automaton.Automaton
	v      *vocab.Vocabulary
	keys   [][]uint32
	buf    *resultBuffer
	logger *slog.Logger
}

func newBuilder(a *automaton.Automaton, v *vocab.Vocabulary, buf *resultBuffer, logger *slog.Logger) *builder {
	return &builder{
		a:      a,
		v:      v,
		keys:   vocabularyTransitionKeys(a, v),
		buf:    buf,
		logger: logger,
	}
}

// run performs the full breadth-first build. It is meant to be the
// entire body of the single goroutine LazyIndex launches per build; on
// return every reachable state's slot has been published and buf has
// been marked finished.
//
// A panic during scanning is recovered: the panic is logged, then every
// not-yet-published slot is force-published empty and the buffer is
// marked finished, so that any goroutine blocked in AwaitState or
// AwaitFinished is released rather than hung forever on a crashed
// builder.
func (bd *builder) run() {
	defer func() {
		if r := recover(); r != nil {
			bd.logger.Error("index builder panicked", "panic", r)
			bd.drainUnpublished()
			bd.buf.finish()
		}
	}()

	seen := sparse.New(bd.a.NumStates())
	frontier := make([]uint32, 0, bd.a.NumStates())
	frontier = append(frontier, bd.a.Initial())
	seen.Insert(bd.a.Initial())

	for len(frontier) > 0 {
		start := frontier[0]
		frontier = frontier[1:]

		transitions := scanTokens(bd.a, bd.v, bd.keys, start)
		m := make(map[uint32]uint32, len(transitions))
		for _, tr := range transitions {
			m[tr.tokenID] = tr.endState
			if seen.Insert(tr.endState) {
				frontier = append(frontier, tr.endState)
			}
		}
		bd.buf.slots[start].publish(m)
	}

	bd.drainUnpublished()
	bd.buf.finish()
}

// drainUnpublished force-publishes an empty map into every slot the
// walk never reached (dead states unreachable from the start state),
// so AwaitState never blocks forever on a state the build legitimately
// never visits.
func (bd *builder) drainUnpublished() {
	for _, s := range bd.buf.slots {
		if _, ready := s.tryReady(); !ready {
			s.publish(map[uint32]uint32{})
		}
	}
}
