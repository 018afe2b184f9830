package index

import (
	"log/slog"
	"sync"

	"github.com/unaidedelf8777/faster-outlines/automaton"
	"github.com/unaidedelf8777/faster-outlines/internal/conv"
	"github.com/unaidedelf8777/faster-outlines/vocab"
)

// TerminalState is the sentinel the façade returns from GetNextState
// once a sequence has reached its end-of-sequence token. Once returned,
// every subsequent call with this state as input also returns it: the
// terminal state has no further transitions.
const TerminalState int32 = -1

// LazyIndex is the runtime-facing view of an in-progress or completed
// index build: a per-state token->nextState map computed lazily and
// concurrently, served through the query methods below.
//
// A LazyIndex is safe for concurrent use by any number of goroutines.
type LazyIndex struct {
	a   *automaton.Automaton
	eos uint32

	buf *resultBuffer

	surfacedMu sync.Mutex
	surfaced   map[uint32]bool // states already returned by CollectFinishedStates
}

// New returns a LazyIndex for (a, v), constructing it lazily: the
// returned value is usable immediately (every query method either
// returns instantly or blocks until its specific answer is ready), but
// the full per-state map is typically still being computed on a
// background goroutine when New returns.
//
// If cache is non-nil, a prior build for the same (pattern, vocabulary)
// fingerprint (see Fingerprint) is reused: on a cache hit, the returned
// LazyIndex is already fully computed. On a miss, New also checks
// whether another caller is already building the same fingerprint and,
// if so, returns that shared in-progress instance instead of starting
// a redundant walk of the automaton.
func New(a *automaton.Automaton, v *vocab.Vocabulary, eos uint32, cache *Cache, logger *slog.Logger) (*LazyIndex, error) {
	if a == nil {
		return nil, &IndexError{Kind: InputInvalid, Message: "automaton must not be nil"}
	}
	if v == nil {
		return nil, &IndexError{Kind: InputInvalid, Message: "vocabulary must not be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	if cache != nil {
		fp := Fingerprint(a.Pattern(), v)
		if ci, ok := cache.Get(fp); ok {
			return fromCached(a, eos, ci), nil
		}

		li := newEmpty(a, eos)
		if existing, building := cache.claimBuild(fp, li); building {
			return existing, nil
		}
		go func() {
			newBuilder(a, v, li.buf, logger).run()
			cache.Insert(snapshot(a, fp, li.buf))
			cache.releaseBuild(fp)
		}()
		return li, nil
	}

	li := newEmpty(a, eos)
	go newBuilder(a, v, li.buf, logger).run()
	return li, nil
}

func newEmpty(a *automaton.Automaton, eos uint32) *LazyIndex {
	return &LazyIndex{
		a:        a,
		eos:      eos,
		buf:      newResultBuffer(a.NumStates()),
		surfaced: make(map[uint32]bool),
	}
}

// fromCached builds an already-complete LazyIndex from a cache hit,
// publishing every slot immediately (spec's "cache hit path... set
// ready true for every state at once").
func fromCached(a *automaton.Automaton, eos uint32, ci *CachedIndex) *LazyIndex {
	li := newEmpty(a, eos)
	for state, m := range ci.Maps {
		cp := make(map[uint32]uint32, len(m))
		for k, v := range m {
			cp[k] = v
		}
		li.buf.slots[state].publish(cp)
	}
	li.buf.finish()
	return li
}

// snapshot assembles a CachedIndex from a fully-published buffer. Must
// only be called after buf.awaitFinished() would return immediately
// (i.e. after builder.run has returned).
func snapshot(a *automaton.Automaton, fp uint64, buf *resultBuffer) *CachedIndex {
	maps := make([]map[uint32]uint32, len(buf.slots))
	for i, s := range buf.slots {
		m, _ := s.tryReady()
		maps[i] = m
	}
	finals := make([]uint32, 0)
	for state := uint32(0); state < a.NumStates(); state++ {
		if a.IsFinal(state) {
			finals = append(finals, state)
		}
	}
	return &CachedIndex{
		Fingerprint: fp,
		FirstState:  a.Initial(),
		Finals:      finals,
		Maps:        maps,
	}
}

// resolve maps the façade's public state id (TerminalState, or a real
// state) to the internal uint32 used to index buf.slots. The public id
// 0 is accepted as an alias for the automaton's actual initial state,
// matching the convention a caller that hasn't generated anything yet
// would use.
func (li *LazyIndex) resolve(state int32) (uint32, bool) {
	if state == TerminalState || state < 0 {
		return 0, false
	}
	if state == 0 {
		return li.a.Initial(), true
	}
	s := uint32(state)
	if s >= li.a.NumStates() {
		return 0, false
	}
	return s, true
}

// GetNextState returns the automaton state reached after consuming
// tokenID from state, or TerminalState if tokenID is the configured
// end-of-sequence id, state is itself a final state, is not a legal
// transition from state, or lands on a final state (a final state never
// has an outgoing move once reached, even if the automaton's own
// transition table would otherwise allow one out of it — spec.md §4.F).
//
// Blocks until state's slot has been published.
func (li *LazyIndex) GetNextState(state int32, tokenID int32) int32 {
	if tokenID >= 0 && uint32(tokenID) == li.eos {
		return TerminalState
	}
	s, ok := li.resolve(state)
	if !ok || li.a.IsFinal(s) {
		return TerminalState
	}
	m := li.buf.slots[s].awaitReady()
	next, ok := m[uint32(tokenID)]
	if !ok {
		return TerminalState
	}
	if li.a.IsFinal(next) {
		return TerminalState
	}
	return conv.Uint32ToInt32(next)
}

// GetAllowedTokenIds returns every token id that is a legal transition
// from state, in unspecified order. Blocks until state's slot has been
// published. Returns [eos] for TerminalState or any final state.
func (li *LazyIndex) GetAllowedTokenIds(state int32) []int32 {
	s, ok := li.resolve(state)
	if !ok || li.a.IsFinal(s) {
		return []int32{conv.Uint32ToInt32(li.eos)}
	}
	m := li.buf.slots[s].awaitReady()
	out := make([]int32, 0, len(m))
	for tok := range m {
		out = append(out, conv.Uint32ToInt32(tok))
	}
	return out
}

// GetNextInstruction returns the Instruction the generation loop should
// follow from state: Write{EOS} if state is terminal, final, or has no
// legal transitions, otherwise Generate constrained to
// GetAllowedTokenIds. Blocks until state's slot has been published.
func (li *LazyIndex) GetNextInstruction(state int32) Instruction {
	s, ok := li.resolve(state)
	if !ok || li.a.IsFinal(s) {
		return Instruction{Write: &Write{Tokens: []int32{conv.Uint32ToInt32(li.eos)}}}
	}
	m := li.buf.slots[s].awaitReady()
	if len(m) == 0 {
		return Instruction{Write: &Write{Tokens: []int32{conv.Uint32ToInt32(li.eos)}}}
	}
	allowed := make([]int32, 0, len(m))
	for tok := range m {
		allowed = append(allowed, conv.Uint32ToInt32(tok))
	}
	return Instruction{Generate: &Generate{AllowedIDs: allowed}}
}

// AwaitState blocks until state's per-token map has been published,
// returning an *IndexError with Kind StateOutOfBounds if state does not
// name a real automaton state. Useful for a caller that wants to force
// a particular state to be ready without also wanting its map.
func (li *LazyIndex) AwaitState(state int32) error {
	if state == TerminalState {
		return nil // the terminal state is always "ready"
	}
	if state < 0 || (state != 0 && uint32(state) >= li.a.NumStates()) {
		return &IndexError{Kind: StateOutOfBounds, Message: "state id out of range"}
	}
	s, _ := li.resolve(state)
	li.buf.slots[s].awaitReady()
	return nil
}

// AwaitFinished blocks until every reachable state has been published
// and the build as a whole is complete.
func (li *LazyIndex) AwaitFinished() {
	li.buf.awaitFinished()
}

// IsFinished reports whether the build has completed, without blocking.
func (li *LazyIndex) IsFinished() bool {
	return li.buf.isFinished()
}

// CollectFinishedStates returns every state whose slot has been
// published since the last call to CollectFinishedStates on this
// LazyIndex, as public (int32) state ids. Each state id is returned by
// at most one CollectFinishedStates call over the lifetime of the
// LazyIndex; the union of all calls' results equals the full set of
// states the build has published so far.
func (li *LazyIndex) CollectFinishedStates() []int32 {
	li.surfacedMu.Lock()
	defer li.surfacedMu.Unlock()

	var out []int32
	for state, s := range li.buf.slots {
		u := uint32(state)
		if li.surfaced[u] {
			continue
		}
		if _, ready := s.tryReady(); ready {
			li.surfaced[u] = true
			out = append(out, conv.Uint32ToInt32(u))
		}
	}
	return out
}
