package index

import "sync/atomic"

// slot holds the token->nextState map for a single automaton state,
// plus the synchronization needed to let many reader goroutines wait
// for the single builder goroutine to publish it.
//
// publish is called at most once per slot, always by the builder
// goroutine. awaitReady may be called concurrently by any number of
// reader goroutines, before or after publish. The atomic bool gives a
// lock-free fast path once published; the channel gives a correct,
// non-spinning wait for the (common, since builds are near-instant for
// realistic automata) case where a reader arrives first.
type slot struct {
	ready atomic.Bool
	done  chan struct{}
	m     map[uint32]uint32
}

func newSlot() *slot {
	return &slot{done: make(chan struct{})}
}

// publish stores m and wakes every goroutine blocked in awaitReady. The
// store-then-close ordering, combined with Go's happens-before
// guarantee for channel close, means any goroutine that observes done
// closed (whether by receiving or by the atomic fast path) also
// observes m fully written — the single-writer discipline spec.md's
// shared-buffer component requires, with no lock needed on the read
// side.
func (s *slot) publish(m map[uint32]uint32) {
	s.m = m
	s.ready.Store(true)
	close(s.done)
}

// awaitReady blocks until publish has been called, then returns the
// published map. Safe to call from multiple goroutines and safe to
// call after publish has already happened (the common case for a
// cache hit, where every slot is pre-published).
func (s *slot) awaitReady() map[uint32]uint32 {
	if s.ready.Load() {
		return s.m
	}
	<-s.done
	return s.m
}

// tryReady returns (map, true) if publish has already happened, or
// (nil, false) without blocking otherwise.
func (s *slot) tryReady() (map[uint32]uint32, bool) {
	if s.ready.Load() {
		return s.m, true
	}
	return nil, false
}

// resultBuffer is the full per-index set of slots, one per automaton
// state, plus the single flag marking the whole build complete.
type resultBuffer struct {
	slots    []*slot
	finished atomic.Bool
	done     chan struct{}
}

func newResultBuffer(numStates uint32) *resultBuffer {
	slots := make([]*slot, numStates)
	for i := range slots {
		slots[i] = newSlot()
	}
	return &resultBuffer{slots: slots, done: make(chan struct{})}
}

// finish marks the whole build complete and wakes every goroutine
// blocked in awaitFinished. Called at most once, after every slot has
// been published: by the builder goroutine, or by fromCached on a cache
// hit.
func (b *resultBuffer) finish() {
	b.finished.Store(true)
	close(b.done)
}

// awaitFinished blocks until finish has been called.
func (b *resultBuffer) awaitFinished() {
	if b.finished.Load() {
		return
	}
	<-b.done
}

func (b *resultBuffer) isFinished() bool {
	return b.finished.Load()
}
