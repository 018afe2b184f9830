package index

import (
	"log/slog"
	"testing"
	"time"
)

func TestWalkFSMStopsAtLastFinalOnMissingTransition(t *testing.T) {
	a := buildTestAutomaton(t)
	// "ba": consumes 'b' (reaches final state 1), then 'a' has no
	// transition from state 1 — the walk must stop at the last final
	// prefix, not run off the end.
	got := walkFSM(a, 0, []uint32{1, 0}, false)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("walkFSM(ba) = %v, want [1]", got)
	}
}

func TestWalkFSMFullConsumption(t *testing.T) {
	a := buildTestAutomaton(t)
	got := walkFSM(a, 0, []uint32{0, 1}, false)
	if len(got) != 2 || got[1] != 1 {
		t.Fatalf("walkFSM(ab) = %v, want [0 1]", got)
	}
}

func TestWalkFSMFullMatchRequiresFinal(t *testing.T) {
	a := buildTestAutomaton(t)
	// "a" lands on state 0, which is not final: fullMatch=true must reject.
	if got := walkFSM(a, 0, []uint32{0}, true); got != nil {
		t.Fatalf("walkFSM(a, fullMatch) = %v, want nil", got)
	}
	// "ab" lands on state 1, which is final: fullMatch=true must accept.
	if got := walkFSM(a, 0, []uint32{0, 1}, true); len(got) != 2 {
		t.Fatalf("walkFSM(ab, fullMatch) = %v, want len 2", got)
	}
}

func TestScanTokensFromInitialState(t *testing.T) {
	a := buildTestAutomaton(t)
	v := buildTestVocabulary(t)
	keys := vocabularyTransitionKeys(a, v)

	got := scanTokens(a, v, keys, 0)
	want := map[uint32]uint32{1: 0, 10: 0, 2: 1, 3: 1}
	if len(got) != len(want) {
		t.Fatalf("scanTokens len = %d, want %d (%v)", len(got), len(want), got)
	}
	for _, tr := range got {
		end, ok := want[tr.tokenID]
		if !ok {
			t.Fatalf("unexpected token id %d in result", tr.tokenID)
		}
		if end != tr.endState {
			t.Fatalf("token %d -> state %d, want %d", tr.tokenID, tr.endState, end)
		}
	}
}

func TestScanTokensFromFinalStateWithNoExits(t *testing.T) {
	a := buildTestAutomaton(t)
	v := buildTestVocabulary(t)
	keys := vocabularyTransitionKeys(a, v)

	got := scanTokens(a, v, keys, 1)
	if len(got) != 0 {
		t.Fatalf("scanTokens from dead-end final state = %v, want empty", got)
	}
}

func TestBuilderRunRecoversPanicAndStillMarksFinished(t *testing.T) {
	a := buildTestAutomaton(t)
	v := buildTestVocabulary(t)
	buf := newResultBuffer(a.NumStates())
	// keys shorter than v.Len() forces scanTokens to index out of range,
	// panicking partway through the very first state's scan.
	bd := &builder{a: a, v: v, keys: nil, buf: buf, logger: slog.Default()}

	done := make(chan struct{})
	go func() {
		bd.run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("builder.run() did not return after panicking")
	}

	buf.awaitFinished()
	if !buf.isFinished() {
		t.Fatal("buf.finish() was not called after a builder panic")
	}
	for i, s := range buf.slots {
		if _, ready := s.tryReady(); !ready {
			t.Fatalf("slot %d was never published after a builder panic", i)
		}
	}
}

func TestBuilderRunPublishesEveryState(t *testing.T) {
	a := buildTestAutomaton(t)
	v := buildTestVocabulary(t)
	buf := newResultBuffer(a.NumStates())
	newBuilder(a, v, buf, slog.Default()).run()

	buf.awaitFinished()
	m0 := buf.slots[0].awaitReady()
	if m0[1] != 0 || m0[10] != 0 || m0[2] != 1 || m0[3] != 1 {
		t.Fatalf("state 0 map = %v, unexpected", m0)
	}
	m1 := buf.slots[1].awaitReady()
	if len(m1) != 0 {
		t.Fatalf("state 1 map = %v, want empty", m1)
	}
}
