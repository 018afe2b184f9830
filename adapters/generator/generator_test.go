package generator

import (
	"context"
	"testing"

	"github.com/unaidedelf8777/faster-outlines/automaton"
	"github.com/unaidedelf8777/faster-outlines/index"
	"github.com/unaidedelf8777/faster-outlines/vocab"
)

// firstChoiceSampler always picks the smallest allowed id, or -1 if All is
// set with no enumerated ids (not exercised by the test automaton).
type firstChoiceSampler struct{}

func (firstChoiceSampler) Sample(_ context.Context, allowed []int32, all bool) (int32, error) {
	if len(allowed) == 0 {
		if all {
			return -1, nil
		}
		return 0, nil
	}
	min := allowed[0]
	for _, id := range allowed[1:] {
		if id < min {
			min = id
		}
	}
	return min, nil
}

func buildAB(t *testing.T) (*automaton.Automaton, *vocab.Vocabulary) {
	t.Helper()
	transitions := []uint32{
		0, 1, automaton.NoTransition,
		automaton.NoTransition, automaton.NoTransition, automaton.NoTransition,
	}
	a, err := automaton.New(0, 2, []uint32{1}, 2, 2, transitions, map[rune]uint32{'a': 0, 'b': 1}, "a*b")
	if err != nil {
		t.Fatalf("automaton.New: %v", err)
	}
	v, err := vocab.New([]vocab.Entry{
		{Token: "a", IDs: []uint32{3}},
		{Token: "b", IDs: []uint32{2}},
	}, 99, vocab.Options{})
	if err != nil {
		t.Fatalf("vocab.New: %v", err)
	}
	return a, v
}

func TestRunReachesTerminalState(t *testing.T) {
	a, v := buildAB(t)
	idx, err := index.New(a, v, 99, nil, nil)
	if err != nil {
		t.Fatalf("index.New: %v", err)
	}
	idx.AwaitFinished()

	got, err := Run(context.Background(), idx, firstChoiceSampler{}, 10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("Run() = %v, want [2] (always picks the smallest allowed id, 'b')", got)
	}
}
