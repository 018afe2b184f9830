package index

import (
	"testing"

	"github.com/unaidedelf8777/faster-outlines/automaton"
	"github.com/unaidedelf8777/faster-outlines/vocab"
)

// buildTestAutomaton returns the automaton for the language a*b: state 0
// (initial) loops to itself on 'a' and advances to state 1 (final) on
// 'b'; state 1 has no outgoing transitions.
func buildTestAutomaton(t *testing.T) *automaton.Automaton {
	t.Helper()
	transitions := []uint32{
		0, 1, automaton.NoTransition, // state 0: a->0, b->1, anything->dead
		automaton.NoTransition, automaton.NoTransition, automaton.NoTransition, // state 1
	}
	alphabet := map[rune]uint32{'a': 0, 'b': 1}
	a, err := automaton.New(0, 2, []uint32{1}, 2, 2, transitions, alphabet, "a*b")
	if err != nil {
		t.Fatalf("automaton.New: %v", err)
	}
	return a
}

// buildLoopingFinalAutomaton returns the automaton for the language
// [a-c]*: a single state that is both initial and final, looping to
// itself on 'a', 'b', and 'c'. Exercises the case where a final state
// still has legal outgoing transitions.
func buildLoopingFinalAutomaton(t *testing.T) *automaton.Automaton {
	t.Helper()
	transitions := []uint32{
		0, 0, 0, automaton.NoTransition, // state 0: a->0, b->0, c->0, anything->dead
	}
	alphabet := map[rune]uint32{'a': 0, 'b': 1, 'c': 2}
	a, err := automaton.New(0, 1, []uint32{0}, 3, 3, transitions, alphabet, "[a-c]*")
	if err != nil {
		t.Fatalf("automaton.New: %v", err)
	}
	return a
}

// buildLoopingFinalVocabulary returns a vocabulary of single-rune tokens
// over the [a-c]* alphabet, paired with buildLoopingFinalAutomaton.
func buildLoopingFinalVocabulary(t *testing.T) *vocab.Vocabulary {
	t.Helper()
	v, err := vocab.New([]vocab.Entry{
		{Token: "a", IDs: []uint32{1}},
		{Token: "b", IDs: []uint32{2}},
		{Token: "c", IDs: []uint32{3}},
	}, 99, vocab.Options{})
	if err != nil {
		t.Fatalf("vocab.New: %v", err)
	}
	return v
}

// buildTestVocabulary returns a small vocabulary exercising single-rune
// tokens, multi-rune tokens, a synonym (two ids sharing "a"), and a
// token built entirely from out-of-alphabet runes.
func buildTestVocabulary(t *testing.T) *vocab.Vocabulary {
	t.Helper()
	v, err := vocab.New([]vocab.Entry{
		{Token: "a", IDs: []uint32{1, 10}},
		{Token: "b", IDs: []uint32{2}},
		{Token: "ab", IDs: []uint32{3}},
		{Token: "ba", IDs: []uint32{4}},
		{Token: "c", IDs: []uint32{5}},
	}, 99, vocab.Options{})
	if err != nil {
		t.Fatalf("vocab.New: %v", err)
	}
	return v
}
