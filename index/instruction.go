package index

// Instruction is what a LazyIndex tells the host generation loop to do
// next, given the automaton state the sequence generated so far has
// reached. Exactly one of Write or Generate is meaningful for a given
// Instruction; GetNextInstruction always returns a fully-formed one or
// the other, never a mix.
type Instruction struct {
	// Write, when non-nil, means the loop must emit exactly these
	// token ids (in order) without sampling — a forced end-of-sequence
	// token once a final state, or a state with no legal transitions,
	// has been reached.
	Write *Write

	// Generate, when non-nil, means the loop must sample a token,
	// constrained to AllowedIDs (or unconstrained, if All is true and
	// AllowedIDs is empty — see Generate's doc comment).
	Generate *Generate
}

// Write instructs the generation loop to emit Tokens verbatim.
type Write struct {
	Tokens []int32
}

// Generate instructs the generation loop to sample one token under a
// constraint.
type Generate struct {
	// AllowedIDs lists the token ids legal from the current state. Nil
	// or empty only when All is true.
	AllowedIDs []int32

	// All indicates every token in the vocabulary (including ones the
	// builder has not enumerated) is allowed — the façade's rendering
	// of the reserved "no constraint" case. No code path in this
	// package produces All: true yet; it exists so a future
	// wildcard-loop optimization in the builder has a place to signal
	// "this state accepts every token" without enumerating all of
	// them into AllowedIDs.
	All bool
}
