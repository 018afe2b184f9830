// Package conv provides safe integer conversion helpers used when moving
// between the uint32 state/token ids used internally by the index builder
// and the int32 ids exposed at the public façade.
//
// These functions bounds-check before narrowing so that a corrupt automaton
// or vocabulary (too many states, too many tokens) fails loudly instead of
// silently wrapping.
package conv

import "math"

// IntToUint32 converts a non-negative int to uint32.
// Panics if n < 0 or n exceeds math.MaxUint32.
//
//go:inline
func IntToUint32(n int) uint32 {
	if n < 0 || uint(n) > math.MaxUint32 {
		panic("conv: int out of uint32 range")
	}
	return uint32(n)
}

// Uint64ToUint32 narrows a uint64 to uint32.
// Panics if n exceeds math.MaxUint32.
//
//go:inline
func Uint64ToUint32(n uint64) uint32 {
	if n > math.MaxUint32 {
		panic("conv: uint64 out of uint32 range")
	}
	return uint32(n)
}

// Uint32ToInt32 converts a state/token id to the signed form the façade
// API uses. Panics if n exceeds math.MaxInt32, which would require more
// than 2^31 states or tokens — far beyond any realistic automaton.
//
//go:inline
func Uint32ToInt32(n uint32) int32 {
	if n > math.MaxInt32 {
		panic("conv: uint32 out of int32 range")
	}
	return int32(n)
}
