// Package sparse provides a sparse set over uint32 values with O(1) insert,
// membership testing, and clearing. The index builder uses it to track the
// set of automaton states already discovered; the frontier of states still
// to be scanned is a separate FIFO slice.
package sparse

// Set is a set of uint32 values in [0, capacity) supporting O(1) operations.
// It maintains a dense slice (for iteration order) alongside a sparse index
// array (for membership testing), the classic Briggs/Torczon sparse set.
type Set struct {
	sparse []uint32
	dense  []uint32
	size   uint32
}

// New creates a Set whose values must lie in [0, capacity).
func New(capacity uint32) *Set {
	return &Set{
		sparse: make([]uint32, capacity),
		dense:  make([]uint32, 0, capacity),
	}
}

// Insert adds value to the set, returning true if it was not already
// present. Panics if value >= capacity.
func (s *Set) Insert(value uint32) bool {
	if s.Contains(value) {
		return false
	}
	s.dense = append(s.dense, value)
	s.sparse[value] = s.size
	s.size++
	return true
}

// Contains reports whether value is in the set.
func (s *Set) Contains(value uint32) bool {
	if value >= uint32(len(s.sparse)) {
		return false
	}
	idx := s.sparse[value]
	return idx < s.size && s.dense[idx] == value
}

// Clear empties the set in O(1) time without releasing backing storage.
func (s *Set) Clear() {
	s.size = 0
	s.dense = s.dense[:0]
}

// Len returns the number of elements currently in the set.
func (s *Set) Len() int {
	return int(s.size)
}

// Values returns the set's elements in insertion order. The returned slice
// aliases internal storage and is only valid until the next mutation.
func (s *Set) Values() []uint32 {
	return s.dense[:s.size]
}
