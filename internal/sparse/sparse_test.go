package sparse

import "testing"

func TestSetInsertAndContains(t *testing.T) {
	s := New(16)
	if s.Contains(5) {
		t.Fatal("empty set should not contain 5")
	}
	if !s.Insert(5) {
		t.Fatal("first insert of 5 should return true")
	}
	if s.Insert(5) {
		t.Fatal("duplicate insert of 5 should return false")
	}
	if !s.Contains(5) {
		t.Fatal("set should contain 5 after insert")
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
}

func TestSetOutOfRangeNeverContained(t *testing.T) {
	s := New(4)
	if s.Contains(100) {
		t.Fatal("value beyond capacity must never be reported as contained")
	}
}

func TestSetClear(t *testing.T) {
	s := New(8)
	s.Insert(1)
	s.Insert(2)
	s.Insert(3)
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", s.Len())
	}
	if s.Contains(1) {
		t.Fatal("cleared set should not contain 1")
	}
	if !s.Insert(1) {
		t.Fatal("insert after clear should succeed as a fresh insert")
	}
}

func TestSetValuesPreservesInsertionOrder(t *testing.T) {
	s := New(16)
	order := []uint32{7, 2, 9, 0}
	for _, v := range order {
		s.Insert(v)
	}
	got := s.Values()
	if len(got) != len(order) {
		t.Fatalf("Values() len = %d, want %d", len(got), len(order))
	}
	for i, v := range order {
		if got[i] != v {
			t.Fatalf("Values()[%d] = %d, want %d", i, got[i], v)
		}
	}
}
