package regalloc

import "testing"

func TestNewRegSet(t *testing.T) {
	tests := []struct {
		count int
		want  RegSet
	}{
		{0, 0},
		{1, 0b1},
		{4, 0b1111},
		{64, ^RegSet(0)},
	}
	for _, tc := range tests {
		if got := NewRegSet(tc.count); got != tc.want {
			t.Errorf("NewRegSet(%d) = %#x, want %#x", tc.count, got, tc.want)
		}
	}
}

func TestRegSetAddRemoveHas(t *testing.T) {
	var s RegSet
	if !s.Empty() {
		t.Fatal("zero value RegSet must be empty")
	}
	s = s.Add(3)
	if !s.Has(3) {
		t.Fatal("expected register 3 to be present after Add")
	}
	if s.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", s.Count())
	}
	s = s.Remove(3)
	if s.Has(3) {
		t.Fatal("expected register 3 to be absent after Remove")
	}
	if !s.Empty() {
		t.Fatal("expected set to be empty again")
	}
}

func TestRegSetAny(t *testing.T) {
	var s RegSet
	if _, ok := s.Any(); ok {
		t.Fatal("Any() on an empty set must report false")
	}
	s = s.Add(5)
	r, ok := s.Any()
	if !ok || r != 5 {
		t.Fatalf("Any() = (%d, %v), want (5, true)", r, ok)
	}
}

func TestRegSetRangeVisitsEveryMember(t *testing.T) {
	s := NewRegSet(4)
	var seen []RegIndex
	s.Range(func(r RegIndex) { seen = append(seen, r) })
	if len(seen) != 4 {
		t.Fatalf("Range visited %d registers, want 4", len(seen))
	}
	for i, r := range seen {
		if int(r) != i {
			t.Fatalf("Range visited out of order: seen[%d] = %d", i, r)
		}
	}
}
