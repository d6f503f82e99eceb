package selection

import (
	"reflect"
	"sort"
	"testing"
)

func sorted(ids []int64) []int64 {
	out := append([]int64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestToggleIsAddOnly(t *testing.T) {
	s := New()
	if !s.Toggle(5) {
		t.Fatal("first Toggle(5) should add")
	}
	if s.Toggle(5) {
		t.Fatal("second Toggle(5) should be a no-op")
	}
	if !s.Contains(5) || s.Len() != 1 {
		t.Errorf("set = %v, want [5]", s.IDs())
	}
}

func TestRemoveKeepsOrder(t *testing.T) {
	s := New()
	s.UnionWith([]int64{3, 1, 4, 1, 5})
	if got, want := s.IDs(), []int64{3, 1, 4, 5}; !reflect.DeepEqual(got, want) {
		t.Fatalf("IDs = %v, want %v", got, want)
	}

	if !s.Remove(1) {
		t.Fatal("Remove(1) = false, want true")
	}
	if s.Remove(1) {
		t.Fatal("second Remove(1) = true, want false")
	}
	if got, want := s.IDs(), []int64{3, 4, 5}; !reflect.DeepEqual(got, want) {
		t.Errorf("IDs = %v, want %v", got, want)
	}
	// Index must follow the shift.
	if !s.Remove(5) || s.Contains(5) {
		t.Errorf("Remove(5) after shift failed: %v", s.IDs())
	}
}

func TestUnionWithIdempotent(t *testing.T) {
	s := New()
	s.Add(9)
	ids := []int64{5, 7, 5}

	if n := s.UnionWith(ids); n != 2 {
		t.Errorf("first union added %d, want 2", n)
	}
	once := s.IDs()
	if n := s.UnionWith(ids); n != 0 {
		t.Errorf("second union added %d, want 0", n)
	}
	if got := s.IDs(); !reflect.DeepEqual(got, once) {
		t.Errorf("after second union = %v, want %v", got, once)
	}
	if got, want := sorted(once), []int64{5, 7, 9}; !reflect.DeepEqual(got, want) {
		t.Errorf("set = %v, want %v", got, want)
	}
}

func TestReplace(t *testing.T) {
	s := New()
	s.UnionWith([]int64{5, 9})
	s.Replace([]int64{5, 7})

	if got, want := sorted(s.IDs()), []int64{5, 7}; !reflect.DeepEqual(got, want) {
		t.Errorf("after Replace = %v, want %v", got, want)
	}
	if s.Contains(9) {
		t.Error("9 should have been dropped")
	}
}

func TestResetAndZeroValue(t *testing.T) {
	var s Set
	if s.Contains(1) || s.Len() != 0 {
		t.Fatal("zero Set should be empty")
	}
	s.Add(1)
	s.Reset()
	if s.Len() != 0 || s.Contains(1) {
		t.Errorf("after Reset = %v", s.IDs())
	}
	if got := s.IDs(); len(got) != 0 {
		t.Errorf("IDs = %v, want empty", got)
	}
}

func TestIDsReturnsCopy(t *testing.T) {
	s := New()
	s.Add(1)
	ids := s.IDs()
	ids[0] = 99
	if !s.Contains(1) || s.Contains(99) {
		t.Error("mutating IDs() result changed the set")
	}
}
