// Package selection holds the client-only set of edges picked for a pending
// constraint edit.
package selection

// Set is an insertion-ordered set of edge ids. The zero value is empty and
// ready to use. It is not safe for concurrent use; the view owns it.
type Set struct {
	ids   []int64
	index map[int64]int
}

// New returns an empty set.
func New() *Set {
	return &Set{}
}

// Len returns the number of selected edges.
func (s *Set) Len() int {
	return len(s.ids)
}

// Contains reports whether id is selected.
func (s *Set) Contains(id int64) bool {
	_, ok := s.index[id]
	return ok
}

// IDs returns a copy of the selected ids in pick order.
func (s *Set) IDs() []int64 {
	out := make([]int64, len(s.ids))
	copy(out, s.ids)
	return out
}

// Toggle selects id if it is absent. Selecting an already selected edge is
// a no-op; use Remove to deselect. It reports whether the set changed.
func (s *Set) Toggle(id int64) bool {
	return s.Add(id)
}

// Add selects id and reports whether it was newly added.
func (s *Set) Add(id int64) bool {
	if s.Contains(id) {
		return false
	}
	if s.index == nil {
		s.index = make(map[int64]int)
	}
	s.index[id] = len(s.ids)
	s.ids = append(s.ids, id)
	return true
}

// Remove deselects id and reports whether it was present.
func (s *Set) Remove(id int64) bool {
	pos, ok := s.index[id]
	if !ok {
		return false
	}
	s.ids = append(s.ids[:pos], s.ids[pos+1:]...)
	delete(s.index, id)
	for i := pos; i < len(s.ids); i++ {
		s.index[s.ids[i]] = i
	}
	return true
}

// UnionWith adds every id not already selected. Applying the same list
// twice leaves the set as after the first call. It returns how many ids
// were added.
func (s *Set) UnionWith(ids []int64) int {
	added := 0
	for _, id := range ids {
		if s.Add(id) {
			added++
		}
	}
	return added
}

// Replace makes ids the whole selection.
func (s *Set) Replace(ids []int64) {
	s.Reset()
	s.UnionWith(ids)
}

// Reset clears the selection.
func (s *Set) Reset() {
	s.ids = nil
	s.index = nil
}
