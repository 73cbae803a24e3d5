package stages

import "sort"

// Set is an unordered collection of entity identifiers. Methods that return a
// Set never modify the receiver.
type Set map[string]struct{}

// NewSet builds a set from the provided identifiers, skipping empty strings.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership. A nil set contains nothing.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of members.
func (s Set) Len() int { return len(s) }

// Clone returns an independent copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// With returns a copy of s that also contains id.
func (s Set) With(id string) Set {
	out := s.Clone()
	if id != "" {
		out[id] = struct{}{}
	}
	return out
}

// Without returns a copy of s with id removed.
func (s Set) Without(id string) Set {
	out := s.Clone()
	delete(out, id)
	return out
}

// ContainsAll reports whether every id is a member.
func (s Set) ContainsAll(ids []string) bool {
	for _, id := range ids {
		if !s.Has(id) {
			return false
		}
	}
	return true
}

// Intersects reports whether s and other share a member.
func (s Set) Intersects(other Set) bool {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	for id := range small {
		if large.Has(id) {
			return true
		}
	}
	return false
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
