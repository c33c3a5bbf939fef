package tree

import (
	"strconv"
	"strings"
)

// Path is a dotted sequence of sibling numbers addressing a node from some
// ancestor, e.g. "1.3.2". A qualified node carries a Path rooted at the
// tree root; a positional lookup builds one segment at a time as it
// descends.
type Path []int

// ParsePath splits a dotted numeric path string into its segments.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ".")
	p := make(Path, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, &Error{Op: "ParsePath", Path: s, Err: ErrInvalidPath}
		}
		p[i] = n
	}
	return p, nil
}

// String renders the path back to dotted form.
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, n := range p {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// Append returns a new path with n appended, leaving p untouched.
func (p Path) Append(n int) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = n
	return out
}

// Parent returns all but the last segment, and false if p is empty.
func (p Path) Parent() (Path, bool) {
	if len(p) == 0 {
		return nil, false
	}
	return p[:len(p)-1], true
}

// Last returns the final segment, and false if p is empty.
func (p Path) Last() (int, bool) {
	if len(p) == 0 {
		return 0, false
	}
	return p[len(p)-1], true
}

// Equal reports whether two paths have the same segments.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}
