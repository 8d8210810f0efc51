// Package defn holds the basic identifiers and the Name type shared across
// the forwarding core: faces, reserved ids, and hierarchical names.
package defn

import "strings"

// Name is a hierarchical, ordered sequence of components. It supports the
// equality, prefix and longest-prefix operations the PIT/FIB/CS tables need.
// The wire encoding of a Name is out of scope for this core; names are
// compared and hashed by their string components only.
type Name []string

// NameFromStr parses a slash-separated name such as "/ndn/edu/ucla/ping".
// The empty name (root) is "/" or "".
func NameFromStr(s string) Name {
	s = strings.TrimPrefix(s, "/")
	if s == "" {
		return Name{}
	}
	return strings.Split(s, "/")
}

// String renders the name back into slash-separated form.
func (n Name) String() string {
	if len(n) == 0 {
		return "/"
	}
	return "/" + strings.Join(n, "/")
}

// Equal reports whether two names have identical components.
func (n Name) Equal(o Name) bool {
	if len(n) != len(o) {
		return false
	}
	for i := range n {
		if n[i] != o[i] {
			return false
		}
	}
	return true
}

// IsPrefixOf reports whether n is a prefix of o (n.IsPrefixOf(n) is true).
func (n Name) IsPrefixOf(o Name) bool {
	if len(n) > len(o) {
		return false
	}
	for i := range n {
		if n[i] != o[i] {
			return false
		}
	}
	return true
}

// Append returns a new Name with the given components appended.
func (n Name) Append(comps ...string) Name {
	out := make(Name, 0, len(n)+len(comps))
	out = append(out, n...)
	out = append(out, comps...)
	return out
}

// Clone returns an independent copy of the name.
func (n Name) Clone() Name {
	out := make(Name, len(n))
	copy(out, n)
	return out
}

// LocalhostPrefix is the special prefix used for the /localhost scope check
// in the incoming Interest and outgoing Data pipelines: non-local faces may never carry packets under it.
var LocalhostPrefix = NameFromStr("/localhost")
