package scopeid

import (
	"slices"
	"strconv"
	"strings"
)

// Root returns the address of a root scope.
func Root(name string) Address {
	return Address{Path: []Segment{NewSegment(name)}}
}

// Child returns a new address extended by one segment. The receiver is not modified.
func (a Address) Child(seg Segment) Address {
	path := make([]Segment, 0, len(a.Path)+1)
	path = append(path, a.Path...)
	return Address{Path: append(path, seg)}
}

// Depth is the number of segments.
func (a Address) Depth() int {
	return len(a.Path)
}

// Last returns the innermost segment. ok is false for an empty address.
func (a Address) Last() (Segment, bool) {
	if len(a.Path) == 0 {
		return Segment{}, false
	}
	return a.Path[len(a.Path)-1], true
}

func (a Address) String() string {
	var sb strings.Builder
	for i, segment := range a.Path {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(segment.Name)
		if segment.HasIndex() {
			sb.WriteByte('[')
			sb.WriteString(strconv.Itoa(segment.Index))
			sb.WriteByte(']')
		}
	}
	return sb.String()
}

// Equal compares two addresses segment by segment.
func (a Address) Equal(other Address) bool {
	return slices.Equal(a.Path, other.Path)
}
