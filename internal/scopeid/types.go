package scopeid

// Segment is one element of a scope path.
type Segment struct {
	Name  string
	Index int // -1 when the segment carries no index.
}

// NewSegment returns a segment without index.
func NewSegment(name string) Segment {
	return Segment{Name: name, Index: -1}
}

// NewIndexedSegment returns a segment with an index, used to tell apart
// sibling scopes that share a name.
func NewIndexedSegment(name string, index int) Segment {
	return Segment{Name: name, Index: index}
}

// HasIndex reports whether the segment carries an index.
func (s Segment) HasIndex() bool {
	return s.Index != -1
}

// Address is a full scope path from the root scope downwards.
type Address struct {
	Path []Segment
}
