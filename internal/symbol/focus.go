package symbol

import (
	"fmt"

	"github.com/vk/morphocore/internal/vec"
)

// CellID identifies a cell.
type CellID int64

// NoCell is the CellID of foci that are not bound to a cell.
const NoCell CellID = -1

const (
	hasCell uint8 = 1 << iota
	hasPos
	hasMembrane
)

// Focus is an evaluation locator. It is an immutable value type; the zero
// value is the global focus.
type Focus struct {
	cell     CellID
	pos      vec.Vec3
	membrane vec.Vec3
	has      uint8
}

// GlobalFocus is the focus of global (position independent) evaluation.
func GlobalFocus() Focus {
	return Focus{}
}

// CellFocus locates a whole cell.
func CellFocus(id CellID) Focus {
	return Focus{cell: id, has: hasCell}
}

// NodeFocus locates a lattice position outside of any cell.
func NodeFocus(pos vec.Vec3) Focus {
	return Focus{pos: pos, has: hasPos}
}

// CellNodeFocus locates a lattice position occupied by a cell.
func CellNodeFocus(id CellID, pos vec.Vec3) Focus {
	return Focus{cell: id, pos: pos, has: hasCell | hasPos}
}

// MembraneFocus locates a membrane coordinate of a cell.
func MembraneFocus(id CellID, membrane vec.Vec3) Focus {
	return Focus{cell: id, membrane: membrane, has: hasCell | hasMembrane}
}

// Cell returns the cell identity, if any.
func (f Focus) Cell() (CellID, bool) {
	if f.has&hasCell == 0 {
		return NoCell, false
	}
	return f.cell, true
}

// Pos returns the lattice position, if any.
func (f Focus) Pos() (vec.Vec3, bool) {
	return f.pos, f.has&hasPos != 0
}

// Membrane returns the membrane coordinate, if any.
func (f Focus) Membrane() (vec.Vec3, bool) {
	return f.membrane, f.has&hasMembrane != 0
}

// IsGlobal reports whether the focus carries no location at all.
func (f Focus) IsGlobal() bool {
	return f.has == 0
}

// Granularity is the finest resolution the focus can address.
func (f Focus) Granularity() Granularity {
	switch {
	case f.has&hasPos != 0:
		return Node
	case f.has&hasMembrane != 0:
		return MembraneNode
	case f.has&hasCell != 0:
		return Cell
	}
	return Global
}

func (f Focus) String() string {
	switch {
	case f.IsGlobal():
		return "global"
	case f.has&hasPos != 0 && f.has&hasCell != 0:
		return fmt.Sprintf("cell %d @ %s", f.cell, f.pos)
	case f.has&hasPos != 0:
		return fmt.Sprintf("node %s", f.pos)
	case f.has&hasMembrane != 0:
		return fmt.Sprintf("cell %d membrane %s", f.cell, f.membrane)
	}
	return fmt.Sprintf("cell %d", f.cell)
}
