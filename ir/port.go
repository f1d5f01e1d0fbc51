package ir

import "fmt"

// Direction is the signal direction of a Port.
type Direction int

const (
	In Direction = iota
	Out
	Inout
)

func (d Direction) String() string {
	switch d {
	case In:
		return "in"
	case Out:
		return "out"
	case Inout:
		return "inout"
	default:
		return "?"
	}
}

// OwnerKind says what a Port belongs to.
type OwnerKind int

const (
	OwnerCell OwnerKind = iota
	OwnerSignature
	OwnerGroup // a "hole": only go/done are legal names
)

// Width is either a fixed bit count or a named parameter resolved later by
// the cell that instantiates the owning primitive/component.
type Width struct {
	Fixed uint64
	Param string
}

// IsParam reports whether the width is a named parameter rather than fixed.
func (w Width) IsParam() bool { return w.Param != "" }

func (w Width) String() string {
	if w.IsParam() {
		return w.Param
	}
	return fmt.Sprintf("%d", w.Fixed)
}

// Port is a named, directional, fixed-or-parameterised wire. Ports are
// created at elaboration time and never destroyed until their owning Cell or
// Component is dropped; other structures hold non-owning PortID references.
type Port struct {
	Name      string
	Direction Direction
	Width     Width
	Owner     OwnerKind

	// OwnerCell is set when Owner == OwnerCell; OwnerGroup is set when
	// Owner == OwnerGroup. Neither is set for OwnerSignature ports (they
	// belong to the component itself).
	OwnerCell  CellID
	OwnerGroup GroupID
}

// IsHole reports whether this is a group's go/done pseudo-port.
func (p Port) IsHole() bool {
	return p.Owner == OwnerGroup && (p.Name == "go" || p.Name == "done")
}
