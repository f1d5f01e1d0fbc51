// Package ir defines the shared mutable intermediate representation that
// every lowering pass reads and rewrites in place: ports, cells, groups,
// guards, assignments and the control tree.
//
// Ports, cells and groups are owned exclusively by their Component and are
// referenced everywhere else through small integer handles (PortID, CellID,
// GroupID, StaticGroupID) rather than pointers. A pass takes a *Component by
// exclusive access, resolves handles through the component's arenas, and
// mutates in place; nothing outside of a pass's own stack frame retains a
// handle's resolved value past the pass's return.
package ir

// PortID identifies a Port owned by some Component's port arena.
type PortID int

// CellID identifies a Cell owned by a Component.
type CellID int

// GroupID identifies a dynamic Group owned by a Component.
type GroupID int

// StaticGroupID identifies a StaticGroup owned by a Component.
type StaticGroupID int

// invalidID marks an unset handle; the zero value of each ID type is a
// legitimate index (arenas are 0-based), so unset handles use -1.
const invalidID = -1

// Valid reports whether the handle refers to an arena slot.
func (id PortID) Valid() bool        { return id >= 0 }
func (id CellID) Valid() bool        { return id >= 0 }
func (id GroupID) Valid() bool       { return id >= 0 }
func (id StaticGroupID) Valid() bool { return id >= 0 }
