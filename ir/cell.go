package ir

// Cell is an instance of a primitive or sub-component, with typed ports of
// its own. A Cell owns its ports: they are created alongside it and dropped
// with it.
type Cell struct {
	Name      string
	Prototype string // primitive or component name
	Params    map[string]uint64
	Ref       bool // supplied by the caller at invoke time
	Attrs     Attrs

	Ports []PortID
}

// CellPort finds the port of the given cell by name, resolving through the
// component's port arena.
func (c *Component) CellPort(cell CellID, name string) (PortID, bool) {
	cl := c.Cells[cell]
	for _, pid := range cl.Ports {
		if c.Ports[pid].Name == name {
			return pid, true
		}
	}
	return 0, false
}
