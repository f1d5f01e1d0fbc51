package ir

// Signature is a component's externally-visible port list.
type Signature struct {
	Ports []PortID
}

// Kind classifies a component by how it is scheduled.
type Kind int

const (
	Combinational Kind = iota
	Static
	Dynamic
)

// Component is the unit of compilation: a signature, owned cells, owned
// groups and static groups, continuous (structural, outside-any-group)
// assignments, and exactly one root Control tree. The component exclusively
// owns everything reachable from it; Ports are shared read-only handles.
type Component struct {
	Name  string
	Attrs Attrs
	Sig   Signature
	Kind  Kind

	// Latency is meaningful only when Kind == Static.
	Latency int

	Ports        []Port
	Cells        []Cell
	Groups       []Group
	StaticGroups []StaticGroup

	Continuous []Assignment

	Control *Control

	names *NameGenerator
}

// NewComponent creates an empty component with its own name generator.
func NewComponent(name string) *Component {
	return &Component{
		Name:    name,
		Control: Empty(),
		names:   NewNameGenerator(),
	}
}

// Names returns the component-local name generator.
func (c *Component) Names() *NameGenerator { return c.names }

// AddPort allocates a new port and returns its handle.
func (c *Component) AddPort(p Port) PortID {
	id := PortID(len(c.Ports))
	c.Ports = append(c.Ports, p)
	c.names.Reserve(p.Name)
	return id
}

// AddSigPort allocates a signature (component-boundary) port.
func (c *Component) AddSigPort(name string, dir Direction, width Width) PortID {
	id := c.AddPort(Port{Name: name, Direction: dir, Width: width, Owner: OwnerSignature})
	c.Sig.Ports = append(c.Sig.Ports, id)
	return id
}

// AddCell allocates a new cell; ports for it are added separately via
// AddCellPort once the prototype's signature is known.
func (c *Component) AddCell(cell Cell) CellID {
	id := CellID(len(c.Cells))
	c.Cells = append(c.Cells, cell)
	c.names.Reserve(cell.Name)
	return id
}

// AddCellPort allocates a port owned by an existing cell.
func (c *Component) AddCellPort(cell CellID, name string, dir Direction, width Width) PortID {
	id := c.AddPort(Port{Name: name, Direction: dir, Width: width, Owner: OwnerCell, OwnerCell: cell})
	c.Cells[cell].Ports = append(c.Cells[cell].Ports, id)
	return id
}

// AddGroup allocates a new dynamic group with its go/done holes.
func (c *Component) AddGroup(name string) GroupID {
	id := GroupID(len(c.Groups))
	g := Group{Name: name}
	c.Groups = append(c.Groups, g)
	goHole := c.AddPort(Port{Name: "go", Direction: In, Width: Width{Fixed: 1}, Owner: OwnerGroup, OwnerGroup: id})
	doneHole := c.AddPort(Port{Name: "done", Direction: Out, Width: Width{Fixed: 1}, Owner: OwnerGroup, OwnerGroup: id})
	c.Groups[id].GoHole = goHole
	c.Groups[id].DoneHole = doneHole
	c.names.Reserve(name)
	return id
}

// AddStaticGroup allocates a new static group of the given latency.
func (c *Component) AddStaticGroup(name string, latency int) StaticGroupID {
	id := StaticGroupID(len(c.StaticGroups))
	c.StaticGroups = append(c.StaticGroups, StaticGroup{Name: name, Latency: latency})
	goHole := c.AddPort(Port{Name: "go", Direction: In, Width: Width{Fixed: 1}, Owner: OwnerGroup, OwnerGroup: GroupID(id)})
	c.StaticGroups[id].GoHole = goHole
	c.names.Reserve(name)
	return id
}

// Port resolves a handle to its Port value.
func (c *Component) Port(id PortID) Port { return c.Ports[id] }

// Group resolves a handle to a *Group for in-place mutation.
func (c *Component) Group(id GroupID) *Group { return &c.Groups[id] }

// StaticGroup resolves a handle to a *StaticGroup for in-place mutation.
func (c *Component) StaticGroup(id StaticGroupID) *StaticGroup { return &c.StaticGroups[id] }

// Cell resolves a handle to a *Cell for in-place mutation.
func (c *Component) Cell(id CellID) *Cell { return &c.Cells[id] }
