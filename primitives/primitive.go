// Package primitives describes the fixed catalog of structural building
// blocks a component's cells may instantiate: registers, adders, bit
// manipulation, comparators, and memories. A Primitive is pure metadata
// (name, parameters, port signature, combinational-ness, optional latency);
// beyond an optional inline Verilog body it carries no simulation model,
// only what the validator and emitter need to check and print cell
// instantiations.
package primitives

// PortDef describes one port of a primitive's signature; width is either a
// fixed literal or the name of one of the primitive's own parameters.
type PortDef struct {
	Name       string `yaml:"name"`
	Direction  string `yaml:"direction"` // "in", "out", "inout" — mirrors ir.Direction.String()
	Width      uint64 `yaml:"width"`     // 0 means "see WidthParam"
	WidthParam string `yaml:"width_param"`
}

// IsParam reports whether this port's width is parameterised.
func (p PortDef) IsParam() bool { return p.WidthParam != "" }

// Primitive is one entry in the catalog: std_reg, std_add, comb_mem_d1, ...
type Primitive struct {
	Name    string    `yaml:"name"`
	Params  []string  `yaml:"params"`
	Ports   []PortDef `yaml:"ports"`
	IsComb  bool      `yaml:"is_comb"`
	Latency *int      `yaml:"latency"` // nil when the primitive is not statically scheduled
	Body    string    `yaml:"body"`    // inline Verilog source, empty for externally-defined primitives
}

// HasLatency reports whether this primitive carries a fixed static latency.
func (p Primitive) HasLatency() bool { return p.Latency != nil }

// Port looks up one of the primitive's ports by name.
func (p Primitive) Port(name string) (PortDef, bool) {
	for _, pd := range p.Ports {
		if pd.Name == name {
			return pd, true
		}
	}
	return PortDef{}, false
}
