// Package emit lowers a fully-compiled ir.Component into a SystemVerilog
// module: per spec §6, a module header (signature ports with direction
// flipped relative to the IR), wire declarations for every cell port, cell
// instantiations, one grouped `assign` per destination port, and an
// optional `$onehot0` guard-disjointness trap. Structurally grounded on
// `original_source/calyx/backend/src/verilog.rs`'s `emit_component`, direct
// `strings.Builder`/`fmt.Fprintf` writing the way the teacher never reaches
// for a templating library.
package emit

import (
	"fmt"
	"io"
	"sort"

	"github.com/sarchlab/fsmforge/guardpool"
	"github.com/sarchlab/fsmforge/ir"
	"github.com/sarchlab/fsmforge/primitives"
)

// Emitter renders components to SystemVerilog. It is built through
// EmitterBuilder's fluent With* methods, the way config.DeviceBuilder is
// built in the teacher.
type Emitter struct {
	primitives         *primitives.Library
	synthesisMode      bool
	enableVerification bool
}

// EmitterBuilder accumulates Emitter options via value-receiver With*
// calls, each returning a new builder.
type EmitterBuilder struct {
	e Emitter
}

// NewEmitterBuilder starts from an Emitter that checks guard disjointness
// and is not in synthesis mode.
func NewEmitterBuilder(lib *primitives.Library) EmitterBuilder {
	return EmitterBuilder{e: Emitter{primitives: lib, enableVerification: true}}
}

// WithSynthesisMode toggles whether the $onehot0 disjointness checks are
// suppressed (synthesis tools reject them).
func (b EmitterBuilder) WithSynthesisMode(on bool) EmitterBuilder {
	b.e.synthesisMode = on
	return b
}

// WithVerification toggles emission of $onehot0 guard-disjointness checks.
func (b EmitterBuilder) WithVerification(on bool) EmitterBuilder {
	b.e.enableVerification = on
	return b
}

// Build finalizes the Emitter.
func (b EmitterBuilder) Build() *Emitter {
	e := b.e
	return &e
}

// Emit flattens comp (see Flatten) and writes its SystemVerilog module to
// w. comp is mutated in place by the flattening step.
func (e *Emitter) Emit(comp *ir.Component, w io.Writer) error {
	Flatten(comp)

	if err := e.writeHeader(comp, w); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "// COMPONENT START: %s\n", comp.Name); err != nil {
		return err
	}
	if err := e.writeWireDecls(comp, w); err != nil {
		return err
	}
	if err := e.writeCellInstances(comp, w); err != nil {
		return err
	}
	if err := e.writeAssigns(comp, w); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "// COMPONENT END: %s\nendmodule\n", comp.Name); err != nil {
		return err
	}
	return nil
}

func (e *Emitter) writeHeader(comp *ir.Component, w io.Writer) error {
	if _, err := fmt.Fprintf(w, "module %s(\n", comp.Name); err != nil {
		return err
	}
	for i, pid := range comp.Sig.Ports {
		p := comp.Port(pid)
		dir := "input"
		if p.Direction == ir.In {
			dir = "output"
		}
		width := ""
		if p.Width.IsParam() {
			return fmt.Errorf("emit: signature port %s.%s has an unresolved parameterised width %q", comp.Name, p.Name, p.Width.Param)
		}
		if p.Width.Fixed > 1 {
			width = fmt.Sprintf("[%d:0] ", p.Width.Fixed-1)
		}
		sep := ",\n"
		if i == len(comp.Sig.Ports)-1 {
			sep = "\n"
		}
		if _, err := fmt.Fprintf(w, "  %s logic %s%s%s", dir, width, p.Name, sep); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, ");\n")
	return err
}

// wireName is the declared-wire name for a cell port: "<cell>_<port>".
func wireName(comp *ir.Component, pid ir.PortID) string {
	p := comp.Port(pid)
	if p.Owner != ir.OwnerCell {
		return p.Name
	}
	return fmt.Sprintf("%s_%s", comp.Cell(p.OwnerCell).Name, p.Name)
}

func (e *Emitter) writeWireDecls(comp *ir.Component, w io.Writer) error {
	for ci := range comp.Cells {
		cell := &comp.Cells[ci]
		for _, pid := range cell.Ports {
			p := comp.Port(pid)
			width := ""
			if p.Width.Fixed > 1 {
				width = fmt.Sprintf(" [%d:0]", p.Width.Fixed-1)
			}
			if _, err := fmt.Fprintf(w, "logic%s %s;\n", width, wireName(comp, pid)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Emitter) writeCellInstances(comp *ir.Component, w io.Writer) error {
	for ci := range comp.Cells {
		cell := &comp.Cells[ci]
		prim, ok := e.primitives.Lookup(cell.Prototype)
		if !ok {
			return fmt.Errorf("emit: cell %s.%s instantiates undefined prototype %q", comp.Name, cell.Name, cell.Prototype)
		}

		params := make([]string, 0, len(cell.Params))
		for name := range cell.Params {
			params = append(params, name)
		}
		sort.Strings(params)

		if _, err := fmt.Fprintf(w, "%s #(\n", prim.Name); err != nil {
			return err
		}
		for i, name := range params {
			sep := ",\n"
			if i == len(params)-1 {
				sep = "\n"
			}
			if _, err := fmt.Fprintf(w, "  .%s(%d)%s", name, cell.Params[name], sep); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, ") %s (\n", cell.Name); err != nil {
			return err
		}
		for i, pid := range cell.Ports {
			p := comp.Port(pid)
			sep := ",\n"
			if i == len(cell.Ports)-1 {
				sep = "\n"
			}
			if _, err := fmt.Fprintf(w, "  .%s(%s)%s", p.Name, wireName(comp, pid), sep); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, ");\n"); err != nil {
			return err
		}
	}
	return nil
}

// destName is the verilog expression a destination port is written through:
// a cell's input wire, or the component's own signature output (note the
// direction flip: an ir.In signature port is the module's `output`).
func destName(comp *ir.Component, pid ir.PortID) string {
	p := comp.Port(pid)
	if p.Owner == ir.OwnerSignature {
		return p.Name
	}
	return wireName(comp, pid)
}

func (e *Emitter) writeAssigns(comp *ir.Component, w io.Writer) error {
	byDst := map[ir.PortID][]ir.Assignment{}
	var dsts []ir.PortID
	for _, a := range comp.Continuous {
		if _, seen := byDst[a.Dst]; !seen {
			dsts = append(dsts, a.Dst)
		}
		byDst[a.Dst] = append(byDst[a.Dst], a)
	}
	sort.Slice(dsts, func(i, j int) bool { return dsts[i] < dsts[j] })

	// Hash-cons every guard once up front so repeated sub-expressions
	// (common across arms of a mux and across destinations) are printed
	// and evaluated exactly once, the way the teacher's flat_assign mode
	// pre-flattens through ir::GuardPool before emitting any assign.
	pool := guardpool.New()
	for _, dst := range dsts {
		for _, a := range byDst[dst] {
			pool.Intern(a.Guard)
		}
	}
	for ref := 0; ref < pool.Len(); ref++ {
		g := pool.Get(guardpool.Ref(ref))
		if _, err := fmt.Fprintf(w, "wire g%d = %s;\n", ref, renderGuard(comp, g)); err != nil {
			return err
		}
	}

	for _, dst := range dsts {
		asgns := byDst[dst]

		expr := defaultValue(comp, dst)
		for i := len(asgns) - 1; i >= 0; i-- {
			a := asgns[i]
			if a.Guard.IsTrue() {
				expr = wireName(comp, a.Src)
				continue
			}
			ref := pool.Intern(a.Guard)
			expr = fmt.Sprintf("g%d ? %s : %s", ref, wireName(comp, a.Src), expr)
		}

		if _, err := fmt.Fprintf(w, "assign %s = %s;\n", destName(comp, dst), expr); err != nil {
			return err
		}

		if e.enableVerification && !e.synthesisMode && len(asgns) > 1 {
			if err := e.writeOnehotCheck(comp, dst, asgns, pool, w); err != nil {
				return err
			}
		}
	}
	return nil
}

func defaultValue(comp *ir.Component, dst ir.PortID) string {
	p := comp.Port(dst)
	if p.Owner == ir.OwnerCell && comp.Cell(p.OwnerCell).Attrs.Has(ir.AttrData) {
		return "'x"
	}
	return fmt.Sprintf("%d'd0", widthOf(p))
}

func widthOf(p ir.Port) uint64 {
	if p.Width.Fixed == 0 {
		return 1
	}
	return p.Width.Fixed
}

// renderGuard prints g as a Verilog boolean expression over wire names.
func renderGuard(comp *ir.Component, g *ir.Guard) string {
	switch g.Kind {
	case ir.GuardTrue:
		return "1'd1"
	case ir.GuardPort:
		return wireName(comp, g.Port)
	case ir.GuardNot:
		return fmt.Sprintf("!(%s)", renderGuard(comp, g.Sub))
	case ir.GuardAnd:
		return fmt.Sprintf("(%s) & (%s)", renderGuard(comp, g.Lhs), renderGuard(comp, g.Rhs))
	case ir.GuardOr:
		return fmt.Sprintf("(%s) | (%s)", renderGuard(comp, g.Lhs), renderGuard(comp, g.Rhs))
	case ir.GuardComp:
		return fmt.Sprintf("(%s) %s (%s)", wireName(comp, g.CompLhs), g.CompOp, wireName(comp, g.CompRhs))
	default:
		return "1'd0"
	}
}

// writeOnehotCheck traps multiple simultaneously-true guards on the same
// destination, the way the teacher's emit_guard_disjoint_check does via
// vast's $onehot0 call.
func (e *Emitter) writeOnehotCheck(comp *ir.Component, dst ir.PortID, asgns []ir.Assignment, pool *guardpool.Pool, w io.Writer) error {
	terms := make([]string, len(asgns))
	for i, a := range asgns {
		if a.Guard.IsTrue() {
			terms[i] = "1'd1"
			continue
		}
		terms[i] = fmt.Sprintf("g%d", pool.Intern(a.Guard))
	}
	if _, err := fmt.Fprintf(w, "always_comb begin\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  if (!$onehot0({%s})) $error(\"multiple assignments to %s\");\n", joinComma(terms), destName(comp, dst)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "end\n")
	return err
}

func joinComma(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
