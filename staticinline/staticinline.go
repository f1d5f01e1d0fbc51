// Package staticinline implements §4.2's static inliner: a recursive
// reduction of an arbitrary static control tree into a single static group
// whose assignments carry the timing information inline.
package staticinline

import (
	"fmt"

	"github.com/sarchlab/fsmforge/ir"
)

// Config tunes the inliner's behaviour.
type Config struct {
	// OffloadPause enables the §4.2 Par coloring-and-sharing behaviour.
	// Mirrors the --offload-pause CLI flag, default true per spec §6.
	OffloadPause bool
}

// DefaultConfig matches the CLI default (--offload-pause defaults to true).
func DefaultConfig() Config { return Config{OffloadPause: true} }

// Builder inlines static control trees within one component.
type Builder struct {
	comp     *ir.Component
	cfg      Config
	constOne ir.PortID
	haveConst bool
}

// New returns a Builder operating on comp.
func New(comp *ir.Component, cfg Config) *Builder {
	return &Builder{comp: comp, cfg: cfg}
}

// Inline reduces ctrl (which must be a static control node) to a single
// fresh static group and returns its handle.
func (b *Builder) Inline(ctrl *ir.Control) (ir.StaticGroupID, error) {
	switch ctrl.Kind {
	case ir.CStaticEnable:
		return ctrl.StaticGroup, nil
	case ir.CStaticSeq:
		return b.inlineSeq(ctrl)
	case ir.CStaticPar:
		return b.inlinePar(ctrl)
	case ir.CStaticIf:
		return b.inlineIf(ctrl)
	case ir.CStaticRepeat:
		return b.inlineRepeat(ctrl)
	case ir.CEmpty:
		return 0, fmt.Errorf("staticinline: Empty never appears alone")
	default:
		return 0, fmt.Errorf("staticinline: not a static control node: kind %d", ctrl.Kind)
	}
}

func (b *Builder) newGroup(base string, latency int) ir.StaticGroupID {
	name := b.comp.Names().Gen(base)
	return b.comp.AddStaticGroup(name, latency)
}

// constHigh returns the shared always-1 driver for this component, creating
// a std_const(1,1) cell the first time it's needed.
func (b *Builder) constHigh() ir.PortID {
	if b.haveConst {
		return b.constOne
	}
	cell := ir.Cell{Name: b.comp.Names().Gen("const1"), Prototype: "std_const", Params: map[string]uint64{"WIDTH": 1, "VALUE": 1}}
	cell.Attrs.SetBool(ir.AttrGenerated)
	cid := b.comp.AddCell(cell)
	out := b.comp.AddCellPort(cid, "out", ir.Out, ir.Width{Fixed: 1})
	b.comp.AddCellPort(cid, "in", ir.In, ir.Width{Fixed: 1})
	b.constOne = out
	b.haveConst = true
	return out
}

func cloneAssignments(src []ir.Assignment) []ir.Assignment {
	out := make([]ir.Assignment, len(src))
	copy(out, src)
	return out
}

// inlineSeq implements §4.2's Seq reduction.
func (b *Builder) inlineSeq(ctrl *ir.Control) (ir.StaticGroupID, error) {
	offset := 0
	var acc []ir.Assignment
	for _, child := range ctrl.Stmts {
		gid, err := b.Inline(child)
		if err != nil {
			return 0, err
		}
		sg := b.comp.StaticGroup(gid)
		for _, a := range cloneAssignments(sg.Assignments) {
			acc = append(acc, a.UpdateInterval(offset, sg.Latency, ctrl.Latency))
		}
		offset += sg.Latency
	}
	if offset != ctrl.Latency {
		return 0, fmt.Errorf("staticinline: seq latency mismatch: children sum to %d, declared %d", offset, ctrl.Latency)
	}
	out := b.newGroup("static_seq", ctrl.Latency)
	b.comp.StaticGroup(out).Assignments = acc
	return out, nil
}

// offloadInterval returns the [start,end) window during which a Par child is
// considered to occupy its FSM resource. Absent an explicit annotation
// (AttrOffloadStart/AttrOffloadEnd, set by an earlier scheduling pass), a
// child's interval defaults to [0, latency): plain parallel children all
// start together and so, correctly, always conflict with one another.
func offloadInterval(child *ir.Control, latency int) (int, int) {
	if s, ok := child.Attrs.Num(ir.AttrOffloadStart); ok {
		e, _ := child.Attrs.Num(ir.AttrOffloadEnd)
		return s, e
	}
	return 0, latency
}

type parMember struct {
	ctrl       *ir.Control
	group      ir.StaticGroupID
	start, end int
}

// colorMembers greedily colours members so that no two members whose
// intervals overlap share a colour (§4.2/§4.3.3's conflict-graph coloring).
func colorMembers(members []parMember) []int {
	colors := make([]int, len(members))
	for i := range colors {
		colors[i] = -1
	}
	for i := range members {
		used := make(map[int]bool)
		for j := 0; j < i; j++ {
			if overlaps(members[i], members[j]) {
				used[colors[j]] = true
			}
		}
		c := 0
		for used[c] {
			c++
		}
		colors[i] = c
	}
	return colors
}

func overlaps(a, b parMember) bool {
	return a.start < b.end && b.start < a.end
}

// inlinePar implements §4.2's Par reduction, with or without offload-pause.
func (b *Builder) inlinePar(ctrl *ir.Control) (ir.StaticGroupID, error) {
	if len(ctrl.Stmts) == 0 {
		return 0, fmt.Errorf("staticinline: empty par")
	}

	members := make([]parMember, len(ctrl.Stmts))
	maxLatency := 0
	for i, child := range ctrl.Stmts {
		gid, err := b.Inline(child)
		if err != nil {
			return 0, err
		}
		sg := b.comp.StaticGroup(gid)
		start, end := offloadInterval(child, sg.Latency)
		members[i] = parMember{ctrl: child, group: gid, start: start, end: end}
		if end > maxLatency {
			maxLatency = end
		}
	}

	out := b.newGroup("static_par", maxLatency)

	if !b.cfg.OffloadPause || len(members) == 1 {
		var acc []ir.Assignment
		for _, m := range members {
			sg := b.comp.StaticGroup(m.group)
			for _, a := range cloneAssignments(sg.Assignments) {
				acc = append(acc, a.WithGuard(ir.Info(0, sg.Latency)))
			}
		}
		b.comp.StaticGroup(out).Assignments = acc
		return out, nil
	}

	colors := colorMembers(members)
	numColors := 0
	for _, c := range colors {
		if c+1 > numColors {
			numColors = c + 1
		}
	}

	var wrapperAssigns []ir.Assignment
	for color := 0; color < numColors; color++ {
		colorLatency := 0
		var colorMembersForThis []parMember
		for i, m := range members {
			if colors[i] == color {
				colorMembersForThis = append(colorMembersForThis, m)
				if m.end > colorLatency {
					colorLatency = m.end
				}
			}
		}

		colorGroup := b.newGroup("static_par_color", colorLatency)
		var colorAssigns []ir.Assignment
		for _, m := range colorMembersForThis {
			sg := b.comp.StaticGroup(m.group)
			for _, a := range cloneAssignments(sg.Assignments) {
				colorAssigns = append(colorAssigns, a.UpdateInterval(m.start, sg.Latency, colorLatency))
			}
		}
		b.comp.StaticGroup(colorGroup).Assignments = colorAssigns

		trigger := ir.Guarded(b.comp.StaticGroup(colorGroup).GoHole, b.constHigh(), ir.Info(0, colorLatency))
		wrapperAssigns = append(wrapperAssigns, trigger)
	}

	b.comp.StaticGroup(out).Assignments = wrapperAssigns
	return out, nil
}

// inlineIf implements §4.2's If reduction.
func (b *Builder) inlineIf(ctrl *ir.Control) (ir.StaticGroupID, error) {
	tGid, err := b.Inline(ctrl.True)
	if err != nil {
		return 0, err
	}
	fGid, err := b.Inline(ctrl.False)
	if err != nil {
		return 0, err
	}
	tSg := b.comp.StaticGroup(tGid)
	fSg := b.comp.StaticGroup(fGid)

	out := b.newGroup("static_if", ctrl.Latency)

	if ctrl.Latency == 1 {
		var acc []ir.Assignment
		for _, a := range cloneAssignments(tSg.Assignments) {
			acc = append(acc, a.WithGuard(ir.PortGuard(ctrl.Cond)))
		}
		for _, a := range cloneAssignments(fSg.Assignments) {
			acc = append(acc, a.WithGuard(ir.Not(ir.PortGuard(ctrl.Cond))))
		}
		b.comp.StaticGroup(out).Assignments = acc
		return out, nil
	}

	condCell := ir.Cell{Name: b.comp.Names().Gen("cond"), Prototype: "std_reg", Params: map[string]uint64{"WIDTH": 1}}
	condCell.Attrs.SetBool(ir.AttrGenerated)
	condID := b.comp.AddCell(condCell)
	condIn := b.comp.AddCellPort(condID, "in", ir.In, ir.Width{Fixed: 1})
	condWriteEn := b.comp.AddCellPort(condID, "write_en", ir.In, ir.Width{Fixed: 1})
	condOut := b.comp.AddCellPort(condID, "out", ir.Out, ir.Width{Fixed: 1})
	b.comp.AddCellPort(condID, "clk", ir.In, ir.Width{Fixed: 1})
	b.comp.AddCellPort(condID, "reset", ir.In, ir.Width{Fixed: 1})
	b.comp.AddCellPort(condID, "done", ir.Out, ir.Width{Fixed: 1})

	wireCell := ir.Cell{Name: b.comp.Names().Gen("cond_wire"), Prototype: "std_wire", Params: map[string]uint64{"WIDTH": 1}}
	wireCell.Attrs.SetBool(ir.AttrGenerated)
	wireID := b.comp.AddCell(wireCell)
	wireIn := b.comp.AddCellPort(wireID, "in", ir.In, ir.Width{Fixed: 1})
	wireOut := b.comp.AddCellPort(wireID, "out", ir.Out, ir.Width{Fixed: 1})

	bookkeeping := []ir.Assignment{
		ir.Guarded(wireIn, ctrl.Cond, ir.Info(0, 1)),
		ir.Guarded(condIn, ctrl.Cond, ir.Info(0, 1)),
		ir.Guarded(condWriteEn, b.constHigh(), ir.Info(0, 1)),
		ir.Guarded(wireIn, condOut, ir.Info(1, ctrl.Latency)),
	}

	var acc []ir.Assignment
	acc = append(acc, bookkeeping...)
	for _, a := range cloneAssignments(tSg.Assignments) {
		acc = append(acc, a.WithGuard(ir.And(ir.PortGuard(wireOut), ir.Info(0, tSg.Latency))))
	}
	for _, a := range cloneAssignments(fSg.Assignments) {
		acc = append(acc, a.WithGuard(ir.And(ir.Not(ir.PortGuard(wireOut)), ir.Info(0, fSg.Latency))))
	}
	b.comp.StaticGroup(out).Assignments = acc
	return out, nil
}

// inlineRepeat implements §4.2's Repeat reduction: unroll-via-trigger rather
// than a loop-back counter (see DESIGN.md's Open Question decision #2).
func (b *Builder) inlineRepeat(ctrl *ir.Control) (ir.StaticGroupID, error) {
	bodyGid, err := b.Inline(ctrl.Body)
	if err != nil {
		return 0, err
	}
	bodySg := b.comp.StaticGroup(bodyGid)
	total := ctrl.Count * bodySg.Latency

	out := b.newGroup("static_repeat", total)
	b.comp.StaticGroup(out).Assignments = []ir.Assignment{
		ir.NewAssignment(bodySg.GoHole, b.constHigh()),
	}
	return out, nil
}
