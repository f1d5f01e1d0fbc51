package dynfsm

import "github.com/sarchlab/fsmforge/ir"

// WrapStaticIsland turns an already-scheduled static island (its
// assignments rewritten by staticsched, so they read its shared counter
// instead of carrying raw Info guards) into an ordinary dynamic group: the
// wrapper's go hole forwards into the island's go hole, and doneGuard (the
// island counter's QueryBetween(latency-1, latency), per §4.3) drives the
// wrapper's done hole. The driver is expected to call this for every
// CStaticEnable leaf reachable from a dynamic control tree before handing
// that tree to CompileControl, matching Calyx's precondition that no
// Control::Static node survives into its top-down compiler.
func WrapStaticIsland(comp *ir.Component, sg ir.StaticGroupID, doneGuard *ir.Guard) ir.GroupID {
	wrapper := comp.AddGroup(comp.Names().Gen(comp.StaticGroup(sg).Name + "_wrapper"))
	wg := comp.Group(wrapper)

	cid := comp.AddCell(ir.Cell{Name: comp.Names().Gen("signal_on"), Prototype: "std_const", Params: map[string]uint64{"WIDTH": 1, "VALUE": 1}})
	comp.Cell(cid).Attrs.SetBool(ir.AttrGenerated)
	one := comp.AddCellPort(cid, "out", ir.Out, ir.Width{Fixed: 1})

	wg.Assignments = []ir.Assignment{
		ir.Guarded(comp.StaticGroup(sg).GoHole, one, ir.PortGuard(wg.GoHole)),
		ir.Guarded(wg.DoneHole, one, doneGuard),
	}
	return wrapper
}

// ReplaceStaticEnables rewrites every CStaticEnable leaf in con into a
// CEnable of its WrapStaticIsland wrapper, given a done guard for each
// static group (typically the shared StaticFSM's final-cycle range query).
func ReplaceStaticEnables(comp *ir.Component, con *ir.Control, doneGuards map[ir.StaticGroupID]*ir.Guard) *ir.Control {
	switch con.Kind {
	case ir.CStaticEnable:
		wrapper := WrapStaticIsland(comp, con.StaticGroup, doneGuards[con.StaticGroup])
		return ir.Enable(wrapper)
	case ir.CSeq, ir.CPar:
		for i, stmt := range con.Stmts {
			con.Stmts[i] = ReplaceStaticEnables(comp, stmt, doneGuards)
		}
		return con
	case ir.CIf:
		con.True = ReplaceStaticEnables(comp, con.True, doneGuards)
		con.False = ReplaceStaticEnables(comp, con.False, doneGuards)
		return con
	case ir.CWhile:
		con.Body = ReplaceStaticEnables(comp, con.Body, doneGuards)
		return con
	case ir.CRepeat:
		con.Body = ReplaceStaticEnables(comp, con.Body, doneGuards)
		return con
	default:
		return con
	}
}
