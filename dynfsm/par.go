package dynfsm

import "github.com/sarchlab/fsmforge/ir"

// CompilePar lowers one dynamic Par node into a single wrapper group: each
// arm gets its own independent schedule (so arms make progress without
// interlocking on a shared counter), gated by a one-bit "done latch" per arm;
// the wrapper's done is the AND of every latch, and the latches self-clear
// once all arms have finished.
func CompilePar(comp *ir.Component, par *ir.Control, earlyTransitions bool) (ir.GroupID, error) {
	wrapper := comp.AddGroup(comp.Names().Gen("par"))
	wg := comp.Group(wrapper)

	one := comp.AddCell(ir.Cell{Name: comp.Names().Gen("signal_on"), Prototype: "std_const", Params: map[string]uint64{"WIDTH": 1, "VALUE": 1}})
	comp.Cell(one).Attrs.SetBool(ir.AttrGenerated)
	signalOn := comp.AddCellPort(one, "out", ir.Out, ir.Width{Fixed: 1})

	zero := comp.AddCell(ir.Cell{Name: comp.Names().Gen("signal_off"), Prototype: "std_const", Params: map[string]uint64{"WIDTH": 1, "VALUE": 0}})
	comp.Cell(zero).Attrs.SetBool(ir.AttrGenerated)
	signalOff := comp.AddCellPort(zero, "out", ir.Out, ir.Width{Fixed: 1})

	type armDone struct {
		reg ir.CellID
		in  ir.PortID
		we  ir.PortID
		out ir.PortID
	}
	var dones []armDone

	for _, child := range par.Stmts {
		var childGroup ir.GroupID
		if child.Kind == ir.CEnable {
			childGroup = child.Group
		} else {
			var err error
			childGroup, err = CompileControl(comp, child, earlyTransitions)
			if err != nil {
				return 0, err
			}
		}
		cg := comp.Group(childGroup)

		pd := comp.AddCell(ir.Cell{Name: comp.Names().Gen("pd"), Prototype: "std_reg", Params: map[string]uint64{"WIDTH": 1}})
		comp.Cell(pd).Attrs.SetBool(ir.AttrGenerated)
		pdIn := comp.AddCellPort(pd, "in", ir.In, ir.Width{Fixed: 1})
		pdWriteEn := comp.AddCellPort(pd, "write_en", ir.In, ir.Width{Fixed: 1})
		pdOut := comp.AddCellPort(pd, "out", ir.Out, ir.Width{Fixed: 1})

		groupGo := ir.Not(ir.Or(ir.PortGuard(pdOut), ir.PortGuard(cg.DoneHole)))
		groupDone := ir.PortGuard(cg.DoneHole)

		wg.Assignments = append(wg.Assignments,
			ir.Guarded(cg.GoHole, signalOn, groupGo),
			ir.Guarded(pdIn, signalOn, groupDone),
			ir.Guarded(pdWriteEn, signalOn, groupDone),
		)
		dones = append(dones, armDone{reg: pd, in: pdIn, we: pdWriteEn, out: pdOut})
	}

	doneGuard := ir.True()
	for _, d := range dones {
		doneGuard = ir.And(doneGuard, ir.PortGuard(d.out))
	}
	wg.Assignments = append(wg.Assignments, ir.Guarded(wg.DoneHole, signalOn, doneGuard))

	for _, d := range dones {
		comp.Continuous = append(comp.Continuous,
			ir.Guarded(d.in, signalOff, doneGuard),
			ir.Guarded(d.we, signalOn, doneGuard),
		)
	}

	return wrapper, nil
}

// compileParsBottomUp rewrites every Par reachable from con (innermost
// first) into an Enable of its CompilePar wrapper group, so the top-level
// schedule walk never has to handle Par directly.
func compileParsBottomUp(comp *ir.Component, con *ir.Control, earlyTransitions bool) (*ir.Control, error) {
	switch con.Kind {
	case ir.CEmpty, ir.CEnable, ir.CStaticEnable:
		return con, nil
	case ir.CSeq:
		for i, stmt := range con.Stmts {
			rewritten, err := compileParsBottomUp(comp, stmt, earlyTransitions)
			if err != nil {
				return nil, err
			}
			con.Stmts[i] = rewritten
		}
		return con, nil
	case ir.CIf:
		t, err := compileParsBottomUp(comp, con.True, earlyTransitions)
		if err != nil {
			return nil, err
		}
		f, err := compileParsBottomUp(comp, con.False, earlyTransitions)
		if err != nil {
			return nil, err
		}
		con.True, con.False = t, f
		return con, nil
	case ir.CWhile:
		body, err := compileParsBottomUp(comp, con.Body, earlyTransitions)
		if err != nil {
			return nil, err
		}
		con.Body = body
		return con, nil
	case ir.CPar:
		for i, stmt := range con.Stmts {
			rewritten, err := compileParsBottomUp(comp, stmt, earlyTransitions)
			if err != nil {
				return nil, err
			}
			con.Stmts[i] = rewritten
		}
		group, err := CompilePar(comp, con, earlyTransitions)
		if err != nil {
			return nil, err
		}
		return ir.Enable(group), nil
	default:
		return con, nil
	}
}

// CompileControl is the top-level dynfsm entry point for one control
// subtree: it decomposes nested Par into independent schedules, numbers the
// remaining nodes, walks the predecessor-edge schedule, and realizes it into
// a single enable-bearing group.
func CompileControl(comp *ir.Component, con *ir.Control, earlyTransitions bool) (ir.GroupID, error) {
	lowered, err := lowerControl(comp, con)
	if err != nil {
		return 0, err
	}
	rewritten, err := compileParsBottomUp(comp, lowered, earlyTransitions)
	if err != nil {
		return 0, err
	}
	if rewritten.Kind == ir.CEnable {
		return rewritten.Group, nil
	}

	AssignNodeIDs(rewritten, 0)
	sched := NewSchedule(comp, earlyTransitions)
	if err := sched.calculateStates(rewritten); err != nil {
		return 0, err
	}
	return sched.RealizeSchedule("tdcc")
}
