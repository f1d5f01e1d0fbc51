package dynfsm

import "github.com/sarchlab/fsmforge/ir"

// lowerControl rewrites every Repeat and Invoke reachable from con (bottom
// up) into constructs calculateStatesRecur already understands: Repeat
// becomes a counter-bounded While, Invoke becomes an Enable of a synthesized
// group that drives the invoked cell's go/done and port bindings. Both
// lowerings mirror how Calyx's CompileRepeat/CompileInvoke passes run ahead
// of top_down_compile_control.
func lowerControl(comp *ir.Component, con *ir.Control) (*ir.Control, error) {
	switch con.Kind {
	case ir.CEmpty, ir.CEnable, ir.CStaticEnable:
		return con, nil
	case ir.CSeq, ir.CPar:
		for i, stmt := range con.Stmts {
			lowered, err := lowerControl(comp, stmt)
			if err != nil {
				return nil, err
			}
			con.Stmts[i] = lowered
		}
		return con, nil
	case ir.CIf:
		t, err := lowerControl(comp, con.True)
		if err != nil {
			return nil, err
		}
		f, err := lowerControl(comp, con.False)
		if err != nil {
			return nil, err
		}
		con.True, con.False = t, f
		return con, nil
	case ir.CWhile:
		body, err := lowerControl(comp, con.Body)
		if err != nil {
			return nil, err
		}
		con.Body = body
		return con, nil
	case ir.CRepeat:
		body, err := lowerControl(comp, con.Body)
		if err != nil {
			return nil, err
		}
		return lowerRepeat(comp, con.Count, body), nil
	case ir.CInvoke:
		return lowerInvoke(comp, con), nil
	default:
		return con, nil
	}
}

// lowerRepeat builds "counter := 0; while counter < n { body; counter++ }"
// out of a generated counter register, an adder, and a less-than
// comparator, and returns the equivalent Seq of the reset group and While.
func lowerRepeat(comp *ir.Component, n int, body *ir.Control) *ir.Control {
	width := bitWidthFrom(uint64(n) + 1)

	counterCell := comp.AddCell(ir.Cell{Name: comp.Names().Gen("repeat_counter"), Prototype: "std_reg", Params: map[string]uint64{"WIDTH": width}})
	comp.Cell(counterCell).Attrs.SetBool(ir.AttrGenerated)
	counterIn := comp.AddCellPort(counterCell, "in", ir.In, ir.Width{Fixed: width})
	counterWriteEn := comp.AddCellPort(counterCell, "write_en", ir.In, ir.Width{Fixed: 1})
	counterOut := comp.AddCellPort(counterCell, "out", ir.Out, ir.Width{Fixed: width})

	addCell := comp.AddCell(ir.Cell{Name: comp.Names().Gen("repeat_add"), Prototype: "std_add", Params: map[string]uint64{"WIDTH": width}})
	comp.Cell(addCell).Attrs.SetBool(ir.AttrGenerated)
	addLeft := comp.AddCellPort(addCell, "left", ir.In, ir.Width{Fixed: width})
	addRight := comp.AddCellPort(addCell, "right", ir.In, ir.Width{Fixed: width})
	addOut := comp.AddCellPort(addCell, "out", ir.Out, ir.Width{Fixed: width})

	oneConst := comp.AddCell(ir.Cell{Name: comp.Names().Gen("repeat_one"), Prototype: "std_const", Params: map[string]uint64{"WIDTH": width, "VALUE": 1}})
	comp.Cell(oneConst).Attrs.SetBool(ir.AttrGenerated)
	oneOut := comp.AddCellPort(oneConst, "out", ir.Out, ir.Width{Fixed: width})

	nConst := comp.AddCell(ir.Cell{Name: comp.Names().Gen("repeat_bound"), Prototype: "std_const", Params: map[string]uint64{"WIDTH": width, "VALUE": uint64(n)}})
	comp.Cell(nConst).Attrs.SetBool(ir.AttrGenerated)
	nOut := comp.AddCellPort(nConst, "out", ir.Out, ir.Width{Fixed: width})

	ltCell := comp.AddCell(ir.Cell{Name: comp.Names().Gen("repeat_lt"), Prototype: "std_lt", Params: map[string]uint64{"WIDTH": width}})
	comp.Cell(ltCell).Attrs.SetBool(ir.AttrGenerated)
	ltLeft := comp.AddCellPort(ltCell, "left", ir.In, ir.Width{Fixed: width})
	ltRight := comp.AddCellPort(ltCell, "right", ir.In, ir.Width{Fixed: width})
	ltOut := comp.AddCellPort(ltCell, "out", ir.Out, ir.Width{Fixed: 1})

	incrGroup := comp.AddGroup(comp.Names().Gen("repeat_incr"))
	ig := comp.Group(incrGroup)
	signalOn := comp.AddCell(ir.Cell{Name: comp.Names().Gen("signal_on"), Prototype: "std_const", Params: map[string]uint64{"WIDTH": 1, "VALUE": 1}})
	comp.Cell(signalOn).Attrs.SetBool(ir.AttrGenerated)
	signalOnOut := comp.AddCellPort(signalOn, "out", ir.Out, ir.Width{Fixed: 1})
	ig.Assignments = []ir.Assignment{
		ir.NewAssignment(addLeft, counterOut),
		ir.NewAssignment(addRight, oneOut),
		ir.Guarded(counterIn, addOut, ir.True()),
		ir.Guarded(counterWriteEn, signalOnOut, ir.True()),
		ir.Guarded(ig.DoneHole, signalOnOut, ir.True()),
	}

	zeroConst := comp.AddCell(ir.Cell{Name: comp.Names().Gen("repeat_zero"), Prototype: "std_const", Params: map[string]uint64{"WIDTH": width, "VALUE": 0}})
	comp.Cell(zeroConst).Attrs.SetBool(ir.AttrGenerated)
	zeroOut := comp.AddCellPort(zeroConst, "out", ir.Out, ir.Width{Fixed: width})
	initGroup := comp.AddGroup(comp.Names().Gen("repeat_init"))
	initG := comp.Group(initGroup)
	initG.Assignments = []ir.Assignment{
		ir.Guarded(counterIn, zeroOut, ir.True()),
		ir.Guarded(counterWriteEn, signalOnOut, ir.True()),
		ir.Guarded(initG.DoneHole, signalOnOut, ir.True()),
	}

	comp.Continuous = append(comp.Continuous,
		ir.NewAssignment(ltLeft, counterOut),
		ir.NewAssignment(ltRight, nOut),
	)

	return ir.Seq(ir.Enable(initGroup), ir.While(ltOut, ir.Seq(body, ir.Enable(incrGroup))))
}

// lowerInvoke synthesizes a group that drives the invoked cell's go/done and
// its bound input/output ports, and returns an Enable of it.
func lowerInvoke(comp *ir.Component, inv *ir.Control) *ir.Control {
	group := comp.AddGroup(comp.Names().Gen("invoke"))
	g := comp.Group(group)

	goPort, hasGo := comp.CellPort(inv.Cell, "go")
	donePort, hasDone := comp.CellPort(inv.Cell, "done")

	signalOn := comp.AddCell(ir.Cell{Name: comp.Names().Gen("signal_on"), Prototype: "std_const", Params: map[string]uint64{"WIDTH": 1, "VALUE": 1}})
	comp.Cell(signalOn).Attrs.SetBool(ir.AttrGenerated)
	one := comp.AddCellPort(signalOn, "out", ir.Out, ir.Width{Fixed: 1})

	for _, in := range inv.Inputs {
		g.Assignments = append(g.Assignments, ir.NewAssignment(in.CellPort, in.Value))
	}
	for _, out := range inv.Outputs {
		g.Assignments = append(g.Assignments, ir.NewAssignment(out.Value, out.CellPort))
	}

	if hasGo {
		if hasDone {
			g.Assignments = append(g.Assignments, ir.Guarded(goPort, one, ir.Not(ir.PortGuard(donePort))))
			g.Assignments = append(g.Assignments, ir.Guarded(g.DoneHole, one, ir.PortGuard(donePort)))
		} else {
			g.Assignments = append(g.Assignments, ir.NewAssignment(goPort, one))
			g.Assignments = append(g.Assignments, ir.Guarded(g.DoneHole, one, ir.True()))
		}
	} else {
		g.Assignments = append(g.Assignments, ir.Guarded(g.DoneHole, one, ir.True()))
	}

	return ir.Enable(group)
}
