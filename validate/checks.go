package validate

import (
	"fmt"

	"github.com/sarchlab/fsmforge/ir"
)

// checkPrototypesDefined verifies every cell's Prototype names either a
// known primitive or a sibling component.
func (c *Checker) checkPrototypesDefined(comp *ir.Component) []Issue {
	var issues []Issue
	for _, cell := range comp.Cells {
		if _, ok := c.Primitives.Lookup(cell.Prototype); ok {
			continue
		}
		if _, ok := c.Components[cell.Prototype]; ok {
			continue
		}
		issues = append(issues, Issue{
			Type:      IssueUndefinedReference,
			Component: comp.Name,
			Message:   fmt.Sprintf("cell %q has undefined prototype %q", cell.Name, cell.Prototype),
			Details:   map[string]interface{}{"cell": cell.Name, "prototype": cell.Prototype},
		})
	}
	return issues
}

// checkGroupDoneHoles verifies every dynamic group has exactly one
// non-constant done driver.
func (c *Checker) checkGroupDoneHoles(comp *ir.Component) []Issue {
	var issues []Issue
	for _, g := range comp.Groups {
		drivers := 0
		constDriven := false
		for _, a := range g.Assignments {
			if a.Dst != g.DoneHole {
				continue
			}
			drivers++
			if srcPort := comp.Port(a.Src); srcPort.Owner == ir.OwnerCell {
				if cell := comp.Cell(srcPort.OwnerCell); cell.Prototype == "std_const" {
					constDriven = true
				}
			}
		}
		if drivers == 0 {
			issues = append(issues, Issue{
				Type:      IssueMalformedStructure,
				Component: comp.Name,
				Message:   fmt.Sprintf("group %q has no done driver", g.Name),
				Details:   map[string]interface{}{"group": g.Name},
			})
		} else if drivers > 1 {
			issues = append(issues, Issue{
				Type:      IssueMalformedStructure,
				Component: comp.Name,
				Message:   fmt.Sprintf("group %q has %d done drivers, expected exactly one", g.Name, drivers),
				Details:   map[string]interface{}{"group": g.Name, "count": drivers},
			})
		} else if constDriven {
			issues = append(issues, Issue{
				Type:      IssueMalformedStructure,
				Component: comp.Name,
				Message:   fmt.Sprintf("group %q's done hole is driven by a constant", g.Name),
				Details:   map[string]interface{}{"group": g.Name},
			})
		}
	}
	return issues
}

// checkDynamicWritesToStaticCells verifies no dynamic group's assignment
// writes into the port of a cell instantiating a static sub-component.
func (c *Checker) checkDynamicWritesToStaticCells(comp *ir.Component) []Issue {
	var issues []Issue
	for _, g := range comp.Groups {
		for _, a := range g.Assignments {
			dst := comp.Port(a.Dst)
			if dst.Owner != ir.OwnerCell {
				continue
			}
			cell := comp.Cell(dst.OwnerCell)
			target, ok := c.Components[cell.Prototype]
			if !ok || target.Kind != ir.Static {
				continue
			}
			issues = append(issues, Issue{
				Type:      IssueMalformedStructure,
				Component: comp.Name,
				Message:   fmt.Sprintf("dynamic group %q writes port %q of static cell %q", g.Name, dst.Name, cell.Name),
				Details:   map[string]interface{}{"group": g.Name, "cell": cell.Name, "port": dst.Name},
			})
		}
	}
	return issues
}

// checkStaticIntervalsInRange verifies every GuardInfo(lo,hi) inside a
// static group's assignments stays within that group's declared latency.
func (c *Checker) checkStaticIntervalsInRange(comp *ir.Component) []Issue {
	var issues []Issue
	for _, sg := range comp.StaticGroups {
		for _, a := range sg.Assignments {
			_ = a.Guard.CheckForEachInfo(func(lo, hi int) error {
				if lo < 0 || hi > sg.Latency {
					issues = append(issues, Issue{
						Type:      IssueMalformedStructure,
						Component: comp.Name,
						Message: fmt.Sprintf("static group %q has an out-of-range guard interval [%d,%d) against latency %d",
							sg.Name, lo, hi, sg.Latency),
						Details: map[string]interface{}{"group": sg.Name, "lo": lo, "hi": hi, "latency": sg.Latency},
					})
				}
				return nil
			})
		}
	}
	return issues
}

// checkConditionStability walks the control tree and warns when an if/while
// condition lacks a with-group and its source cell isn't marked @stable.
func (c *Checker) checkConditionStability(comp *ir.Component) []Issue {
	var issues []Issue
	var walk func(con *ir.Control)
	walk = func(con *ir.Control) {
		if con == nil {
			return
		}
		switch con.Kind {
		case ir.CIf, ir.CStaticIf, ir.CWhile:
			if !con.HasWith {
				if p := comp.Port(con.Cond); p.Owner == ir.OwnerCell {
					cell := comp.Cell(p.OwnerCell)
					if !cell.Attrs.Has(ir.AttrStable) {
						issues = append(issues, Issue{
							Type:      IssueWarning,
							Component: comp.Name,
							Message:   fmt.Sprintf("condition port %q has no with-group and its cell %q isn't @stable", p.Name, cell.Name),
							Details:   map[string]interface{}{"cell": cell.Name, "port": p.Name},
						})
					}
				}
			}
			walk(con.True)
			walk(con.False)
			if con.Kind == ir.CWhile {
				walk(con.Body)
			}
		case ir.CSeq, ir.CStaticSeq, ir.CPar, ir.CStaticPar:
			for _, s := range con.Stmts {
				walk(s)
			}
		case ir.CRepeat, ir.CStaticRepeat:
			walk(con.Body)
		}
	}
	walk(comp.Control)
	return issues
}

// checkFastSeqAlternation verifies a @fast seq's children strictly
// alternate static and dynamic control.
func (c *Checker) checkFastSeqAlternation(comp *ir.Component) []Issue {
	var issues []Issue
	var walk func(con *ir.Control)
	walk = func(con *ir.Control) {
		if con == nil {
			return
		}
		switch con.Kind {
		case ir.CSeq:
			if con.Attrs.Has(ir.AttrFast) {
				for i := 1; i < len(con.Stmts); i++ {
					if con.Stmts[i-1].Kind.IsStatic() == con.Stmts[i].Kind.IsStatic() {
						issues = append(issues, Issue{
							Type:      IssueMalformedControl,
							Component: comp.Name,
							Message:   "a @fast seq's children must strictly alternate static and dynamic control",
							Details:   map[string]interface{}{"index": i},
						})
					}
				}
			}
			for _, s := range con.Stmts {
				walk(s)
			}
		case ir.CStaticSeq, ir.CPar, ir.CStaticPar:
			for _, s := range con.Stmts {
				walk(s)
			}
		case ir.CIf, ir.CStaticIf:
			walk(con.True)
			walk(con.False)
		case ir.CWhile:
			walk(con.Body)
		case ir.CRepeat, ir.CStaticRepeat:
			walk(con.Body)
		}
	}
	walk(comp.Control)
	return issues
}

// checkRefBindings verifies every invoke site's RefBinds covers exactly the
// invoked component's declared ref cells, and that each bound actual cell is
// port-for-port compatible with its formal.
func (c *Checker) checkRefBindings(comp *ir.Component) []Issue {
	var issues []Issue
	var walk func(con *ir.Control)
	walk = func(con *ir.Control) {
		if con == nil {
			return
		}
		switch con.Kind {
		case ir.CInvoke, ir.CStaticInvoke:
			cell := comp.Cell(con.Cell)
			target, ok := c.Components[cell.Prototype]
			if !ok {
				return
			}
			declared := map[ir.CellID]bool{}
			for i, tc := range target.Cells {
				if tc.Ref {
					declared[ir.CellID(i)] = true
				}
			}
			bound := map[ir.CellID]bool{}
			for _, rb := range con.RefBinds {
				bound[rb.Formal] = true
			}
			for formal := range declared {
				if !bound[formal] {
					issues = append(issues, Issue{
						Type:      IssueMalformedStructure,
						Component: comp.Name,
						Message:   fmt.Sprintf("invoke of %q is missing a binding for ref cell %q", cell.Name, target.Cells[formal].Name),
						Details:   map[string]interface{}{"cell": cell.Name, "ref": target.Cells[formal].Name},
					})
				}
			}
			for formal := range bound {
				if !declared[formal] {
					issues = append(issues, Issue{
						Type:      IssueMalformedStructure,
						Component: comp.Name,
						Message:   fmt.Sprintf("invoke of %q binds a ref cell that isn't declared", cell.Name),
						Details:   map[string]interface{}{"cell": cell.Name},
					})
				}
			}
			for _, rb := range con.RefBinds {
				issues = append(issues, c.checkRefSubtype(comp, target, rb)...)
			}
			return
		case ir.CSeq, ir.CStaticSeq, ir.CPar, ir.CStaticPar:
			for _, s := range con.Stmts {
				walk(s)
			}
		case ir.CIf, ir.CStaticIf:
			walk(con.True)
			walk(con.False)
		case ir.CWhile:
			walk(con.Body)
		case ir.CRepeat, ir.CStaticRepeat:
			walk(con.Body)
		}
	}
	walk(comp.Control)
	return issues
}

func (c *Checker) checkRefSubtype(comp, target *ir.Component, rb ir.RefBinding) []Issue {
	var issues []Issue
	if int(rb.Formal) >= len(target.Cells) || int(rb.Actual) >= len(comp.Cells) {
		return issues
	}
	formalCell := target.Cells[rb.Formal]
	actualCell := comp.Cells[rb.Actual]
	for _, fpid := range formalCell.Ports {
		fp := target.Port(fpid)
		apid, ok := comp.CellPort(rb.Actual, fp.Name)
		if !ok {
			issues = append(issues, Issue{
				Type:      IssueMalformedStructure,
				Component: comp.Name,
				Message:   fmt.Sprintf("ref cell %q bound to %q is missing port %q", formalCell.Name, actualCell.Name, fp.Name),
				Details:   map[string]interface{}{"ref": formalCell.Name, "actual": actualCell.Name, "port": fp.Name},
			})
			continue
		}
		ap := comp.Port(apid)
		if ap.Direction != fp.Direction || (!fp.Width.IsParam() && !ap.Width.IsParam() && fp.Width.Fixed != ap.Width.Fixed) {
			issues = append(issues, Issue{
				Type:      IssueMalformedStructure,
				Component: comp.Name,
				Message: fmt.Sprintf("ref cell %q bound to %q: port %q isn't subtype-compatible (direction/width mismatch)",
					formalCell.Name, actualCell.Name, fp.Name),
				Details: map[string]interface{}{"ref": formalCell.Name, "actual": actualCell.Name, "port": fp.Name},
			})
		}
	}
	return issues
}

// checkGoIntervalMatchesLatency verifies an @interval(n) recorded on a cell
// instantiating a static component (Port carries no Attrs of its own, so the
// interval is attached to the instantiating cell) matches that component's
// declared static latency.
func (c *Checker) checkGoIntervalMatchesLatency(comp *ir.Component) []Issue {
	var issues []Issue
	for _, cell := range comp.Cells {
		n, ok := cell.Attrs.Num(ir.AttrInterval)
		if !ok {
			continue
		}
		target, ok := c.Components[cell.Prototype]
		if !ok || target.Kind != ir.Static {
			continue
		}
		if n != target.Latency {
			issues = append(issues, Issue{
				Type:      IssueMalformedStructure,
				Component: comp.Name,
				Message:   fmt.Sprintf("cell %q's @interval(%d) doesn't match %q's static latency %d", cell.Name, n, target.Name, target.Latency),
				Details:   map[string]interface{}{"cell": cell.Name, "interval": n, "latency": target.Latency},
			})
		}
	}
	return issues
}

// checkEntrypointExists verifies exactly one component in the program is the
// entrypoint: tagged @toplevel, or named "main".
func checkEntrypointExists(comps []*ir.Component) []Issue {
	count := 0
	for _, comp := range comps {
		if comp.Attrs.Has(ir.AttrToplevel) || comp.Name == "main" {
			count++
		}
	}
	if count == 0 {
		return []Issue{{
			Type:    IssueUndefinedReference,
			Message: `no entrypoint component found (expected @toplevel or a component named "main")`,
		}}
	}
	if count > 1 {
		return []Issue{{
			Type:    IssueDuplicateBinding,
			Message: fmt.Sprintf("found %d entrypoint candidates, expected exactly one", count),
		}}
	}
	return nil
}
