package validate

import (
	"testing"

	"github.com/sarchlab/fsmforge/ir"
	"github.com/sarchlab/fsmforge/primitives"
)

func mkRegCell(comp *ir.Component, name string) ir.CellID {
	cid := comp.AddCell(ir.Cell{Name: name, Prototype: "std_reg", Params: map[string]uint64{"WIDTH": 8}})
	comp.AddCellPort(cid, "in", ir.In, ir.Width{Fixed: 8})
	comp.AddCellPort(cid, "write_en", ir.In, ir.Width{Fixed: 1})
	comp.AddCellPort(cid, "out", ir.Out, ir.Width{Fixed: 8})
	comp.AddCellPort(cid, "done", ir.Out, ir.Width{Fixed: 1})
	return cid
}

func TestCheckPrototypesDefinedFlagsUnknown(t *testing.T) {
	comp := ir.NewComponent("c")
	comp.AddCell(ir.Cell{Name: "mystery", Prototype: "std_wombat"})

	checker := NewChecker(primitives.Default(), map[string]*ir.Component{"c": comp})
	issues := checker.checkPrototypesDefined(comp)
	if len(issues) != 1 || issues[0].Type != IssueUndefinedReference {
		t.Fatalf("expected one undefined-reference issue, got %#v", issues)
	}
}

func TestCheckPrototypesDefinedAcceptsKnownPrimitiveAndSibling(t *testing.T) {
	comp := ir.NewComponent("c")
	mkRegCell(comp, "r")
	sub := ir.NewComponent("helper")
	comp.AddCell(ir.Cell{Name: "h", Prototype: "helper"})

	checker := NewChecker(primitives.Default(), map[string]*ir.Component{"c": comp, "helper": sub})
	issues := checker.checkPrototypesDefined(comp)
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %#v", issues)
	}
}

func TestCheckGroupDoneHolesRequiresExactlyOneDriver(t *testing.T) {
	comp := ir.NewComponent("c")
	reg := mkRegCell(comp, "r")
	regOut, _ := comp.CellPort(reg, "out")
	regIn, _ := comp.CellPort(reg, "in")

	noDone := comp.AddGroup("no_done")
	_ = noDone

	oneDone := comp.AddGroup("one_done")
	g := comp.Group(oneDone)
	g.Assignments = append(g.Assignments, ir.NewAssignment(g.DoneHole, regOut))

	twoDone := comp.AddGroup("two_done")
	g2 := comp.Group(twoDone)
	g2.Assignments = append(g2.Assignments,
		ir.NewAssignment(g2.DoneHole, regOut),
		ir.NewAssignment(g2.DoneHole, regIn),
	)

	checker := NewChecker(primitives.Default(), map[string]*ir.Component{"c": comp})
	issues := checker.checkGroupDoneHoles(comp)

	var messages []string
	for _, iss := range issues {
		messages = append(messages, iss.Message)
	}
	if len(issues) != 2 {
		t.Fatalf("expected exactly 2 issues (missing + duplicate), got %v", messages)
	}
}

func TestCheckStaticIntervalsInRangeFlagsOutOfBounds(t *testing.T) {
	comp := ir.NewComponent("c")
	out := comp.AddSigPort("o", ir.Out, ir.Width{Fixed: 1})
	one := comp.AddSigPort("one", ir.In, ir.Width{Fixed: 1})
	sg := comp.AddStaticGroup("s", 2)
	comp.StaticGroup(sg).Assignments = []ir.Assignment{
		ir.Guarded(out, one, ir.Info(1, 3)),
	}

	checker := NewChecker(primitives.Default(), map[string]*ir.Component{"c": comp})
	issues := checker.checkStaticIntervalsInRange(comp)
	if len(issues) != 1 {
		t.Fatalf("expected one out-of-range issue, got %#v", issues)
	}
}

func TestCheckConditionStabilityWarnsWithoutStableOrWith(t *testing.T) {
	comp := ir.NewComponent("c")
	reg := mkRegCell(comp, "r")
	condPort, _ := comp.CellPort(reg, "out")

	thenGroup := comp.AddGroup("then")
	comp.Control = ir.If(condPort, ir.Enable(thenGroup), nil)

	checker := NewChecker(primitives.Default(), map[string]*ir.Component{"c": comp})
	issues := checker.checkConditionStability(comp)
	if len(issues) != 1 || issues[0].Type != IssueWarning {
		t.Fatalf("expected one warning, got %#v", issues)
	}
}

func TestCheckConditionStabilitySilentWhenStable(t *testing.T) {
	comp := ir.NewComponent("c")
	reg := mkRegCell(comp, "r")
	comp.Cell(reg).Attrs.SetBool(ir.AttrStable)
	condPort, _ := comp.CellPort(reg, "out")

	thenGroup := comp.AddGroup("then")
	comp.Control = ir.If(condPort, ir.Enable(thenGroup), nil)

	checker := NewChecker(primitives.Default(), map[string]*ir.Component{"c": comp})
	issues := checker.checkConditionStability(comp)
	if len(issues) != 0 {
		t.Fatalf("expected no warnings, got %#v", issues)
	}
}

func TestCheckFastSeqAlternationFlagsConsecutiveSameKind(t *testing.T) {
	comp := ir.NewComponent("c")
	g1 := comp.AddGroup("g1")
	g2 := comp.AddGroup("g2")
	seq := ir.Seq(ir.Enable(g1), ir.Enable(g2))
	seq.Attrs.SetBool(ir.AttrFast)
	comp.Control = seq

	checker := NewChecker(primitives.Default(), map[string]*ir.Component{"c": comp})
	issues := checker.checkFastSeqAlternation(comp)
	if len(issues) != 1 || issues[0].Type != IssueMalformedControl {
		t.Fatalf("expected one malformed-control issue, got %#v", issues)
	}
}

func TestCheckEntrypointExists(t *testing.T) {
	noMain := ir.NewComponent("helper")
	issues := checkEntrypointExists([]*ir.Component{noMain})
	if len(issues) != 1 {
		t.Fatalf("expected missing-entrypoint issue, got %#v", issues)
	}

	main := ir.NewComponent("main")
	issues = checkEntrypointExists([]*ir.Component{noMain, main})
	if len(issues) != 0 {
		t.Fatalf("expected no issues once a main component exists, got %#v", issues)
	}

	toplevel := ir.NewComponent("whatever")
	toplevel.Attrs.SetBool(ir.AttrToplevel)
	issues = checkEntrypointExists([]*ir.Component{main, toplevel})
	if len(issues) != 1 {
		t.Fatalf("expected duplicate-entrypoint issue when two candidates exist, got %#v", issues)
	}
}

func TestValidateProgramAccumulatesAcrossComponents(t *testing.T) {
	a := ir.NewComponent("a")
	a.AddCell(ir.Cell{Name: "bad", Prototype: "no_such_prim"})
	b := ir.NewComponent("main")

	checker := NewChecker(primitives.Default(), map[string]*ir.Component{"a": a, "main": b})
	issues := checker.ValidateProgram([]*ir.Component{a, b})

	found := false
	for _, iss := range issues {
		if iss.Type == IssueUndefinedReference && iss.Component == "a" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the undefined-prototype issue from component a to surface, got %#v", issues)
	}
}
