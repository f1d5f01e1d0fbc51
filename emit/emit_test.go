package emit

import (
	"strings"
	"testing"

	"github.com/sarchlab/fsmforge/ir"
	"github.com/sarchlab/fsmforge/primitives"
)

func buildRegComponent() *ir.Component {
	comp := ir.NewComponent("main")
	goPort := comp.AddSigPort("go", ir.In, ir.Width{Fixed: 1})
	comp.AddSigPort("done", ir.Out, ir.Width{Fixed: 1})
	in := comp.AddSigPort("in", ir.In, ir.Width{Fixed: 8})

	reg := comp.AddCell(ir.Cell{Name: "r", Prototype: "std_reg", Params: map[string]uint64{"WIDTH": 8}})
	regIn := comp.AddCellPort(reg, "in", ir.In, ir.Width{Fixed: 8})
	regWriteEn := comp.AddCellPort(reg, "write_en", ir.In, ir.Width{Fixed: 1})
	comp.AddCellPort(reg, "out", ir.Out, ir.Width{Fixed: 8})
	regDone := comp.AddCellPort(reg, "done", ir.Out, ir.Width{Fixed: 1})

	gid := comp.AddGroup("do_write")
	g := comp.Group(gid)
	g.Assignments = append(g.Assignments,
		ir.NewAssignment(regIn, in),
		ir.NewAssignment(regWriteEn, goPort),
		ir.NewAssignment(g.DoneHole, regDone),
	)

	comp.Continuous = append(comp.Continuous, ir.NewAssignment(g.GoHole, goPort))
	comp.Control = ir.Enable(gid)

	return comp
}

func TestFlattenPromotesGroupAssignmentsToContinuous(t *testing.T) {
	comp := buildRegComponent()
	Flatten(comp)

	if len(comp.Groups) != 0 || len(comp.StaticGroups) != 0 {
		t.Fatalf("expected groups to be cleared, got %d groups %d static groups", len(comp.Groups), len(comp.StaticGroups))
	}
	if comp.Control.Kind != ir.CEmpty {
		t.Fatalf("expected control to be emptied, got %#v", comp.Control)
	}
	if len(comp.Continuous) == 0 {
		t.Fatal("expected promoted assignments in Continuous")
	}
}

func TestEmitProducesModuleWithRegisterInstance(t *testing.T) {
	comp := buildRegComponent()
	e := NewEmitterBuilder(primitives.Default()).Build()

	var sb strings.Builder
	if err := e.Emit(comp, &sb); err != nil {
		t.Fatalf("emit: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"module main(",
		"// COMPONENT START: main",
		"std_reg #(",
		") r (",
		"assign r_in = in;",
		"// COMPONENT END: main",
		"endmodule",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestEmitFlipsSignatureDirection(t *testing.T) {
	comp := buildRegComponent()
	e := NewEmitterBuilder(primitives.Default()).Build()

	var sb strings.Builder
	if err := e.Emit(comp, &sb); err != nil {
		t.Fatalf("emit: %v", err)
	}
	out := sb.String()

	if !strings.Contains(out, "output logic go") {
		t.Fatalf("expected the In signature port go to be flipped to output, got:\n%s", out)
	}
	if !strings.Contains(out, "input logic done") {
		t.Fatalf("expected the Out signature port done to be flipped to input, got:\n%s", out)
	}
}
