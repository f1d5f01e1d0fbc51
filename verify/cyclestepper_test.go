package verify_test

import (
	"strings"
	"testing"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/fsmforge/ir"
	"github.com/sarchlab/fsmforge/verify"
)

func buildCounterComponent() *ir.Component {
	comp := ir.NewComponent("counter_comp")
	comp.AddCell(ir.Cell{
		Name:      "counter",
		Prototype: "std_reg",
		Params:    map[string]uint64{"WIDTH": 8},
	})
	return comp
}

func TestCycleStepperAdvancesRegistersOnEveryTick(t *testing.T) {
	comp := buildCounterComponent()
	engine := sim.NewSerialEngine()

	stim := func(cycle int, regs *verify.RegisterModel) map[string]uint64 {
		return map[string]uint64{"counter": uint64(cycle + 1)}
	}

	stepper := verify.NewCycleStepper("stepper", engine, 1*sim.GHz, comp, stim, 5)
	trace, err := stepper.Run()
	if err != nil {
		t.Fatalf("Run returned an error: %v", err)
	}

	if len(trace.Snapshots) != 5 {
		t.Fatalf("expected 5 recorded cycles, got %d", len(trace.Snapshots))
	}
	for i, snap := range trace.Snapshots {
		if snap["counter"] != uint64(i) {
			t.Errorf("cycle %d: counter = %d, want %d", i, snap["counter"], i)
		}
	}
	if stepper.Cycle() != 5 {
		t.Errorf("Cycle() = %d, want 5", stepper.Cycle())
	}
}

func TestRegisterModelGetPanicsOnUnknownCell(t *testing.T) {
	comp := buildCounterComponent()
	regs := verify.NewRegisterModel(comp)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected Get to panic for a non-register cell name")
		}
	}()
	regs.Get("not_a_register")
}

func TestCheckBoundFlagsAnExcessiveIterationCount(t *testing.T) {
	cond := ir.PortID(0)
	loop := ir.While(cond, ir.Enable(ir.GroupID(0)))
	loop.Attrs.SetNum(ir.AttrBound, 8)

	history := make([]bool, 10)
	for i := range history {
		history[i] = true
	}

	issues := verify.CheckBound("adder", loop, map[ir.PortID][]bool{cond: history})
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
	if issues[0].Kind != verify.IssueBoundExceeded {
		t.Errorf("Kind = %v, want IssueBoundExceeded", issues[0].Kind)
	}
}

func TestCheckBoundStaysQuietWithinBound(t *testing.T) {
	cond := ir.PortID(0)
	loop := ir.While(cond, ir.Enable(ir.GroupID(0)))
	loop.Attrs.SetNum(ir.AttrBound, 8)

	history := make([]bool, 5)
	for i := range history {
		history[i] = true
	}

	issues := verify.CheckBound("adder", loop, map[ir.PortID][]bool{cond: history})
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %d", len(issues))
	}
}

func TestCheckReachabilityFlagsOutOfRangeState(t *testing.T) {
	trace := verify.Trace{Snapshots: []map[string]uint64{
		{"fsm": 0},
		{"fsm": 1},
		{"fsm": 5},
	}}

	observed, issues := verify.CheckReachability("seq_comp", "fsm", trace, 3)
	if len(observed) != 3 {
		t.Fatalf("expected 3 distinct observed states, got %d", len(observed))
	}
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue for the out-of-range state, got %d", len(issues))
	}
}

func TestCheckColoringFlagsSimultaneousGoSignals(t *testing.T) {
	trace := verify.Trace{Snapshots: []map[string]uint64{
		{"g1_go": 1, "g2_go": 0},
		{"g1_go": 0, "g2_go": 1},
		{"g1_go": 1, "g2_go": 1},
	}}

	issues := verify.CheckColoring("par_comp", trace, map[string][]string{"colour0": {"g1_go", "g2_go"}})
	if len(issues) != 1 {
		t.Fatalf("expected 1 coloring conflict, got %d", len(issues))
	}
	if issues[0].Cycle != 2 {
		t.Errorf("Cycle = %d, want 2", issues[0].Cycle)
	}
}

func TestCheckParCompletionMatchesSlowestArmPlusOne(t *testing.T) {
	trace := verify.Trace{Snapshots: []map[string]uint64{
		{"par_done": 0},
		{"par_done": 0},
		{"par_done": 0},
		{"par_done": 1},
	}}

	issues := verify.CheckParCompletion("par_comp", "par_done", trace, []int{2, 1})
	if len(issues) != 0 {
		t.Fatalf("expected par completion to match, got issues: %v", issues)
	}
}

func TestCheckParCompletionFlagsAnEarlyDone(t *testing.T) {
	trace := verify.Trace{Snapshots: []map[string]uint64{
		{"par_done": 0},
		{"par_done": 1},
	}}

	issues := verify.CheckParCompletion("par_comp", "par_done", trace, []int{2})
	if len(issues) != 1 {
		t.Fatalf("expected 1 mismatch issue, got %d", len(issues))
	}
}

func TestReportWriteReportSummarizesIssues(t *testing.T) {
	bound := verify.Issue{Kind: verify.IssueBoundExceeded, Component: "c", Cycle: 9, Message: "loop ran long"}
	report := verify.GenerateReport("c", 10, []verify.Issue{bound})

	var buf strings.Builder
	report.WriteReport(&buf)

	out := buf.String()
	if !strings.Contains(out, "bound exceeded") {
		t.Errorf("report missing the bound-exceeded row:\n%s", out)
	}
	if !strings.Contains(out, "advisory warning") {
		t.Errorf("report missing the advisory-warning result line:\n%s", out)
	}
	if report.Fatal() {
		t.Errorf("a bound-only report should not be Fatal()")
	}

	var jsonBuf strings.Builder
	if err := report.WriteJSON(&jsonBuf); err != nil {
		t.Fatalf("WriteJSON returned an error: %v", err)
	}
	if !strings.Contains(jsonBuf.String(), `"kind": "bound exceeded"`) {
		t.Errorf("JSON report missing the bound-exceeded kind:\n%s", jsonBuf.String())
	}
}
