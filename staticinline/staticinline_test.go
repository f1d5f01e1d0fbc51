package staticinline

import (
	"testing"

	"github.com/sarchlab/fsmforge/ir"
)

// mkEnable builds a trivial static group of the given latency whose sole
// assignment pulses out<-1 during its first cycle, returning its control
// leaf.
func mkEnable(comp *ir.Component, name string, latency int) *ir.Control {
	out := comp.AddSigPort(name+"_out", ir.Out, ir.Width{Fixed: 1})
	one := comp.AddSigPort(name+"_one", ir.In, ir.Width{Fixed: 1})
	gid := comp.AddStaticGroup(name, latency)
	comp.StaticGroup(gid).Assignments = []ir.Assignment{
		ir.Guarded(out, one, ir.Info(0, 1)),
	}
	return ir.StaticEnable(gid, latency)
}

// TestInlineSeqConcatenatesOffsets covers Scenario A: a static seq of two
// enables must produce one group whose second child's guards are all shifted
// by the first child's latency.
func TestInlineSeqConcatenatesOffsets(t *testing.T) {
	comp := ir.NewComponent("seq_test")
	a := mkEnable(comp, "a", 3)
	b := mkEnable(comp, "b", 4)
	seq := ir.StaticSeq(7, a, b)

	builder := New(comp, DefaultConfig())
	gid, err := builder.Inline(seq)
	if err != nil {
		t.Fatalf("Inline: %v", err)
	}
	sg := comp.StaticGroup(gid)
	if sg.Latency != 7 {
		t.Fatalf("expected latency 7, got %d", sg.Latency)
	}
	if len(sg.Assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(sg.Assignments))
	}

	// first child keeps its own Info(0,1) untouched: offset 0, latency 3 !=
	// enclosing latency 7, so it is padded with Info(0,3), conjoined with the
	// original Info(0,1).
	firstLive := sg.Assignments[0].Guard.LiveStates(7)
	if !firstLive[0] || firstLive[1] || firstLive[3] {
		t.Errorf("first child's assignment live states wrong: %v", firstLive)
	}

	// second child is shifted by offset 3: its own Info(0,1) becomes
	// Info(3,4), conjoined with the %[3,7) padding.
	secondLive := sg.Assignments[1].Guard.LiveStates(7)
	if secondLive[0] || secondLive[2] || !secondLive[3] || secondLive[4] {
		t.Errorf("second child's assignment live states wrong: %v", secondLive)
	}
}

// TestInlineParWithoutOffloadPause covers the plain union-of-guards Par path.
func TestInlineParWithoutOffloadPause(t *testing.T) {
	comp := ir.NewComponent("par_test")
	a := mkEnable(comp, "a", 5)
	b := mkEnable(comp, "b", 7)
	par := ir.StaticPar(7, a, b)

	builder := New(comp, Config{OffloadPause: false})
	gid, err := builder.Inline(par)
	if err != nil {
		t.Fatalf("Inline: %v", err)
	}
	sg := comp.StaticGroup(gid)
	if sg.Latency != 7 {
		t.Fatalf("expected latency 7, got %d", sg.Latency)
	}
	if len(sg.Assignments) != 2 {
		t.Fatalf("expected 2 assignments (no colour-group indirection), got %d", len(sg.Assignments))
	}
}

// TestInlineParOffloadPauseShares covers Scenario F: two static groups of
// latencies 5 and 7 whose offload intervals do not overlap ([0,5) and
// [5,12)) must share a single counter resource — one colour group of
// latency 12 triggered by the wrapper, not two.
func TestInlineParOffloadPauseShares(t *testing.T) {
	comp := ir.NewComponent("par_share_test")
	a := mkEnable(comp, "a", 5)
	b := mkEnable(comp, "b", 7)
	b.Attrs.SetNum(ir.AttrOffloadStart, 5)
	b.Attrs.SetNum(ir.AttrOffloadEnd, 12)
	par := ir.StaticPar(12, a, b)

	builder := New(comp, Config{OffloadPause: true})
	gid, err := builder.Inline(par)
	if err != nil {
		t.Fatalf("Inline: %v", err)
	}
	sg := comp.StaticGroup(gid)
	if sg.Latency != 12 {
		t.Fatalf("expected wrapper latency 12, got %d", sg.Latency)
	}
	if len(sg.Assignments) != 1 {
		t.Fatalf("expected a single colour-group trigger (shared counter), got %d assignments", len(sg.Assignments))
	}

	// the shared colour group itself should carry both children's
	// assignments, each offset to its own window.
	shared := comp.StaticGroups[len(comp.StaticGroups)-1]
	if shared.Latency != 12 {
		t.Fatalf("expected shared colour group latency 12, got %d", shared.Latency)
	}
	if len(shared.Assignments) != 2 {
		t.Fatalf("expected 2 assignments in the shared colour group, got %d", len(shared.Assignments))
	}
}

// TestInlineParOffloadPauseOverlapKeepsSeparate checks that Par children
// whose intervals DO overlap (the default [0,L) for both, as in a plain
// parallel split) are never merged, even with --offload-pause enabled.
func TestInlineParOffloadPauseOverlapKeepsSeparate(t *testing.T) {
	comp := ir.NewComponent("par_overlap_test")
	a := mkEnable(comp, "a", 5)
	b := mkEnable(comp, "b", 7)
	par := ir.StaticPar(7, a, b)

	builder := New(comp, Config{OffloadPause: true})
	gid, err := builder.Inline(par)
	if err != nil {
		t.Fatalf("Inline: %v", err)
	}
	sg := comp.StaticGroup(gid)
	if len(sg.Assignments) != 2 {
		t.Fatalf("expected 2 separate colour-group triggers, got %d", len(sg.Assignments))
	}
}

// TestInlineIfSingleCycle covers the If latency-1 fast path: no cond
// register/wire cells should be allocated.
func TestInlineIfSingleCycle(t *testing.T) {
	comp := ir.NewComponent("if_test")
	cond := comp.AddSigPort("cond", ir.In, ir.Width{Fixed: 1})
	tBranch := mkEnable(comp, "t", 1)
	fBranch := mkEnable(comp, "f", 1)
	ifCtrl := ir.StaticIf(cond, tBranch, fBranch, 1)

	cellsBefore := len(comp.Cells)
	builder := New(comp, DefaultConfig())
	gid, err := builder.Inline(ifCtrl)
	if err != nil {
		t.Fatalf("Inline: %v", err)
	}
	if len(comp.Cells) != cellsBefore {
		t.Errorf("expected no cells allocated for a latency-1 if, got %d new cells", len(comp.Cells)-cellsBefore)
	}
	sg := comp.StaticGroup(gid)
	if len(sg.Assignments) != 2 {
		t.Fatalf("expected 2 assignments (one per branch), got %d", len(sg.Assignments))
	}
}

// TestInlineIfMultiCycleAllocatesCondRegister covers the L>1 If path: a
// cond register and cond_wire must be introduced, plus the four bookkeeping
// assignments ahead of the guarded branch assignments.
func TestInlineIfMultiCycleAllocatesCondRegister(t *testing.T) {
	comp := ir.NewComponent("if_multi_test")
	cond := comp.AddSigPort("cond", ir.In, ir.Width{Fixed: 1})
	tBranch := mkEnable(comp, "t", 3)
	fBranch := mkEnable(comp, "f", 3)
	ifCtrl := ir.StaticIf(cond, tBranch, fBranch, 3)

	builder := New(comp, DefaultConfig())
	gid, err := builder.Inline(ifCtrl)
	if err != nil {
		t.Fatalf("Inline: %v", err)
	}
	if len(comp.Cells) != 3 {
		t.Fatalf("expected 3 generated cells (cond, cond_wire, shared const1 driver), got %d", len(comp.Cells))
	}
	sg := comp.StaticGroup(gid)
	if len(sg.Assignments) != 6 {
		t.Fatalf("expected 4 bookkeeping + 2 branch assignments, got %d", len(sg.Assignments))
	}
}

// TestInlineRepeatUnrollsViaTrigger covers the Repeat reduction: a wrapper
// group of n*Lbody latency containing a single go-hole trigger.
func TestInlineRepeatUnrollsViaTrigger(t *testing.T) {
	comp := ir.NewComponent("repeat_test")
	body := mkEnable(comp, "body", 4)
	rep := ir.StaticRepeat(3, body, 12)

	builder := New(comp, DefaultConfig())
	gid, err := builder.Inline(rep)
	if err != nil {
		t.Fatalf("Inline: %v", err)
	}
	sg := comp.StaticGroup(gid)
	if sg.Latency != 12 {
		t.Fatalf("expected latency 12, got %d", sg.Latency)
	}
	if len(sg.Assignments) != 1 {
		t.Fatalf("expected a single trigger assignment, got %d", len(sg.Assignments))
	}
}
