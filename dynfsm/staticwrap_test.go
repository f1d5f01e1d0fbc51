package dynfsm

import (
	"testing"

	"github.com/sarchlab/fsmforge/ir"
)

func TestReplaceStaticEnablesAllowsCompileControl(t *testing.T) {
	comp := ir.NewComponent("wrap_test")
	island := mkStaticLeaf(comp, "island", 3)
	ctrl := ir.Seq(island)

	doneSignal := comp.AddSigPort("island_done_signal", ir.In, ir.Width{Fixed: 1})
	doneGuards := map[ir.StaticGroupID]*ir.Guard{island.StaticGroup: ir.PortGuard(doneSignal)}
	rewritten := ReplaceStaticEnables(comp, ctrl, doneGuards)

	gid, err := CompileControl(comp, rewritten, false)
	if err != nil {
		t.Fatalf("CompileControl after static-enable replacement: %v", err)
	}
	g := comp.Group(gid)
	if len(g.Assignments) == 0 {
		t.Fatalf("expected realized assignments")
	}
}

func TestWrapStaticIslandForwardsGoAndDone(t *testing.T) {
	comp := ir.NewComponent("wrap_direct")
	island := mkStaticLeaf(comp, "island", 2)

	wrapper := WrapStaticIsland(comp, island.StaticGroup, ir.PortGuard(comp.StaticGroup(island.StaticGroup).GoHole))
	wg := comp.Group(wrapper)
	if len(wg.Assignments) != 2 {
		t.Fatalf("expected exactly 2 assignments (go-forward, done), got %d", len(wg.Assignments))
	}
}
