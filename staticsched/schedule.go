package staticsched

import (
	"fmt"

	"github.com/sarchlab/fsmforge/ir"
)

// RealizeSchedule lowers a set of static groups sharing one counter into
// dynamic (counter-guarded) assignments. staticComponentInterface, when set,
// additionally rewrites each group's %[0:n] guards into "%0 & comp.go |
// %[1:n]" and gates the counter's increment on comp.go, per §4.3's
// static-component-interface handling.
func RealizeSchedule(comp *ir.Component, groups []ir.StaticGroupID, staticComponentInterface bool, oneHotCutoff int) (map[ir.StaticGroupID][]ir.Assignment, *StaticFSM) {
	numStates := 0
	for _, gid := range groups {
		if l := comp.StaticGroup(gid).Latency; l > numStates {
			numStates = l
		}
	}
	encoding := EncodingFor(numStates, oneHotCutoff)
	fsm := NewStaticFSM(comp, numStates, encoding)

	var compGo ir.PortID
	var incrCondition *ir.Guard
	if staticComponentInterface {
		compGo = findCompGoPort(comp)
		incrCondition = ir.PortGuard(compGo)
	}

	out := make(map[ir.StaticGroupID][]ir.Assignment, len(groups))
	for _, gid := range groups {
		sg := comp.StaticGroup(gid)
		assigns := make([]ir.Assignment, 0, len(sg.Assignments))
		for _, a := range sg.Assignments {
			g := a.Guard
			if staticComponentInterface {
				g = rewriteStaticInterfaceGuard(g, compGo)
			}
			assigns = append(assigns, ir.Assignment{
				Dst: a.Dst, Src: a.Src,
				Guard: g.Substitute(func(lo, hi int) *ir.Guard { return fsm.QueryBetween(lo, hi) }),
			})
		}
		assigns = append(assigns, fsm.CountToN(sg.Latency-1, incrCondition)...)
		out[gid] = assigns
	}
	return out, fsm
}

func findCompGoPort(comp *ir.Component) ir.PortID {
	for _, pid := range comp.Sig.Ports {
		if comp.Port(pid).Name == "go" {
			return pid
		}
	}
	panic(fmt.Sprintf("staticsched: component %q has no go port for a static-component interface", comp.Name))
}

// rewriteStaticInterfaceGuard rewrites every Info(0,hi) under g into
// (comp.go & %[0,1)) | %[1,hi) (or just comp.go & %[0,1) when hi==1), so a
// client deasserting go after the first cycle can't stall a static
// component's internal counter. Info(lo,hi) with lo>0 is left untouched.
func rewriteStaticInterfaceGuard(g *ir.Guard, compGo ir.PortID) *ir.Guard {
	return g.Substitute(func(lo, hi int) *ir.Guard {
		if lo != 0 {
			return ir.Info(lo, hi)
		}
		firstAndGo := ir.And(ir.PortGuard(compGo), ir.Info(0, 1))
		if hi == 1 {
			return firstAndGo
		}
		return ir.Or(firstAndGo, ir.Info(1, hi))
	})
}
