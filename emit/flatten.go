package emit

import "github.com/sarchlab/fsmforge/ir"

// Flatten reduces a component to the shape the emitter requires: every
// group and static group's assignments are promoted into Continuous with
// their guard conjoined with the condition under which that group is
// itself active, then Groups/StaticGroups/Control are cleared. This is the
// Go equivalent of the teacher's Verilog backend asserting
// `comp.groups.is_empty()` and requiring Control to be Empty before it
// emits a single module body — except here the reduction is performed
// rather than merely checked, since nothing earlier in the pipeline
// guarantees it.
//
// By the time this runs, every GuardInfo node a static group's assignments
// once carried has already been rewritten into a concrete counter-compare
// guard by staticsched.RealizeSchedule/QueryBetween, so static and dynamic
// groups are treated identically here.
func Flatten(comp *ir.Component) {
	var continuous []ir.Assignment
	continuous = append(continuous, comp.Continuous...)

	visiting := map[ir.PortID]bool{}
	cache := map[ir.PortID]*ir.Guard{}

	var active func(hole ir.PortID) *ir.Guard
	active = func(hole ir.PortID) *ir.Guard {
		if g, ok := cache[hole]; ok {
			return g
		}
		if visiting[hole] {
			// A hole driving its own activation is a validator bug, not an
			// emitter concern; treat it as never-active rather than
			// recursing forever.
			return ir.Not(ir.True())
		}
		visiting[hole] = true
		defer delete(visiting, hole)

		var acc *ir.Guard
		or := func(g *ir.Guard) {
			if acc == nil {
				acc = g
				return
			}
			acc = ir.Or(acc, g)
		}

		for _, a := range comp.Continuous {
			if a.Dst == hole {
				or(a.Guard)
			}
		}
		for gi := range comp.Groups {
			g := &comp.Groups[gi]
			for _, a := range g.Assignments {
				if a.Dst == hole {
					or(ir.And(active(g.GoHole), a.Guard))
				}
			}
		}
		for sgi := range comp.StaticGroups {
			sg := &comp.StaticGroups[sgi]
			for _, a := range sg.Assignments {
				if a.Dst == hole {
					or(ir.And(active(sg.GoHole), a.Guard))
				}
			}
		}

		if acc == nil {
			acc = ir.Not(ir.True())
		}
		cache[hole] = acc
		return acc
	}

	promote := func(goHole ir.PortID, assignments []ir.Assignment) {
		groupActive := active(goHole)
		for _, a := range assignments {
			if comp.Port(a.Dst).IsHole() {
				continue
			}
			continuous = append(continuous, a.WithGuard(groupActive))
		}
	}

	for gi := range comp.Groups {
		g := &comp.Groups[gi]
		promote(g.GoHole, g.Assignments)
	}
	for sgi := range comp.StaticGroups {
		sg := &comp.StaticGroups[sgi]
		promote(sg.GoHole, sg.Assignments)
	}

	comp.Continuous = continuous
	comp.Groups = nil
	comp.StaticGroups = nil
	comp.Control = ir.Empty()
}
