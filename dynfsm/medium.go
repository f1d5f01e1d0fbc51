package dynfsm

import (
	"github.com/sarchlab/fsmforge/ir"
	"github.com/sarchlab/fsmforge/staticinline"
	"github.com/sarchlab/fsmforge/staticsched"
)

// MediumFSMBuilder assembles an experimental "medium" FSM for a static
// control tree: unlike staticsched (one counter per coloured island) or a
// fully inlined single group, it lets an earlier sizing pass annotate
// sub-regions with @OFFLOAD, @ACYCLIC, @INLINE or @UNROLL and honours each
// region's choice independently while still producing one parent schedule.
//
//   - @OFFLOAD delegates a region to its own dedicated StaticFSM behind a
//     start/done handshake, costing the parent exactly one state.
//   - @ACYCLIC (with @INLINE) allocates one parent state per cycle of the
//     region, splitting its flattened assignments by the cycle they're live
//     in (ir.Guard.LiveStates).
//   - @INLINE alone still inlines the region's states into the parent but
//     without per-cycle assignment splitting.
//   - @UNROLL only applies to StaticRepeat: it chains Count independently
//     built copies of the body rather than looping a single one.
//
// Regions without any of these attributes fall back to the @OFFLOAD
// treatment, which is always safe (it never shares states with its parent).
type MediumFSMBuilder struct {
	comp        *ir.Component
	states      map[int][]ir.Assignment
	transitions []transition

	loopedOnce     ir.CellID
	haveLoopedOnce bool
}

// NewMediumFSMBuilder creates a builder against comp.
func NewMediumFSMBuilder(comp *ir.Component) *MediumFSMBuilder {
	return &MediumFSMBuilder{comp: comp, states: make(map[int][]ir.Assignment)}
}

func (b *MediumFSMBuilder) addEnable(state int, a ir.Assignment) {
	b.states[state] = append(b.states[state], a)
}

func (b *MediumFSMBuilder) constHigh() ir.PortID {
	cid := b.comp.AddCell(ir.Cell{Name: b.comp.Names().Gen("signal_on"), Prototype: "std_const", Params: map[string]uint64{"WIDTH": 1, "VALUE": 1}})
	b.comp.Cell(cid).Attrs.SetBool(ir.AttrGenerated)
	return b.comp.AddCellPort(cid, "out", ir.Out, ir.Width{Fixed: 1})
}

// loopedOncePort lazily allocates the shared looped_once register: a single
// bit that latches high once the top-level region has completed one full
// pass, used to drive the enclosing static component's done port.
func (b *MediumFSMBuilder) loopedOncePort() (in, writeEn, out ir.PortID) {
	if !b.haveLoopedOnce {
		b.loopedOnce = b.comp.AddCell(ir.Cell{Name: b.comp.Names().Gen("looped_once"), Prototype: "std_reg", Params: map[string]uint64{"WIDTH": 1}})
		b.comp.Cell(b.loopedOnce).Attrs.SetBool(ir.AttrGenerated)
		b.comp.AddCellPort(b.loopedOnce, "in", ir.In, ir.Width{Fixed: 1})
		b.comp.AddCellPort(b.loopedOnce, "write_en", ir.In, ir.Width{Fixed: 1})
		b.comp.AddCellPort(b.loopedOnce, "out", ir.Out, ir.Width{Fixed: 1})
		b.haveLoopedOnce = true
	}
	inP, _ := b.comp.CellPort(b.loopedOnce, "in")
	weP, _ := b.comp.CellPort(b.loopedOnce, "write_en")
	outP, _ := b.comp.CellPort(b.loopedOnce, "out")
	return inP, weP, outP
}

// BuildAbstract walks a static control tree and returns the parent state
// immediately following region, given it starts at curState.
func (b *MediumFSMBuilder) BuildAbstract(region *ir.Control, curState int) int {
	switch {
	case region.Attrs.Has(ir.AttrOffload):
		return b.buildOffload(region, curState)
	case region.Kind == ir.CStaticRepeat && region.Attrs.Has(ir.AttrUnroll):
		return b.buildUnroll(region, curState)
	case region.Attrs.Has(ir.AttrAcyclic) && region.Attrs.Has(ir.AttrInline):
		return b.buildAcyclicInline(region, curState)
	case region.Attrs.Has(ir.AttrInline):
		return b.buildPlainInline(region, curState)
	default:
		return b.buildOffload(region, curState)
	}
}

// buildOffload flattens region into one static group (via staticinline) and
// schedules it behind a dedicated StaticFSM; the parent spends exactly one
// state waiting for the dedicated counter's final-cycle range query.
func (b *MediumFSMBuilder) buildOffload(region *ir.Control, curState int) int {
	sg, err := staticinline.New(b.comp, staticinline.DefaultConfig()).Inline(region)
	if err != nil {
		panic(err)
	}
	latency := b.comp.StaticGroup(sg).Latency
	assigns, fsm := staticsched.RealizeSchedule(b.comp, []ir.StaticGroupID{sg}, false, staticsched.DefaultOneHotCutoff)
	b.comp.StaticGroup(sg).Assignments = assigns[sg]

	one := b.constHigh()
	goHole := b.comp.StaticGroup(sg).GoHole
	doneGuard := fsm.QueryBetween(latency-1, latency)

	b.addEnable(curState, ir.NewAssignment(goHole, one))
	next := curState + 1
	b.transitions = append(b.transitions, transition{from: curState, to: next, guard: doneGuard})
	return next
}

// buildAcyclicInline allocates one parent state per cycle of region, each
// state enabling only the assignments whose guard is live at that cycle.
func (b *MediumFSMBuilder) buildAcyclicInline(region *ir.Control, curState int) int {
	sg, err := staticinline.New(b.comp, staticinline.DefaultConfig()).Inline(region)
	if err != nil {
		panic(err)
	}
	latency := b.comp.StaticGroup(sg).Latency
	assigns := b.comp.StaticGroup(sg).Assignments

	for c := 0; c < latency; c++ {
		state := curState + c
		for _, a := range assigns {
			live := a.Guard.LiveStates(latency)
			if live[c] {
				b.addEnable(state, ir.Assignment{Dst: a.Dst, Src: a.Src, Guard: ir.True()})
			}
		}
		b.transitions = append(b.transitions, transition{from: state, to: state + 1, guard: ir.True()})
	}
	return curState + latency
}

// buildPlainInline inlines region's states into the parent without per-cycle
// assignment splitting: the region's single flattened group runs across a
// chain of latency wait states, each of which holds the group's go hole
// high, so it is gated on for its whole duration.
func (b *MediumFSMBuilder) buildPlainInline(region *ir.Control, curState int) int {
	sg, err := staticinline.New(b.comp, staticinline.DefaultConfig()).Inline(region)
	if err != nil {
		panic(err)
	}
	latency := b.comp.StaticGroup(sg).Latency
	one := b.constHigh()
	goHole := b.comp.StaticGroup(sg).GoHole
	for c := 0; c < latency; c++ {
		b.addEnable(curState+c, ir.NewAssignment(goHole, one))
		b.transitions = append(b.transitions, transition{from: curState + c, to: curState + c + 1, guard: ir.True()})
	}
	return curState + latency
}

// buildUnroll chains Count independently-built copies of a repeat's body,
// rather than looping a single copy with a counter.
func (b *MediumFSMBuilder) buildUnroll(region *ir.Control, curState int) int {
	state := curState
	for i := 0; i < region.Count; i++ {
		state = b.BuildAbstract(region.Body, state)
	}
	return state
}

// Realize lowers the accumulated states/transitions into a dynamic group,
// latching loopedOnce on the final transition so the enclosing static
// component's done port can be driven from it.
func (b *MediumFSMBuilder) Realize(name string, finalState int) ir.GroupID {
	width := bitWidthFrom(uint64(finalState) + 1)
	group := b.comp.AddGroup(b.comp.Names().Gen(name))
	g := b.comp.Group(group)

	cid := b.comp.AddCell(ir.Cell{Name: b.comp.Names().Gen("mfsm"), Prototype: "std_reg", Params: map[string]uint64{"WIDTH": width}})
	b.comp.Cell(cid).Attrs.SetBool(ir.AttrGenerated)
	fsmIn := b.comp.AddCellPort(cid, "in", ir.In, ir.Width{Fixed: width})
	fsmWriteEn := b.comp.AddCellPort(cid, "write_en", ir.In, ir.Width{Fixed: 1})
	fsmOut := b.comp.AddCellPort(cid, "out", ir.Out, ir.Width{Fixed: width})

	one := b.constHigh()

	zeroCid := b.comp.AddCell(ir.Cell{Name: b.comp.Names().Gen("mfsm_zero"), Prototype: "std_const", Params: map[string]uint64{"WIDTH": width, "VALUE": 0}})
	b.comp.Cell(zeroCid).Attrs.SetBool(ir.AttrGenerated)
	zeroOut := b.comp.AddCellPort(zeroCid, "out", ir.Out, ir.Width{Fixed: width})

	for st, assigns := range b.states {
		stateConst := b.comp.AddCell(ir.Cell{Name: b.comp.Names().Gen("mfsm_state"), Prototype: "std_const", Params: map[string]uint64{"WIDTH": width, "VALUE": uint64(st)}})
		b.comp.Cell(stateConst).Attrs.SetBool(ir.AttrGenerated)
		stateOut := b.comp.AddCellPort(stateConst, "out", ir.Out, ir.Width{Fixed: width})
		stateGuard := ir.Comp(ir.CompEq, fsmOut, stateOut)
		for _, a := range assigns {
			g.Assignments = append(g.Assignments, a.WithGuard(stateGuard))
		}
	}

	for _, t := range b.transitions {
		fromConst := b.comp.AddCell(ir.Cell{Name: b.comp.Names().Gen("mfsm_from"), Prototype: "std_const", Params: map[string]uint64{"WIDTH": width, "VALUE": uint64(t.from)}})
		b.comp.Cell(fromConst).Attrs.SetBool(ir.AttrGenerated)
		fromOut := b.comp.AddCellPort(fromConst, "out", ir.Out, ir.Width{Fixed: width})
		toConst := b.comp.AddCell(ir.Cell{Name: b.comp.Names().Gen("mfsm_to"), Prototype: "std_const", Params: map[string]uint64{"WIDTH": width, "VALUE": uint64(t.to)}})
		b.comp.Cell(toConst).Attrs.SetBool(ir.AttrGenerated)
		toOut := b.comp.AddCellPort(toConst, "out", ir.Out, ir.Width{Fixed: width})

		guard := ir.And(ir.Comp(ir.CompEq, fsmOut, fromOut), t.guard)
		g.Assignments = append(g.Assignments,
			ir.Guarded(fsmIn, toOut, guard),
			ir.Guarded(fsmWriteEn, one, guard),
		)
	}

	lastConst := b.comp.AddCell(ir.Cell{Name: b.comp.Names().Gen("mfsm_last"), Prototype: "std_const", Params: map[string]uint64{"WIDTH": width, "VALUE": uint64(finalState)}})
	b.comp.Cell(lastConst).Attrs.SetBool(ir.AttrGenerated)
	lastOut := b.comp.AddCellPort(lastConst, "out", ir.Out, ir.Width{Fixed: width})
	lastGuard := ir.Comp(ir.CompEq, fsmOut, lastOut)

	loopIn, loopWE, loopOut := b.loopedOncePort()
	g.Assignments = append(g.Assignments,
		ir.Guarded(loopIn, one, lastGuard),
		ir.Guarded(loopWE, one, lastGuard),
		ir.Guarded(g.DoneHole, one, ir.PortGuard(loopOut)),
	)

	b.comp.Continuous = append(b.comp.Continuous,
		ir.Guarded(fsmIn, zeroOut, lastGuard),
		ir.Guarded(fsmWriteEn, one, lastGuard),
	)

	return group
}

// BuildMediumFSM is the package entry point: build and realize a medium FSM
// for a whole static control region in one call.
func BuildMediumFSM(comp *ir.Component, region *ir.Control) ir.GroupID {
	b := NewMediumFSMBuilder(comp)
	final := b.BuildAbstract(region, 0)
	return b.Realize("mfsm_ctrl", final)
}
