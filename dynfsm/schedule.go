package dynfsm

import (
	"fmt"
	"sort"

	"github.com/sarchlab/fsmforge/ir"
)

// predEdge is an edge from a predecessor FSM state into the state under
// construction: the predecessor transitions here once guard is true.
type predEdge struct {
	state int
	guard *ir.Guard
}

// Schedule accumulates the per-state enable assignments and inter-state
// transitions of one dynamic FSM as the control tree is walked top-down.
type Schedule struct {
	comp             *ir.Component
	enables          map[int][]ir.Assignment
	transitions      []transition
	earlyTransitions bool

	constOne ir.PortID
	haveOne  bool
}

type transition struct {
	from, to int
	guard    *ir.Guard
}

// NewSchedule creates an empty schedule against comp.
func NewSchedule(comp *ir.Component, earlyTransitions bool) *Schedule {
	return &Schedule{comp: comp, enables: make(map[int][]ir.Assignment), earlyTransitions: earlyTransitions}
}

func (s *Schedule) addEnable(state int, a ir.Assignment) {
	s.enables[state] = append(s.enables[state], a)
}

// calculateStatesRecur is the predecessor-threading walk of §4.4: given the
// predecessor edges that want to transition into con, it wires those
// transitions, enables con's groups in the appropriate state(s), and returns
// the predecessor edges implied by con's own exit.
func (s *Schedule) calculateStatesRecur(con *ir.Control, preds []predEdge) ([]predEdge, error) {
	switch con.Kind {
	case ir.CEnable:
		return s.enableState(con.Group, con, preds)
	case ir.CStaticEnable:
		// A static island reached by the dynamic FSM must already have had
		// its own schedule realized (staticsched) and been wrapped in an
		// ordinary dynamic group (ReplaceStaticEnables) before this walk; a
		// bare CStaticEnable is rejected with an error.
		return nil, fmt.Errorf("dynfsm: bare CStaticEnable must be wrapped in a dynamic group before scheduling")
	case ir.CSeq:
		return s.calcSeqRecur(con, preds)
	case ir.CIf:
		return s.calcIfRecur(con, preds)
	case ir.CWhile:
		return s.calcWhileRecur(con, preds)
	case ir.CPar:
		return nil, fmt.Errorf("dynfsm: par must be decomposed before calculateStatesRecur sees it")
	case ir.CRepeat:
		return nil, fmt.Errorf("dynfsm: repeat must be lowered to while before calculateStatesRecur sees it")
	case ir.CInvoke:
		return nil, fmt.Errorf("dynfsm: invoke must be lowered to enable before calculateStatesRecur sees it")
	case ir.CEmpty:
		return nil, fmt.Errorf("dynfsm: calculateStatesRecur should not see an empty control")
	default:
		return nil, fmt.Errorf("dynfsm: unexpected control kind %v", con.Kind)
	}
}

func (s *Schedule) enableState(group ir.GroupID, con *ir.Control, preds []predEdge) ([]predEdge, error) {
	curState, ok := con.Attrs.Num(ir.AttrNodeID)
	if !ok {
		return nil, fmt.Errorf("dynfsm: enable of group %d has no node id; run AssignNodeIDs first", group)
	}

	// If there is exactly one predecessor with an unconditional guard, merge
	// this enable into the predecessor's state rather than adding a cycle of
	// pure transition.
	prevStates := preds
	if len(preds) == 1 && preds[0].guard.IsTrue() {
		curState = preds[0].state
		prevStates = nil
	}

	g := s.comp.Group(group)
	notDone := ir.Not(ir.PortGuard(g.DoneHole))
	one := s.constHigh()

	s.addEnable(curState, ir.Guarded(g.GoHole, one, notDone))

	if s.earlyTransitions {
		for _, p := range prevStates {
			s.addEnable(p.state, ir.Guarded(g.GoHole, one, p.guard))
		}
	}

	for _, p := range prevStates {
		s.transitions = append(s.transitions, transition{from: p.state, to: curState, guard: p.guard})
	}

	return []predEdge{{state: curState, guard: ir.PortGuard(g.DoneHole)}}, nil
}

func (s *Schedule) calcSeqRecur(seq *ir.Control, preds []predEdge) ([]predEdge, error) {
	prev := preds
	for _, stmt := range seq.Stmts {
		next, err := s.calculateStatesRecur(stmt, prev)
		if err != nil {
			return nil, err
		}
		prev = next
	}
	return prev, nil
}

func (s *Schedule) calcIfRecur(ifc *ir.Control, preds []predEdge) ([]predEdge, error) {
	portGuard := ir.PortGuard(ifc.Cond)

	truePreds := make([]predEdge, len(preds))
	for i, p := range preds {
		truePreds[i] = predEdge{state: p.state, guard: ir.And(p.guard, portGuard)}
	}
	truePrev, err := s.calculateStatesRecur(ifc.True, truePreds)
	if err != nil {
		return nil, err
	}

	notGuard := ir.Not(portGuard)
	falsePreds := make([]predEdge, len(preds))
	for i, p := range preds {
		falsePreds[i] = predEdge{state: p.state, guard: ir.And(p.guard, notGuard)}
	}

	var falsePrev []predEdge
	if ifc.False.Kind == ir.CEmpty {
		falsePrev = falsePreds
	} else {
		falsePrev, err = s.calculateStatesRecur(ifc.False, falsePreds)
		if err != nil {
			return nil, err
		}
	}

	return append(truePrev, falsePrev...), nil
}

func (s *Schedule) calcWhileRecur(whilec *ir.Control, preds []predEdge) ([]predEdge, error) {
	portGuard := ir.PortGuard(whilec.Cond)

	var exits []predEdge
	s.controlExits(whilec.Body, &exits)

	transitionsIn := make([]predEdge, 0, len(preds)+len(exits))
	for _, p := range preds {
		transitionsIn = append(transitionsIn, predEdge{state: p.state, guard: ir.And(p.guard, portGuard)})
	}
	for _, e := range exits {
		transitionsIn = append(transitionsIn, predEdge{state: e.state, guard: ir.And(e.guard, portGuard)})
	}

	bodyPrevs, err := s.calculateStatesRecur(whilec.Body, transitionsIn)
	if err != nil {
		return nil, err
	}

	notGuard := ir.Not(portGuard)
	all := append(append([]predEdge{}, preds...), bodyPrevs...)
	out := make([]predEdge, len(all))
	for i, p := range all {
		out[i] = predEdge{state: p.state, guard: ir.And(p.guard, notGuard)}
	}
	return out, nil
}

// controlExits collects the (state, guard) exit points of a control subtree
// that has already been walked: the states from which a successor schedule
// can be entered, and the guard that must hold for that exit to fire.
func (s *Schedule) controlExits(con *ir.Control, out *[]predEdge) {
	switch con.Kind {
	case ir.CEmpty:
		return
	case ir.CEnable:
		state, _ := con.Attrs.Num(ir.AttrNodeID)
		doneGuard := ir.PortGuard(s.comp.Group(con.Group).DoneHole)
		*out = append(*out, predEdge{state: state, guard: doneGuard})
	case ir.CSeq:
		if len(con.Stmts) > 0 {
			s.controlExits(con.Stmts[len(con.Stmts)-1], out)
		}
	case ir.CIf:
		s.controlExits(con.True, out)
		s.controlExits(con.False, out)
	case ir.CWhile:
		var loopExits []predEdge
		s.controlExits(con.Body, &loopExits)
		notGuard := ir.Not(ir.PortGuard(con.Cond))
		for _, e := range loopExits {
			*out = append(*out, predEdge{state: e.state, guard: ir.And(e.guard, notGuard)})
		}
	}
}

// calculateStates runs the full predecessor walk starting from an implicit
// state 0 and appends a final exit state, per §4.4.
func (s *Schedule) calculateStates(con *ir.Control) error {
	first := []predEdge{{state: 0, guard: ir.True()}}
	prev, err := s.calculateStatesRecur(con, first)
	if err != nil {
		return err
	}
	s.addNxtTransition(prev)
	return nil
}

func (s *Schedule) addNxtTransition(prev []predEdge) {
	nxt := 0
	for _, p := range prev {
		if p.state > nxt {
			nxt = p.state
		}
	}
	nxt++
	for _, p := range prev {
		s.transitions = append(s.transitions, transition{from: p.state, to: nxt, guard: p.guard})
	}
}

func (s *Schedule) lastState() int {
	last := 0
	for _, t := range s.transitions {
		if t.to > last {
			last = t.to
		}
	}
	return last
}

func (s *Schedule) constHigh() ir.PortID {
	if s.haveOne {
		return s.constOne
	}
	cid := s.comp.AddCell(ir.Cell{Name: s.comp.Names().Gen("signal_on"), Prototype: "std_const", Params: map[string]uint64{"WIDTH": 1, "VALUE": 1}})
	s.comp.Cell(cid).Attrs.SetBool(ir.AttrGenerated)
	s.constOne = s.comp.AddCellPort(cid, "out", ir.Out, ir.Width{Fixed: 1})
	s.haveOne = true
	return s.constOne
}

func (s *Schedule) constAt(value uint64, width uint64) ir.PortID {
	cid := s.comp.AddCell(ir.Cell{Name: s.comp.Names().Gen("fsm_const"), Prototype: "std_const", Params: map[string]uint64{"WIDTH": width, "VALUE": value}})
	s.comp.Cell(cid).Attrs.SetBool(ir.AttrGenerated)
	return s.comp.AddCellPort(cid, "out", ir.Out, ir.Width{Fixed: width})
}

func bitWidthFrom(n uint64) uint64 {
	w := uint64(1)
	for (uint64(1) << w) < n {
		w++
	}
	return w
}

// RealizeSchedule lowers the accumulated enables/transitions into an ordinary
// dynamic group: an FSM register, one comparison-guarded assignment set per
// state, transition assignments into/out of each state, a done assignment at
// the final state, and a continuous reset-to-zero assignment.
func (s *Schedule) RealizeSchedule(name string) (ir.GroupID, error) {
	if len(s.transitions) == 0 {
		return 0, fmt.Errorf("dynfsm: schedule %q has no transitions", name)
	}
	finalState := s.lastState()
	width := bitWidthFrom(uint64(finalState) + 1)

	group := s.comp.AddGroup(s.comp.Names().Gen(name))
	g := s.comp.Group(group)

	cid := s.comp.AddCell(ir.Cell{Name: s.comp.Names().Gen("fsm"), Prototype: "std_reg", Params: map[string]uint64{"WIDTH": width}})
	s.comp.Cell(cid).Attrs.SetBool(ir.AttrGenerated)
	fsmIn := s.comp.AddCellPort(cid, "in", ir.In, ir.Width{Fixed: width})
	fsmWriteEn := s.comp.AddCellPort(cid, "write_en", ir.In, ir.Width{Fixed: 1})
	fsmOut := s.comp.AddCellPort(cid, "out", ir.Out, ir.Width{Fixed: width})

	one := s.constHigh()
	lastConst := s.constAt(uint64(finalState), width)
	firstConst := s.constAt(0, width)

	states := make([]int, 0, len(s.enables))
	for st := range s.enables {
		states = append(states, st)
	}
	sort.Ints(states)
	for _, st := range states {
		stateConst := s.constAt(uint64(st), width)
		stateGuard := ir.Comp(ir.CompEq, fsmOut, stateConst)
		for _, a := range s.enables[st] {
			g.Assignments = append(g.Assignments, a.WithGuard(stateGuard))
		}
	}

	for _, t := range s.transitions {
		startConst := s.constAt(uint64(t.from), width)
		endConst := s.constAt(uint64(t.to), width)
		stateGuard := ir.Comp(ir.CompEq, fsmOut, startConst)
		transGuard := stateGuard
		if t.guard != nil && !t.guard.IsTrue() {
			transGuard = ir.And(stateGuard, t.guard)
		}
		g.Assignments = append(g.Assignments,
			ir.Guarded(fsmIn, endConst, transGuard),
			ir.Guarded(fsmWriteEn, one, transGuard),
		)
	}

	lastGuard := ir.Comp(ir.CompEq, fsmOut, lastConst)
	g.Assignments = append(g.Assignments, ir.Guarded(g.DoneHole, one, lastGuard))

	s.comp.Continuous = append(s.comp.Continuous,
		ir.Guarded(fsmIn, firstConst, lastGuard),
		ir.Guarded(fsmWriteEn, one, lastGuard),
	)

	return group, nil
}
