// Package verify is a diagnostic interpreter layered over a compiled
// component: it ticks the register-level state the compiler emitted (FSM
// registers, counters, any other std_reg cell) one cycle at a time and
// checks the runtime properties of §8 that a static read of the assignment
// list cannot settle on its own — FSM reachability, par completion timing,
// coloring conflicts, and @bound violations. It sits outside the compiler
// pipeline entirely, the way the teacher's own verify package sits outside
// the CGRA compiler/runtime pipeline: a debugging aid over an emitted
// artifact, not a pass the driver runs.
package verify

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/fsmforge/ir"
)

// RegisterModel is the cycle-by-cycle state of every std_reg cell in a
// compiled component, keyed by cell name rather than CellID so a Stimulus
// can refer to a register the same way a reader of the emitted Verilog
// would.
type RegisterModel struct {
	comp   *ir.Component
	byName map[string]ir.CellID
	values map[ir.CellID]uint64
}

// NewRegisterModel indexes every std_reg cell owned by comp, each starting
// at zero (the reset value std_reg's emitted Verilog initializes to).
func NewRegisterModel(comp *ir.Component) *RegisterModel {
	m := &RegisterModel{
		comp:   comp,
		byName: make(map[string]ir.CellID),
		values: make(map[ir.CellID]uint64),
	}
	for i, cell := range comp.Cells {
		if cell.Prototype == "std_reg" {
			id := ir.CellID(i)
			m.byName[cell.Name] = id
			m.values[id] = 0
		}
	}
	return m
}

// Get returns a register's current value by cell name. It panics when name
// does not name a std_reg cell of the component: a Stimulus referring to a
// register that does not exist is a bug in the caller, not a runtime
// condition to recover from.
func (m *RegisterModel) Get(name string) uint64 {
	id, ok := m.byName[name]
	if !ok {
		panic(fmt.Sprintf("verify: %q is not a std_reg cell of component %q", name, m.comp.Name))
	}
	return m.values[id]
}

func (m *RegisterModel) set(name string, v uint64) {
	id, ok := m.byName[name]
	if !ok {
		panic(fmt.Sprintf("verify: %q is not a std_reg cell of component %q", name, m.comp.Name))
	}
	m.values[id] = v
}

// Snapshot copies every register's current value, for recording into a
// Trace without aliasing the model's live map.
func (m *RegisterModel) Snapshot() map[string]uint64 {
	out := make(map[string]uint64, len(m.byName))
	for name, id := range m.byName {
		out[name] = m.values[id]
	}
	return out
}

// Stimulus drives a CycleStepper: given the cycle number and the register
// values observed at the start of that cycle, it returns the writes that
// land at the next clock edge. Evaluating the combinational network that
// would normally produce those writes from the emitted guards and
// primitive cells is the emitter's and the primitives catalog's concern,
// already exercised by their own tests; Stimulus lets a verify test supply
// exactly the observable control-plane behaviour §8's properties are
// stated over, without re-deriving a gate-level netlist simulator for
// every primitive in the catalog.
type Stimulus func(cycle int, regs *RegisterModel) map[string]uint64

// Trace is the cycle-indexed history of a CycleStepper run: Snapshots[k] is
// the register model as it stood at the start of cycle k, before that
// cycle's Stimulus-driven writes land.
type Trace struct {
	Snapshots []map[string]uint64
}

// CycleStepper advances one compiled component's register model a cycle at
// a time under akita's own scheduler, mirroring how the teacher drives its
// CGRA core as a sim.TickingComponent rather than a bare for-loop.
type CycleStepper struct {
	*sim.TickingComponent

	engine    sim.Engine
	regs      *RegisterModel
	stim      Stimulus
	maxCycles int

	cycle int
	trace Trace
}

// NewCycleStepper builds a stepper over comp's register model, ticking at
// freq under engine and stopping after maxCycles cycles of Stimulus have
// run.
func NewCycleStepper(name string, engine sim.Engine, freq sim.Freq, comp *ir.Component, stim Stimulus, maxCycles int) *CycleStepper {
	cs := &CycleStepper{
		engine:    engine,
		regs:      NewRegisterModel(comp),
		stim:      stim,
		maxCycles: maxCycles,
	}
	cs.TickingComponent = sim.NewTickingComponent(name, engine, freq, cs)
	return cs
}

// Tick advances the register model by one cycle, recording the pre-write
// snapshot into the trace before applying the Stimulus's writes.
func (cs *CycleStepper) Tick(now sim.VTimeInSec) (madeProgress bool) {
	if cs.cycle >= cs.maxCycles {
		return false
	}

	cs.trace.Snapshots = append(cs.trace.Snapshots, cs.regs.Snapshot())

	writes := cs.stim(cs.cycle, cs.regs)
	for name, v := range writes {
		cs.regs.set(name, v)
	}

	cs.cycle++
	return true
}

// Run ticks the stepper to completion — maxCycles reached, or the engine
// reporting no further progress, whichever comes first — and returns the
// recorded trace. It mirrors the teacher's own driver.Run(), which "calls
// TickNow() and Engine.Run() to start the system".
func (cs *CycleStepper) Run() (Trace, error) {
	cs.TickNow()
	if err := cs.engine.Run(); err != nil {
		return cs.trace, fmt.Errorf("verify: %w", err)
	}
	return cs.trace, nil
}

// Cycle reports how many cycles have elapsed so far.
func (cs *CycleStepper) Cycle() int { return cs.cycle }
