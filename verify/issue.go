package verify

import (
	"encoding/json"
	"fmt"

	"github.com/sarchlab/fsmforge/ir"
)

// IssueKind classifies a diagnostic the interpreter raised while stepping a
// compiled component. Every kind here corresponds to one of §8's testable
// properties or to the Warning kind of the error taxonomy — none of these
// are compile errors, which the validator and the lowering passes already
// own.
type IssueKind int

const (
	// IssueBoundExceeded is §7's "@bound(n) violated at runtime": compilation
	// succeeded, but a while loop ran more iterations than its advisory
	// annotation promised.
	IssueBoundExceeded IssueKind = iota
	// IssueUnreachableState flags an FSM register value observed outside the
	// span of states the schedule is supposed to occupy — property 3.
	IssueUnreachableState
	// IssueColoringConflict flags two same-coloured groups observed
	// go-active on the same cycle — property 6.
	IssueColoringConflict
	// IssueParCompletionMismatch flags a par's done signal landing on a
	// cycle other than one past its slowest arm's done cycle — property 4.
	IssueParCompletionMismatch
)

func (k IssueKind) String() string {
	switch k {
	case IssueBoundExceeded:
		return "bound exceeded"
	case IssueUnreachableState:
		return "unreachable state"
	case IssueColoringConflict:
		return "coloring conflict"
	case IssueParCompletionMismatch:
		return "par completion mismatch"
	default:
		return "unknown"
	}
}

// Issue is one diagnostic the interpreter raised against a component.
type Issue struct {
	Kind      IssueKind `json:"kind"`
	Component string    `json:"component"`
	Cycle     int       `json:"cycle"`
	Message   string    `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s (cycle %d): %s", i.Kind, i.Component, i.Cycle, i.Message)
}

// MarshalJSON renders the Kind as its name rather than a bare integer.
func (k IssueKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// CheckBound walks con looking for While nodes carrying an @bound(n)
// annotation, and compares n against the number of cycles cond was
// observed true in condHistory[con.Cond]. Exceeding the bound is not an
// error — per §7 it is a Warning the interpreter surfaces, naming the loop,
// while compilation itself already succeeded.
func CheckBound(component string, con *ir.Control, condHistory map[ir.PortID][]bool) []Issue {
	var issues []Issue
	walkBound(component, con, condHistory, &issues)
	return issues
}

func walkBound(component string, con *ir.Control, condHistory map[ir.PortID][]bool, issues *[]Issue) {
	if con == nil || con.Kind == ir.CEmpty {
		return
	}

	if con.Kind == ir.CWhile {
		if bound, ok := con.Attrs.Num(ir.AttrBound); ok {
			observed := countTrue(condHistory[con.Cond])
			if observed > bound {
				*issues = append(*issues, Issue{
					Kind:      IssueBoundExceeded,
					Component: component,
					Cycle:     len(condHistory[con.Cond]) - 1,
					Message:   fmt.Sprintf("while loop annotated @bound(%d) observed %d true cycles on its guard", bound, observed),
				})
			}
		}
		walkBound(component, con.Body, condHistory, issues)
		return
	}

	switch con.Kind {
	case ir.CSeq, ir.CPar, ir.CStaticSeq, ir.CStaticPar:
		for _, stmt := range con.Stmts {
			walkBound(component, stmt, condHistory, issues)
		}
	case ir.CIf, ir.CStaticIf:
		walkBound(component, con.True, condHistory, issues)
		walkBound(component, con.False, condHistory, issues)
	case ir.CRepeat, ir.CStaticRepeat:
		walkBound(component, con.Body, condHistory, issues)
	}
}

func countTrue(history []bool) int {
	n := 0
	for _, v := range history {
		if v {
			n++
		}
	}
	return n
}

// CheckReachability scans a Trace for the values an FSM register took on
// and flags any outside [0, numStates): a state the schedule never assigns
// meaning to, which property 3 rules out by construction of a well-formed
// schedule. It does not itself prove every state in range was visited —
// that is an assertion the calling test makes by inspecting the returned
// set of observed states across enough stimuli to cover the schedule's
// branches.
func CheckReachability(component, fsmRegister string, trace Trace, numStates int) (observed map[uint64]struct{}, issues []Issue) {
	observed = make(map[uint64]struct{})
	for cycle, snap := range trace.Snapshots {
		v, ok := snap[fsmRegister]
		if !ok {
			continue
		}
		observed[v] = struct{}{}
		if v >= uint64(numStates) {
			issues = append(issues, Issue{
				Kind:      IssueUnreachableState,
				Component: component,
				Cycle:     cycle,
				Message:   fmt.Sprintf("fsm register %q held %d, outside the schedule's %d states", fsmRegister, v, numStates),
			})
		}
	}
	return observed, issues
}

// CheckColoring checks, for every colour's group of proxy registers, that
// at most one is non-zero on any recorded cycle. Each proxy register
// stands in for a group's combinational go signal for the one cycle it
// would be high, the way an emitted testbench probe would; colours with
// fewer than two groups can never conflict and are skipped.
func CheckColoring(component string, trace Trace, colours map[string][]string) []Issue {
	var issues []Issue
	for colour, regs := range colours {
		if len(regs) < 2 {
			continue
		}
		for cycle, snap := range trace.Snapshots {
			active := 0
			for _, reg := range regs {
				if snap[reg] != 0 {
					active++
				}
			}
			if active > 1 {
				issues = append(issues, Issue{
					Kind:      IssueColoringConflict,
					Component: component,
					Cycle:     cycle,
					Message:   fmt.Sprintf("colour %q has %d groups go-active simultaneously", colour, active),
				})
			}
		}
	}
	return issues
}

// CheckParCompletion finds the first cycle at which doneRegister reads
// non-zero in trace and flags it unless it is exactly one cycle past the
// slowest of armDoneCycles, per property 4.
func CheckParCompletion(component, doneRegister string, trace Trace, armDoneCycles []int) []Issue {
	doneCycle := -1
	for cycle, snap := range trace.Snapshots {
		if snap[doneRegister] != 0 {
			doneCycle = cycle
			break
		}
	}

	slowest := -1
	for _, c := range armDoneCycles {
		if c > slowest {
			slowest = c
		}
	}
	want := slowest + 1

	if doneCycle != want {
		return []Issue{{
			Kind:      IssueParCompletionMismatch,
			Component: component,
			Cycle:     doneCycle,
			Message:   fmt.Sprintf("par done observed at cycle %d, want %d (one past slowest arm at %d)", doneCycle, want, slowest),
		}}
	}
	return nil
}
