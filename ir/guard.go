package ir

import "fmt"

// CompOp is a port-to-port comparison operator used by a Comp guard.
type CompOp int

const (
	CompEq CompOp = iota
	CompNeq
	CompLt
	CompLe
	CompGt
	CompGe
)

func (op CompOp) String() string {
	switch op {
	case CompEq:
		return "=="
	case CompNeq:
		return "!="
	case CompLt:
		return "<"
	case CompLe:
		return "<="
	case CompGt:
		return ">"
	case CompGe:
		return ">="
	default:
		return "?"
	}
}

// GuardKind tags the variant of a Guard tree node.
type GuardKind int

const (
	GuardTrue GuardKind = iota
	GuardPort
	GuardNot
	GuardAnd
	GuardOr
	GuardComp
	GuardInfo // static timing only: "containing static group is in cycle k, lo<=k<hi"
)

// Guard is the sum-type guard expression of §4.1. A single concrete type
// serves both dynamic groups (where a well-formed tree never contains
// GuardInfo) and static groups (where it may): Go has no first-class ADKs
// parameterised the way Guard<T> is in the source material, and threading a
// generic type parameter through every constructor buys nothing a single
// runtime tag doesn't already give us. The invariant "GuardInfo only inside
// a static group, with hi within its latency" is not enforced by the Go type
// system; the validator's checkStaticIntervalsInRange checks the latency
// half, and nothing checks that dynamic groups are free of GuardInfo.
type Guard struct {
	Kind GuardKind

	// GuardPort
	Port PortID

	// GuardNot
	Sub *Guard

	// GuardAnd / GuardOr
	Lhs, Rhs *Guard

	// GuardComp
	CompOp       CompOp
	CompLhs, CompRhs PortID

	// GuardInfo
	Lo, Hi int
}

// True constructs the always-true guard.
func True() *Guard { return &Guard{Kind: GuardTrue} }

// IsTrue reports whether g is (or simplifies to) the always-true guard.
func (g *Guard) IsTrue() bool {
	return g == nil || g.Kind == GuardTrue
}

// PortGuard constructs a one-bit guard that is true iff the named port is
// asserted.
func PortGuard(p PortID) *Guard {
	return &Guard{Kind: GuardPort, Port: p}
}

// Comp constructs a port-to-port comparison guard.
func Comp(op CompOp, lhs, rhs PortID) *Guard {
	return &Guard{Kind: GuardComp, CompOp: op, CompLhs: lhs, CompRhs: rhs}
}

// Info constructs a static-timing guard meaning "cycle k with lo<=k<hi".
// It panics when hi<=lo. An Info whose hi will exceed its owning group's
// latency is not rejected here but reported by the validator as a
// malformed-structure error: the owning latency isn't known at construction time for an
// Info built bottom-up during static inlining (it is only known once the
// enclosing group's final latency is settled).
func Info(lo, hi int) *Guard {
	if hi <= lo {
		panic(fmt.Sprintf("ir: malformed static guard Info(%d,%d): hi must exceed lo", lo, hi))
	}
	return &Guard{Kind: GuardInfo, Lo: lo, Hi: hi}
}

// Not negates g, eliminating double negation.
func Not(g *Guard) *Guard {
	if g == nil {
		return &Guard{Kind: GuardNot, Sub: True()}
	}
	if g.Kind == GuardNot {
		return g.Sub
	}
	return &Guard{Kind: GuardNot, Sub: g}
}

// And conjoins two guards, applying the identities g&&true=g, g&&false=false.
func And(a, b *Guard) *Guard {
	if a.IsTrue() {
		return orTrue(b)
	}
	if b.IsTrue() {
		return orTrue(a)
	}
	if isFalse(a) || isFalse(b) {
		return falseGuard()
	}
	return &Guard{Kind: GuardAnd, Lhs: a, Rhs: b}
}

// Or disjoins two guards, applying the identities g||false=g, g||true=true.
func Or(a, b *Guard) *Guard {
	if isFalse(a) {
		return orTrue(b)
	}
	if isFalse(b) {
		return orTrue(a)
	}
	if a.IsTrue() || b.IsTrue() {
		return True()
	}
	return &Guard{Kind: GuardOr, Lhs: a, Rhs: b}
}

func orTrue(g *Guard) *Guard {
	if g == nil {
		return True()
	}
	return g
}

// falseGuard represents the constant-false guard as Not(True()); there is no
// dedicated GuardFalse kind because only And/Or ever need to produce it and
// they can express it via Not(True()).
func falseGuard() *Guard {
	return &Guard{Kind: GuardNot, Sub: True()}
}

func isFalse(g *Guard) bool {
	return g != nil && g.Kind == GuardNot && g.Sub.IsTrue()
}

// ForEachInfo calls fn on every GuardInfo node reachable from g.
func (g *Guard) ForEachInfo(fn func(lo, hi int)) {
	if g == nil {
		return
	}
	switch g.Kind {
	case GuardInfo:
		fn(g.Lo, g.Hi)
	case GuardNot:
		g.Sub.ForEachInfo(fn)
	case GuardAnd, GuardOr:
		g.Lhs.ForEachInfo(fn)
		g.Rhs.ForEachInfo(fn)
	}
}

// CheckForEachInfo visits every GuardInfo node, short-circuiting on the
// first error fn returns.
func (g *Guard) CheckForEachInfo(fn func(lo, hi int) error) error {
	if g == nil {
		return nil
	}
	switch g.Kind {
	case GuardInfo:
		return fn(g.Lo, g.Hi)
	case GuardNot:
		return g.Sub.CheckForEachInfo(fn)
	case GuardAnd, GuardOr:
		if err := g.Lhs.CheckForEachInfo(fn); err != nil {
			return err
		}
		return g.Rhs.CheckForEachInfo(fn)
	default:
		return nil
	}
}

// AllPorts returns every PortID referenced anywhere in g (including both
// sides of comparisons), in a stable left-to-right order, duplicates
// included.
func (g *Guard) AllPorts() []PortID {
	var ports []PortID
	g.walkPorts(func(p PortID) { ports = append(ports, p) })
	return ports
}

func (g *Guard) walkPorts(fn func(PortID)) {
	if g == nil {
		return
	}
	switch g.Kind {
	case GuardPort:
		fn(g.Port)
	case GuardComp:
		fn(g.CompLhs)
		fn(g.CompRhs)
	case GuardNot:
		g.Sub.walkPorts(fn)
	case GuardAnd, GuardOr:
		g.Lhs.walkPorts(fn)
		g.Rhs.walkPorts(fn)
	}
}

// Substitute returns a copy of g with every GuardInfo(lo,hi) replaced by the
// guard that replace returns for that (lo,hi) pair. Used by the static
// scheduler to rewrite Info nodes into counter range-query ports.
func (g *Guard) Substitute(replace func(lo, hi int) *Guard) *Guard {
	if g == nil {
		return nil
	}
	switch g.Kind {
	case GuardInfo:
		return replace(g.Lo, g.Hi)
	case GuardNot:
		return Not(g.Sub.Substitute(replace))
	case GuardAnd:
		return And(g.Lhs.Substitute(replace), g.Rhs.Substitute(replace))
	case GuardOr:
		return Or(g.Lhs.Substitute(replace), g.Rhs.Substitute(replace))
	default:
		return g
	}
}

// Update implements §4.1's "update-interval" flattening: every Info(lo,hi)
// inside g is shifted to Info(lo+d,hi+d). The caller is responsible for
// conjoining the returned guard with the outer %[d,d+L) guard per the
// exception rule (d==0 and L equal to the enclosing latency).
func (g *Guard) Update(d int) *Guard {
	return g.Substitute(func(lo, hi int) *Guard {
		return Info(lo+d, hi+d)
	})
}

// LiveStates enumerates, for a guard inside a group of latency L, the cycles
// in [0,L) at which g could possibly be true, by combining the interval sets
// of every Info node under conjunction (intersection) and disjunction
// (union). Non-Info atoms (Port/Comp) are treated as "live at every cycle"
// since their truth is data-dependent, not schedule-dependent.
func (g *Guard) LiveStates(latency int) []bool {
	live := make([]bool, latency)
	switch {
	case g == nil || g.Kind == GuardTrue:
		for i := range live {
			live[i] = true
		}
	case g.Kind == GuardInfo:
		lo, hi := g.Lo, g.Hi
		if hi > latency {
			hi = latency
		}
		for i := lo; i < hi; i++ {
			live[i] = true
		}
	case g.Kind == GuardNot:
		if len(g.Sub.AllPorts()) > 0 {
			// A data-dependent sub-guard may be false at any cycle.
			for i := range live {
				live[i] = true
			}
			break
		}
		sub := g.Sub.LiveStates(latency)
		for i := range live {
			live[i] = !sub[i]
		}
	case g.Kind == GuardAnd:
		lhs := g.Lhs.LiveStates(latency)
		rhs := g.Rhs.LiveStates(latency)
		for i := range live {
			live[i] = lhs[i] && rhs[i]
		}
	case g.Kind == GuardOr:
		lhs := g.Lhs.LiveStates(latency)
		rhs := g.Rhs.LiveStates(latency)
		for i := range live {
			live[i] = lhs[i] || rhs[i]
		}
	default: // GuardPort, GuardComp
		for i := range live {
			live[i] = true
		}
	}
	return live
}
