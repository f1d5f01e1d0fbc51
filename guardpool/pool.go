// Package guardpool hash-conses guard trees into a flat, index-addressed
// pool so the emitter can print each distinct sub-expression exactly once.
// Passes themselves must not hash-cons while rewriting (mutation dominates
// during a pass); pooling only happens once, at emission time, over guards
// that passes have already finished mutating.
package guardpool

import (
	"fmt"
	"strconv"

	"github.com/sarchlab/fsmforge/ir"
)

// Ref is an opaque reference to a pooled guard, usable by the emitter to
// print a small indexed name ("g3") instead of re-printing the whole tree.
type Ref int

// Pool hash-conses ir.Guard trees by their canonical string form.
type Pool struct {
	byKey   map[string]Ref
	entries []*ir.Guard
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{byKey: make(map[string]Ref)}
}

// Intern inserts g (if not already present) and returns its Ref. Two
// structurally-identical guard trees — even if built independently by two
// different passes — intern to the same Ref.
func (p *Pool) Intern(g *ir.Guard) Ref {
	key := canonicalKey(g)
	if ref, ok := p.byKey[key]; ok {
		return ref
	}
	ref := Ref(len(p.entries))
	p.entries = append(p.entries, g)
	p.byKey[key] = ref
	return ref
}

// Get resolves a Ref back to its guard tree.
func (p *Pool) Get(ref Ref) *ir.Guard {
	return p.entries[ref]
}

// Len returns the number of distinct guards interned so far.
func (p *Pool) Len() int { return len(p.entries) }

// canonicalKey renders g into a string that is equal for two guard trees iff
// they are structurally identical (modulo Go pointer identity). Flattening a
// guard twice is idempotent: interning the same tree, or an independently
// built but structurally identical one, always yields the same key and
// therefore the same Ref (mod re-numbering across unrelated pools).
func canonicalKey(g *ir.Guard) string {
	if g == nil || g.Kind == ir.GuardTrue {
		return "T"
	}
	switch g.Kind {
	case ir.GuardPort:
		return "P(" + strconv.Itoa(int(g.Port)) + ")"
	case ir.GuardNot:
		return "N(" + canonicalKey(g.Sub) + ")"
	case ir.GuardAnd:
		return "A(" + canonicalKey(g.Lhs) + "," + canonicalKey(g.Rhs) + ")"
	case ir.GuardOr:
		return "O(" + canonicalKey(g.Lhs) + "," + canonicalKey(g.Rhs) + ")"
	case ir.GuardComp:
		return fmt.Sprintf("C(%d,%d,%d)", g.CompOp, g.CompLhs, g.CompRhs)
	case ir.GuardInfo:
		return fmt.Sprintf("I(%d,%d)", g.Lo, g.Hi)
	default:
		return "?"
	}
}
