package guardpool_test

import (
	"testing"

	"github.com/sarchlab/fsmforge/guardpool"
	"github.com/sarchlab/fsmforge/ir"
)

func TestInternDedupesStructurallyIdenticalGuards(t *testing.T) {
	pool := guardpool.New()

	a := ir.And(ir.PortGuard(ir.PortID(1)), ir.PortGuard(ir.PortID(2)))
	b := ir.And(ir.PortGuard(ir.PortID(1)), ir.PortGuard(ir.PortID(2)))

	refA := pool.Intern(a)
	refB := pool.Intern(b)

	if refA != refB {
		t.Fatalf("expected structurally identical guards to share a Ref, got %d and %d", refA, refB)
	}
	if pool.Len() != 1 {
		t.Fatalf("expected 1 distinct guard, got %d", pool.Len())
	}
}

func TestInternDistinguishesDifferentGuards(t *testing.T) {
	pool := guardpool.New()

	refA := pool.Intern(ir.PortGuard(ir.PortID(1)))
	refB := pool.Intern(ir.PortGuard(ir.PortID(2)))

	if refA == refB {
		t.Fatalf("expected distinct guards to get distinct Refs, both got %d", refA)
	}
	if pool.Len() != 2 {
		t.Fatalf("expected 2 distinct guards, got %d", pool.Len())
	}
}

func TestInternTreatsNilAndTrueAlike(t *testing.T) {
	pool := guardpool.New()

	refNil := pool.Intern(nil)
	refTrue := pool.Intern(ir.True())

	if refNil != refTrue {
		t.Fatalf("expected nil and True() to intern to the same Ref, got %d and %d", refNil, refTrue)
	}
}

func TestGetResolvesBackToTheInternedTree(t *testing.T) {
	pool := guardpool.New()
	g := ir.Comp(ir.CompEq, ir.PortID(4), ir.PortID(5))

	ref := pool.Intern(g)
	got := pool.Get(ref)

	if got.Kind != ir.GuardComp || got.CompLhs != ir.PortID(4) || got.CompRhs != ir.PortID(5) {
		t.Fatalf("Get(%d) returned an unexpected guard: %+v", ref, got)
	}
}

func TestInternDistinguishesAndFromOrOfSameOperands(t *testing.T) {
	pool := guardpool.New()

	p1, p2 := ir.PortGuard(ir.PortID(1)), ir.PortGuard(ir.PortID(2))
	refAnd := pool.Intern(ir.And(p1, p2))
	refOr := pool.Intern(ir.Or(p1, p2))

	if refAnd == refOr {
		t.Fatalf("expected And and Or of the same operands to intern separately")
	}
}
