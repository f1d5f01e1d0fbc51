package pass

import (
	"fmt"

	"github.com/sarchlab/fsmforge/ir"
	"github.com/sarchlab/fsmforge/staticinline"
)

// inlineStaticIslands walks con looking for maximal static-control subtrees
// (ones rooted at a node whose Kind.IsStatic() holds) reachable from an
// otherwise dynamic control tree, and reduces each one with the static
// inliner into a single StaticEnable leaf. It returns the (possibly
// rewritten in place) tree and the top-level static group handle of every
// island found, in the order encountered — exactly the "groups" list
// staticsched.AllocateAndRealize expects.
//
// A component whose own root is already static (con.Kind.IsStatic()) is
// itself treated as one island spanning the whole tree.
func inlineStaticIslands(b *staticinline.Builder, con *ir.Control) (*ir.Control, []ir.StaticGroupID, error) {
	if con == nil {
		return con, nil, nil
	}

	if con.Kind.IsStatic() {
		sg, err := b.Inline(con)
		if err != nil {
			return nil, nil, err
		}
		return ir.StaticEnable(sg, con.Latency), []ir.StaticGroupID{sg}, nil
	}

	switch con.Kind {
	case ir.CEmpty, ir.CEnable, ir.CInvoke:
		return con, nil, nil
	case ir.CSeq, ir.CPar:
		var islands []ir.StaticGroupID
		for i, stmt := range con.Stmts {
			rewritten, found, err := inlineStaticIslands(b, stmt)
			if err != nil {
				return nil, nil, err
			}
			con.Stmts[i] = rewritten
			islands = append(islands, found...)
		}
		return con, islands, nil
	case ir.CIf:
		t, ti, err := inlineStaticIslands(b, con.True)
		if err != nil {
			return nil, nil, err
		}
		f, fi, err := inlineStaticIslands(b, con.False)
		if err != nil {
			return nil, nil, err
		}
		con.True, con.False = t, f
		return con, append(ti, fi...), nil
	case ir.CWhile, ir.CRepeat:
		body := con.Body
		rewritten, found, err := inlineStaticIslands(b, body)
		if err != nil {
			return nil, nil, err
		}
		con.Body = rewritten
		return con, found, nil
	default:
		return nil, nil, fmt.Errorf("pass: unexpected control kind %d while scanning for static islands", con.Kind)
	}
}
