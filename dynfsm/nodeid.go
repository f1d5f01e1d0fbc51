// Package dynfsm realizes a dynamic control tree (§4.4) into a purely
// structural circuit driven by one or more top-down finite state machines: it
// numbers control nodes, threads predecessor edges through Seq/If/While,
// decomposes Par into independently-progressing per-arm schedules, and
// (experimentally) builds a region-annotated "medium" FSM that can offload,
// inline, or unroll selected static sub-regions into a parent counter.
package dynfsm

import "github.com/sarchlab/fsmforge/ir"

// AssignNodeIDs labels every Enable and Par node with AttrNodeID, numbering
// sequentially within the scope of one schedule. A Seq/If/While tagged
// AttrNewFSM restarts numbering (a Seq at zero, an If or While at one) and
// is itself given a node ID in its parent's numbering, so its eventual
// Enable(wrapper) occupies exactly one state there.
func AssignNodeIDs(c *ir.Control, cur int) int {
	switch c.Kind {
	case ir.CEnable, ir.CStaticEnable:
		c.Attrs.SetNum(ir.AttrNodeID, cur)
		return cur + 1
	case ir.CPar:
		c.Attrs.SetNum(ir.AttrNodeID, cur)
		for _, stmt := range c.Stmts {
			AssignNodeIDs(stmt, 0)
		}
		return cur + 1
	case ir.CSeq:
		newFSM := c.Attrs.Has(ir.AttrNewFSM)
		next := cur
		if newFSM {
			c.Attrs.SetNum(ir.AttrNodeID, cur)
			next = 0
		}
		for _, stmt := range c.Stmts {
			next = AssignNodeIDs(stmt, next)
		}
		if newFSM {
			return cur + 1
		}
		return next
	case ir.CIf:
		newFSM := c.Attrs.Has(ir.AttrNewFSM)
		if newFSM {
			c.Attrs.SetNum(ir.AttrNodeID, cur)
		}
		start := cur
		if newFSM || cur == 0 {
			start = 1
		}
		afterTrue := AssignNodeIDs(c.True, start)
		afterFalse := AssignNodeIDs(c.False, afterTrue)
		if newFSM {
			return cur + 1
		}
		return afterFalse
	case ir.CWhile:
		newFSM := c.Attrs.Has(ir.AttrNewFSM)
		if newFSM {
			c.Attrs.SetNum(ir.AttrNodeID, cur)
		}
		start := cur
		if newFSM || cur == 0 {
			start = 1
		}
		afterBody := AssignNodeIDs(c.Body, start)
		if newFSM {
			return cur + 1
		}
		return afterBody
	case ir.CEmpty:
		return cur
	default:
		return cur
	}
}
