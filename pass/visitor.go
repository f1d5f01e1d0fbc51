package pass

import "github.com/sarchlab/fsmforge/ir"

// Action tells Walk how to proceed once a hook has run against a node.
type Action int

const (
	// ActionContinue descends into the node's children as usual.
	ActionContinue Action = iota
	// ActionSkip skips this node's children but continues the walk
	// elsewhere.
	ActionSkip
	// ActionStop aborts the walk entirely.
	ActionStop
)

// Visitor is the open visitor capability of design notes §9: passes add
// hooks without the ir package ever needing to know about them, rather than
// every new pass growing its own copy of the Control-tree switch.
type Visitor struct {
	// OnEnter runs before a node's children are visited; its return value
	// decides whether Walk descends into them. A nil OnEnter behaves as
	// ActionContinue.
	OnEnter func(*ir.Control) Action
	// OnLeave runs after a node's children have been visited (or skipped).
	OnLeave func(*ir.Control)
}

// Walk performs a pre/post-order traversal of con. The driver owns this
// dispatch loop; individual passes only ever supply hooks.
func Walk(con *ir.Control, v Visitor) Action {
	if con == nil {
		return ActionContinue
	}

	action := ActionContinue
	if v.OnEnter != nil {
		action = v.OnEnter(con)
	}
	if action == ActionStop {
		return ActionStop
	}

	if action != ActionSkip {
		switch con.Kind {
		case ir.CSeq, ir.CStaticSeq, ir.CPar, ir.CStaticPar:
			for _, stmt := range con.Stmts {
				if Walk(stmt, v) == ActionStop {
					return ActionStop
				}
			}
		case ir.CIf, ir.CStaticIf:
			if Walk(con.True, v) == ActionStop {
				return ActionStop
			}
			if Walk(con.False, v) == ActionStop {
				return ActionStop
			}
		case ir.CWhile:
			if Walk(con.Body, v) == ActionStop {
				return ActionStop
			}
		case ir.CRepeat, ir.CStaticRepeat:
			if Walk(con.Body, v) == ActionStop {
				return ActionStop
			}
		}
	}

	if v.OnLeave != nil {
		v.OnLeave(con)
	}
	return ActionContinue
}
