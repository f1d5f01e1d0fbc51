package ir

// NumAttr is an attribute name whose value is an integer.
type NumAttr int

const (
	AttrInterval NumAttr = iota // @interval(n) on a @go port
	AttrStatic                  // @static(n) declared latency
	AttrBound                   // @bound(n) advisory while trip count
	AttrNodeID                  // internal: dynamic-FSM node numbering
	AttrStateID                 // internal: per-par-arm state numbering
	AttrScheduleID              // internal: static-schedule colour id
	AttrNumStates               // internal: cached medium-FSM sizing hint
	AttrOffloadStart            // internal: par-child offload-interval start cycle
	AttrOffloadEnd              // internal: par-child offload-interval end cycle
)

// BoolAttr is an attribute name whose presence alone carries meaning.
type BoolAttr int

const (
	AttrGo BoolAttr = iota
	AttrDone
	AttrNewFSM   // @new_fsm
	AttrFast     // @fast
	AttrToplevel // @toplevel
	AttrNoInterface
	AttrExternal
	AttrReference
	AttrPromoted
	AttrData
	AttrStable
	AttrAcyclic  // internal: @ACYCLIC medium-FSM region
	AttrInline   // internal: @INLINE medium-FSM region
	AttrOffload  // internal: @OFFLOAD medium-FSM region
	AttrUnroll   // internal: @UNROLL medium-FSM region
	AttrGenerated // internal: compiler-introduced cell/group (SPEC_FULL addition)
)

// Attrs is the attribute bag attached to ports, cells, groups and control
// nodes: two small maps keyed by a fixed enum rather than a free-form string
// map, so lookups stay O(1) against a tiny, known key space.
type Attrs struct {
	nums  map[NumAttr]int
	bools map[BoolAttr]struct{}
}

// NewAttrs returns an empty attribute bag.
func NewAttrs() Attrs {
	return Attrs{}
}

// SetNum records a numeric attribute.
func (a *Attrs) SetNum(k NumAttr, v int) {
	if a.nums == nil {
		a.nums = make(map[NumAttr]int)
	}
	a.nums[k] = v
}

// Num returns a numeric attribute and whether it was set.
func (a Attrs) Num(k NumAttr) (int, bool) {
	v, ok := a.nums[k]
	return v, ok
}

// SetBool marks a boolean attribute present.
func (a *Attrs) SetBool(k BoolAttr) {
	if a.bools == nil {
		a.bools = make(map[BoolAttr]struct{})
	}
	a.bools[k] = struct{}{}
}

// Has reports whether a boolean attribute is present.
func (a Attrs) Has(k BoolAttr) bool {
	_, ok := a.bools[k]
	return ok
}
