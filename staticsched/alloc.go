package staticsched

import "github.com/sarchlab/fsmforge/ir"

// conflictGraph is an undirected adjacency set over static group handles.
type conflictGraph struct {
	edges map[ir.StaticGroupID]map[ir.StaticGroupID]bool
}

func newConflictGraph(groups []ir.StaticGroupID) *conflictGraph {
	g := &conflictGraph{edges: make(map[ir.StaticGroupID]map[ir.StaticGroupID]bool, len(groups))}
	for _, gid := range groups {
		g.edges[gid] = make(map[ir.StaticGroupID]bool)
	}
	return g
}

func (g *conflictGraph) insert(a, b ir.StaticGroupID) {
	if a == b {
		return
	}
	if g.edges[a] == nil {
		g.edges[a] = make(map[ir.StaticGroupID]bool)
	}
	if g.edges[b] == nil {
		g.edges[b] = make(map[ir.StaticGroupID]bool)
	}
	g.edges[a][b] = true
	g.edges[b][a] = true
}

// colorGreedy assigns each group in order the lowest colour not already used
// by a conflicting, already-coloured neighbour.
func (g *conflictGraph) colorGreedy(order []ir.StaticGroupID) map[ir.StaticGroupID]int {
	colors := make(map[ir.StaticGroupID]int, len(order))
	for _, gid := range order {
		used := make(map[int]bool)
		for neighbor := range g.edges[gid] {
			if c, ok := colors[neighbor]; ok {
				used[c] = true
			}
		}
		c := 0
		for used[c] {
			c++
		}
		colors[gid] = c
	}
	return colors
}

// goWritesOf returns the static groups whose go hole sg directly drives.
func goWritesOf(comp *ir.Component, sg ir.StaticGroupID) map[ir.StaticGroupID]bool {
	uses := make(map[ir.StaticGroupID]bool)
	for _, a := range comp.StaticGroup(sg).Assignments {
		port := comp.Port(a.Dst)
		if !port.IsHole() || port.Name != "go" {
			continue
		}
		target := ir.StaticGroupID(port.OwnerGroup)
		if int(target) < len(comp.StaticGroups) && comp.StaticGroup(target).GoHole == a.Dst {
			uses[target] = true
		}
	}
	return uses
}

// buildUsesMap maps each static group to every group it triggers (directly
// or transitively) through go-hole writes.
func buildUsesMap(comp *ir.Component, groups []ir.StaticGroupID) map[ir.StaticGroupID]map[ir.StaticGroupID]bool {
	direct := make(map[ir.StaticGroupID]map[ir.StaticGroupID]bool, len(groups))
	for _, gid := range groups {
		direct[gid] = goWritesOf(comp, gid)
	}

	memo := make(map[ir.StaticGroupID]map[ir.StaticGroupID]bool)
	visiting := make(map[ir.StaticGroupID]bool)
	var visit func(ir.StaticGroupID) map[ir.StaticGroupID]bool
	visit = func(gid ir.StaticGroupID) map[ir.StaticGroupID]bool {
		if m, ok := memo[gid]; ok {
			return m
		}
		if visiting[gid] {
			return map[ir.StaticGroupID]bool{}
		}
		visiting[gid] = true
		result := make(map[ir.StaticGroupID]bool)
		for use := range direct[gid] {
			result[use] = true
			for t := range visit(use) {
				result[t] = true
			}
		}
		visiting[gid] = false
		memo[gid] = result
		return result
	}

	out := make(map[ir.StaticGroupID]map[ir.StaticGroupID]bool, len(groups))
	for _, gid := range groups {
		out[gid] = visit(gid)
	}
	return out
}

// usedStaticGroups collects every static group (by island root or nested
// go-hole trigger) reachable from a dynamic control subtree.
func usedStaticGroups(c *ir.Control, usesMap map[ir.StaticGroupID]map[ir.StaticGroupID]bool, out map[ir.StaticGroupID]bool) {
	switch c.Kind {
	case ir.CEmpty, ir.CEnable, ir.CInvoke:
		return
	case ir.CStaticEnable:
		out[c.StaticGroup] = true
		for use := range usesMap[c.StaticGroup] {
			out[use] = true
		}
	case ir.CSeq, ir.CPar:
		for _, child := range c.Stmts {
			usedStaticGroups(child, usesMap, out)
		}
	case ir.CRepeat, ir.CWhile:
		usedStaticGroups(c.Body, usesMap, out)
	case ir.CIf:
		usedStaticGroups(c.True, usesMap, out)
		usedStaticGroups(c.False, usesMap, out)
	}
}

// addParConflicts conflicts every pair of static groups that execute in
// different arms of the same dynamic par — they may run concurrently and so
// can't share a counter.
func addParConflicts(c *ir.Control, usesMap map[ir.StaticGroupID]map[ir.StaticGroupID]bool, cg *conflictGraph) {
	switch c.Kind {
	case ir.CEmpty, ir.CEnable, ir.CInvoke, ir.CStaticEnable:
		return
	case ir.CSeq:
		for _, child := range c.Stmts {
			addParConflicts(child, usesMap, cg)
		}
	case ir.CRepeat, ir.CWhile:
		addParConflicts(c.Body, usesMap, cg)
	case ir.CIf:
		addParConflicts(c.True, usesMap, cg)
		addParConflicts(c.False, usesMap, cg)
	case ir.CPar:
		threads := make([]map[ir.StaticGroupID]bool, len(c.Stmts))
		for i, child := range c.Stmts {
			used := make(map[ir.StaticGroupID]bool)
			usedStaticGroups(child, usesMap, used)
			threads[i] = used
		}
		for i := 0; i < len(threads); i++ {
			for j := i + 1; j < len(threads); j++ {
				for a := range threads[i] {
					for b := range threads[j] {
						cg.insert(a, b)
					}
				}
			}
		}
		for _, child := range c.Stmts {
			addParConflicts(child, usesMap, cg)
		}
	}
}

// addGoPortConflicts conflicts a triggering group with everything it
// triggers, and conservatively conflicts every pair of groups triggered by
// the same parent (they fire on the same cycle as each other).
func addGoPortConflicts(usesMap map[ir.StaticGroupID]map[ir.StaticGroupID]bool, cg *conflictGraph) {
	for sgroup, uses := range usesMap {
		useList := make([]ir.StaticGroupID, 0, len(uses))
		for use := range uses {
			cg.insert(use, sgroup)
			useList = append(useList, use)
		}
		for i := 0; i < len(useList); i++ {
			for j := i + 1; j < len(useList); j++ {
				cg.insert(useList[i], useList[j])
			}
		}
	}
}

// GetColoring computes a counter-sharing colour for each static group in
// groups, given the component's full (post-inlining) control tree. Two
// groups sharing a colour may share one StaticFSM counter.
func GetColoring(comp *ir.Component, groups []ir.StaticGroupID, control *ir.Control) map[ir.StaticGroupID]int {
	usesMap := buildUsesMap(comp, groups)
	cg := newConflictGraph(groups)
	addParConflicts(control, usesMap, cg)
	addGoPortConflicts(usesMap, cg)
	return cg.colorGreedy(groups)
}

// AllocateAndRealize colours groups per GetColoring, then realizes each
// colour class with RealizeSchedule so members of one colour share a single
// StaticFSM counter.
func AllocateAndRealize(comp *ir.Component, groups []ir.StaticGroupID, control *ir.Control, staticComponentInterface bool, oneHotCutoff int) (map[ir.StaticGroupID][]ir.Assignment, map[ir.StaticGroupID]*StaticFSM) {
	colors := GetColoring(comp, groups, control)

	order := make(map[int][]ir.StaticGroupID)
	var colorOrder []int
	for _, gid := range groups {
		c := colors[gid]
		if _, seen := order[c]; !seen {
			colorOrder = append(colorOrder, c)
		}
		order[c] = append(order[c], gid)
	}

	assigns := make(map[ir.StaticGroupID][]ir.Assignment, len(groups))
	fsms := make(map[ir.StaticGroupID]*StaticFSM, len(groups))
	for _, c := range colorOrder {
		members := order[c]
		memberAssigns, fsm := RealizeSchedule(comp, members, staticComponentInterface, oneHotCutoff)
		for gid, a := range memberAssigns {
			assigns[gid] = a
			fsms[gid] = fsm
		}
	}
	return assigns, fsms
}
