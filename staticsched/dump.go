package staticsched

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/fsmforge/ir"
)

// DumpFSMs renders a debug table of static counters: one row per counter
// showing its encoding, bitwidth and the static groups it schedules. No CLI
// flag or pass calls it.
func DumpFSMs(w io.Writer, comp *ir.Component, fsms map[ir.StaticGroupID]*StaticFSM) {
	byCell := make(map[string][]ir.StaticGroupID)
	seen := make(map[string]*StaticFSM)
	for gid, fsm := range fsms {
		name := fsm.CellName()
		byCell[name] = append(byCell[name], gid)
		seen[name] = fsm
	}

	names := make([]string, 0, len(byCell))
	for name := range byCell {
		names = append(names, name)
	}
	sort.Strings(names)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("Static FSMs in %s", comp.Name))
	t.AppendHeader(table.Row{"Counter", "Encoding", "Bits", "Groups"})
	for _, name := range names {
		fsm := seen[name]
		members := byCell[name]
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		groupNames := ""
		for i, gid := range members {
			if i > 0 {
				groupNames += ", "
			}
			groupNames += comp.StaticGroup(gid).Name
		}
		t.AppendRow(table.Row{name, fsm.encoding.String(), fsm.bitwidth, groupNames})
	}
	fmt.Fprintln(w, t.Render())
}
