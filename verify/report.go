package verify

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Report is a run's full set of diagnostics against one compiled
// component, in the spirit of the teacher's VerificationReport: one place
// that categorizes every issue and renders a readable summary, rather than
// a test leaving the caller to piece together pass/fail from bare issue
// slices.
type Report struct {
	Component string
	Cycles    int

	BoundIssues    []Issue
	StateIssues    []Issue
	ColoringIssues []Issue
	ParIssues      []Issue
}

// GenerateReport buckets issues by kind into a Report ready for WriteReport.
func GenerateReport(component string, cycles int, issues ...[]Issue) *Report {
	r := &Report{Component: component, Cycles: cycles}
	for _, group := range issues {
		for _, issue := range group {
			switch issue.Kind {
			case IssueBoundExceeded:
				r.BoundIssues = append(r.BoundIssues, issue)
			case IssueUnreachableState:
				r.StateIssues = append(r.StateIssues, issue)
			case IssueColoringConflict:
				r.ColoringIssues = append(r.ColoringIssues, issue)
			case IssueParCompletionMismatch:
				r.ParIssues = append(r.ParIssues, issue)
			}
		}
	}
	return r
}

// Total reports how many issues of any kind the report carries.
func (r *Report) Total() int {
	return len(r.BoundIssues) + len(r.StateIssues) + len(r.ColoringIssues) + len(r.ParIssues)
}

// Fatal reports whether the run found anything beyond advisory @bound
// warnings: state, coloring and par-completion issues all point at a
// miscompilation, while a bound issue is, per §7, non-fatal by design.
func (r *Report) Fatal() bool {
	return len(r.StateIssues) > 0 || len(r.ColoringIssues) > 0 || len(r.ParIssues) > 0
}

// WriteReport renders a formatted table of every issue to w, one row per
// issue, followed by a one-line result, mirroring staticsched.DumpFSMs's
// use of go-pretty for its counter debug table.
func (r *Report) WriteReport(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("Verification report: %s (%d cycles)", r.Component, r.Cycles))
	t.AppendHeader(table.Row{"Kind", "Cycle", "Message"})

	for _, group := range [][]Issue{r.BoundIssues, r.StateIssues, r.ColoringIssues, r.ParIssues} {
		for _, issue := range group {
			t.AppendRow(table.Row{issue.Kind, issue.Cycle, issue.Message})
		}
	}
	fmt.Fprintln(w, t.Render())

	switch {
	case r.Fatal():
		fmt.Fprintf(w, "RESULT: %d issue(s), including fatal miscompilation evidence\n", r.Total())
	case r.Total() > 0:
		fmt.Fprintf(w, "RESULT: %d advisory warning(s), no miscompilation evidence\n", r.Total())
	default:
		fmt.Fprintln(w, "RESULT: clean")
	}
}

// reportJSON is the JSON-serializable view of a Report: the same issue
// groups WriteReport renders as a table, for callers (CI, --dump-fsm-json's
// sibling tooling) that want to parse the result instead of reading it.
type reportJSON struct {
	Component      string  `json:"component"`
	Cycles         int     `json:"cycles"`
	BoundIssues    []Issue `json:"bound_issues,omitempty"`
	StateIssues    []Issue `json:"state_issues,omitempty"`
	ColoringIssues []Issue `json:"coloring_issues,omitempty"`
	ParIssues      []Issue `json:"par_issues,omitempty"`
}

// WriteJSON renders the report as JSON, the dual-output counterpart to
// WriteReport's table.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reportJSON{
		Component:      r.Component,
		Cycles:         r.Cycles,
		BoundIssues:    r.BoundIssues,
		StateIssues:    r.StateIssues,
		ColoringIssues: r.ColoringIssues,
		ParIssues:      r.ParIssues,
	})
}

// SaveReportToFile saves the table-rendered report to filename.
func (r *Report) SaveReportToFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("verify: creating %q: %w", filename, err)
	}
	defer file.Close()

	r.WriteReport(file)
	return nil
}
