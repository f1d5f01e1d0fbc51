// Package validate implements the well-formedness checks summarised in
// §4.6: every check accumulates into a slice of Issue so a single run
// reports everything wrong with a component at once, the way the teacher's
// verify.RunLint collects STRUCT/TIMING issues rather than failing on the
// first one found.
package validate

import (
	"github.com/sarchlab/fsmforge/ir"
	"github.com/sarchlab/fsmforge/primitives"
)

// IssueType mirrors the error taxonomy of §7: a Kind word, not a Go type.
type IssueType string

const (
	IssueUndefinedReference IssueType = "UNDEFINED_REFERENCE"
	IssueDuplicateBinding   IssueType = "DUPLICATE_BINDING"
	IssueMalformedStructure IssueType = "MALFORMED_STRUCTURE"
	IssueMalformedControl   IssueType = "MALFORMED_CONTROL"
	IssueWarning            IssueType = "WARNING"
)

// Issue is a single well-formedness finding.
type Issue struct {
	Type      IssueType
	Component string
	Message   string
	Details   map[string]interface{}
}

// Fatal reports whether this issue's Type belongs to the fatal subset of the
// §7 taxonomy (everything except Warning).
func (i Issue) Fatal() bool { return i.Type != IssueWarning }

// Validator checks one component, or a whole program, against §4.6.
// A gomock-generated mock of this interface stands in for the validator in
// pass-driver tests the way the teacher mocks sim.Connection/sim.Component.
type Validator interface {
	Validate(comp *ir.Component) []Issue
	ValidateProgram(comps []*ir.Component) []Issue
}

// Checker is the concrete Validator: it needs the primitive catalog (to
// check a cell's prototype is defined) and the set of sibling components in
// the same program (to check sub-component cell prototypes, static-cell
// writes, and ref-cell subtyping — all of which reach outside the one
// component being checked).
type Checker struct {
	Primitives *primitives.Library
	Components map[string]*ir.Component
}

// NewChecker builds a Checker over the given primitive catalog and sibling
// component set (including the component that will itself be validated).
func NewChecker(lib *primitives.Library, components map[string]*ir.Component) *Checker {
	return &Checker{Primitives: lib, Components: components}
}

// Validate runs every per-component check in §4.6 order against comp.
func (c *Checker) Validate(comp *ir.Component) []Issue {
	var issues []Issue
	issues = append(issues, c.checkPrototypesDefined(comp)...)
	issues = append(issues, c.checkGroupDoneHoles(comp)...)
	issues = append(issues, c.checkDynamicWritesToStaticCells(comp)...)
	issues = append(issues, c.checkStaticIntervalsInRange(comp)...)
	issues = append(issues, c.checkConditionStability(comp)...)
	issues = append(issues, c.checkFastSeqAlternation(comp)...)
	issues = append(issues, c.checkRefBindings(comp)...)
	issues = append(issues, c.checkGoIntervalMatchesLatency(comp)...)
	return issues
}

// ValidateProgram runs Validate over every component and adds the one
// whole-program check (an entrypoint must exist).
func (c *Checker) ValidateProgram(comps []*ir.Component) []Issue {
	var issues []Issue
	for _, comp := range comps {
		issues = append(issues, c.Validate(comp)...)
	}
	issues = append(issues, checkEntrypointExists(comps)...)
	return issues
}
