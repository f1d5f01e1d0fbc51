// Package pass implements the linear compiler pipeline: static inlining,
// static-FSM allocation, dynamic-FSM compilation and well-formedness
// validation, run in sequence over every component in a program. It also
// hosts the open visitor framework (Walk/Visitor) that any future pass can
// build on without touching the ir package, per design notes §9.
package pass

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/sarchlab/fsmforge/dynfsm"
	"github.com/sarchlab/fsmforge/ir"
	"github.com/sarchlab/fsmforge/primitives"
	"github.com/sarchlab/fsmforge/staticinline"
	"github.com/sarchlab/fsmforge/staticsched"
	"github.com/sarchlab/fsmforge/validate"
)

// LevelPassTrace is one step above slog.LevelDebug, used for per-pass
// tracing that config.NewLogger enables under --verbose/-v, mirroring the
// teacher's own above-Debug custom level in core/util.go.
const LevelPassTrace = slog.LevelDebug + 1

// Config tunes the driver's passes. Mirrors the CLI defaults of spec §6.
type Config struct {
	StaticInline             staticinline.Config
	OneHotCutoff             int
	StaticComponentInterface bool
	EarlyTransitions         bool
}

// DefaultConfig matches the CLI's own defaults.
func DefaultConfig() Config {
	return Config{
		StaticInline: staticinline.DefaultConfig(),
		OneHotCutoff: staticsched.DefaultOneHotCutoff,
	}
}

// Driver runs every pass over a program. Built through DriverBuilder's
// fluent With* methods, the way config.DeviceBuilder is built in the
// teacher.
type Driver struct {
	primitives *primitives.Library
	validator  validate.Validator
	cfg        Config
	logger     *slog.Logger
}

// DriverBuilder accumulates Driver options via value-receiver With* calls.
type DriverBuilder struct {
	d Driver
}

// NewDriverBuilder starts from the default pass configuration, no validator
// override (ValidateProgram builds one over the compiled program itself) and
// slog.Default().
func NewDriverBuilder(lib *primitives.Library) DriverBuilder {
	return DriverBuilder{d: Driver{primitives: lib, cfg: DefaultConfig(), logger: slog.Default()}}
}

// WithConfig overrides the pass configuration.
func (b DriverBuilder) WithConfig(cfg Config) DriverBuilder {
	b.d.cfg = cfg
	return b
}

// WithValidator overrides the validator the driver runs after compiling
// every component. Tests inject a gomock Validator here.
func (b DriverBuilder) WithValidator(v validate.Validator) DriverBuilder {
	b.d.validator = v
	return b
}

// WithLogger overrides the structured logger used for pass tracing.
func (b DriverBuilder) WithLogger(l *slog.Logger) DriverBuilder {
	b.d.logger = l
	return b
}

// Build finalizes the Driver.
func (b DriverBuilder) Build() *Driver {
	d := b.d
	return &d
}

// CompileError wraps the fatal validate.Issues (§7's taxonomy, everything
// but Warning) a compile run could not get past.
type CompileError struct {
	Issues []validate.Issue
}

func (e *CompileError) Error() string {
	if len(e.Issues) == 0 {
		return "pass: compilation failed"
	}
	first := e.Issues[0]
	return fmt.Sprintf("pass: %d fatal issue(s), first: [%s] %s", len(e.Issues), first.Type, first.Message)
}

// CompileProgram runs CompileComponent over every component, then validates
// the whole program. Warnings are logged; any fatal Issue is returned as a
// *CompileError without emitting anything further, matching the teacher's
// lint pass collecting everything before the caller decides what is fatal.
func (d *Driver) CompileProgram(comps map[string]*ir.Component) error {
	names := make([]string, 0, len(comps))
	for name := range comps {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := d.CompileComponent(comps[name]); err != nil {
			return fmt.Errorf("pass: compiling %q: %w", name, err)
		}
	}

	validator := d.validator
	if validator == nil {
		validator = validate.NewChecker(d.primitives, comps)
	}

	list := make([]*ir.Component, 0, len(names))
	for _, name := range names {
		list = append(list, comps[name])
	}

	issues := validator.ValidateProgram(list)
	var fatal []validate.Issue
	for _, issue := range issues {
		if issue.Fatal() {
			fatal = append(fatal, issue)
			continue
		}
		d.logger.Warn("validation warning", "component", issue.Component, "message", issue.Message)
	}
	if len(fatal) > 0 {
		return &CompileError{Issues: fatal}
	}
	return nil
}

// CompileComponent runs the static-inline -> static-schedule -> dynamic-FSM
// pipeline over one component's control tree, leaving it as either Empty
// (combinational) or a single top-level Enable. It does not validate or
// emit; CompileProgram (or the emit package on the driver's output) does
// that.
func (d *Driver) CompileComponent(comp *ir.Component) error {
	d.traceControlShape(comp)

	if comp.Control == nil || comp.Control.Kind == ir.CEmpty {
		return nil
	}

	builder := staticinline.New(comp, d.cfg.StaticInline)
	rewritten, islands, err := inlineStaticIslands(builder, comp.Control)
	if err != nil {
		return err
	}
	comp.Control = rewritten

	if len(islands) > 0 {
		assigns, fsms := staticsched.AllocateAndRealize(comp, islands, comp.Control, d.cfg.StaticComponentInterface, d.cfg.OneHotCutoff)

		doneGuards := make(map[ir.StaticGroupID]*ir.Guard, len(islands))
		for _, sg := range islands {
			comp.StaticGroup(sg).Assignments = assigns[sg]
			latency := comp.StaticGroup(sg).Latency
			doneGuards[sg] = fsms[sg].QueryBetween(latency-1, latency)
		}
		comp.Control = dynfsm.ReplaceStaticEnables(comp, comp.Control, doneGuards)
	}

	if comp.Control.Kind == ir.CEmpty {
		return nil
	}

	top, err := dynfsm.CompileControl(comp, comp.Control, d.cfg.EarlyTransitions)
	if err != nil {
		return fmt.Errorf("pass: dynamic FSM compilation: %w", err)
	}
	comp.Control = ir.Enable(top)
	return nil
}

// traceControlShape logs a per-kind node count at LevelPassTrace (enabled by
// --verbose): enough to see at a glance whether
// a component's control tree is static, dynamic, or mixed before the
// rewriting passes below change its shape.
func (d *Driver) traceControlShape(comp *ir.Component) {
	if comp.Control == nil || !d.logger.Enabled(context.Background(), LevelPassTrace) {
		return
	}
	counts := map[ir.ControlKind]int{}
	Walk(comp.Control, Visitor{
		OnEnter: func(c *ir.Control) Action {
			counts[c.Kind]++
			return ActionContinue
		},
	})
	d.logger.Log(context.Background(), LevelPassTrace, "control shape", "component", comp.Name, "counts", counts)
}
