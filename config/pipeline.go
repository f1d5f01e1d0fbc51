package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sarchlab/fsmforge/emit"
	"github.com/sarchlab/fsmforge/pass"
	"github.com/sarchlab/fsmforge/primitives"
)

// LoadPrimitives resolves the primitives directory per §6's environment
// rule and, if a catalog.yaml is present there, merges it over the
// embedded default catalog (external definitions win on name collision).
// A missing directory or file is not an error: the embedded catalog alone
// is a complete primitive set.
func LoadPrimitives(flags Flags) (*primitives.Library, error) {
	dir, err := ResolvePrimitivesDir(flags.PrimitivesDir)
	if err != nil {
		return nil, err
	}

	lib := primitives.Default()
	data, err := os.ReadFile(filepath.Join(dir, "catalog.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return lib, nil
		}
		return nil, fmt.Errorf("config: reading primitives catalog at %q: %w", dir, err)
	}

	extra, err := primitives.FromYAML(data)
	if err != nil {
		return nil, fmt.Errorf("config: parsing primitives catalog at %q: %w", dir, err)
	}
	return lib.Merge(extra), nil
}

// NewLogger builds the structured logger used throughout the pipeline:
// LevelPassTrace when --verbose/-v is set, LevelInfo otherwise, matching
// the teacher's own slog-over-stderr style in core/util.go.
func NewLogger(flags Flags) *slog.Logger {
	level := slog.LevelInfo
	if flags.Verbose {
		level = pass.LevelPassTrace
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// PipelineBuilder assembles a pass.Driver and an emit.Emitter from parsed
// Flags plus a resolved primitive catalog, the way DeviceBuilder in the
// teacher assembles a whole CGRA device from flag-shaped fields.
type PipelineBuilder struct {
	flags      Flags
	primitives *primitives.Library
	logger     *slog.Logger
}

// NewPipelineBuilder starts from flags and the logger NewLogger(flags)
// builds (verbose when --verbose is set).
func NewPipelineBuilder(flags Flags) PipelineBuilder {
	return PipelineBuilder{flags: flags, logger: NewLogger(flags)}
}

// WithPrimitives sets the primitive catalog the driver and emitter should
// validate cell prototypes and instantiate cells against.
func (b PipelineBuilder) WithPrimitives(lib *primitives.Library) PipelineBuilder {
	b.primitives = lib
	return b
}

// WithLogger overrides the structured logger.
func (b PipelineBuilder) WithLogger(l *slog.Logger) PipelineBuilder {
	b.logger = l
	return b
}

// BuildDriver assembles a pass.Driver configured from the builder's flags.
func (b PipelineBuilder) BuildDriver() (*pass.Driver, error) {
	if b.primitives == nil {
		return nil, fmt.Errorf("config: PipelineBuilder requires WithPrimitives before BuildDriver")
	}

	cfg := pass.DefaultConfig()
	cfg.StaticInline.OffloadPause = b.flags.OffloadPause
	cfg.OneHotCutoff = b.flags.OneHotCutoff
	cfg.EarlyTransitions = b.flags.EarlyTransitions

	return pass.NewDriverBuilder(b.primitives).
		WithConfig(cfg).
		WithLogger(b.logger).
		Build(), nil
}

// BuildEmitter assembles an emit.Emitter configured from the builder's
// flags. synthesisMode suppresses the $onehot0 disjointness trap, matching
// the teacher convention that synthesis tooling rejects simulation-only
// assertions.
func (b PipelineBuilder) BuildEmitter(synthesisMode bool) (*emit.Emitter, error) {
	if b.primitives == nil {
		return nil, fmt.Errorf("config: PipelineBuilder requires WithPrimitives before BuildEmitter")
	}
	return emit.NewEmitterBuilder(b.primitives).WithSynthesisMode(synthesisMode).Build(), nil
}
