package config_test

import (
	"testing"

	"github.com/sarchlab/fsmforge/config"
	"github.com/sarchlab/fsmforge/primitives"
)

func TestLoadPrimitivesFallsBackToTheEmbeddedDefault(t *testing.T) {
	t.Setenv("CALYX_PRIMITIVES_DIR", "")
	flags := config.Flags{}

	lib, err := config.LoadPrimitives(flags)
	if err != nil {
		t.Fatalf("LoadPrimitives returned an error: %v", err)
	}
	if _, ok := lib.Lookup("std_reg"); !ok {
		t.Fatalf("expected the embedded default catalog's std_reg to survive with no external override")
	}
}

func TestPipelineBuilderRequiresPrimitivesBeforeBuilding(t *testing.T) {
	builder := config.NewPipelineBuilder(config.Flags{})

	if _, err := builder.BuildDriver(); err == nil {
		t.Errorf("BuildDriver() without WithPrimitives: expected an error, got nil")
	}
	if _, err := builder.BuildEmitter(false); err == nil {
		t.Errorf("BuildEmitter() without WithPrimitives: expected an error, got nil")
	}
}

func TestPipelineBuilderBuildsAfterWithPrimitives(t *testing.T) {
	builder := config.NewPipelineBuilder(config.Flags{OneHotCutoff: 3}).WithPrimitives(primitives.Default())

	driver, err := builder.BuildDriver()
	if err != nil {
		t.Fatalf("BuildDriver returned an error: %v", err)
	}
	if driver == nil {
		t.Fatalf("BuildDriver returned a nil Driver")
	}

	emitter, err := builder.BuildEmitter(true)
	if err != nil {
		t.Fatalf("BuildEmitter returned an error: %v", err)
	}
	if emitter == nil {
		t.Fatalf("BuildEmitter returned a nil Emitter")
	}
}
