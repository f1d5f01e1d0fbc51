package config_test

import (
	"path/filepath"
	"testing"

	"github.com/sarchlab/fsmforge/config"
	"github.com/sarchlab/fsmforge/staticsched"
)

func TestParseFlagsDefaults(t *testing.T) {
	flags, err := config.ParseFlags([]string{"program.yaml"})
	if err != nil {
		t.Fatalf("ParseFlags returned an error: %v", err)
	}

	if flags.Input != "program.yaml" {
		t.Errorf("Input = %q, want %q", flags.Input, "program.yaml")
	}
	if flags.DumpFSM {
		t.Errorf("DumpFSM default = true, want false")
	}
	if !flags.OffloadPause {
		t.Errorf("OffloadPause default = false, want true")
	}
	if flags.OneHotCutoff != staticsched.DefaultOneHotCutoff {
		t.Errorf("OneHotCutoff default = %d, want %d", flags.OneHotCutoff, staticsched.DefaultOneHotCutoff)
	}
	if flags.Verbose {
		t.Errorf("Verbose default = true, want false")
	}
}

func TestParseFlagsOverrides(t *testing.T) {
	flags, err := config.ParseFlags([]string{
		"--dump-fsm",
		"--dump-fsm-json", "out.json",
		"--early-transitions",
		"--offload-pause=false",
		"--one-hot-cutoff", "8",
		"--primitives-dir", "/tmp/prims",
		"-v",
		"program.yaml",
	})
	if err != nil {
		t.Fatalf("ParseFlags returned an error: %v", err)
	}

	if !flags.DumpFSM {
		t.Errorf("DumpFSM = false, want true")
	}
	if flags.DumpFSMJSON != "out.json" {
		t.Errorf("DumpFSMJSON = %q, want %q", flags.DumpFSMJSON, "out.json")
	}
	if !flags.EarlyTransitions {
		t.Errorf("EarlyTransitions = false, want true")
	}
	if flags.OffloadPause {
		t.Errorf("OffloadPause = true, want false")
	}
	if flags.OneHotCutoff != 8 {
		t.Errorf("OneHotCutoff = %d, want 8", flags.OneHotCutoff)
	}
	if flags.PrimitivesDir != "/tmp/prims" {
		t.Errorf("PrimitivesDir = %q, want %q", flags.PrimitivesDir, "/tmp/prims")
	}
	if !flags.Verbose {
		t.Errorf("Verbose = false, want true (via -v)")
	}
	if flags.Input != "program.yaml" {
		t.Errorf("Input = %q, want %q", flags.Input, "program.yaml")
	}
}

func TestParseFlagsRequiresInput(t *testing.T) {
	if _, err := config.ParseFlags(nil); err == nil {
		t.Fatalf("expected an error for a missing input path, got nil")
	}
}

func TestResolvePrimitivesDirPrecedence(t *testing.T) {
	t.Run("explicit flag wins", func(t *testing.T) {
		t.Setenv("CALYX_PRIMITIVES_DIR", "/from/env")
		dir, err := config.ResolvePrimitivesDir("/from/flag")
		if err != nil {
			t.Fatalf("ResolvePrimitivesDir returned an error: %v", err)
		}
		if dir != "/from/flag" {
			t.Errorf("dir = %q, want %q", dir, "/from/flag")
		}
	})

	t.Run("env var wins over default", func(t *testing.T) {
		t.Setenv("CALYX_PRIMITIVES_DIR", "/from/env")
		dir, err := config.ResolvePrimitivesDir("")
		if err != nil {
			t.Fatalf("ResolvePrimitivesDir returned an error: %v", err)
		}
		if dir != "/from/env" {
			t.Errorf("dir = %q, want %q", dir, "/from/env")
		}
	})

	t.Run("falls back to a default under the home directory", func(t *testing.T) {
		t.Setenv("CALYX_PRIMITIVES_DIR", "")
		dir, err := config.ResolvePrimitivesDir("")
		if err != nil {
			t.Fatalf("ResolvePrimitivesDir returned an error: %v", err)
		}
		if filepath.Base(dir) != "primitives" {
			t.Errorf("dir = %q, want a path ending in .../primitives", dir)
		}
	})
}
