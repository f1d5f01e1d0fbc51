// Package config resolves the CLI surface of spec.md §6 / SPEC_FULL.md §5
// into a Flags value and, from it, a compile pipeline: the primitive
// catalog (merging any CALYX_PRIMITIVES_DIR / --primitives-dir override
// over the embedded default), a configured pass.Driver and an
// emit.Emitter. Mirrors config.DeviceBuilder's own "flags in, fully wired
// device out" shape in the teacher.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sarchlab/fsmforge/staticsched"
)

// Flags is the parsed CLI surface.
type Flags struct {
	// Input is the source file to compile (the one positional argument).
	Input string

	DumpFSM          bool
	DumpFSMJSON      string
	EarlyTransitions bool
	OffloadPause     bool
	OneHotCutoff     int
	PrimitivesDir    string
	Verbose          bool
}

// ParseFlags parses args (typically os.Args[1:]) into Flags, applying the
// CLI defaults of §5/§6: --offload-pause true, --one-hot-cutoff 3,
// everything else false/empty.
func ParseFlags(args []string) (Flags, error) {
	fs := flag.NewFlagSet("fsmforge", flag.ContinueOnError)

	f := Flags{}
	fs.BoolVar(&f.DumpFSM, "dump-fsm", false, "parsed but not read by any pass; prints nothing")
	fs.StringVar(&f.DumpFSMJSON, "dump-fsm-json", "", "additionally serialise per-FSM profiling info to a JSON file at path")
	fs.BoolVar(&f.EarlyTransitions, "early-transitions", false, "enable the early-transitions optimisation (§4.4.5)")
	fs.BoolVar(&f.OffloadPause, "offload-pause", true, "enable the static inliner's sharing-with-pause behaviour (§4.2)")
	fs.IntVar(&f.OneHotCutoff, "one-hot-cutoff", staticsched.DefaultOneHotCutoff, "max static-FSM state count still encoded one-hot")
	fs.StringVar(&f.PrimitivesDir, "primitives-dir", "", "explicit override of CALYX_PRIMITIVES_DIR")
	fs.BoolVar(&f.Verbose, "verbose", false, "raise logging to LevelPassTrace")
	fs.BoolVar(&f.Verbose, "v", false, "shorthand for --verbose")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	if fs.NArg() < 1 {
		return Flags{}, fmt.Errorf("config: missing input source path")
	}
	f.Input = fs.Arg(0)
	return f, nil
}

// ResolvePrimitivesDir applies §6's environment rule: an explicit
// --primitives-dir flag wins, then CALYX_PRIMITIVES_DIR, then a default
// location under the user's home directory.
func ResolvePrimitivesDir(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv("CALYX_PRIMITIVES_DIR"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolving default primitives directory: %w", err)
	}
	return filepath.Join(home, ".calyx", "primitives"), nil
}
