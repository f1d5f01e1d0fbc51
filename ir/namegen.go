package ir

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// reservedVerilogKeywords is the subset of SystemVerilog keywords most
// likely to collide with compiler-generated identifiers (counters, wires,
// cond registers). The emitter is the ultimate authority on the full
// keyword list; NameGenerator only needs enough to avoid generating a name
// that the emitter would have to rename anyway.
var reservedVerilogKeywords = map[string]struct{}{
	"module": {}, "endmodule": {}, "wire": {}, "reg": {}, "assign": {},
	"always": {}, "always_comb": {}, "always_ff": {}, "input": {}, "output": {},
	"inout": {}, "parameter": {}, "localparam": {}, "begin": {}, "end": {},
	"if": {}, "else": {}, "case": {}, "endcase": {}, "for": {}, "while": {},
	"function": {}, "task": {}, "logic": {}, "bit": {}, "genvar": {},
	"generate": {}, "endgenerate": {},
}

// NameGenerator hands out unique identifiers within one component, against
// the union of reserved Verilog keywords and names already present in the
// component. A fresh name that collides is title-cased and suffixed "_A",
// "_B", ... (see Gen) until it no longer collides; the casing goes through
// golang.org/x/text so that generated names are stable independent of the
// host locale's default case folding.
type NameGenerator struct {
	used  map[string]struct{}
	caser cases.Caser
}

// NewNameGenerator returns a generator seeded with the reserved keyword set.
func NewNameGenerator() *NameGenerator {
	ng := &NameGenerator{
		used:  make(map[string]struct{}),
		caser: cases.Title(language.Und),
	}
	for kw := range reservedVerilogKeywords {
		ng.used[kw] = struct{}{}
	}
	return ng
}

// Reserve marks name as taken without generating anything.
func (ng *NameGenerator) Reserve(name string) {
	ng.used[name] = struct{}{}
}

// Gen returns a fresh, unused name derived from base, reserving it. Collision
// suffixes are spreadsheet-style letter sequences ("a", "b", ..., "z", "aa",
// ...) run through a title caser together with base, so that "go" colliding
// with an already-taken "go" resolves to "Go_A" rather than a case-sensitive
// near-miss that some downstream Verilog linters would still flag.
func (ng *NameGenerator) Gen(base string) string {
	if _, collide := ng.used[base]; !collide {
		ng.Reserve(base)
		return base
	}
	for i := 0; ; i++ {
		suffix := ng.caser.String(letterSuffix(i))
		candidate := fmt.Sprintf("%s_%s", ng.caser.String(base), suffix)
		if _, collide := ng.used[candidate]; !collide {
			ng.Reserve(candidate)
			return candidate
		}
	}
}

// letterSuffix renders i (0-based) as a spreadsheet-style base-26 letter
// sequence: 0->"a", 1->"b", ..., 25->"z", 26->"aa", ...
func letterSuffix(i int) string {
	if i < 0 {
		i = 0
	}
	var buf []byte
	for {
		buf = append([]byte{byte('a' + i%26)}, buf...)
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	return string(buf)
}
