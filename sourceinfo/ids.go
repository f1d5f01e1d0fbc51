// Package sourceinfo implements the position table described in spec §6:
// a process-wide, append-only record of file paths, source spans, memory
// locations, source-language variable layouts and types, loaded from and
// serialised to YAML the way the teacher's core/program.go loads its
// YAMLRoot/ArrayConfig kernels, rather than the bracketed text format the
// original Calyx sidecar uses.
//
// File, position, memory-location, variable-assignment and type ids are
// all spec-mandated 32-bit non-negative integers, so every id type here
// wraps uint32 rather than following ir's plain-int arena-handle style:
// these ids cross a serialisation boundary and their width is part of the
// external format, not an internal implementation choice.
package sourceinfo

import "fmt"

// FileID names an entry in the table's file map.
type FileID uint32

// PositionID names an entry in the table's position map.
type PositionID uint32

// MemoryLocationID names an entry in the table's memory-location map.
type MemoryLocationID uint32

// VariableAssignmentID names a set of variable-to-location mappings.
type VariableAssignmentID uint32

// TypeID names an entry in the table's source-language type map.
type TypeID uint32

// LineNum is a 1-based source line number; zero is never valid.
type LineNum uint32

// NewLineNum validates and constructs a LineNum.
func NewLineNum(n uint32) (LineNum, error) {
	if n == 0 {
		return 0, fmt.Errorf("sourceinfo: line number must be non-zero")
	}
	return LineNum(n), nil
}
