package sourceinfo

import "testing"

func endLine(n uint32) *LineNum {
	l := LineNum(n)
	return &l
}

func TestParseAndSerializeRoundTrip(t *testing.T) {
	table := NewEmpty()
	table.AddFile(0, "test.calyx")
	table.AddFile(1, "test2.calyx")
	table.AddPosition(0, SourceLocation{File: 0, Line: 1})
	table.AddPosition(1, SourceLocation{File: 1, Line: 2, EndLine: endLine(4)})

	data, err := table.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	loc, ok := parsed.Position(1)
	if !ok || loc.File != 1 || loc.Line != 2 || loc.EndLine == nil || *loc.EndLine != 4 {
		t.Fatalf("unexpected round-tripped position: %#v ok=%v", loc, ok)
	}

	path, ok := parsed.FilePath(0)
	if !ok || path != "test.calyx" {
		t.Fatalf("unexpected round-tripped file: %q ok=%v", path, ok)
	}
}

func TestParseRejectsUndefinedMemoryLocationReference(t *testing.T) {
	data := []byte(`
files:
  - id: 0
    path: test.calyx
positions:
  - id: 0
    file: 0
    line: 1
variable_assignments:
  - id: 0
    variables:
      - name: {name: x}
        location: 7
`)
	if _, err := Parse(data); err == nil {
		t.Fatal("expected an error for a memory location referenced but never defined")
	}
}

func TestParseRejectsDuplicateVariableWithinAssignment(t *testing.T) {
	data := []byte(`
files:
  - id: 0
    path: test.calyx
positions: []
memory_locations:
  - id: 0
    cell: main.reg1
variable_assignments:
  - id: 0
    variables:
      - name: {name: x}
        location: 0
      - name: {name: x}
        location: 0
`)
	if _, err := Parse(data); err == nil {
		t.Fatal("expected an error for a duplicate variable name within one assignment")
	}
}

func TestParseRejectsPositionStateReferencingUnknownAssignment(t *testing.T) {
	data := []byte(`
files:
  - id: 0
    path: test.calyx
positions:
  - id: 0
    file: 0
    line: 1
position_states:
  - position: 0
    assignment: 99
`)
	if _, err := Parse(data); err == nil {
		t.Fatal("expected an error for a position state referencing an undefined assignment")
	}
}

func TestParseRejectsTypeReferencedButNeverDefined(t *testing.T) {
	composite := TypeID(5)
	data := []byte(`
files:
  - id: 0
    path: test.calyx
positions: []
memory_locations:
  - id: 0
    cell: main.reg1
variable_assignments:
  - id: 0
    variables:
      - name: {name: x}
        layout:
          type:
            composite: 5
          layout_fn: packed
          layout_args: [0]
`)
	_ = composite
	if _, err := Parse(data); err == nil {
		t.Fatal("expected an error for a type referenced but never defined")
	}
}

func TestParseAllowsIdenticalFileRedefinition(t *testing.T) {
	data := []byte(`
files:
  - id: 0
    path: test.calyx
  - id: 0
    path: test.calyx
positions: []
`)
	if _, err := Parse(data); err != nil {
		t.Fatalf("expected identical redefinition to be tolerated, got %v", err)
	}
}

func TestParseRejectsConflictingFileRedefinition(t *testing.T) {
	data := []byte(`
files:
  - id: 0
    path: test.calyx
  - id: 0
    path: other.calyx
positions: []
`)
	if _, err := Parse(data); err == nil {
		t.Fatal("expected an error for conflicting file redefinitions sharing an id")
	}
}

func TestPushFileAndPushPositionMintFreshIDs(t *testing.T) {
	table := NewEmpty()
	a := table.PushFile("a.calyx")
	b := table.PushFile("b.calyx")
	if b != a+1 {
		t.Fatalf("expected sequential file ids, got %d then %d", a, b)
	}

	p1 := table.PushPosition(SourceLocation{File: a, Line: 1})
	p2 := table.PushPosition(SourceLocation{File: a, Line: 2})
	if p2 != p1+1 {
		t.Fatalf("expected sequential position ids, got %d then %d", p1, p2)
	}
}
