package sourceinfo

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Table is the in-memory position table: files, positions, memory
// locations, variable-to-location assignments, the position→assignment
// map and source-language types. It is process-wide and append-only for
// the lifetime of a compile, matching spec §5's GlobalPositionTable.
type Table struct {
	files               map[FileID]string
	positions           map[PositionID]SourceLocation
	memoryLocations     map[MemoryLocationID]MemoryLocation
	variableAssignments map[VariableAssignmentID]map[VariableName]VariableDefinition
	positionStates      map[PositionID]VariableAssignmentID
	types               map[TypeID]SourceType
}

// NewEmpty returns a table with no entries.
func NewEmpty() *Table {
	return &Table{
		files:               map[FileID]string{},
		positions:           map[PositionID]SourceLocation{},
		memoryLocations:     map[MemoryLocationID]MemoryLocation{},
		variableAssignments: map[VariableAssignmentID]map[VariableName]VariableDefinition{},
		positionStates:      map[PositionID]VariableAssignmentID{},
		types:               map[TypeID]SourceType{},
	}
}

// AddFile records a file at a caller-chosen id, unconditionally.
func (t *Table) AddFile(id FileID, path string) { t.files[id] = path }

// PushFile appends a file and hands back a freshly minted id.
func (t *Table) PushFile(path string) FileID {
	var max FileID
	for id := range t.files {
		if id > max {
			max = id
		}
	}
	id := max
	if len(t.files) > 0 {
		id = max + 1
	}
	t.AddFile(id, path)
	return id
}

// AddPosition records a source location at a caller-chosen id,
// unconditionally.
func (t *Table) AddPosition(id PositionID, loc SourceLocation) { t.positions[id] = loc }

// PushPosition appends a position and hands back a freshly minted id.
func (t *Table) PushPosition(loc SourceLocation) PositionID {
	var max PositionID
	for id := range t.positions {
		if id > max {
			max = id
		}
	}
	id := max
	if len(t.positions) > 0 {
		id = max + 1
	}
	t.AddPosition(id, loc)
	return id
}

// AddMemoryLocation records a memory location at a caller-chosen id,
// unconditionally.
func (t *Table) AddMemoryLocation(id MemoryLocationID, loc MemoryLocation) {
	t.memoryLocations[id] = loc
}

// FilePath looks up a file's path.
func (t *Table) FilePath(id FileID) (string, bool) {
	p, ok := t.files[id]
	return p, ok
}

// Position looks up a source location.
func (t *Table) Position(id PositionID) (SourceLocation, bool) {
	loc, ok := t.positions[id]
	return loc, ok
}

// MemoryLocation looks up a memory location.
func (t *Table) MemoryLocation(id MemoryLocationID) (MemoryLocation, bool) {
	loc, ok := t.memoryLocations[id]
	return loc, ok
}

// VariableMapping looks up the live-variable map recorded at a position,
// following the position→assignment indirection.
func (t *Table) VariableMapping(pos PositionID) (map[VariableName]VariableDefinition, bool) {
	assign, ok := t.positionStates[pos]
	if !ok {
		return nil, false
	}
	m, ok := t.variableAssignments[assign]
	return m, ok
}

// document is the YAML-facing shape of a Table: flat, ordered lists
// instead of maps, the way core/program.go's YAMLRoot/ArrayConfig model
// their kernels.
type document struct {
	Files               []fileEntry               `yaml:"files"`
	Positions           []positionEntry            `yaml:"positions"`
	MemoryLocations     []memoryLocationEntry      `yaml:"memory_locations,omitempty"`
	VariableAssignments []variableAssignmentEntry  `yaml:"variable_assignments,omitempty"`
	PositionStates      []positionStateEntry       `yaml:"position_states,omitempty"`
	Types               []typeEntry                `yaml:"types,omitempty"`
}

type fileEntry struct {
	ID   FileID `yaml:"id"`
	Path string `yaml:"path"`
}

type positionEntry struct {
	ID PositionID `yaml:"id"`
	SourceLocation `yaml:",inline"`
}

type memoryLocationEntry struct {
	ID MemoryLocationID `yaml:"id"`
	MemoryLocation `yaml:",inline"`
}

type variableEntry struct {
	Name VariableName `yaml:"name"`
	VariableDefinition `yaml:",inline"`
}

type variableAssignmentEntry struct {
	ID        VariableAssignmentID `yaml:"id"`
	Variables []variableEntry      `yaml:"variables"`
}

type positionStateEntry struct {
	Position   PositionID           `yaml:"position"`
	Assignment VariableAssignmentID `yaml:"assignment"`
}

type typeEntry struct {
	ID TypeID `yaml:"id"`
	SourceType `yaml:",inline"`
}

// Parse reads a YAML-encoded sourceinfo document and builds a validated
// Table (spec §6). A file or position id defined twice is accepted only when
// both definitions are identical; any other duplicate id is rejected, as is
// a memory location or type that is referenced but never defined.
func Parse(data []byte) (*Table, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("sourceinfo: %w", err)
	}
	return fromDocument(doc)
}

func fromDocument(doc document) (*Table, error) {
	t := NewEmpty()

	for _, f := range doc.Files {
		if existing, ok := t.files[f.ID]; ok && existing != f.Path {
			return nil, fmt.Errorf("sourceinfo: file id %d is defined multiple times: %q and %q", f.ID, existing, f.Path)
		}
		t.files[f.ID] = f.Path
	}

	for _, p := range doc.Positions {
		if existing, ok := t.positions[p.ID]; ok && !existing.Equal(p.SourceLocation) {
			return nil, fmt.Errorf("sourceinfo: position %d is defined multiple times", p.ID)
		}
		t.positions[p.ID] = p.SourceLocation
	}

	for _, m := range doc.MemoryLocations {
		if _, ok := t.memoryLocations[m.ID]; ok {
			return nil, fmt.Errorf("sourceinfo: multiple definitions for memory location %d", m.ID)
		}
		t.memoryLocations[m.ID] = m.MemoryLocation
	}

	typesReferenced := map[TypeID]bool{}

	for _, va := range doc.VariableAssignments {
		mapping := map[VariableName]VariableDefinition{}
		for _, v := range va.Variables {
			for _, loc := range v.VariableDefinition.ReferencedLocations() {
				if _, ok := t.memoryLocations[loc]; !ok {
					return nil, fmt.Errorf("sourceinfo: memory location %d is referenced but never defined", loc)
				}
			}
			if ty, ok := v.VariableDefinition.ReferencedType(); ok {
				typesReferenced[ty] = true
			}
			if _, ok := mapping[v.Name]; ok {
				return nil, fmt.Errorf("sourceinfo: in variable mapping %d the variable %q has multiple definitions", va.ID, v.Name.Name)
			}
			mapping[v.Name] = v.VariableDefinition
		}
		if _, ok := t.variableAssignments[va.ID]; ok {
			return nil, fmt.Errorf("sourceinfo: duplicate definitions for variable mapping %d", va.ID)
		}
		t.variableAssignments[va.ID] = mapping
	}

	for _, ps := range doc.PositionStates {
		if _, ok := t.variableAssignments[ps.Assignment]; !ok {
			return nil, fmt.Errorf("sourceinfo: variable mapping %d is referenced but never defined", ps.Assignment)
		}
		if _, ok := t.positionStates[ps.Position]; ok {
			return nil, fmt.Errorf("sourceinfo: multiple variable maps assigned to position %d", ps.Position)
		}
		t.positionStates[ps.Position] = ps.Assignment
	}

	for _, te := range doc.Types {
		for _, ref := range te.SourceType.ReferencedTypes() {
			typesReferenced[ref] = true
		}
		if _, ok := t.types[te.ID]; ok {
			return nil, fmt.Errorf("sourceinfo: multiple definitions for type id %d", te.ID)
		}
		t.types[te.ID] = te.SourceType
	}

	for ty := range typesReferenced {
		if _, ok := t.types[ty]; !ok {
			return nil, fmt.Errorf("sourceinfo: type id %d is referenced but never defined", ty)
		}
	}

	return t, nil
}

// Serialize renders the table back to its YAML form, with every section
// sorted by id for deterministic output.
func (t *Table) Serialize() ([]byte, error) {
	doc := document{}

	for id, path := range t.files {
		doc.Files = append(doc.Files, fileEntry{ID: id, Path: path})
	}
	sort.Slice(doc.Files, func(i, j int) bool { return doc.Files[i].ID < doc.Files[j].ID })

	for id, loc := range t.positions {
		doc.Positions = append(doc.Positions, positionEntry{ID: id, SourceLocation: loc})
	}
	sort.Slice(doc.Positions, func(i, j int) bool { return doc.Positions[i].ID < doc.Positions[j].ID })

	for id, loc := range t.memoryLocations {
		doc.MemoryLocations = append(doc.MemoryLocations, memoryLocationEntry{ID: id, MemoryLocation: loc})
	}
	sort.Slice(doc.MemoryLocations, func(i, j int) bool { return doc.MemoryLocations[i].ID < doc.MemoryLocations[j].ID })

	for id, mapping := range t.variableAssignments {
		entry := variableAssignmentEntry{ID: id}
		for name, def := range mapping {
			entry.Variables = append(entry.Variables, variableEntry{Name: name, VariableDefinition: def})
		}
		sort.Slice(entry.Variables, func(i, j int) bool { return entry.Variables[i].Name.Name < entry.Variables[j].Name.Name })
		doc.VariableAssignments = append(doc.VariableAssignments, entry)
	}
	sort.Slice(doc.VariableAssignments, func(i, j int) bool { return doc.VariableAssignments[i].ID < doc.VariableAssignments[j].ID })

	for pos, assign := range t.positionStates {
		doc.PositionStates = append(doc.PositionStates, positionStateEntry{Position: pos, Assignment: assign})
	}
	sort.Slice(doc.PositionStates, func(i, j int) bool { return doc.PositionStates[i].Position < doc.PositionStates[j].Position })

	for id, ty := range t.types {
		doc.Types = append(doc.Types, typeEntry{ID: id, SourceType: ty})
	}
	sort.Slice(doc.Types, func(i, j int) bool { return doc.Types[i].ID < doc.Types[j].ID })

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("sourceinfo: %w", err)
	}
	return out, nil
}
