package sourceinfo

// SourceLocation is a file plus a line (or line range) within it.
type SourceLocation struct {
	File    FileID   `yaml:"file"`
	Line    LineNum  `yaml:"line"`
	EndLine *LineNum `yaml:"end_line,omitempty"`
}

// Equal compares by value; EndLine is a pointer only to make "no end line"
// representable, so a plain == would compare addresses instead of line
// numbers.
func (s SourceLocation) Equal(other SourceLocation) bool {
	if s.File != other.File || s.Line != other.Line {
		return false
	}
	switch {
	case s.EndLine == nil && other.EndLine == nil:
		return true
	case s.EndLine == nil || other.EndLine == nil:
		return false
	default:
		return *s.EndLine == *other.EndLine
	}
}

// MemoryLocation identifies a register or a memory cell (optionally
// subscripted by an address) that a source variable is laid out in.
type MemoryLocation struct {
	Cell    string `yaml:"cell"`
	Address []int  `yaml:"address,omitempty"`
}

// VariableName is the key a VariableDefinition is filed under; Literal
// tracks whether the name came from a quoted string literal in the source
// language (kept only for faithful re-serialisation, never for lookup).
type VariableName struct {
	Name    string `yaml:"name"`
	Literal bool   `yaml:"literal,omitempty"`
}

// PrimitiveKind is the scalar kind underlying a FieldType.
type PrimitiveKind string

const (
	PrimitiveUint     PrimitiveKind = "uint"
	PrimitiveSint     PrimitiveKind = "sint"
	PrimitiveBool     PrimitiveKind = "bool"
	PrimitiveBitfield PrimitiveKind = "bitfield"
)

// PrimitiveType is a scalar source-language type; Width is meaningless for
// PrimitiveBool.
type PrimitiveType struct {
	Kind  PrimitiveKind `yaml:"kind"`
	Width uint32        `yaml:"width,omitempty"`
}

// Size returns the primitive's bit width.
func (p PrimitiveType) Size() uint32 {
	if p.Kind == PrimitiveBool {
		return 1
	}
	return p.Width
}

// FieldType is either a scalar PrimitiveType or a reference to a composite
// SourceType elsewhere in the table's type map; exactly one of Primitive or
// Composite is set.
type FieldType struct {
	Primitive *PrimitiveType `yaml:"primitive,omitempty"`
	Composite *TypeID        `yaml:"composite,omitempty"`
}

// ReferencedType returns the composite type id this field depends on, if
// any.
func (f FieldType) ReferencedType() (TypeID, bool) {
	if f.Composite != nil {
		return *f.Composite, true
	}
	return 0, false
}

// StructField is one named member of a Struct SourceType.
type StructField struct {
	Name VariableName `yaml:"name"`
	Type FieldType    `yaml:"type"`
}

// SourceType is a source-language type: either a fixed-length array of a
// field type, or a struct of named fields. Exactly one of Array or Struct
// is set.
type SourceType struct {
	Array *struct {
		Elem   FieldType `yaml:"elem"`
		Length uint32    `yaml:"length"`
	} `yaml:"array,omitempty"`
	Struct *struct {
		Fields []StructField `yaml:"fields"`
	} `yaml:"struct,omitempty"`
}

// ReferencedTypes returns every composite type this SourceType's fields
// depend on.
func (t SourceType) ReferencedTypes() []TypeID {
	var out []TypeID
	if t.Array != nil {
		if id, ok := t.Array.Elem.ReferencedType(); ok {
			out = append(out, id)
		}
	}
	if t.Struct != nil {
		for _, f := range t.Struct.Fields {
			if id, ok := f.Type.ReferencedType(); ok {
				out = append(out, id)
			}
		}
	}
	return out
}

// LayoutFunction names how a typed variable's fields are mapped onto
// memory locations.
type LayoutFunction string

const (
	// LayoutPacked maps every field into a single memory slot; takes
	// exactly one layout argument.
	LayoutPacked LayoutFunction = "packed"
	// LayoutSplit maps each field to its own memory location; takes one
	// argument per field.
	LayoutSplit LayoutFunction = "split"
)

// VariableLayout is the typed form of a VariableDefinition: a source type
// plus the memory locations its fields are laid out in.
type VariableLayout struct {
	Type       FieldType          `yaml:"type"`
	LayoutFn   LayoutFunction     `yaml:"layout_fn"`
	LayoutArgs []MemoryLocationID `yaml:"layout_args"`
}

// VariableDefinition binds a source variable either directly to a single
// memory location (Untyped) or to a VariableLayout (Typed). Exactly one of
// Location or Layout is set.
type VariableDefinition struct {
	Location *MemoryLocationID `yaml:"location,omitempty"`
	Layout   *VariableLayout   `yaml:"layout,omitempty"`
}

// ReferencedLocations returns every memory location this definition uses.
func (v VariableDefinition) ReferencedLocations() []MemoryLocationID {
	if v.Location != nil {
		return []MemoryLocationID{*v.Location}
	}
	if v.Layout != nil {
		return v.Layout.LayoutArgs
	}
	return nil
}

// ReferencedType returns the composite type this definition depends on, if
// it is typed and its type is composite.
func (v VariableDefinition) ReferencedType() (TypeID, bool) {
	if v.Layout == nil {
		return 0, false
	}
	return v.Layout.Type.ReferencedType()
}
