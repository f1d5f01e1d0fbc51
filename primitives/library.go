package primitives

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// catalogFile mirrors catalog.yaml's top-level shape.
type catalogFile struct {
	Primitives []Primitive `yaml:"primitives"`
}

// Library is a name-indexed catalog of known primitives.
type Library struct {
	byName map[string]Primitive
}

// Lookup finds a primitive by name.
func (l *Library) Lookup(name string) (Primitive, bool) {
	p, ok := l.byName[name]
	return p, ok
}

// Names returns every primitive name in the library, in no particular order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.byName))
	for name := range l.byName {
		names = append(names, name)
	}
	return names
}

func newLibrary(entries []Primitive) *Library {
	l := &Library{byName: make(map[string]Primitive, len(entries))}
	for _, p := range entries {
		l.byName[p.Name] = p
	}
	return l
}

// Default returns the library described by §6: std_reg/std_add/... plus the
// comb_mem_dN/seq_mem_dN family for N=1..4, embedded at build time so the
// compiler never depends on a primitives directory merely to validate cell
// prototypes against the spec's own built-in set.
func Default() *Library {
	lib, err := FromYAML(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("primitives: embedded catalog.yaml failed to parse: %v", err))
	}
	return lib
}

// FromYAML parses a catalog document in catalog.yaml's shape. Used both for
// the embedded default and for CALYX_PRIMITIVES_DIR / --primitives-dir
// overrides that extend it with externally-defined primitives.
func FromYAML(data []byte) (*Library, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("primitives: parsing catalog: %w", err)
	}
	return newLibrary(file.Primitives), nil
}

// Merge returns a new library containing l's entries overlaid with extra's
// (extra wins on name collision), used when an external primitives directory
// augments or shadows the built-in catalog.
func (l *Library) Merge(extra *Library) *Library {
	merged := make(map[string]Primitive, len(l.byName)+len(extra.byName))
	for name, p := range l.byName {
		merged[name] = p
	}
	for name, p := range extra.byName {
		merged[name] = p
	}
	return &Library{byName: merged}
}
