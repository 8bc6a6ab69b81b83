// Package config parses the YAML cluster configuration: the
// min_length/exclude/include/tree document, strict about unknown keys,
// expanded into a cluster.SeedTree and a resolved kit universe ready for
// cluster.Run.
package config

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"gopkg.in/yaml.v3"
)

// DefaultMinLength is the min_length applied when the document omits it.
const DefaultMinLength = 7.0

// KitEntry is one "kits" list entry of a tree node, after expanding a bare
// kit-id string into the full set of optional fields with their defaults.
type KitEntry struct {
	ID       string
	AutoX    bool
	Float    *bool // nil means "use the kit's trisource-derived default"
	Negative bool
}

// UnmarshalYAML accepts either a bare scalar kit id or a mapping with
// id/autox/float/negative keys.
func (k *KitEntry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var id string
		if err := value.Decode(&id); err != nil {
			return errors.E(err, "config: invalid tree kits entry")
		}
		if id == "" {
			return errors.New("config: invalid (empty) tree kits entry")
		}
		*k = KitEntry{ID: id}
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return errors.New("config: invalid (false/missing) tree kits entry")
	}
	if err := checkKeys(value, []string{"id", "autox", "float", "negative"},
		"invalid YAML configuration format: invalid tree kits key %s"); err != nil {
		return err
	}
	var aux struct {
		ID       string `yaml:"id"`
		AutoX    bool   `yaml:"autox"`
		Float    *bool  `yaml:"float"`
		Negative bool   `yaml:"negative"`
	}
	if err := value.Decode(&aux); err != nil {
		return errors.E(err, "config: decode tree kits entry")
	}
	if aux.ID == "" {
		return errors.New("config: tree kits entry missing id")
	}
	*k = KitEntry{ID: aux.ID, AutoX: aux.AutoX, Float: aux.Float, Negative: aux.Negative}
	return nil
}

// Tree is one node of the raw config tree, before kit ids are resolved
// against the store.
type Tree struct {
	Kits     []KitEntry `yaml:"kits"`
	Maternal *Tree      `yaml:"maternal"`
	Paternal *Tree      `yaml:"paternal"`
}

// UnmarshalYAML enforces the only three valid tree keys.
func (t *Tree) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == 0 {
		*t = Tree{}
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return errors.New("config: invalid tree node")
	}
	if err := checkKeys(value, []string{"kits", "maternal", "paternal"},
		"invalid YAML configuration format: invalid tree key %s"); err != nil {
		return err
	}
	type alias Tree
	var a alias
	if err := value.Decode(&a); err != nil {
		return errors.E(err, "config: decode tree node")
	}
	*t = Tree(a)
	return nil
}

// IncludeEntry is one "include" list entry: a kit id plus optional
// matches/triangles cM thresholds used to pull in that kit's neighbors.
type IncludeEntry struct {
	ID        string
	Matches   *float64
	Triangles *float64
}

// UnmarshalYAML accepts either a bare kit id string or a mapping with
// id/matches/triangles.
func (e *IncludeEntry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var id string
		if err := value.Decode(&id); err != nil {
			return errors.E(err, "config: invalid include entry")
		}
		if id == "" {
			return errors.New("config: invalid (empty) include entry")
		}
		*e = IncludeEntry{ID: id}
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return errors.New("config: invalid (false/missing) include list entry")
	}
	if err := checkKeys(value, []string{"id", "matches", "triangles"},
		"invalid YAML configuration format: invalid include item key %s"); err != nil {
		return err
	}
	var aux struct {
		ID        string   `yaml:"id"`
		Matches   *float64 `yaml:"matches"`
		Triangles *float64 `yaml:"triangles"`
	}
	if err := value.Decode(&aux); err != nil {
		return errors.E(err, "config: decode include entry")
	}
	if aux.ID == "" {
		return errors.New("config: include entry missing id")
	}
	*e = IncludeEntry{ID: aux.ID, Matches: aux.Matches, Triangles: aux.Triangles}
	return nil
}

// Raw is the parsed, not-yet-resolved configuration document: kit ids are
// still external strings, not internal kit.IDs.
type Raw struct {
	MinLength *float64       `yaml:"min_length"`
	Exclude   []string       `yaml:"exclude"`
	Include   []IncludeEntry `yaml:"include"`
	Tree      Tree           `yaml:"tree"`
}

// UnmarshalYAML enforces the document's only four valid top-level keys.
func (r *Raw) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return errors.New("config: document must be a YAML mapping")
	}
	if err := checkKeys(value, []string{"min_length", "exclude", "include", "tree"},
		"invalid YAML configuration format: invalid top-level key %s"); err != nil {
		return err
	}
	type alias Raw
	var a alias
	if err := value.Decode(&a); err != nil {
		return errors.E(err, "config: decode document")
	}
	*r = Raw(a)
	return nil
}

// checkKeys rejects any mapping key in value not present in allowed.
func checkKeys(value *yaml.Node, allowed []string, errFormat string) error {
	ok := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		ok[k] = true
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i].Value
		if !ok[key] {
			return errors.New(fmt.Sprintf(errFormat, key))
		}
	}
	return nil
}

// Parse decodes a YAML cluster-configuration document, applying min_length's
// default and rejecting unknown keys at every level.
func Parse(data []byte) (*Raw, error) {
	var raw Raw
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.E(err, "config: parse")
	}
	if raw.MinLength == nil {
		def := DefaultMinLength
		raw.MinLength = &def
	}
	return &raw, nil
}
