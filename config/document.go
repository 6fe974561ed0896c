package config

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/kyrelabs/keel"
)

// Document is the parsed, template-expanded configuration for one environment.
// It is immutable after loading and safe for concurrent use.
type Document struct {
	sections map[string]section
}

// section lazily decodes one top-level sub-tree into a caller-provided shape.
type section interface {
	decode(out any) error
}

// Has reports whether the document contains a top-level section named key.
func (d *Document) Has(key string) bool {
	_, ok := d.sections[key]
	return ok
}

// Keys returns the document's top-level section names, sorted.
func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.sections))
	for key := range d.sections {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Section deserializes the sub-tree rooted at key into a value of type T.
func Section[T any](d *Document, key string) (T, error) {
	var out T
	sec, ok := d.sections[key]
	if !ok {
		return out, keel.New(keel.KindDeserialize, key,
			fmt.Sprintf("configuration has no %q section", key))
	}
	if err := sec.decode(&out); err != nil {
		return out, keel.Wrap(keel.KindDeserialize, key, err)
	}
	return out, nil
}

func parseTOML(text string) (*Document, error) {
	raw := map[string]toml.Primitive{}
	md, err := toml.Decode(text, &raw)
	if err != nil {
		return nil, keel.Wrap(keel.KindParse, "", err)
	}

	sections := make(map[string]section, len(raw))
	for key, prim := range raw {
		sections[key] = tomlSection{md: md, prim: prim}
	}
	return &Document{sections: sections}, nil
}

type tomlSection struct {
	md   toml.MetaData
	prim toml.Primitive
}

func (s tomlSection) decode(out any) error {
	return s.md.PrimitiveDecode(s.prim, out)
}

func parseYAML(text string) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(text), &root); err != nil {
		return nil, keel.Wrap(keel.KindParse, "", err)
	}

	sections := make(map[string]section)
	if len(root.Content) > 0 && root.Content[0].Kind == yaml.MappingNode {
		mapping := root.Content[0]
		for i := 0; i+1 < len(mapping.Content); i += 2 {
			sections[mapping.Content[i].Value] = yamlSection{node: mapping.Content[i+1]}
		}
	}
	return &Document{sections: sections}, nil
}

type yamlSection struct {
	node *yaml.Node
}

func (s yamlSection) decode(out any) error {
	return s.node.Decode(out)
}
