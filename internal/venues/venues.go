// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package venues canonicalizes free-text venue strings into normalized
// venue names and categories via substring rules loaded from a
// definitions file.
package venues

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Definition is one canonical venue entry: the substring patterns that
// identify it in API venue strings, its grouping category, and an
// optional citation floor for papers matched to it (zero disables).
type Definition struct {
	Patterns     []string `yaml:"venue"`
	Category     string   `yaml:"category"`
	MinCitations int      `yaml:"min_citations"`
}

// Defaults holds process-wide filter defaults carried in the definitions file.
type Defaults struct {
	TitleExcludeKeywords     []string `yaml:"title_exclude_keywords"`
	SkipAbstractFilterVenues []string `yaml:"skip_abstract_filter_venues"`
}

// Definitions is the merged, ordered lookup table. Entries under the
// grouped "venues" table and top-level special entries (e.g. a catch-all
// preprint entry) share one lookup space; file order determines match
// precedence, so more specific patterns must precede generic ones.
// Read-only after load.
type Definitions struct {
	order    []string
	entries  map[string]Definition
	defaults Defaults
}

// Load reads and parses a YAML definitions file. A missing or empty file
// is fatal: without venue definitions no record can ever be classified.
func Load(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading venue definitions %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds Definitions from YAML bytes, preserving the file's entry order.
func Parse(data []byte) (*Definitions, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing venue definitions: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("venue definitions: top level must be a mapping")
	}

	d := &Definitions{entries: make(map[string]Definition)}
	root := doc.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		val := root.Content[i+1]

		switch key {
		case "venues":
			if val.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("venue definitions: %q must be a mapping", key)
			}
			for j := 0; j+1 < len(val.Content); j += 2 {
				if err := d.add(val.Content[j].Value, val.Content[j+1]); err != nil {
					return nil, err
				}
			}
		case "defaults":
			if err := val.Decode(&d.defaults); err != nil {
				return nil, fmt.Errorf("venue definitions: parsing defaults: %w", err)
			}
		default:
			// Top-level special entry, merged into the lookup space.
			if err := d.add(key, val); err != nil {
				return nil, err
			}
		}
	}

	if len(d.order) == 0 {
		return nil, fmt.Errorf("venue definitions: no entries")
	}
	return d, nil
}

func (d *Definitions) add(name string, node *yaml.Node) error {
	var def Definition
	if err := node.Decode(&def); err != nil {
		return fmt.Errorf("venue definitions: parsing entry %q: %w", name, err)
	}
	if len(def.Patterns) == 0 {
		return fmt.Errorf("venue definitions: entry %q has no patterns", name)
	}
	if _, dup := d.entries[name]; dup {
		return fmt.Errorf("venue definitions: duplicate entry %q", name)
	}
	d.order = append(d.order, name)
	d.entries[name] = def
	return nil
}

// Match canonicalizes a raw venue string. It lowercases the input, strips
// commas, and tests every pattern for case-insensitive substring
// containment in table order; the first match wins. ok is false when no
// pattern matches.
func (d *Definitions) Match(venueText string) (name, category string, ok bool) {
	text := normalizeVenue(venueText)
	if text == "" {
		return "", "", false
	}
	for _, n := range d.order {
		def := d.entries[n]
		for _, pat := range def.Patterns {
			if strings.Contains(text, strings.ToLower(pat)) {
				return n, def.Category, true
			}
		}
	}
	return "", "", false
}

func normalizeVenue(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ToLower(s), ",", ""))
}

// Names returns the canonical names in table order.
func (d *Definitions) Names() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Lookup returns the definition for a canonical name.
func (d *Definitions) Lookup(name string) (Definition, bool) {
	def, ok := d.entries[name]
	return def, ok
}

// Defaults returns the process-wide filter defaults from the file.
func (d *Definitions) Defaults() Defaults {
	return d.defaults
}

// APIVenues translates canonical venue keys into the underlying
// API-facing venue strings. Unresolvable keys are returned separately so
// the caller can warn and skip them.
func (d *Definitions) APIVenues(keys []string) (resolved, unresolved []string) {
	for _, key := range keys {
		def, ok := d.entries[key]
		if !ok {
			unresolved = append(unresolved, key)
			continue
		}
		resolved = append(resolved, def.Patterns...)
	}
	return resolved, unresolved
}

// AllAPIVenues returns every API-facing venue string in the table, used
// when a topic does not restrict venues.
func (d *Definitions) AllAPIVenues() []string {
	var out []string
	for _, n := range d.order {
		out = append(out, d.entries[n].Patterns...)
	}
	return out
}

// SkipAbstract reports whether the abstract keyword filter is bypassed
// for a canonical venue, per the definitions-file defaults plus the
// topic-level extras.
func (d *Definitions) SkipAbstract(name string, extra []string) bool {
	for _, v := range d.defaults.SkipAbstractFilterVenues {
		if v == name {
			return true
		}
	}
	for _, v := range extra {
		if v == name {
			return true
		}
	}
	return false
}

// Validate reports overlap conflicts in the pattern table: a pattern that
// contains an earlier entry's pattern can never match, because the
// earlier, more generic pattern shadows it. Warnings only; table order
// still decides at runtime.
func (d *Definitions) Validate() []string {
	var warnings []string
	for i, earlier := range d.order {
		for _, later := range d.order[i+1:] {
			for _, pe := range d.entries[earlier].Patterns {
				for _, pl := range d.entries[later].Patterns {
					if strings.Contains(strings.ToLower(pl), strings.ToLower(pe)) {
						warnings = append(warnings,
							fmt.Sprintf("pattern %q of %q is shadowed by earlier pattern %q of %q",
								pl, later, pe, earlier))
					}
				}
			}
		}
	}
	return warnings
}
