// Package morph resolves polymorphic owner-type discriminators to
// concrete owner models. Many entity types can carry document
// attachments; callers identify them by a short alias which the
// registry maps to a table name and capability flags.
package morph

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Model describes a resolved owner type.
type Model struct {
	Alias   string
	Table   string
	Ocrable bool
}

// Registry maps discriminator aliases to owner models. Unregistered
// aliases resolve to the literal alias as table name, mirroring how the
// attachment mechanism treats unmapped discriminators as opaque types.
type Registry struct {
	mu     sync.RWMutex
	models map[string]Model
}

var identRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]Model)}
}

// Register adds or replaces a model mapping.
func (r *Registry) Register(m Model) error {
	if !identRe.MatchString(m.Alias) {
		return fmt.Errorf("morph: invalid alias %q", m.Alias)
	}
	if m.Table == "" {
		m.Table = m.Alias
	}
	if !identRe.MatchString(m.Table) {
		return fmt.Errorf("morph: invalid table %q", m.Table)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[m.Alias] = m
	return nil
}

// Resolve returns the model for an alias, falling back to the literal
// alias when unmapped.
func (r *Registry) Resolve(alias string) (Model, error) {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return Model{}, fmt.Errorf("morph: empty discriminator")
	}

	r.mu.RLock()
	m, ok := r.models[alias]
	r.mu.RUnlock()
	if ok {
		return m, nil
	}

	if !identRe.MatchString(alias) {
		return Model{}, fmt.Errorf("morph: invalid discriminator %q", alias)
	}
	return Model{Alias: alias, Table: alias}, nil
}

// ParseMap populates a registry from a spec like
// "client=clients:ocr,invoice=invoices". The ":ocr" suffix marks the
// owner type as OCR-capable.
func ParseMap(spec string) (*Registry, error) {
	reg := NewRegistry()
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return reg, nil
	}

	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		alias, target, found := strings.Cut(entry, "=")
		if !found {
			return nil, fmt.Errorf("morph: invalid map entry %q", entry)
		}

		table, flag, _ := strings.Cut(target, ":")
		m := Model{
			Alias: strings.TrimSpace(alias),
			Table: strings.TrimSpace(table),
		}
		switch strings.TrimSpace(flag) {
		case "":
		case "ocr":
			m.Ocrable = true
		default:
			return nil, fmt.Errorf("morph: unknown flag %q in entry %q", flag, entry)
		}

		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
