// Package registry provides a central registry of entity definitions.
package registry

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/marshallshelly/pebble-record/pkg/schema"
)

// Registry is a thread-safe registry of entity definitions.
type Registry struct {
	mu     sync.RWMutex
	names  map[string]*schema.Definition
	tables map[string]*schema.Definition
}

// NewRegistry creates a new Registry instance.
func NewRegistry() *Registry {
	return &Registry{
		names:  make(map[string]*schema.Definition),
		tables: make(map[string]*schema.Definition),
	}
}

// Register normalizes and stores a definition. Registering a name twice
// keeps the first definition.
func (r *Registry) Register(def *schema.Definition) error {
	if def == nil {
		return fmt.Errorf("definition must not be nil")
	}
	if err := def.Normalize(); err != nil {
		return fmt.Errorf("failed to register %s: %w", def.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.names[def.Name]; ok {
		return nil // Already registered
	}
	if other, ok := r.tables[def.Table]; ok {
		return fmt.Errorf("table %s already registered by %s", def.Table, other.Name)
	}

	r.names[def.Name] = def
	r.tables[def.Table] = def

	return nil
}

// Get retrieves a definition by entity name.
func (r *Registry) Get(name string) (*schema.Definition, error) {
	r.mu.RLock()
	def, ok := r.names[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("entity %s not registered", name)
	}

	return def, nil
}

// GetByTable retrieves a definition by table name.
func (r *Registry) GetByTable(table string) (*schema.Definition, error) {
	r.mu.RLock()
	def, ok := r.tables[table]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("table %s not registered", table)
	}

	return def, nil
}

// All returns all registered definitions ordered by name.
func (r *Registry) All() []*schema.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*schema.Definition, 0, len(r.names))
	for _, def := range r.names {
		defs = append(defs, def)
	}
	slices.SortFunc(defs, func(a, b *schema.Definition) int {
		return cmp.Compare(a.Name, b.Name)
	})

	return defs
}

// AllNames returns all registered entity names, sorted.
func (r *Registry) AllNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// Has checks if an entity name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	_, ok := r.names[name]
	r.mu.RUnlock()

	return ok
}

// HasTable checks if a table name is registered.
func (r *Registry) HasTable(table string) bool {
	r.mu.RLock()
	_, ok := r.tables[table]
	r.mu.RUnlock()

	return ok
}

// Clear removes all registered definitions.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.names = make(map[string]*schema.Definition)
	r.tables = make(map[string]*schema.Definition)
}

// globalRegistry is the default global registry instance.
var globalRegistry = NewRegistry()

// Register registers a definition in the global registry.
func Register(def *schema.Definition) error {
	return globalRegistry.Register(def)
}

// Get retrieves a definition from the global registry.
func Get(name string) (*schema.Definition, error) {
	return globalRegistry.Get(name)
}

// GetByTable retrieves a definition by table from the global registry.
func GetByTable(table string) (*schema.Definition, error) {
	return globalRegistry.GetByTable(table)
}

// All returns all definitions from the global registry.
func All() []*schema.Definition {
	return globalRegistry.All()
}

// AllNames returns all entity names from the global registry.
func AllNames() []string {
	return globalRegistry.AllNames()
}

// Has checks the global registry for an entity name.
func Has(name string) bool {
	return globalRegistry.Has(name)
}

// Clear clears the global registry.
func Clear() {
	globalRegistry.Clear()
}
