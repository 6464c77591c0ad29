package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vk/streamgridgo/internal/metainject"
	"github.com/vk/streamgridgo/internal/step"
)

// ErrUnknownType is returned by New for unregistered step types.
var ErrUnknownType = errors.New("unknown step type")

// Plugin is a step implementation whose configuration can be injected.
type Plugin interface {
	metainject.Injectable
	step.Processor
}

// Factory creates a plugin with default configuration.
type Factory func() Plugin

// Module is the interface that all step packages implement to be registered.
type Module interface {
	Register(c *Catalog)
}

type entry struct {
	factory     Factory
	description string
}

// Catalog holds the registered step types of one application instance.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New creates a catalog and registers the given modules into it.
func New(modules ...Module) *Catalog {
	c := &Catalog{entries: make(map[string]entry)}
	for _, m := range modules {
		m.Register(c)
	}
	return c
}

// Register adds a step type. Registering the same type twice is a programmer
// error and panics.
func (c *Catalog) Register(typeID, description string, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[typeID]; exists {
		panic(fmt.Sprintf("catalog: step type %q registered twice", typeID))
	}
	c.entries[typeID] = entry{factory: f, description: description}
}

// New creates a plugin of the given type.
func (c *Catalog) New(typeID string) (Plugin, error) {
	c.mu.RLock()
	e, ok := c.entries[typeID]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, typeID)
	}
	return e.factory(), nil
}

// Types returns the registered type identifiers, sorted.
func (c *Catalog) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	types := make([]string, 0, len(c.entries))
	for t := range c.entries {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Description returns the human-readable description of a step type.
func (c *Catalog) Description(typeID string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[typeID].description
}
