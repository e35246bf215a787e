package display

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Display is a fixed-size character display.
type Display interface {
	// Size reports the display geometry in characters.
	Size() (cols, rows int)

	// Clear blanks the display.
	Clear() error

	// Show replaces the display contents with lines, one per row. Missing
	// rows are blanked and extra lines are ignored.
	Show(lines []string) error

	// Close blanks the display and releases the underlying device.
	Close() error
}

// Factory opens a display driver.
type Factory func() (Display, error)

// Registry holds display drivers by name and opens the configured one.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]Factory
}

// NewRegistry creates an empty display registry.
func NewRegistry() *Registry {
	return &Registry{
		drivers: make(map[string]Factory),
	}
}

// Register adds a driver factory under the given name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers[name] = f
}

// Open opens the driver registered under name.
func (r *Registry) Open(name string) (Display, error) {
	r.mu.RLock()
	f, ok := r.drivers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("display driver %q is not registered (available: %s)",
			name, strings.Join(r.Names(), ", "))
	}
	d, err := f()
	if err != nil {
		return nil, fmt.Errorf("open display %q: %w", name, err)
	}
	return d, nil
}

// Names returns the registered driver names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
