package bulk

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/pdxmph/people-tui/internal/contact"
)

// ErrUnknownFormat is returned for an export format nobody registered.
var ErrUnknownFormat = errors.New("unknown export format")

// Exporter writes contacts in one file format.
type Exporter interface {
	// Name returns the format identifier (e.g., "csv", "json")
	Name() string

	// Extension returns the file extension, with the dot.
	Extension() string

	// Export writes contacts to w.
	Export(w io.Writer, contacts []contact.Contact) error
}

// ExporterFactory is a function that creates a new instance of an Exporter
type ExporterFactory func() Exporter

// Registry manages available export formats
type Registry struct {
	mu        sync.RWMutex
	exporters map[string]ExporterFactory
}

// NewRegistry creates a new exporter registry
func NewRegistry() *Registry {
	return &Registry{
		exporters: make(map[string]ExporterFactory),
	}
}

// Register adds a new exporter factory to the registry
func (r *Registry) Register(name string, factory ExporterFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.exporters[name]; exists {
		return fmt.Errorf("exporter %s already registered", name)
	}

	r.exporters[name] = factory
	return nil
}

// Create instantiates an exporter by name
func (r *Registry) Create(name string) (Exporter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.exporters[name]
	if !exists {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownFormat)
	}

	return factory(), nil
}

// List returns all registered format names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.exporters))
	for name := range r.exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Global registry instance
var defaultRegistry = NewRegistry()

// Register adds an exporter to the global registry
func Register(name string, factory ExporterFactory) error {
	return defaultRegistry.Register(name, factory)
}

// CreateExporter creates an exporter from the global registry
func CreateExporter(name string) (Exporter, error) {
	return defaultRegistry.Create(name)
}

// ListFormats returns all registered format names from the global registry
func ListFormats() []string {
	return defaultRegistry.List()
}
