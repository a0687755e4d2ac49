// Package library keeps the set of searchable libraries and tracks which one
// is active. Searches read the active handle once per request; switching
// libraries or touching one bumps its generation so cached results keyed by
// (name, generation) stop matching.
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"sync"

	"github.com/mrlokans/bookfinder/internal/search"
)

var (
	ErrNotFound       = errors.New("library not found")
	ErrNoActive       = errors.New("no active library")
	ErrAlreadyDefined = errors.New("library already registered")
)

type Kind string

const (
	KindCatalog Kind = "catalog" // gorm catalog database
	KindCalibre Kind = "calibre" // read-only Calibre metadata.db
	KindMemory  Kind = "memory"
)

// Store is what a library must provide: search snapshots plus the names the
// free-text parser should recognise.
type Store interface {
	search.BookStore
	Names(ctx context.Context) (search.NameIndex, error)
}

type Library struct {
	Name  string
	Kind  Kind
	Path  string
	Store Store
}

// Handle is the active library as seen by one request.
type Handle struct {
	Name       string
	Generation uint64
	Store      Store
}

// Info describes a registered library for listings.
type Info struct {
	Name       string `json:"name"`
	Kind       Kind   `json:"kind"`
	Path       string `json:"path,omitempty"`
	Generation uint64 `json:"generation"`
	Active     bool   `json:"active"`
}

// ActiveSetting persists the name of the active library across restarts.
type ActiveSetting interface {
	GetActiveLibrary() string
	SetActiveLibrary(name string) error
}

type entry struct {
	lib        Library
	generation uint64
}

type Registry struct {
	mu       sync.RWMutex
	libs     map[string]*entry
	active   string
	settings ActiveSetting
}

// NewRegistry creates an empty registry. settings may be nil, in which case
// the active library only lives in memory.
func NewRegistry(settings ActiveSetting) *Registry {
	return &Registry{
		libs:     make(map[string]*entry),
		settings: settings,
	}
}

// Register adds a library. The first library registered becomes active
// until Restore or Switch says otherwise.
func (r *Registry) Register(lib Library) error {
	if lib.Name == "" {
		return fmt.Errorf("library name is required")
	}
	if lib.Store == nil {
		return fmt.Errorf("library %q has no store", lib.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.libs[lib.Name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyDefined, lib.Name)
	}
	r.libs[lib.Name] = &entry{lib: lib, generation: 1}
	if r.active == "" {
		r.active = lib.Name
	}
	log.Printf("[LIBRARY] Registered %s library %q", lib.Kind, lib.Name)
	return nil
}

// Restore activates the persisted library if it is registered.
func (r *Registry) Restore() {
	if r.settings == nil {
		return
	}
	name := r.settings.GetActiveLibrary()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.libs[name]; ok {
		r.active = name
		return
	}
	log.Printf("[LIBRARY] Saved active library %q is not registered, keeping %q", name, r.active)
}

// Active returns the handle of the active library.
func (r *Registry) Active() (Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == "" {
		return Handle{}, ErrNoActive
	}
	return r.handle(r.active)
}

// Get returns the handle of a library by name.
func (r *Registry) Get(name string) (Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handle(name)
}

func (r *Registry) handle(name string) (Handle, error) {
	e, ok := r.libs[name]
	if !ok {
		return Handle{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return Handle{Name: name, Generation: e.generation, Store: e.lib.Store}, nil
}

// Lookup returns the registered library definition.
func (r *Registry) Lookup(name string) (Library, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.libs[name]
	if !ok {
		return Library{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return e.lib, nil
}

// Switch makes name the active library and persists the choice.
// Searches already holding the previous handle finish against it.
func (r *Registry) Switch(name string) (Handle, error) {
	r.mu.Lock()
	e, ok := r.libs[name]
	if !ok {
		r.mu.Unlock()
		return Handle{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	e.generation++
	r.active = name
	h := Handle{Name: name, Generation: e.generation, Store: e.lib.Store}
	r.mu.Unlock()

	if r.settings != nil {
		if err := r.settings.SetActiveLibrary(name); err != nil {
			return h, fmt.Errorf("failed to persist active library: %w", err)
		}
	}
	log.Printf("[LIBRARY] Active library is now %q (generation %d)", name, h.Generation)
	return h, nil
}

// Touch records that a library's contents changed.
func (r *Registry) Touch(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.libs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	e.generation++
	return nil
}

// List returns all libraries sorted by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(r.libs))
	for name, e := range r.libs {
		out = append(out, Info{
			Name:       name,
			Kind:       e.lib.Kind,
			Path:       e.lib.Path,
			Generation: e.generation,
			Active:     name == r.active,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Close closes every store that holds resources.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, e := range r.libs {
		if c, ok := e.lib.Store.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}
