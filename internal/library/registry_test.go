package library

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookfinder/internal/memstore"
	"github.com/mrlokans/bookfinder/internal/search"
)

type memorySetting struct {
	name string
	err  error
}

func (m *memorySetting) GetActiveLibrary() string { return m.name }

func (m *memorySetting) SetActiveLibrary(name string) error {
	if m.err != nil {
		return m.err
	}
	m.name = name
	return nil
}

func newTestRegistry(t *testing.T, settings ActiveSetting) *Registry {
	t.Helper()
	r := NewRegistry(settings)
	require.NoError(t, r.Register(Library{Name: "catalog", Kind: KindMemory, Store: memstore.New(
		search.BookRecord{ID: 1, Title: "Dune", Authors: []string{"Frank Herbert"}},
	)}))
	require.NoError(t, r.Register(Library{Name: "demo", Kind: KindMemory, Store: memstore.New(
		search.BookRecord{ID: 1, Title: "Emma", Authors: []string{"Jane Austen"}},
	)}))
	return r
}

func TestRegistry_FirstRegisteredIsActive(t *testing.T) {
	r := newTestRegistry(t, nil)

	h, err := r.Active()

	require.NoError(t, err)
	assert.Equal(t, "catalog", h.Name)
	assert.Equal(t, uint64(1), h.Generation)
}

func TestRegistry_Empty(t *testing.T) {
	_, err := NewRegistry(nil).Active()
	assert.ErrorIs(t, err, ErrNoActive)
}

func TestRegistry_RegisterValidation(t *testing.T) {
	r := newTestRegistry(t, nil)

	assert.ErrorIs(t, r.Register(Library{Name: "demo", Store: memstore.New()}), ErrAlreadyDefined)
	assert.Error(t, r.Register(Library{Name: "", Store: memstore.New()}))
	assert.Error(t, r.Register(Library{Name: "nil-store"}))
}

func TestRegistry_SwitchPersistsAndBumpsGeneration(t *testing.T) {
	settings := &memorySetting{}
	r := newTestRegistry(t, settings)

	h, err := r.Switch("demo")
	require.NoError(t, err)
	assert.Equal(t, "demo", h.Name)
	assert.Equal(t, uint64(2), h.Generation)
	assert.Equal(t, "demo", settings.name)

	active, err := r.Active()
	require.NoError(t, err)
	assert.Equal(t, h, active)

	_, err = r.Switch("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	active, _ = r.Active()
	assert.Equal(t, "demo", active.Name)
}

func TestRegistry_SwitchPersistFailureStillSwitches(t *testing.T) {
	r := newTestRegistry(t, &memorySetting{err: errors.New("readonly")})

	_, err := r.Switch("demo")

	assert.Error(t, err)
	active, _ := r.Active()
	assert.Equal(t, "demo", active.Name)
}

func TestRegistry_Restore(t *testing.T) {
	r := newTestRegistry(t, &memorySetting{name: "demo"})
	r.Restore()
	active, _ := r.Active()
	assert.Equal(t, "demo", active.Name)

	r = newTestRegistry(t, &memorySetting{name: "gone"})
	r.Restore()
	active, _ = r.Active()
	assert.Equal(t, "catalog", active.Name)
}

func TestRegistry_Touch(t *testing.T) {
	r := newTestRegistry(t, nil)

	require.NoError(t, r.Touch("catalog"))
	require.NoError(t, r.Touch("catalog"))

	h, err := r.Get("catalog")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), h.Generation)
	assert.ErrorIs(t, r.Touch("missing"), ErrNotFound)
}

func TestRegistry_List(t *testing.T) {
	r := newTestRegistry(t, nil)

	infos := r.List()

	require.Len(t, infos, 2)
	assert.Equal(t, "catalog", infos[0].Name)
	assert.True(t, infos[0].Active)
	assert.Equal(t, "demo", infos[1].Name)
	assert.False(t, infos[1].Active)
}

func TestRegistry_HandleOutlivesSwitch(t *testing.T) {
	r := newTestRegistry(t, nil)
	before, err := r.Active()
	require.NoError(t, err)

	_, err = r.Switch("demo")
	require.NoError(t, err)

	doc, err := search.NewEngine().Search(context.Background(), before.Store, search.ExplicitParams{})
	require.NoError(t, err)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "Dune", doc.Items[0].Title)
}

func TestRegistry_ConcurrentSwitchAndRead(t *testing.T) {
	r := newTestRegistry(t, nil)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			name := "catalog"
			if i%2 == 0 {
				name = "demo"
			}
			_, _ = r.Switch(name)
		}(i)
		go func() {
			defer wg.Done()
			h, err := r.Active()
			assert.NoError(t, err)
			assert.NotNil(t, h.Store)
		}()
	}
	wg.Wait()
}

func makeCalibreLibrary(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	db, err := sql.Open("sqlite3", filepath.Join(dir, "metadata.db"))
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE authors (id INTEGER PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	makeCalibreLibrary(t, filepath.Join(root, "Calibre Library"))
	makeCalibreLibrary(t, filepath.Join(root, "nested", "Comics"))
	makeCalibreLibrary(t, filepath.Join(root, ".hidden", "Secret"))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	dirs, err := Discover([]string{root, root, filepath.Join(root, "missing")})

	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "Calibre Library"),
		filepath.Join(root, "nested", "Comics"),
	}, dirs)
}

func TestRegisterCalibre(t *testing.T) {
	root := t.TempDir()
	lib := filepath.Join(root, "Calibre Library")
	makeCalibreLibrary(t, lib)

	r := NewRegistry(nil)
	n := r.RegisterCalibre([]string{lib, filepath.Join(root, "not-a-library")})
	defer r.Close()

	assert.Equal(t, 1, n)
	got, err := r.Lookup("calibre-library")
	require.NoError(t, err)
	assert.Equal(t, KindCalibre, got.Kind)
	assert.Equal(t, lib, got.Path)
}

func TestNameFor(t *testing.T) {
	assert.Equal(t, "calibre-library", NameFor("/srv/Calibre Library"))
	assert.Equal(t, "sci-fi-2024", NameFor("/books/Sci-Fi (2024)"))
	assert.Equal(t, "library", NameFor("/books/Библиотека"))
}
