package library

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mrlokans/bookfinder/internal/calibredb"
)

// discoverDepth bounds how far below a root Discover looks.
const discoverDepth = 3

// Discover returns the directories under roots that hold a Calibre
// metadata.db, sorted and without duplicates. Missing roots are skipped.
func Discover(roots []string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, root := range roots {
		root = filepath.Clean(strings.TrimSpace(root))
		if root == "." || root == "" {
			continue
		}
		if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
			log.Printf("[LIBRARY] Skipping missing library root %s", root)
			continue
		}

		baseDepth := strings.Count(root, string(os.PathSeparator))
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() {
				return nil
			}
			if strings.Count(path, string(os.PathSeparator))-baseDepth > discoverDepth {
				return filepath.SkipDir
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if _, err := os.Stat(filepath.Join(path, calibredb.MetadataFile)); err == nil {
				seen[path] = struct{}{}
				return filepath.SkipDir
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// NameFor derives a library name from its directory, e.g.
// "/srv/Calibre Library" becomes "calibre-library".
func NameFor(dir string) string {
	base := strings.ToLower(filepath.Base(dir))
	var b strings.Builder
	dash := false
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	name := strings.TrimSuffix(b.String(), "-")
	if name == "" {
		return "library"
	}
	return name
}

// RegisterCalibre opens every discovered library read-only and registers
// it. Libraries that fail to open are logged and skipped.
func (r *Registry) RegisterCalibre(dirs []string) int {
	registered := 0
	for _, dir := range dirs {
		store, err := calibredb.Open(dir)
		if err != nil {
			log.Printf("[LIBRARY] Failed to open calibre library %s: %v", dir, err)
			continue
		}
		name := NameFor(dir)
		if err := r.Register(Library{Name: name, Kind: KindCalibre, Path: dir, Store: store}); err != nil {
			log.Printf("[LIBRARY] Failed to register %s: %v", dir, err)
			store.Close()
			continue
		}
		registered++
	}
	return registered
}
