package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mrlokans/bookfinder/internal/cache"
	"github.com/mrlokans/bookfinder/internal/config"
	"github.com/mrlokans/bookfinder/internal/database"
	"github.com/mrlokans/bookfinder/internal/database/books"
	"github.com/mrlokans/bookfinder/internal/database/tags"
	"github.com/mrlokans/bookfinder/internal/importers"
	"github.com/mrlokans/bookfinder/internal/library"
	"github.com/mrlokans/bookfinder/internal/services"
	"github.com/mrlokans/bookfinder/internal/settingsstore"
)

// App holds the long-lived components shared by the server and the CLI.
type App struct {
	DB        *database.Database
	Settings  *settingsstore.SettingsStore
	Libraries *library.Registry
	Search    *services.SearchService
	Cache     *cache.Cache
	Books     *books.Repository
	Tags      *tags.Repository
	Pipeline  *importers.Pipeline

	CatalogName string
}

// NewApp opens the catalog, registers every library and builds the first
// name index. A failing name index is logged, not fatal: searches still
// work with explicit facets.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.Open(cfg.Database.Path, database.Options{LogSQL: cfg.Database.LogSQL})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	settings := settingsstore.New(db)
	registry := library.NewRegistry(settings)

	catalogName := cfg.Libraries.CatalogName
	if catalogName == "" {
		catalogName = config.DefaultCatalogName
	}
	err = registry.Register(library.Library{
		Name:  catalogName,
		Kind:  library.KindCatalog,
		Path:  cfg.Database.Path,
		Store: books.NewStore(db.DB),
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	if len(cfg.Libraries.Roots) > 0 {
		dirs, err := library.Discover(cfg.Libraries.Roots)
		if err != nil {
			log.Printf("[LIBRARY] Discovery failed: %v", err)
		}
		n := registry.RegisterCalibre(dirs)
		log.Printf("[LIBRARY] Registered %d of %d calibre libraries", n, len(dirs))
	}
	registry.Restore()

	resultCache, err := cache.New(cache.Options{
		URL:     cfg.Cache.RedisURL,
		TTL:     cfg.Cache.TTL,
		Timeout: cfg.Cache.Timeout,
	})
	if err != nil {
		log.Printf("[CACHE] Result cache disabled: %v", err)
		resultCache = nil
	} else if resultCache.Enabled() {
		log.Printf("[CACHE] Result cache enabled (ttl %v)", cfg.Cache.TTL)
	}

	search := services.NewSearchService(registry, services.SearchServiceOptions{
		DefaultLimit: cfg.Search.DefaultLimit,
		Cache:        resultCache,
		Verbose:      cfg.Search.Verbose,
	})

	bookRepo := books.NewRepository(db.DB)
	pipeline := importers.NewPipeline(bookRepo).
		WithSessions(db).
		WithLibrary(cacheInvalidator{libraries: registry, cache: resultCache}, catalogName)

	app := &App{
		DB:          db,
		Settings:    settings,
		Libraries:   registry,
		Search:      search,
		Cache:       resultCache,
		Books:       bookRepo,
		Tags:        tags.NewRepository(db.DB),
		Pipeline:    pipeline,
		CatalogName: catalogName,
	}

	if _, err := search.RefreshNames(ctx); err != nil {
		log.Printf("[SEARCH] Initial name index failed: %v", err)
	}
	return app, nil
}

// Close releases every library, the cache and the catalog.
func (a *App) Close() error {
	return errors.Join(
		a.Libraries.Close(),
		a.Cache.Close(),
		a.DB.Close(),
	)
}

// cacheInvalidator marks a library as changed in this process and bumps the
// shared cache version, so every process sharing Redis drops its cached
// results. Generations restart at 1 with each process; the version does not.
type cacheInvalidator struct {
	libraries importers.Toucher
	cache     *cache.Cache
}

func (ci cacheInvalidator) Touch(name string) error {
	err := ci.libraries.Touch(name)
	if cerr := ci.cache.BumpVersion(context.Background()); cerr != nil {
		err = errors.Join(err, cerr)
	}
	return err
}
