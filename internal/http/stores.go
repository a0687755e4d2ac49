package http

import (
	"context"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookfinder/internal/database/tags"
	"github.com/mrlokans/bookfinder/internal/library"
	"github.com/mrlokans/bookfinder/internal/search"
	"github.com/mrlokans/bookfinder/internal/services"
)

// Controller dependencies are narrow interfaces so handlers can be tested
// with fakes. The concrete implementations are:
//
//	Searcher, NameIndexer -> services.SearchService
//	LibraryService        -> library.Registry
//	TaskQueue             -> tasks.Client
//	TagStore              -> database/tags.Repository

// Searcher runs queries against the active library.
type Searcher interface {
	Search(ctx context.Context, params search.ExplicitParams, opts search.AssembleOptions) (search.ResultDocument, error)
	Explain(params search.ExplicitParams) (search.Query, search.ParseResult, error)
}

// NameIndexer owns the name index used by the free-text parser.
type NameIndexer interface {
	Names() services.NameState
	RefreshNames(ctx context.Context) (services.NameState, error)
	SwitchLibrary(ctx context.Context, name string) (services.NameState, error)
}

// LibraryCatalog lists and resolves registered libraries.
type LibraryCatalog interface {
	List() []library.Info
	Lookup(name string) (library.Library, error)
}

// LibraryService is what the router needs from the library registry.
type LibraryService interface {
	LibraryCatalog
	ActiveLibrary
}

// TaskQueue enqueues background work and reports on it.
type TaskQueue interface {
	Enqueue(task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// TagStore reads catalog tags.
type TagStore interface {
	GetAllTags() ([]tags.TagUsage, error)
}
