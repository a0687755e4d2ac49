package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/mrlokans/bookfinder/internal/cache"
	"github.com/mrlokans/bookfinder/internal/library"
	"github.com/mrlokans/bookfinder/internal/search"
)

// NameState describes the name index the parser currently uses.
type NameState struct {
	Library     string           `json:"library"`
	Generation  uint64           `json:"generation"`
	Index       search.NameIndex `json:"index"`
	RefreshedAt time.Time        `json:"refreshed_at"`
}

// SearchService runs searches against whichever library is active. The
// parser is rebuilt from the active library's names by RefreshNames and
// swapped in atomically; in-flight searches keep the parser they loaded.
type SearchService struct {
	libraries LibraryRegistry
	composer  *search.Composer
	cache     *cache.Cache
	verbose   bool

	parser atomic.Pointer[search.Parser]
	names  atomic.Pointer[NameState]
}

type SearchServiceOptions struct {
	DefaultLimit int
	Cache        *cache.Cache // nil disables caching
	Verbose      bool
}

func NewSearchService(libraries LibraryRegistry, opts SearchServiceOptions) *SearchService {
	s := &SearchService{
		libraries: libraries,
		composer:  search.NewComposer(opts.DefaultLimit),
		cache:     opts.Cache,
		verbose:   opts.Verbose,
	}
	s.parser.Store(search.NewParser(search.NameIndex{}))
	s.names.Store(&NameState{})
	return s
}

func (s *SearchService) engine() *search.Engine {
	return &search.Engine{
		Parser:   s.parser.Load(),
		Composer: s.composer,
		Verbose:  s.verbose,
	}
}

// Search resolves params and runs them against the active library.
// Validation happens before the active library is even looked up.
func (s *SearchService) Search(ctx context.Context, params search.ExplicitParams, opts search.AssembleOptions) (search.ResultDocument, error) {
	eng := s.engine()

	q, _, err := eng.Resolve(params)
	if err != nil {
		return search.ResultDocument{}, err
	}

	handle, err := s.libraries.Active()
	if err != nil {
		return search.ResultDocument{}, search.Unavailable("library", err)
	}

	scope := s.cache.Scope(ctx)
	key := s.cache.Key("search", handle.Name, handle.Generation, q, opts)
	var doc search.ResultDocument
	if scope.Get(ctx, key, &doc) {
		return doc, nil
	}

	doc, err = eng.Run(ctx, handle.Store, q, opts)
	if err != nil {
		return search.ResultDocument{}, err
	}
	scope.Set(ctx, key, doc)
	return doc, nil
}

// Explain resolves params without running them, for debugging queries.
func (s *SearchService) Explain(params search.ExplicitParams) (search.Query, search.ParseResult, error) {
	return s.engine().Resolve(params)
}

// RefreshNames rebuilds the parser from the active library's names.
func (s *SearchService) RefreshNames(ctx context.Context) (NameState, error) {
	handle, err := s.libraries.Active()
	if err != nil {
		return NameState{}, fmt.Errorf("no library to index: %w", err)
	}

	idx, err := handle.Store.Names(ctx)
	if err != nil {
		return NameState{}, fmt.Errorf("failed to load names from %s: %w", handle.Name, err)
	}

	state := &NameState{
		Library:     handle.Name,
		Generation:  handle.Generation,
		Index:       idx,
		RefreshedAt: time.Now().UTC(),
	}
	s.parser.Store(search.NewParser(idx))
	s.names.Store(state)

	log.Printf("[SEARCH] Name index refreshed from %s: %d authors, %d tags, %d series",
		handle.Name, len(idx.Authors), len(idx.Tags), len(idx.Series))
	return *state, nil
}

// Names returns the name index currently in use.
func (s *SearchService) Names() NameState {
	return *s.names.Load()
}

// SwitchLibrary activates another library and rebuilds the name index for it.
func (s *SearchService) SwitchLibrary(ctx context.Context, name string) (NameState, error) {
	if _, err := s.libraries.Switch(name); err != nil {
		if errors.Is(err, library.ErrNotFound) {
			return NameState{}, err
		}
		log.Printf("[SEARCH] Switched to %s but could not save the choice: %v", name, err)
	}
	return s.RefreshNames(ctx)
}
