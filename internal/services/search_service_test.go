package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookfinder/internal/cache"
	"github.com/mrlokans/bookfinder/internal/library"
	"github.com/mrlokans/bookfinder/internal/memstore"
	"github.com/mrlokans/bookfinder/internal/search"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func newTestService(t *testing.T) (*SearchService, *library.Registry, *memstore.Store) {
	t.Helper()
	catalog := memstore.New(
		search.BookRecord{ID: 1, Title: "Dune", Authors: []string{"Frank Herbert"}, Tags: []string{"scifi"}, Rating: 5},
		search.BookRecord{ID: 2, Title: "Foundation", Authors: []string{"Isaac Asimov"}, Tags: []string{"scifi"}, Rating: 4},
		search.BookRecord{ID: 3, Title: "Emma", Authors: []string{"Jane Austen"}, Tags: []string{"romance"}, Rating: 3},
	)
	classics := memstore.New(
		search.BookRecord{ID: 1, Title: "Middlemarch", Authors: []string{"George Eliot"}, Tags: []string{"classic"}},
	)

	reg := library.NewRegistry(nil)
	require.NoError(t, reg.Register(library.Library{Name: "catalog", Kind: library.KindMemory, Store: catalog}))
	require.NoError(t, reg.Register(library.Library{Name: "classics", Kind: library.KindMemory, Store: classics}))

	return NewSearchService(reg, SearchServiceOptions{}), reg, catalog
}

func titles(doc search.ResultDocument) []string {
	out := make([]string, len(doc.Items))
	for i, it := range doc.Items {
		out[i] = it.Title
	}
	return out
}

func TestSearchService_Search(t *testing.T) {
	svc, _, _ := newTestService(t)

	doc, err := svc.Search(context.Background(), search.ExplicitParams{Tag: strPtr("scifi"), MinRating: intPtr(5)}, search.AssembleOptions{})

	require.NoError(t, err)
	assert.Equal(t, []string{"Dune"}, titles(doc))
}

func TestSearchService_ValidationError(t *testing.T) {
	svc := NewSearchService(library.NewRegistry(nil), SearchServiceOptions{})

	_, err := svc.Search(context.Background(), search.ExplicitParams{Limit: intPtr(0)}, search.AssembleOptions{})

	assert.ErrorIs(t, err, search.ErrValidation, "validation runs before the library lookup")
}

func TestSearchService_NoActiveLibrary(t *testing.T) {
	svc := NewSearchService(library.NewRegistry(nil), SearchServiceOptions{})

	_, err := svc.Search(context.Background(), search.ExplicitParams{}, search.AssembleOptions{})

	assert.ErrorIs(t, err, search.ErrStoreUnavailable)
}

func TestSearchService_CachedResults(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := cache.New(cache.Options{URL: "redis://" + mr.Addr(), TTL: time.Minute})
	require.NoError(t, err)
	defer rc.Close()

	catalog := memstore.New(
		search.BookRecord{ID: 1, Title: "Dune", Authors: []string{"Frank Herbert"}, Tags: []string{"scifi"}},
	)
	reg := library.NewRegistry(nil)
	require.NoError(t, reg.Register(library.Library{Name: "catalog", Kind: library.KindMemory, Store: catalog}))
	svc := NewSearchService(reg, SearchServiceOptions{Cache: rc})

	ctx := context.Background()
	params := search.ExplicitParams{Tag: strPtr("scifi")}

	doc, err := svc.Search(ctx, params, search.AssembleOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune"}, titles(doc))
	assert.Len(t, mr.Keys(), 1, "the result document is cached")

	// A write the registry never heard of is hidden by the cache.
	catalog.Put(search.BookRecord{ID: 2, Title: "Hyperion", Tags: []string{"scifi"}})
	doc, err = svc.Search(ctx, params, search.AssembleOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune"}, titles(doc))

	// Another process bumping the shared version drops it.
	require.NoError(t, rc.BumpVersion(ctx))
	doc, err = svc.Search(ctx, params, search.AssembleOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune", "Hyperion"}, titles(doc))

	// So does a generation bump in this process.
	catalog.Put(search.BookRecord{ID: 3, Title: "Anathem", Tags: []string{"scifi"}})
	require.NoError(t, reg.Touch("catalog"))
	doc, err = svc.Search(ctx, params, search.AssembleOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Anathem", "Dune", "Hyperion"}, titles(doc))
}

func TestSearchService_RefreshNamesFeedsParser(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	params := search.ExplicitParams{Text: strPtr("isaac asimov")}

	// Without the name index the words are plain terms matched against
	// title, authors, tags, series and comments.
	doc, err := svc.Search(ctx, params, search.AssembleOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Foundation"}, titles(doc))

	state, err := svc.RefreshNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, "catalog", state.Library)
	assert.Equal(t, []string{"Frank Herbert", "Isaac Asimov", "Jane Austen"}, state.Index.Authors)
	assert.Equal(t, state, svc.Names())

	q, parsed, err := svc.Explain(params)
	require.NoError(t, err)
	assert.Empty(t, parsed.Terms)
	assert.Equal(t, []string{"Isaac Asimov"}, q.Criteria.Authors.Include)
}

func TestSearchService_SwitchLibrary(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	state, err := svc.SwitchLibrary(ctx, "classics")
	require.NoError(t, err)
	assert.Equal(t, "classics", state.Library)
	assert.Equal(t, []string{"George Eliot"}, state.Index.Authors)

	doc, err := svc.Search(ctx, search.ExplicitParams{}, search.AssembleOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Middlemarch"}, titles(doc))

	_, err = svc.SwitchLibrary(ctx, "nope")
	assert.True(t, errors.Is(err, library.ErrNotFound))
}

func TestSearchService_ConcurrentSearchAndRefresh(t *testing.T) {
	svc, _, catalog := newTestService(t)
	ctx := context.Background()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			doc, err := svc.Search(ctx, search.ExplicitParams{Text: strPtr("scifi")}, search.AssembleOptions{})
			assert.NoError(t, err)
			assert.Equal(t, 2, doc.Total)
		}()
		go func(i int) {
			defer wg.Done()
			catalog.Put(search.BookRecord{ID: int64(100 + i), Title: "Untagged"})
			_, err := svc.RefreshNames(ctx)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}
