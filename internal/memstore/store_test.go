package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookfinder/internal/search"
)

func sampleStore() *Store {
	return New(
		search.BookRecord{ID: 1, Title: "Dune", Authors: []string{"Frank Herbert"}, Tags: []string{"scifi"}, Series: &search.SeriesRef{Name: "Dune"}},
		search.BookRecord{ID: 2, Title: "Foundation", Authors: []string{"Isaac Asimov"}, Tags: []string{"scifi", "classic"}},
		search.BookRecord{ID: 3, Title: "Emma", Authors: []string{"Jane Austen"}, Tags: []string{"romance", "classic"}},
	)
}

func TestStore_SnapshotIsolation(t *testing.T) {
	store := sampleStore()
	ctx := context.Background()
	pred := search.Build(search.SearchCriteria{})

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	defer snap.Close()

	store.Put(search.BookRecord{ID: 4, Title: "Hyperion"})
	store.Replace(nil)

	total, err := snap.Count(ctx, pred)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	page, err := snap.Fetch(ctx, pred, search.PageWindow{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page, 3)
	assert.Equal(t, 0, store.Len())
}

func TestStore_PutReplacesByID(t *testing.T) {
	store := sampleStore()

	store.Put(search.BookRecord{ID: 2, Title: "Foundation and Empire"})
	store.Put(search.BookRecord{ID: 9, Title: "Solaris"})

	assert.Equal(t, 4, store.Len())

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	page, err := snap.Fetch(context.Background(), search.Build(search.SearchCriteria{Terms: []string{"empire"}}), search.PageWindow{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(2), page[0].ID)
}

func TestStore_WorksWithEngine(t *testing.T) {
	doc, err := search.NewEngine().Search(context.Background(), sampleStore(), search.ExplicitParams{
		Tags:  []string{"classic"},
		Limit: func() *int { v := 1; return &v }(),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, doc.Total)
	assert.Equal(t, 2, doc.TotalPages)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "Emma", doc.Items[0].Title)
}

func TestStore_Names(t *testing.T) {
	names, err := sampleStore().Names(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"Frank Herbert", "Isaac Asimov", "Jane Austen"}, names.Authors)
	assert.Equal(t, []string{"classic", "romance", "scifi"}, names.Tags)
	assert.Equal(t, []string{"Dune"}, names.Series)
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sampleStore().Snapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
