package calibredb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookfinder/internal/search"
)

var recordColumns = []string{
	"id", "title", "sort", "series_index", "pubdate", "timestamp",
	"authors", "tags", "series", "rating", "publisher", "formats", "size", "comments",
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, "mock/metadata.db"), mock
}

func calibreRows() *sqlmock.Rows {
	return sqlmock.NewRows(recordColumns).
		AddRow(1, "Dune", "Dune", 1.0, "1965-08-01 00:00:00+00:00", "2024-01-10 09:30:00.123456+00:00",
			"Frank Herbert", "scifi\x1fclassic", "Dune Chronicles", 10, "Chilton", "EPUB\x1fpdf", 2048, "Spice.").
		AddRow(2, "Foundation", "Foundation", 1.0, "0101-01-01 00:00:00+00:00", "2024-02-01 00:00:00+00:00",
			"Isaac Asimov", nil, nil, 7, nil, "MOBI", 512, nil).
		AddRow(3, "Good Omens", "Good Omens", 1.0, nil, nil,
			"Terry Pratchett\x1fNeil Gaiman", "fantasy", nil, nil, "", nil, nil, nil)
}

func TestStore_Records(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM books b")).WillReturnRows(calibreRows())

	records, err := store.Records(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 3)

	dune := records[0]
	assert.Equal(t, []string{"Frank Herbert"}, dune.Authors)
	assert.Equal(t, []string{"scifi", "classic"}, dune.Tags)
	require.NotNil(t, dune.Series)
	assert.Equal(t, "Dune Chronicles", dune.Series.Name)
	assert.Equal(t, 5, dune.Rating)
	assert.Equal(t, []string{"EPUB", "PDF"}, dune.Formats)
	assert.Equal(t, int64(2048), dune.SizeBytes)
	require.NotNil(t, dune.Pubdate)
	assert.Equal(t, 1965, dune.Pubdate.Year())
	require.NotNil(t, dune.AddedAt)
	assert.Equal(t, time.Date(2024, 1, 10, 9, 30, 0, 123456000, time.UTC), *dune.AddedAt)

	foundation := records[1]
	assert.Nil(t, foundation.Pubdate, "calibre's placeholder pubdate means unknown")
	assert.Equal(t, 4, foundation.Rating)
	assert.Nil(t, foundation.Series)
	assert.Empty(t, foundation.Tags)

	omens := records[2]
	assert.Equal(t, []string{"Terry Pratchett", "Neil Gaiman"}, omens.Authors)
	assert.Zero(t, omens.Rating)
	assert.Nil(t, omens.AddedAt)
	assert.Empty(t, omens.Formats)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SnapshotServesSearch(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM books b")).WillReturnRows(calibreRows())

	doc, err := search.NewEngine().Search(context.Background(), store, search.ExplicitParams{
		Formats: []string{"pdf", "mobi"},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, doc.Total)
	assert.Equal(t, "Dune", doc.Items[0].Title)
	assert.Equal(t, "Foundation", doc.Items[1].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_QueryFailureIsStoreUnavailable(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM books b")).WillReturnError(errors.New("database is locked"))

	_, err := search.NewEngine().Search(context.Background(), store, search.ExplicitParams{})

	assert.ErrorIs(t, err, search.ErrStoreUnavailable)
}

func TestStore_Names(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM authors")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Frank Herbert").AddRow("Isaac Asimov"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM tags")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("scifi"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM series")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	names, err := store.Names(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"Frank Herbert", "Isaac Asimov"}, names.Authors)
	assert.Equal(t, []string{"scifi"}, names.Tags)
	assert.Empty(t, names.Series)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHalveRating(t *testing.T) {
	tests := []struct {
		in   int64
		want int
	}{
		{0, 0}, {1, 1}, {2, 1}, {3, 2}, {8, 4}, {9, 5}, {10, 5}, {12, 5}, {-2, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, halveRating(tt.in), "rating %d", tt.in)
	}
}

func TestOpen_MissingLibrary(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nowhere"))
	assert.Error(t, err)
}

func TestOpen_ReadsRealDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, MetadataFile)
	createCalibreFixture(t, path)

	store, err := Open(dir)
	require.NoError(t, err)
	defer store.Close()

	records, err := store.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Emma", records[0].Title)
	assert.Equal(t, []string{"Jane Austen"}, records[0].Authors)
	assert.Equal(t, 3, records[0].Rating)
	assert.Equal(t, []string{"EPUB"}, records[0].Formats)
	require.NotNil(t, records[0].Pubdate)
	assert.Equal(t, 1815, records[0].Pubdate.Year())

	_, statErr := os.Stat(path + "-journal")
	assert.True(t, os.IsNotExist(statErr), "read-only open must not write a journal")
}
