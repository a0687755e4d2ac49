package importers

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookfinder/internal/database"
	"github.com/mrlokans/bookfinder/internal/database/books"
	"github.com/mrlokans/bookfinder/internal/entities"
	"github.com/mrlokans/bookfinder/internal/search"
)

type mockSaver struct {
	saved       []entities.Book
	existing    map[string]bool
	returnError error
}

func (m *mockSaver) SaveBook(book *entities.Book) (bool, error) {
	if m.returnError != nil {
		return false, m.returnError
	}
	m.saved = append(m.saved, *book)
	key := book.FirstAuthor() + "|" + book.Title
	if m.existing == nil {
		m.existing = map[string]bool{}
	}
	created := !m.existing[key]
	m.existing[key] = true
	return created, nil
}

type mockToucher struct {
	touched []string
}

func (m *mockToucher) Touch(name string) error {
	m.touched = append(m.touched, name)
	return nil
}

type staticConverter struct {
	books []RawBook
}

func (c staticConverter) Convert() ([]RawBook, Source) {
	return c.books, Source{Name: "json"}
}

func TestPipeline_Import_NormalisesAndDedupes(t *testing.T) {
	saver := &mockSaver{}
	toucher := &mockToucher{}
	pipeline := NewPipeline(saver).WithLibrary(toucher, "catalog")

	result, err := pipeline.Import(staticConverter{books: []RawBook{
		{Title: "  The Hobbit ", Authors: []string{"J.R.R. Tolkien", " j.r.r. tolkien "}, Tags: []string{"Fantasy", "fantasy", " "},
			Formats: []RawFormat{{Format: "epub", SizeBytes: 10}, {Format: "EPUB"}, {Format: "pdf", SizeBytes: 20}}},
		{Title: "Dune", Authors: []string{"Frank Herbert"}, Rating: 4},
		{Title: "dune", Authors: []string{"frank herbert"}, Rating: 5},
	}})

	require.NoError(t, err)
	assert.Equal(t, 2, result.BooksRead)
	assert.Equal(t, 2, result.BooksCreated)
	assert.Zero(t, result.BooksFailed)
	require.Len(t, saver.saved, 2)

	hobbit := saver.saved[0]
	assert.Equal(t, "The Hobbit", hobbit.Title)
	assert.Equal(t, "Hobbit, The", hobbit.Sort)
	assert.Equal(t, []string{"J.R.R. Tolkien"}, hobbit.AuthorNames())
	require.Len(t, hobbit.Tags, 1)
	assert.Equal(t, "Fantasy", hobbit.Tags[0].Name)
	require.Len(t, hobbit.Formats, 2)
	assert.Equal(t, "EPUB", hobbit.Formats[0].Format)
	assert.Equal(t, "PDF", hobbit.Formats[1].Format)

	assert.Equal(t, 5, saver.saved[1].Rating, "the last duplicate in a batch wins")
	assert.Equal(t, []string{"catalog"}, toucher.touched)
}

func TestPipeline_Import_CountsFailures(t *testing.T) {
	saver := &mockSaver{}
	toucher := &mockToucher{}
	pipeline := NewPipeline(saver).WithLibrary(toucher, "catalog")

	result, err := pipeline.Import(staticConverter{books: []RawBook{
		{Title: "", ExternalID: "x1"},
		{Title: "Emma", Rating: 9},
	}})

	require.NoError(t, err)
	assert.Equal(t, 2, result.BooksFailed)
	assert.Len(t, result.Errors, 2)
	assert.Empty(t, toucher.touched, "nothing changed, nothing to invalidate")
}

func TestPipeline_Import_SaverError(t *testing.T) {
	pipeline := NewPipeline(&mockSaver{returnError: errors.New("disk full")})

	result, err := pipeline.Import(staticConverter{books: []RawBook{{Title: "Emma"}}})

	require.NoError(t, err)
	assert.Equal(t, 1, result.BooksFailed)
	assert.Contains(t, result.Errors[0], "disk full")
}

func TestPipeline_Import_EmptyInput(t *testing.T) {
	saver := &mockSaver{}

	result, err := NewPipeline(saver).Import(staticConverter{})

	require.NoError(t, err)
	assert.Zero(t, result.BooksRead)
	assert.Empty(t, saver.saved)
}

func TestSortTitle(t *testing.T) {
	assert.Equal(t, "Hobbit, The", SortTitle("The Hobbit"))
	assert.Equal(t, "Wrinkle in Time, A", SortTitle("A Wrinkle in Time"))
	assert.Equal(t, "Theory of Everything", SortTitle("Theory of Everything"))
	assert.Equal(t, "The", SortTitle("The"))
}

func TestParseJSON(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		conv, err := ParseJSON(strings.NewReader(`[
			{"title": "Dune", "author": "Frank Herbert", "pubdate": "1965-08-01", "formats": [{"format": "epub", "size": 900}]},
			{"title": "Good Omens", "authors": ["Terry Pratchett", "Neil Gaiman"], "added_at": "2024-01-02T10:00:00+02:00"}
		]`))
		require.NoError(t, err)

		raws, source := conv.Convert()
		assert.Equal(t, "json", source.Name)
		require.Len(t, raws, 2)
		assert.Equal(t, []string{"Frank Herbert"}, raws[0].Authors)
		require.NotNil(t, raws[0].Pubdate)
		assert.Equal(t, 1965, raws[0].Pubdate.Year())
		assert.Equal(t, int64(900), raws[0].Formats[0].SizeBytes)
		require.NotNil(t, raws[1].AddedAt)
		assert.Equal(t, time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC), *raws[1].AddedAt)
	})

	t.Run("object", func(t *testing.T) {
		conv, err := ParseJSON(strings.NewReader(`{"books": [{"title": "Emma"}]}`))
		require.NoError(t, err)
		assert.Len(t, conv.Books, 1)
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := ParseJSON(strings.NewReader(`[{"title": "Emma", "pubdate": "12/23/1815"}]`))
		assert.ErrorContains(t, err, "pubdate")
	})

	t.Run("not json", func(t *testing.T) {
		_, err := ParseJSON(strings.NewReader(`title,author`))
		assert.Error(t, err)
	})
}

type fakeRecords []search.BookRecord

func (f fakeRecords) Records(ctx context.Context) ([]search.BookRecord, error) { return f, nil }

func TestCalibreConverter(t *testing.T) {
	pub := time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC)
	conv, err := NewCalibreConverter(context.Background(), fakeRecords{
		{ID: 7, Title: "Dune", Authors: []string{"Frank Herbert"}, Series: &search.SeriesRef{Name: "Dune", Index: 1},
			Pubdate: &pub, Formats: []string{"EPUB"}, SizeBytes: 2048},
	}, "/srv/calibre")
	require.NoError(t, err)

	raws, source := conv.Convert()

	assert.Equal(t, Source{Name: "calibre", FilePath: "/srv/calibre"}, source)
	require.Len(t, raws, 1)
	assert.Equal(t, "calibre:7", raws[0].ExternalID)
	assert.Equal(t, "Dune", raws[0].Series)
	assert.Equal(t, 1.0, raws[0].SeriesIndex)
	assert.Equal(t, int64(2048), raws[0].SizeBytes)
}

func TestPipeline_Import_IntoCatalog(t *testing.T) {
	dbPath := "./test_importers_catalog.db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)
	defer func() {
		db.Close()
		os.Remove(dbPath)
	}()

	pipeline := NewPipeline(books.NewRepository(db.DB)).WithSessions(db)
	conv, err := ParseJSON(strings.NewReader(`[
		{"title": "Dune", "author": "Frank Herbert", "tags": ["scifi"], "rating": 5, "formats": [{"format": "epub", "size": 900}]},
		{"title": "Emma", "author": "Jane Austen", "tags": ["romance"]}
	]`))
	require.NoError(t, err)

	result, err := pipeline.Import(conv)
	require.NoError(t, err)
	assert.Equal(t, 2, result.BooksCreated)
	require.NotZero(t, result.SessionID)

	again, err := pipeline.Import(conv)
	require.NoError(t, err)
	assert.Equal(t, 2, again.BooksUpdated)
	assert.Zero(t, again.BooksCreated)

	session, err := db.GetImportSession(result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportStatusCompleted, session.Status)
	assert.Equal(t, "json", session.Source.Name)

	doc, err := search.NewEngine().Search(context.Background(), books.NewStore(db.DB), search.ExplicitParams{
		Formats: []string{"EPUB"},
	})
	require.NoError(t, err)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "Dune", doc.Items[0].Title)
}
