package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioStore() *fakeStore {
	return &fakeStore{records: []BookRecord{
		{ID: 1, Title: "Dune", Authors: []string{"Herbert"}, Tags: []string{"scifi"}, Rating: 5},
		{ID: 2, Title: "Foundation", Authors: []string{"Asimov"}, Tags: []string{"scifi"}, Rating: 4},
		{ID: 3, Title: "Emma", Authors: []string{"Austen"}, Tags: []string{"romance"}, Rating: 3},
	}}
}

func titles(doc ResultDocument) []string {
	out := make([]string, len(doc.Items))
	for i, it := range doc.Items {
		out[i] = it.Title
	}
	return out
}

func TestEngine_Scenario(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()

	doc, err := e.Search(ctx, scenarioStore(), ExplicitParams{Tag: strPtr("scifi"), MinRating: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune"}, titles(doc))
	assert.Equal(t, 1, doc.Total)

	doc, err = e.Search(ctx, scenarioStore(), ExplicitParams{Authors: []string{"Herbert", "Austen"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Dune", "Emma"}, titles(doc))
	assert.Equal(t, 2, doc.Total)

	doc, err = e.Search(ctx, scenarioStore(), ExplicitParams{ExcludeAuthors: []string{"Herbert"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Emma", "Foundation"}, titles(doc))
	assert.Equal(t, 2, doc.Total)
}

func TestEngine_AndAcrossFacetsCanBeEmpty(t *testing.T) {
	doc, err := NewEngine().Search(context.Background(), scenarioStore(),
		ExplicitParams{Author: strPtr("Austen"), Tag: strPtr("scifi")})

	require.NoError(t, err)
	assert.Empty(t, doc.Items)
	assert.Equal(t, 0, doc.Total)
	assert.Equal(t, 1, doc.TotalPages)
}

func TestEngine_RangeInclusivity(t *testing.T) {
	store := &fakeStore{}
	for r := 0; r <= 5; r++ {
		store.records = append(store.records, BookRecord{ID: int64(r + 1), Title: "book", Rating: r})
	}

	doc, err := NewEngine().Search(context.Background(), store, ExplicitParams{MinRating: intPtr(3), MaxRating: intPtr(4)})

	require.NoError(t, err)
	require.Len(t, doc.Items, 2)
	for _, it := range doc.Items {
		assert.Contains(t, []int{3, 4}, it.Rating)
	}
}

func TestEngine_ValidationFailsBeforeStoreAccess(t *testing.T) {
	store := scenarioStore()

	_, err := NewEngine().Search(context.Background(), store, ExplicitParams{MinRating: intPtr(4), MaxRating: intPtr(2)})

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Zero(t, store.calls())
}

func TestEngine_Determinism(t *testing.T) {
	e := NewEngine()
	store := &fakeStore{records: numberedRecords(40)}
	params := ExplicitParams{Text: strPtr("book"), Limit: intPtr(7), Offset: intPtr(7)}

	first, err := e.Search(context.Background(), store, params)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := e.Search(context.Background(), store, params)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Len(t, first.Items, 7)
	assert.Equal(t, 2, first.Page)
}

func TestEngine_FreeTextHints(t *testing.T) {
	e := &Engine{
		Parser:   NewParser(NameIndex{Authors: []string{"Asimov", "Herbert"}}),
		Composer: NewComposer(DefaultLimit),
	}

	doc, err := e.Search(context.Background(), scenarioStore(), ExplicitParams{Text: strPtr("herbert #scifi")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune"}, titles(doc))

	// An explicit author replaces the author hint.
	doc, err = e.Search(context.Background(), scenarioStore(), ExplicitParams{
		Text:   strPtr("herbert #scifi"),
		Author: strPtr("Asimov"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Foundation"}, titles(doc))
}

func TestEngine_PhraseSearch(t *testing.T) {
	store := &fakeStore{records: []BookRecord{
		{ID: 1, Title: "Moby Dick", Comments: "Call me Ishmael. Some years ago..."},
		{ID: 2, Title: "Ishmael", Comments: "Call the doctor, said me."},
	}}

	doc, err := NewEngine().Search(context.Background(), store, ExplicitParams{Text: strPtr(`"call me Ishmael"`)})

	require.NoError(t, err)
	assert.Equal(t, []string{"Moby Dick"}, titles(doc))
}

func TestEngine_PhraseWithMarkerSyntax(t *testing.T) {
	store := &fakeStore{records: []BookRecord{
		{ID: 1, Title: "Airport Reads", Comments: "Billed as the #1 bestseller of the summer."},
		{ID: 2, Title: "Number One", Tags: []string{"1"}, Comments: "The bestseller list, ranked."},
		{ID: 3, Title: "Cloud Notes", Comments: "Field notes on tag:cloud systems and labels."},
		{ID: 4, Title: "Weather", Tags: []string{"cloud"}, Comments: "Notes on systems."},
	}}
	e := NewEngine()

	doc, err := e.Search(context.Background(), store, ExplicitParams{Text: strPtr(`"the #1 bestseller"`)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Airport Reads"}, titles(doc))

	doc, err = e.Search(context.Background(), store, ExplicitParams{Text: strPtr(`"notes on tag:cloud systems"`)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Cloud Notes"}, titles(doc))
}

func TestEngine_StoreUnavailable(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}

	_, err := NewEngine().Search(context.Background(), store, ExplicitParams{})

	var su *StoreUnavailableError
	require.True(t, errors.As(err, &su))
	assert.Equal(t, "snapshot", su.Op)
}
