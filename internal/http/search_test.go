package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookfinder/internal/search"
)

func TestSearchController_Query(t *testing.T) {
	env := newTestEnv(t)

	t.Run("facets from the query string", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/search?tag=scifi&min_rating=5", "")

		require.Equal(t, http.StatusOK, w.Code)
		doc := decode[search.ResultDocument](t, w)
		assert.Equal(t, []string{"Dune"}, resultTitles(doc))
		assert.Equal(t, 1, doc.Total)
		assert.Equal(t, 1, doc.Page)
		assert.Equal(t, 1, doc.TotalPages)
	})

	t.Run("repeated list parameters are ORed", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/search?authors=Frank+Herbert&authors=Jane+Austen", "")

		require.Equal(t, http.StatusOK, w.Code)
		doc := decode[search.ResultDocument](t, w)
		assert.Equal(t, []string{"Dune", "Emma"}, resultTitles(doc))
	})

	t.Run("no parameters returns every book", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/search", "")

		require.Equal(t, http.StatusOK, w.Code)
		doc := decode[search.ResultDocument](t, w)
		assert.Equal(t, 3, doc.Total)
		assert.Equal(t, search.DefaultLimit, doc.PerPage)
	})

	t.Run("table output is opt-in", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/search?table=true&include_description=true&tag=romance", "")

		require.Equal(t, http.StatusOK, w.Code)
		doc := decode[search.ResultDocument](t, w)
		assert.Contains(t, doc.Table, "Emma")
		require.Len(t, doc.Items, 1)
		assert.Equal(t, "A comedy of manners.", doc.Items[0].Comments)
	})

	t.Run("contradictory ratings are rejected", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/search?min_rating=4&max_rating=2", "")

		require.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode[ErrorResponse](t, w)
		assert.Equal(t, CodeInvalidParameter, resp.Code)
		assert.Contains(t, resp.Error, "min_rating 4 is greater than max_rating 2")
		assert.Equal(t, map[string]any{"facet": "rating"}, resp.Details)
	})

	t.Run("non-numeric limit is a bind error", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/search?limit=lots", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, CodeInvalidParameter, decode[ErrorResponse](t, w).Code)
	})

	t.Run("limit out of range", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/search?limit=0", "")

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, map[string]any{"facet": "limit"}, decode[ErrorResponse](t, w).Details)
	})
}

func TestSearchController_Submit(t *testing.T) {
	env := newTestEnv(t)

	t.Run("json body", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/search", `{"exclude_authors": ["Frank Herbert"], "limit": 1, "offset": 1}`)

		require.Equal(t, http.StatusOK, w.Code)
		doc := decode[search.ResultDocument](t, w)
		assert.Equal(t, []string{"Foundation"}, resultTitles(doc))
		assert.Equal(t, 2, doc.Total)
		assert.Equal(t, 2, doc.Page)
		assert.Equal(t, 2, doc.TotalPages)
	})

	t.Run("free text with name hints", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/search", `{"text": "isaac asimov"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"Foundation"}, resultTitles(decode[search.ResultDocument](t, w)))
	})

	t.Run("empty body", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/search", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 3, decode[search.ResultDocument](t, w).Total)
	})

	t.Run("malformed json", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/search", `{"tags": "not-a-list"`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("scalar and list of the same facet", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/search", `{"tag": "scifi", "tags": ["romance"]}`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, map[string]any{"facet": "tag"}, decode[ErrorResponse](t, w).Details)
	})
}

func TestSearchController_StoreUnavailable(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.registry.Switch("broken")
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/api/search?tag=scifi", "")

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, CodeStoreUnavailable, decode[ErrorResponse](t, w).Code)
}

func TestSearchController_ValidationBeatsUnavailableStore(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.registry.Switch("broken")
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/api/search?offset=-1", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchController_Explain(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/search/explain", `{"text": "isaac asimov #scifi dune"}`)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[ExplainResponse](t, w)
	assert.Contains(t, resp.Hints, HintView{Kind: search.HintAuthor, Value: "Isaac Asimov"})
	assert.Contains(t, resp.Hints, HintView{Kind: search.HintTag, Value: "scifi"})
	assert.Equal(t, []string{"dune"}, resp.Terms)
	assert.Equal(t, search.DefaultLimit, resp.Query.Window.Limit)
}

func TestSearchController_ExplainRejectsBadOperator(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/search/explain", `{"operator": "XOR"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]any{"facet": "operator"}, decode[ErrorResponse](t, w).Details)
}

func TestViewHint(t *testing.T) {
	assert.Equal(t, HintView{Kind: search.HintAuthor, Value: "Ann Leckie", Negated: true},
		viewHint(search.AuthorHint{Name: "Ann Leckie", Negated: true}))
	assert.Equal(t, HintView{Kind: search.HintYear, Value: 1965}, viewHint(search.YearHint{Year: 1965}))
	assert.Equal(t, HintView{Kind: search.HintRating, Value: 4}, viewHint(search.RatingHint{Min: 4}))
}
