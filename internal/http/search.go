package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookfinder/internal/search"
)

const searchTimeout = 30 * time.Second

// SearchRequest is the body of POST /api/search and the query string of
// GET /api/search.
type SearchRequest struct {
	search.ExplicitParams

	Table              bool `json:"table,omitempty" form:"table"`
	IncludeDescription bool `json:"include_description,omitempty" form:"include_description"`
}

func (r SearchRequest) options() search.AssembleOptions {
	return search.AssembleOptions{Table: r.Table, Description: r.IncludeDescription}
}

type SearchController struct {
	searcher Searcher
}

func NewSearchController(searcher Searcher) *SearchController {
	return &SearchController{searcher: searcher}
}

// Query handles GET /api/search
func (sc *SearchController) Query(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}
	sc.run(c, req)
}

// Submit handles POST /api/search
func (sc *SearchController) Submit(c *gin.Context) {
	var req SearchRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}
	sc.run(c, req)
}

func (sc *SearchController) run(c *gin.Context, req SearchRequest) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), searchTimeout)
	defer cancel()

	doc, err := sc.searcher.Search(ctx, req.ExplicitParams, req.options())
	if err != nil {
		respondSearchError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// ExplainResponse shows how a request was understood.
type ExplainResponse struct {
	Query   search.Query `json:"query"`
	Terms   []string     `json:"terms"`
	Phrases []string     `json:"phrases"`
	Hints   []HintView   `json:"hints"`
}

// HintView is the JSON form of a parser hint.
type HintView struct {
	Kind    search.HintKind `json:"kind"`
	Value   any             `json:"value"`
	Negated bool            `json:"negated,omitempty"`
}

// Explain handles POST /api/search/explain
// Resolves the request without touching a store.
func (sc *SearchController) Explain(c *gin.Context) {
	var req SearchRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	q, parsed, err := sc.searcher.Explain(req.ExplicitParams)
	if err != nil {
		respondSearchError(c, err)
		return
	}

	resp := ExplainResponse{
		Query:   q,
		Terms:   nonNilStrings(parsed.Terms),
		Phrases: nonNilStrings(parsed.Phrases),
		Hints:   make([]HintView, 0, len(parsed.Hints)),
	}
	for _, h := range parsed.Hints {
		resp.Hints = append(resp.Hints, viewHint(h))
	}
	c.JSON(http.StatusOK, resp)
}

func viewHint(h search.Hint) HintView {
	v := HintView{Kind: h.Kind()}
	switch h := h.(type) {
	case search.AuthorHint:
		v.Value, v.Negated = h.Name, h.Negated
	case search.TagHint:
		v.Value, v.Negated = h.Name, h.Negated
	case search.SeriesHint:
		v.Value, v.Negated = h.Name, h.Negated
	case search.PublisherHint:
		v.Value = h.Name
	case search.YearHint:
		v.Value = h.Year
	case search.RatingHint:
		v.Value = h.Min
	}
	return v
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: "malformed search request: " + err.Error(),
		Code:  CodeInvalidParameter,
	})
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
