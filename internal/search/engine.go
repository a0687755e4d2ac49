package search

import (
	"context"
	"log"
)

// Engine wires the search stages together. It holds no store; the caller
// hands one in per call.
type Engine struct {
	Parser   *Parser
	Composer *Composer
	Verbose  bool
}

// NewEngine returns an engine with an empty name index and the default
// page size.
func NewEngine() *Engine {
	return &Engine{
		Parser:   NewParser(NameIndex{}),
		Composer: NewComposer(DefaultLimit),
	}
}

// Resolve parses the free text of params and composes the final query.
// It never touches a store.
func (e *Engine) Resolve(params ExplicitParams) (Query, ParseResult, error) {
	var parsed ParseResult
	if params.Text != nil {
		parsed = e.Parser.Parse(*params.Text)
	}
	q, err := e.Composer.Compose(params, parsed.Partial)
	if err != nil {
		return Query{}, parsed, err
	}
	return q, parsed, nil
}

// Search runs the full pipeline against store.
func (e *Engine) Search(ctx context.Context, store BookStore, params ExplicitParams) (ResultDocument, error) {
	return e.SearchWithOptions(ctx, store, params, AssembleOptions{})
}

// SearchWithOptions is Search with explicit output options.
func (e *Engine) SearchWithOptions(ctx context.Context, store BookStore, params ExplicitParams, opts AssembleOptions) (ResultDocument, error) {
	q, _, err := e.Resolve(params)
	if err != nil {
		return ResultDocument{}, err
	}
	return e.Run(ctx, store, q, opts)
}

// Run executes an already composed query.
func (e *Engine) Run(ctx context.Context, store BookStore, q Query, opts AssembleOptions) (ResultDocument, error) {
	pred := Build(q.Criteria)
	if e.Verbose {
		log.Printf("[SEARCH] clauses=%v limit=%d offset=%d", pred.Clauses(), q.Window.Limit, q.Window.Offset)
	}

	matches, total, err := Execute(ctx, pred, q.Window, store)
	if err != nil {
		return ResultDocument{}, err
	}
	return Assemble(matches, total, q.Window, opts), nil
}
