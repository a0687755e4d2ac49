// Package importers provides a unified pipeline for loading books into the
// catalog from various sources.
//
// # Architecture
//
//	Source Data → Converter → RawBook → Pipeline → entities.Book → BookSaver → Catalog
//
// Each source implements the Converter interface, which transforms
// source-specific data into RawBooks. The Pipeline normalises them
// (trimmed values, case-insensitive list dedupe, upper-case format codes,
// derived sort key), collapses duplicates within the batch by title and
// first author, and upserts them through a BookSaver.
//
// When configured, the pipeline records an ImportSession per run and
// touches the catalog library in the registry so cached search results
// for it stop being served.
//
// # Existing Converters
//
//   - JSONConverter: JSON book list (array or {"books": [...]})
//   - CalibreConverter: mirror of a read-only Calibre library
//
// # Example Usage
//
//	pipeline := importers.NewPipeline(books.NewRepository(db.DB)).
//		WithSessions(db).
//		WithLibrary(registry, "catalog")
//
//	converter, err := importers.ParseJSON(file)
//	result, err := pipeline.Import(converter)
package importers
