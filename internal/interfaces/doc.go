// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Library Interfaces
//
//   - search.BookStore / search.Snapshot: a consistent view of one library (internal/search/executor.go)
//   - library.Store: BookStore plus the names the free-text parser recognises (internal/library/registry.go)
//   - library.ActiveSetting: persists the active library name (internal/library/registry.go)
//
// ## Data Access Interfaces
//
//   - BookReader: Read-only access to catalog books (internal/services/interfaces.go)
//   - TagStore: Tag listing (internal/http/stores.go)
//
// ## HTTP Interfaces
//
//   - Searcher, NameIndexer, LibraryService, TaskQueue (internal/http/stores.go)
//
// ## Background Work Interfaces
//
//   - NamesRefresher, StatusRecorder, OrphanCleaner, LibraryLookup, Importer (internal/tasks/)
//   - NamesRefreshSettings (internal/scheduler/names_refresh.go)
//
// # Adding a New Library Kind
//
//  1. Create a package implementing library.Store:
//
//     type Store struct { ... }
//
//     func (s *Store) Snapshot(ctx context.Context) (search.Snapshot, error)
//     func (s *Store) Names(ctx context.Context) (search.NameIndex, error)
//
//     var _ library.Store = (*Store)(nil)
//
//     Snapshots that hold every record in memory can delegate filtering to
//     search.MatchAndSort, as memstore and calibredb do.
//
//  2. Register it in entrypoint.NewApp with a new library.Kind.
//
//  3. If its records can be copied into the catalog, implement
//     importers.RecordSource so MirrorLibraryTask can use it.
//
// # Adding a New Import Source
//
//  1. Create converter in internal/importers/
//
//     type GoodreadsConverter struct { Rows []GoodreadsRow }
//
//     func (c *GoodreadsConverter) Convert() ([]importers.RawBook, importers.Source)
//
//     var _ importers.Converter = (*GoodreadsConverter)(nil)
//
//  2. Run it through Pipeline.Import; the pipeline bumps the catalog
//     generation so cached search results are dropped.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for examples.
package interfaces
