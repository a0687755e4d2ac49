package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/bookfinder/internal/calibredb"
	"github.com/mrlokans/bookfinder/internal/database"
	"github.com/mrlokans/bookfinder/internal/database/books"
	"github.com/mrlokans/bookfinder/internal/database/tags"
	"github.com/mrlokans/bookfinder/internal/http"
	"github.com/mrlokans/bookfinder/internal/importers"
	"github.com/mrlokans/bookfinder/internal/library"
	"github.com/mrlokans/bookfinder/internal/memstore"
	"github.com/mrlokans/bookfinder/internal/scheduler"
	"github.com/mrlokans/bookfinder/internal/services"
	"github.com/mrlokans/bookfinder/internal/settingsstore"
	"github.com/mrlokans/bookfinder/internal/tasks"
)

// =============================================================================
// Library Stores
// =============================================================================

// Store implementations
var _ library.Store = (*books.Store)(nil)
var _ library.Store = (*calibredb.Store)(nil)
var _ library.Store = (*memstore.Store)(nil)

// ActiveSetting implementations
var _ library.ActiveSetting = (*settingsstore.SettingsStore)(nil)

// =============================================================================
// Data Access Layer
// =============================================================================

// TagStore implementations
var _ http.TagStore = (*tags.Repository)(nil)

// BookReader implementations
var _ services.BookReader = (*books.Repository)(nil)

// =============================================================================
// HTTP Dependencies
// =============================================================================

var _ http.Searcher = (*services.SearchService)(nil)
var _ http.NameIndexer = (*services.SearchService)(nil)
var _ http.LibraryService = (*library.Registry)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)

// =============================================================================
// Import Pipeline
// =============================================================================

// Converter implementations
var _ importers.Converter = (*importers.JSONConverter)(nil)
var _ importers.Converter = (*importers.CalibreConverter)(nil)

var _ importers.RecordSource = (*calibredb.Store)(nil)
var _ importers.BookSaver = (*books.Repository)(nil)
var _ importers.SessionStore = (*database.Database)(nil)
var _ importers.Toucher = (*library.Registry)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ services.LibraryRegistry = (*library.Registry)(nil)
var _ tasks.NamesRefresher = (*services.SearchService)(nil)
var _ tasks.StatusRecorder = (*settingsstore.SettingsStore)(nil)
var _ tasks.OrphanCleaner = (*tags.Repository)(nil)
var _ tasks.LibraryLookup = (*library.Registry)(nil)
var _ tasks.Importer = (*importers.Pipeline)(nil)
var _ scheduler.NamesRefreshSettings = (*settingsstore.SettingsStore)(nil)
