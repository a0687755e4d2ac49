package http

import (
	"github.com/mrlokans/bookfinder/internal/database"
	"github.com/mrlokans/bookfinder/internal/demo"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database  *database.Database
	Search    Searcher
	Names     NameIndexer
	Libraries LibraryService

	// Tag listing (optional)
	TagStore TagStore

	// Task queue (optional). Leave nil, not a typed nil pointer, when the
	// queue is disabled.
	TaskQueue TaskQueue

	// Demo mode (optional). Blocks every write when enabled.
	DemoMiddleware *demo.Middleware

	// Application info
	Version string
}
