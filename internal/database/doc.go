// Package database provides the catalog data access layer.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, source seeding, settings
//	├── books/           # Book persistence and the search.BookStore adapter
//	├── tags/            # Tag and name listing, orphan cleanup
//	└── settings/        # Application settings
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./bookfinder.db")
//
//	booksRepo := books.NewRepository(db.DB)
//	store := books.NewStore(db.DB)
//	tagsRepo := tags.NewRepository(db.DB)
//
// The catalog is opened with SQLite foreign keys enabled so that deleting a
// book removes its author links, formats and tag links.
package database
