// Command generate_demo creates a demo catalog with public domain books.
// Usage: go run cmd/generate_demo/main.go [-db path/to/demo.db]
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/mrlokans/bookfinder/internal/database"
	"github.com/mrlokans/bookfinder/internal/database/books"
	"github.com/mrlokans/bookfinder/internal/demo"
	"github.com/mrlokans/bookfinder/internal/importers"
)

const defaultDemoDatabasePath = "./demo/demo.db"

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	log.Printf("Generating demo catalog at %s...", *dbPath)

	// Delete existing demo database to start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing demo database: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create demo directory: %v", err)
	}

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	pipeline := importers.NewPipeline(books.NewRepository(db.DB)).WithSessions(db)
	result, err := demo.Seed(pipeline)
	if err != nil {
		log.Fatalf("Failed to import demo books: %v", err)
	}
	for _, e := range result.Errors {
		log.Printf("Failed: %s", e)
	}

	log.Printf("Demo catalog generated: %d books created, %d failed", result.BooksCreated, result.BooksFailed)
}
