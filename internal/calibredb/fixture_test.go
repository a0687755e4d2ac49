package calibredb

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

// calibreSchema is the subset of Calibre's metadata.db that the store reads.
var calibreSchema = []string{
	`CREATE TABLE books (id INTEGER PRIMARY KEY, title TEXT, sort TEXT, timestamp TIMESTAMP, pubdate TIMESTAMP, series_index REAL DEFAULT 1.0)`,
	`CREATE TABLE authors (id INTEGER PRIMARY KEY, name TEXT, sort TEXT)`,
	`CREATE TABLE books_authors_link (id INTEGER PRIMARY KEY, book INTEGER, author INTEGER)`,
	`CREATE TABLE tags (id INTEGER PRIMARY KEY, name TEXT)`,
	`CREATE TABLE books_tags_link (id INTEGER PRIMARY KEY, book INTEGER, tag INTEGER)`,
	`CREATE TABLE series (id INTEGER PRIMARY KEY, name TEXT)`,
	`CREATE TABLE books_series_link (id INTEGER PRIMARY KEY, book INTEGER, series INTEGER)`,
	`CREATE TABLE ratings (id INTEGER PRIMARY KEY, rating INTEGER)`,
	`CREATE TABLE books_ratings_link (id INTEGER PRIMARY KEY, book INTEGER, rating INTEGER)`,
	`CREATE TABLE publishers (id INTEGER PRIMARY KEY, name TEXT)`,
	`CREATE TABLE books_publishers_link (id INTEGER PRIMARY KEY, book INTEGER, publisher INTEGER)`,
	`CREATE TABLE data (id INTEGER PRIMARY KEY, book INTEGER, format TEXT, uncompressed_size INTEGER, name TEXT)`,
	`CREATE TABLE comments (id INTEGER PRIMARY KEY, book INTEGER, text TEXT)`,
}

func createCalibreFixture(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	stmts := append([]string{}, calibreSchema...)
	stmts = append(stmts,
		`INSERT INTO books (id, title, sort, timestamp, pubdate) VALUES (1, 'Emma', 'Emma', '2024-03-01 12:00:00+00:00', '1815-12-23 00:00:00+00:00')`,
		`INSERT INTO authors (id, name, sort) VALUES (1, 'Jane Austen', 'Austen, Jane')`,
		`INSERT INTO books_authors_link (book, author) VALUES (1, 1)`,
		`INSERT INTO ratings (id, rating) VALUES (1, 6)`,
		`INSERT INTO books_ratings_link (book, rating) VALUES (1, 1)`,
		`INSERT INTO data (book, format, uncompressed_size, name) VALUES (1, 'EPUB', 4096, 'Emma - Jane Austen')`,
	)
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
}
