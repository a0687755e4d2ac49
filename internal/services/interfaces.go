package services

import (
	"github.com/mrlokans/bookfinder/internal/entities"
	"github.com/mrlokans/bookfinder/internal/library"
)

// BookReader provides read-only access to catalog books.
type BookReader interface {
	GetAllBooks() ([]entities.Book, error)
	GetBookByID(id uint) (*entities.Book, error)
	GetBookByTitleAndAuthor(title, author string) (*entities.Book, error)
}

// LibraryRegistry is the part of library.Registry the search service needs.
type LibraryRegistry interface {
	Active() (library.Handle, error)
	Switch(name string) (library.Handle, error)
	List() []library.Info
}

// ImportResult contains the outcome of an import operation.
type ImportResult struct {
	SessionID    uint     `json:"session_id,omitempty"`
	BooksRead    int      `json:"books_read"`
	BooksCreated int      `json:"books_created"`
	BooksUpdated int      `json:"books_updated"`
	BooksFailed  int      `json:"books_failed"`
	Errors       []string `json:"errors,omitempty"`
}
