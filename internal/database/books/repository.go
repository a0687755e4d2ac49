// Package books provides catalog persistence for books and the
// search.BookStore adapter over the same tables.
//
// # Interface Implementation
//
//	var _ search.BookStore = (*Store)(nil)
//	var _ importers.Exporter = (*Repository)(nil)
//
// # Usage
//
//	repo := books.NewRepository(db)
//	created, err := repo.SaveBook(&book)
//
//	store := books.NewStore(db)
//	doc, err := engine.Search(ctx, store, params)
package books

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/bookfinder/internal/entities"
)

// Repository handles book writes and lookups.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// preloadBook loads every association needed to build a search record.
func preloadBook(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Authors", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Authors.Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB {
			return db.Order("name ASC")
		}).
		Preload("Series").
		Preload("Formats", func(db *gorm.DB) *gorm.DB {
			return db.Order("format ASC")
		})
}

// GetBookByID retrieves a book by its ID with all related data.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := preloadBook(r.db).Preload("Source").First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetAllBooks retrieves all books ordered by id.
func (r *Repository) GetAllBooks() ([]entities.Book, error) {
	var books []entities.Book
	err := preloadBook(r.db).Order("id ASC").Find(&books).Error
	return books, err
}

// GetBookByTitleAndAuthor finds a book by title and primary author. An
// empty author matches books that have no authors at all.
func (r *Repository) GetBookByTitleAndAuthor(title, author string) (*entities.Book, error) {
	var book entities.Book
	err := findByTitleAndAuthor(preloadBook(r.db), title, author).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func findByTitleAndAuthor(db *gorm.DB, title, author string) *gorm.DB {
	if author == "" {
		return db.Where("books.title = ? AND NOT EXISTS (SELECT 1 FROM book_authors ba WHERE ba.book_id = books.id)", title)
	}
	return db.
		Joins("JOIN book_authors ba ON ba.book_id = books.id AND ba.position = 0").
		Joins("JOIN authors a ON a.id = ba.author_id").
		Where("books.title = ? AND a.name = ?", title, author)
}

// SaveBook upserts a book keyed by title and primary author. Authors, tags
// and series are resolved by name; formats and author links are replaced.
// It reports whether a new row was created.
func (r *Repository) SaveBook(book *entities.Book) (bool, error) {
	if strings.TrimSpace(book.Title) == "" {
		return false, fmt.Errorf("book title is required")
	}

	created := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		authors, err := resolveAuthors(tx, book.Authors)
		if err != nil {
			return err
		}
		tags, err := resolveTags(tx, book.Tags)
		if err != nil {
			return err
		}
		if err := resolveSeries(tx, book); err != nil {
			return err
		}

		var existing entities.Book
		err = findByTitleAndAuthor(tx.Model(&entities.Book{}), book.Title, book.FirstAuthor()).
			Select("books.*").First(&existing).Error
		switch {
		case err == nil:
			book.ID = existing.ID
			book.CreatedAt = existing.CreatedAt
			if book.AddedAt.IsZero() {
				book.AddedAt = existing.AddedAt
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			book.ID = 0
			if book.AddedAt.IsZero() {
				book.AddedAt = time.Now()
			}
		default:
			return fmt.Errorf("failed to look up book %q: %w", book.Title, err)
		}

		book.AddedAt = book.AddedAt.UTC()
		if book.Pubdate != nil {
			p := book.Pubdate.UTC()
			book.Pubdate = &p
		}
		book.SizeBytes = largestFormat(book.Formats, book.SizeBytes)

		row := *book
		row.Authors, row.Tags, row.Formats, row.Series = nil, nil, nil, nil
		if err := tx.Omit(clause.Associations).Save(&row).Error; err != nil {
			return fmt.Errorf("failed to save book %q: %w", book.Title, err)
		}
		book.ID = row.ID

		if err := tx.Where("book_id = ?", row.ID).Delete(&entities.BookAuthor{}).Error; err != nil {
			return err
		}
		links := make([]entities.BookAuthor, len(authors))
		for i, a := range authors {
			links[i] = entities.BookAuthor{BookID: row.ID, AuthorID: a.ID, Author: a, Position: i}
		}
		if len(links) > 0 {
			if err := tx.Omit("Author").Create(&links).Error; err != nil {
				return fmt.Errorf("failed to link authors: %w", err)
			}
		}
		book.Authors = links

		if err := tx.Model(&row).Association("Tags").Replace(tags); err != nil {
			return fmt.Errorf("failed to link tags: %w", err)
		}
		book.Tags = tags

		if err := tx.Where("book_id = ?", row.ID).Delete(&entities.BookFormat{}).Error; err != nil {
			return err
		}
		for i := range book.Formats {
			book.Formats[i].ID = 0
			book.Formats[i].BookID = row.ID
		}
		if len(book.Formats) > 0 {
			if err := tx.Create(&book.Formats).Error; err != nil {
				return fmt.Errorf("failed to save formats: %w", err)
			}
		}
		return nil
	})
	return created, err
}

// DeleteBook removes a book and, through foreign keys, its links.
func (r *Repository) DeleteBook(id uint) error {
	result := r.db.Delete(&entities.Book{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	log.Printf("Deleted book %d", id)
	return nil
}

// CountBooks returns the number of catalog entries.
func (r *Repository) CountBooks() (int64, error) {
	var n int64
	err := r.db.Model(&entities.Book{}).Count(&n).Error
	return n, err
}

func resolveAuthors(tx *gorm.DB, links []entities.BookAuthor) ([]entities.Author, error) {
	var out []entities.Author
	seen := make(map[string]bool)
	for _, l := range links {
		name := strings.TrimSpace(l.Author.Name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true

		author := entities.Author{Name: name, Sort: l.Author.Sort}
		if err := tx.Where(entities.Author{Name: name}).FirstOrCreate(&author).Error; err != nil {
			return nil, fmt.Errorf("failed to resolve author %q: %w", name, err)
		}
		out = append(out, author)
	}
	return out, nil
}

func resolveTags(tx *gorm.DB, tags []entities.Tag) ([]entities.Tag, error) {
	out := []entities.Tag{}
	seen := make(map[string]bool)
	for _, t := range tags {
		name := strings.TrimSpace(t.Name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true

		var tag entities.Tag
		err := tx.Where("LOWER(name) = LOWER(?)", name).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = entities.Tag{Name: name}
			err = tx.Create(&tag).Error
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve tag %q: %w", name, err)
		}
		out = append(out, tag)
	}
	return out, nil
}

func resolveSeries(tx *gorm.DB, book *entities.Book) error {
	if book.Series == nil || strings.TrimSpace(book.Series.Name) == "" {
		book.Series = nil
		book.SeriesID = nil
		return nil
	}
	series := entities.Series{Name: strings.TrimSpace(book.Series.Name)}
	if err := tx.Where(entities.Series{Name: series.Name}).FirstOrCreate(&series).Error; err != nil {
		return fmt.Errorf("failed to resolve series %q: %w", series.Name, err)
	}
	book.Series = &series
	book.SeriesID = &series.ID
	return nil
}

func largestFormat(formats []entities.BookFormat, fallback int64) int64 {
	size := int64(0)
	for _, f := range formats {
		if f.SizeBytes > size {
			size = f.SizeBytes
		}
	}
	if size == 0 {
		return fallback
	}
	return size
}
