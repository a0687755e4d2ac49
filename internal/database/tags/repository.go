// Package tags provides database operations for tags and the other
// name-bearing catalog tables (authors, series).
//
// # Usage
//
//	repo := tags.NewRepository(db)
//	tag, err := repo.GetOrCreateTag("fiction")
//	report, err := repo.DeleteOrphans()
package tags

import (
	"gorm.io/gorm"

	"github.com/mrlokans/bookfinder/internal/entities"
)

// Repository handles all tag database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new tags repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// TagUsage is a tag with the number of books carrying it.
type TagUsage struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Books int64  `json:"books"`
}

// OrphanReport counts rows removed by DeleteOrphans.
type OrphanReport struct {
	Tags    int64 `json:"tags"`
	Authors int64 `json:"authors"`
	Series  int64 `json:"series"`
}

// Total returns the number of removed rows.
func (r OrphanReport) Total() int64 {
	return r.Tags + r.Authors + r.Series
}

// CreateTag creates a new tag.
func (r *Repository) CreateTag(name string) (*entities.Tag, error) {
	tag := &entities.Tag{Name: name}
	if err := r.db.Create(tag).Error; err != nil {
		return nil, err
	}
	return tag, nil
}

// GetOrCreateTag retrieves or creates a tag (case-insensitive).
func (r *Repository) GetOrCreateTag(name string) (*entities.Tag, error) {
	var tag entities.Tag
	err := r.db.Where("LOWER(name) = LOWER(?)", name).First(&tag).Error
	if err == gorm.ErrRecordNotFound {
		return r.CreateTag(name)
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// GetAllTags retrieves every tag with its usage count, most used first.
func (r *Repository) GetAllTags() ([]TagUsage, error) {
	var usage []TagUsage
	err := r.db.Table("tags").
		Select("tags.id, tags.name, COUNT(book_tags.book_id) AS books").
		Joins("LEFT JOIN book_tags ON book_tags.tag_id = tags.id").
		Group("tags.id, tags.name").
		Order("books DESC, tags.name ASC").
		Scan(&usage).Error
	return usage, err
}

// SearchTags searches tags by name (case-insensitive partial match).
func (r *Repository) SearchTags(query string) ([]entities.Tag, error) {
	var tags []entities.Tag
	searchPattern := "%" + query + "%"
	err := r.db.Where("LOWER(name) LIKE LOWER(?)", searchPattern).Order("name ASC").Find(&tags).Error
	return tags, err
}

// GetTagByID retrieves a tag by ID.
func (r *Repository) GetTagByID(id uint) (*entities.Tag, error) {
	var tag entities.Tag
	err := r.db.First(&tag, id).Error
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// DeleteTag deletes a tag and its book links.
func (r *Repository) DeleteTag(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM book_tags WHERE tag_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Tag{}, id).Error
	})
}

// IsTagOrphan checks if a tag has no associated books.
func (r *Repository) IsTagOrphan(tagID uint) (bool, error) {
	var bookCount int64
	if err := r.db.Table("book_tags").Where("tag_id = ?", tagID).Count(&bookCount).Error; err != nil {
		return false, err
	}
	return bookCount == 0, nil
}

// DeleteOrphanTags removes all tags without books.
func (r *Repository) DeleteOrphanTags() (int64, error) {
	result := r.db.Exec(`DELETE FROM tags WHERE id NOT IN (SELECT tag_id FROM book_tags)`)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeleteOrphans removes tags, authors and series no book refers to.
func (r *Repository) DeleteOrphans() (OrphanReport, error) {
	var report OrphanReport
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, step := range []struct {
			sql string
			dst *int64
		}{
			{`DELETE FROM tags WHERE id NOT IN (SELECT tag_id FROM book_tags)`, &report.Tags},
			{`DELETE FROM authors WHERE id NOT IN (SELECT author_id FROM book_authors)`, &report.Authors},
			{`DELETE FROM series WHERE id NOT IN (SELECT series_id FROM books WHERE series_id IS NOT NULL)`, &report.Series},
		} {
			result := tx.Exec(step.sql)
			if result.Error != nil {
				return result.Error
			}
			*step.dst = result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return OrphanReport{}, err
	}
	return report, nil
}

// AddTagToBook associates a tag with a book.
func (r *Repository) AddTagToBook(bookID, tagID uint) error {
	var book entities.Book
	if err := r.db.First(&book, bookID).Error; err != nil {
		return err
	}
	var tag entities.Tag
	if err := r.db.First(&tag, tagID).Error; err != nil {
		return err
	}
	return r.db.Model(&book).Association("Tags").Append(&tag)
}

// RemoveTagFromBook removes a tag from a book and drops the tag once unused.
func (r *Repository) RemoveTagFromBook(bookID, tagID uint) error {
	var book entities.Book
	if err := r.db.First(&book, bookID).Error; err != nil {
		return err
	}
	var tag entities.Tag
	if err := r.db.First(&tag, tagID).Error; err != nil {
		return err
	}
	if err := r.db.Model(&book).Association("Tags").Delete(&tag); err != nil {
		return err
	}
	orphan, err := r.IsTagOrphan(tagID)
	if err != nil || !orphan {
		return err
	}
	return r.DeleteTag(tagID)
}
