package entities

import (
	"time"
)

type ImportStatus string

const (
	ImportStatusPending   ImportStatus = "pending"
	ImportStatusRunning   ImportStatus = "running"
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusFailed    ImportStatus = "failed"
)

type Source struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:50" json:"name"`   // e.g., "json", "calibre"
	DisplayName string    `gorm:"size:100" json:"display_name"`      // e.g., "Calibre Library"
	CreatedAt   time.Time `json:"created_at"`
}

// Book is a catalog entry. Authors keep their display order through
// BookAuthor.Position.
type Book struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Title       string       `gorm:"index;size:512" json:"title"`
	Sort        string       `gorm:"index;size:512" json:"sort,omitempty"`
	Authors     []BookAuthor `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"authors,omitempty"`
	Tags        []Tag        `gorm:"many2many:book_tags;constraint:OnDelete:CASCADE" json:"tags,omitempty"`
	SeriesID    *uint        `gorm:"index" json:"series_id,omitempty"`
	Series      *Series      `gorm:"foreignKey:SeriesID" json:"series,omitempty"`
	SeriesIndex float64      `json:"series_index,omitempty"`
	Rating      int          `gorm:"index;default:0" json:"rating"` // 0-5, 0 = unrated
	Publisher   string       `gorm:"index;size:256" json:"publisher,omitempty"`
	Pubdate     *time.Time   `gorm:"index" json:"pubdate,omitempty"`
	AddedAt     time.Time    `gorm:"index" json:"added_at"`
	SizeBytes   int64        `gorm:"index" json:"size_bytes"` // largest format
	Formats     []BookFormat `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"formats,omitempty"`
	Comments    string       `gorm:"type:text" json:"comments,omitempty"`
	ISBN        string       `gorm:"index;size:20" json:"isbn,omitempty"`
	ExternalID  string       `gorm:"size:256" json:"external_id,omitempty"`
	SourceID    *uint        `gorm:"index" json:"source_id,omitempty"`
	Source      *Source      `gorm:"foreignKey:SourceID" json:"source,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// AuthorNames returns author names in display order.
func (b Book) AuthorNames() []string {
	names := make([]string, 0, len(b.Authors))
	for _, a := range b.Authors {
		names = append(names, a.Author.Name)
	}
	return names
}

// FirstAuthor returns the primary author or an empty string.
func (b Book) FirstAuthor() string {
	for _, a := range b.Authors {
		if a.Position == 0 {
			return a.Author.Name
		}
	}
	if len(b.Authors) > 0 {
		return b.Authors[0].Author.Name
	}
	return ""
}

type Author struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:256" json:"name"`
	Sort      string    `gorm:"size:256" json:"sort,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type BookAuthor struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	BookID   uint   `gorm:"index;uniqueIndex:idx_book_author" json:"-"`
	AuthorID uint   `gorm:"index;uniqueIndex:idx_book_author" json:"-"`
	Author   Author `gorm:"foreignKey:AuthorID" json:"author"`
	Position int    `json:"position"`
}

type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100" json:"name"`
	Books     []Book    `gorm:"many2many:book_tags;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type Series struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:256" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type BookFormat struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	BookID    uint   `gorm:"index" json:"-"`
	Format    string `gorm:"index;size:16" json:"format"` // upper-case code, e.g. "EPUB"
	SizeBytes int64  `json:"size_bytes"`
	Path      string `gorm:"size:1024" json:"path,omitempty"`
}

type ImportSession struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	SourceID     uint         `gorm:"index" json:"source_id"`
	Status       ImportStatus `gorm:"size:20;default:'pending'" json:"status"`
	BooksRead    int          `json:"books_read"`
	BooksCreated int          `json:"books_created"`
	BooksUpdated int          `json:"books_updated"`
	BooksFailed  int          `json:"books_failed"`
	Errors       string       `gorm:"type:text" json:"errors,omitempty"` // JSON array of errors
	StartedAt    time.Time    `json:"started_at"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	Source       Source       `gorm:"foreignKey:SourceID" json:"source,omitempty"`
}

func (Book) TableName() string          { return "books" }
func (Author) TableName() string        { return "authors" }
func (BookAuthor) TableName() string    { return "book_authors" }
func (Tag) TableName() string           { return "tags" }
func (Series) TableName() string        { return "series" }
func (BookFormat) TableName() string    { return "book_formats" }
func (Source) TableName() string        { return "sources" }
func (ImportSession) TableName() string { return "import_sessions" }
