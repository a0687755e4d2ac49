package importers

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mrlokans/bookfinder/internal/entities"
	"github.com/mrlokans/bookfinder/internal/search"
	"github.com/mrlokans/bookfinder/internal/services"
)

// RawBook is a book from any import source. Each source implements a
// converter that turns its native format into this representation.
type RawBook struct {
	Title       string
	Sort        string
	Authors     []string
	Tags        []string
	Series      string
	SeriesIndex float64
	Rating      int
	Publisher   string
	Pubdate     *time.Time
	AddedAt     *time.Time
	SizeBytes   int64
	Formats     []RawFormat
	Comments    string
	ISBN        string
	ExternalID  string
}

type RawFormat struct {
	Format    string
	SizeBytes int64
	Path      string
}

// GroupKey identifies a book within one import batch. It matches the
// catalog's upsert key: folded title plus folded first author.
func (b RawBook) GroupKey() string {
	first := ""
	if len(b.Authors) > 0 {
		first = b.Authors[0]
	}
	return search.Fold(strings.TrimSpace(first)) + "|" + search.Fold(strings.TrimSpace(b.Title))
}

// Source names where a batch came from. Name must match a catalog source.
type Source struct {
	Name     string
	FilePath string
}

// Converter transforms source data into RawBooks.
//
// Implementations:
//   - JSONConverter (json.go) - JSON book list
//   - CalibreConverter (calibre.go) - mirror of a Calibre library
type Converter interface {
	Convert() ([]RawBook, Source)
}

// BookSaver persists one book, reporting whether it was created.
type BookSaver interface {
	SaveBook(book *entities.Book) (bool, error)
}

// SessionStore records import sessions.
type SessionStore interface {
	GetSourceByName(name string) (*entities.Source, error)
	CreateImportSession(sourceID uint) (*entities.ImportSession, error)
	UpdateImportSession(session *entities.ImportSession) error
}

// Toucher marks a library as changed so cached results are dropped.
type Toucher interface {
	Touch(name string) error
}

// Pipeline handles the common import workflow:
// convert → normalise → deduplicate → save → record session → touch library.
type Pipeline struct {
	saver    BookSaver
	sessions SessionStore
	toucher  Toucher
	library  string
}

func NewPipeline(saver BookSaver) *Pipeline {
	return &Pipeline{saver: saver}
}

// WithSessions records every import as an ImportSession.
func (p *Pipeline) WithSessions(sessions SessionStore) *Pipeline {
	p.sessions = sessions
	return p
}

// WithLibrary touches the named library after every import that changed
// at least one book.
func (p *Pipeline) WithLibrary(toucher Toucher, name string) *Pipeline {
	p.toucher = toucher
	p.library = name
	return p
}

// Import saves every book from converter. Individual book failures are
// counted and reported; only session bookkeeping errors abort the import.
func (p *Pipeline) Import(converter Converter) (services.ImportResult, error) {
	raws, source := converter.Convert()
	if len(raws) == 0 {
		return services.ImportResult{}, nil
	}

	var sourceRef *entities.Source
	var session *entities.ImportSession
	if p.sessions != nil {
		var err error
		sourceRef, err = p.sessions.GetSourceByName(source.Name)
		if err != nil {
			return services.ImportResult{}, fmt.Errorf("unknown import source %q: %w", source.Name, err)
		}
		session, err = p.sessions.CreateImportSession(sourceRef.ID)
		if err != nil {
			return services.ImportResult{}, fmt.Errorf("failed to start import session: %w", err)
		}
	}

	result := services.ImportResult{}
	for _, raw := range dedupe(raws) {
		result.BooksRead++

		book, err := Normalize(raw)
		if err != nil {
			result.BooksFailed++
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		if sourceRef != nil {
			book.SourceID = &sourceRef.ID
		}

		created, err := p.saver.SaveBook(&book)
		if err != nil {
			result.BooksFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", book.Title, err))
			continue
		}
		if created {
			result.BooksCreated++
		} else {
			result.BooksUpdated++
		}
	}

	if session != nil {
		result.SessionID = session.ID
		if err := p.finishSession(session, result); err != nil {
			return result, err
		}
	}

	if p.toucher != nil && result.BooksCreated+result.BooksUpdated > 0 {
		if err := p.toucher.Touch(p.library); err != nil {
			log.Printf("[IMPORT] Failed to mark library %s as changed: %v", p.library, err)
		}
	}

	log.Printf("[IMPORT] %s: read=%d created=%d updated=%d failed=%d",
		source.Name, result.BooksRead, result.BooksCreated, result.BooksUpdated, result.BooksFailed)
	return result, nil
}

func (p *Pipeline) finishSession(session *entities.ImportSession, result services.ImportResult) error {
	now := time.Now()
	session.BooksRead = result.BooksRead
	session.BooksCreated = result.BooksCreated
	session.BooksUpdated = result.BooksUpdated
	session.BooksFailed = result.BooksFailed
	session.CompletedAt = &now
	session.Status = entities.ImportStatusCompleted
	if result.BooksFailed > 0 && result.BooksCreated+result.BooksUpdated == 0 {
		session.Status = entities.ImportStatusFailed
	}
	if len(result.Errors) > 0 {
		session.Errors = strings.Join(result.Errors, "\n")
	}
	if err := p.sessions.UpdateImportSession(session); err != nil {
		return fmt.Errorf("failed to finish import session: %w", err)
	}
	return nil
}

// dedupe keeps the last occurrence of each book in a batch, preserving the
// position of its first occurrence.
func dedupe(raws []RawBook) []RawBook {
	index := make(map[string]int, len(raws))
	out := make([]RawBook, 0, len(raws))
	for _, r := range raws {
		key := r.GroupKey()
		if i, ok := index[key]; ok {
			out[i] = r
			continue
		}
		index[key] = len(out)
		out = append(out, r)
	}
	return out
}

// Normalize turns a RawBook into a catalog entity: values trimmed, lists
// deduplicated case-insensitively, formats upper-cased, rating clamped and
// a sort key derived from the title when none is given.
func Normalize(raw RawBook) (entities.Book, error) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return entities.Book{}, fmt.Errorf("book without a title (external id %q)", raw.ExternalID)
	}
	if raw.Rating < 0 || raw.Rating > 5 {
		return entities.Book{}, fmt.Errorf("%s: rating %d out of range 0-5", title, raw.Rating)
	}

	book := entities.Book{
		Title:       title,
		Sort:        strings.TrimSpace(raw.Sort),
		SeriesIndex: raw.SeriesIndex,
		Rating:      raw.Rating,
		Publisher:   strings.TrimSpace(raw.Publisher),
		Pubdate:     raw.Pubdate,
		SizeBytes:   raw.SizeBytes,
		Comments:    strings.TrimSpace(raw.Comments),
		ISBN:        strings.TrimSpace(raw.ISBN),
		ExternalID:  raw.ExternalID,
	}
	if book.Sort == "" {
		book.Sort = SortTitle(title)
	}
	if raw.AddedAt != nil {
		book.AddedAt = *raw.AddedAt
	}
	for i, name := range search.NormalizeList(raw.Authors) {
		book.Authors = append(book.Authors, entities.BookAuthor{Author: entities.Author{Name: name}, Position: i})
	}
	for _, name := range search.NormalizeList(raw.Tags) {
		book.Tags = append(book.Tags, entities.Tag{Name: name})
	}
	if series := strings.TrimSpace(raw.Series); series != "" {
		book.Series = &entities.Series{Name: series}
	}

	seen := make(map[string]bool)
	for _, f := range raw.Formats {
		code := strings.ToUpper(strings.TrimSpace(f.Format))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		book.Formats = append(book.Formats, entities.BookFormat{Format: code, SizeBytes: f.SizeBytes, Path: f.Path})
	}
	return book, nil
}

var leadingArticles = []string{"the ", "a ", "an "}

// SortTitle moves a leading English article to the end: "The Hobbit"
// sorts as "Hobbit, The".
func SortTitle(title string) string {
	lower := strings.ToLower(title)
	for _, article := range leadingArticles {
		if strings.HasPrefix(lower, article) && len(title) > len(article) {
			return strings.TrimSpace(title[len(article):]) + ", " + strings.TrimSpace(title[:len(article)])
		}
	}
	return title
}
