package demo

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/mrlokans/bookfinder/internal/importers"
	"github.com/mrlokans/bookfinder/internal/services"
)

//go:embed assets/books.json
var embeddedBooks []byte

// Books returns a converter over the bundled public domain book list.
func Books() (*importers.JSONConverter, error) {
	conv, err := importers.ParseJSON(bytes.NewReader(embeddedBooks))
	if err != nil {
		return nil, fmt.Errorf("read embedded books: %w", err)
	}
	return conv, nil
}

// Seed imports the bundled books through the given pipeline.
func Seed(pipeline *importers.Pipeline) (services.ImportResult, error) {
	conv, err := Books()
	if err != nil {
		return services.ImportResult{}, err
	}
	return pipeline.Import(conv)
}
