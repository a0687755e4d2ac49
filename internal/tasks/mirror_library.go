package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookfinder/internal/importers"
	"github.com/mrlokans/bookfinder/internal/library"
	"github.com/mrlokans/bookfinder/internal/services"
)

// LibraryLookup resolves a registered library by name.
type LibraryLookup interface {
	Lookup(name string) (library.Library, error)
}

// Importer runs a converter through the import pipeline.
type Importer interface {
	Import(converter importers.Converter) (services.ImportResult, error)
}

// MirrorLibraryTask copies every book of a read-only library into the
// catalog.
type MirrorLibraryTask struct {
	Library string `json:"library"`
}

func (t MirrorLibraryTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "mirror_library",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// MirrorLibraryProcessor creates a processor function for MirrorLibraryTask.
func MirrorLibraryProcessor(libs LibraryLookup, importer Importer) backlite.QueueProcessor[MirrorLibraryTask] {
	return func(ctx context.Context, task MirrorLibraryTask) error {
		if libs == nil || importer == nil {
			return fmt.Errorf("library mirroring not configured")
		}

		lib, err := libs.Lookup(task.Library)
		if err != nil {
			return err
		}
		src, ok := lib.Store.(importers.RecordSource)
		if !ok {
			return fmt.Errorf("library %s (%s) cannot be mirrored", lib.Name, lib.Kind)
		}

		converter, err := importers.NewCalibreConverter(ctx, src, lib.Path)
		if err != nil {
			return err
		}
		result, err := importer.Import(converter)
		if err != nil {
			return fmt.Errorf("mirror %s: %w", lib.Name, err)
		}

		log.Printf("[TASK] Mirrored %s: created=%d updated=%d failed=%d",
			lib.Name, result.BooksCreated, result.BooksUpdated, result.BooksFailed)
		return nil
	}
}

func NewMirrorLibraryQueue(libs LibraryLookup, importer Importer) backlite.Queue {
	return backlite.NewQueue(MirrorLibraryProcessor(libs, importer))
}
