package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/bookfinder/internal/importers"
	"github.com/mrlokans/bookfinder/internal/services"
)

type ImportCommand struct {
	DatabasePath string
	File         string
	Library      string

	Out io.Writer
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{Out: os.Stdout}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the catalog database (default from DATABASE_PATH)")
	fs.StringVar(&cmd.File, "file", "", "JSON book list to import")
	fs.StringVar(&cmd.Library, "library", "", "Registered Calibre library to mirror into the catalog")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import books into the catalog from a JSON file or a Calibre library.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file ./books.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  LIBRARY_ROOTS=~/Calibre %s import -library calibre-library\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if (cmd.File == "") == (cmd.Library == "") {
		fs.Usage()
		return fmt.Errorf("exactly one of -file or -library is required")
	}
	return nil
}

func (cmd *ImportCommand) Run() error {
	ctx := context.Background()

	var converter importers.Converter
	if cmd.File != "" {
		f, err := os.Open(cmd.File)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", cmd.File, err)
		}
		conv, err := importers.ParseJSON(f)
		f.Close()
		if err != nil {
			return err
		}
		conv.FilePath = cmd.File
		converter = conv
	}

	app, err := openApp(ctx, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer app.Close()

	if cmd.Library != "" {
		lib, err := app.Libraries.Lookup(cmd.Library)
		if err != nil {
			return err
		}
		src, ok := lib.Store.(importers.RecordSource)
		if !ok {
			return fmt.Errorf("library %s (%s) cannot be mirrored", lib.Name, lib.Kind)
		}
		converter, err = importers.NewCalibreConverter(ctx, src, lib.Path)
		if err != nil {
			return err
		}
	}

	result, err := app.Pipeline.Import(converter)
	if err != nil {
		return err
	}
	cmd.report(result)
	return nil
}

func (cmd *ImportCommand) report(result services.ImportResult) {
	fmt.Fprintf(cmd.Out, "\n=== Import Results ===\n")
	fmt.Fprintf(cmd.Out, "Books read:    %d\n", result.BooksRead)
	fmt.Fprintf(cmd.Out, "Books created: %d\n", result.BooksCreated)
	fmt.Fprintf(cmd.Out, "Books updated: %d\n", result.BooksUpdated)
	fmt.Fprintf(cmd.Out, "Books failed:  %d\n", result.BooksFailed)
	for _, e := range result.Errors {
		fmt.Fprintf(cmd.Out, "  - %s\n", e)
	}
}
