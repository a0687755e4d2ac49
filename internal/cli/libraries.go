package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mrlokans/bookfinder/internal/library"
)

type LibrariesCommand struct {
	DatabasePath string
	Use          string

	Out io.Writer
}

func NewLibrariesCommand() *LibrariesCommand {
	return &LibrariesCommand{Out: os.Stdout}
}

func (cmd *LibrariesCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("libraries", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the catalog database (default from DATABASE_PATH)")
	fs.StringVar(&cmd.Use, "use", "", "Make this library the active one")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s libraries [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "List the catalog and every Calibre library found under LIBRARY_ROOTS.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *LibrariesCommand) Run() error {
	ctx := context.Background()
	app, err := openApp(ctx, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer app.Close()

	if cmd.Use != "" {
		if _, err := app.Search.SwitchLibrary(ctx, cmd.Use); err != nil {
			return err
		}
		fmt.Fprintf(cmd.Out, "Active library is now %s\n\n", cmd.Use)
	}

	return cmd.print(app.Libraries.List())
}

func (cmd *LibrariesCommand) print(libs []library.Info) error {
	w := tabwriter.NewWriter(cmd.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tNAME\tKIND\tPATH")
	for _, l := range libs {
		marker := ""
		if l.Active {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, l.Name, l.Kind, l.Path)
	}
	return w.Flush()
}
