package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mrlokans/bookfinder/internal/services"
)

type NamesCommand struct {
	DatabasePath string
	JSON         bool

	Out io.Writer
}

func NewNamesCommand() *NamesCommand {
	return &NamesCommand{Out: os.Stdout}
}

func (cmd *NamesCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("names", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the catalog database (default from DATABASE_PATH)")
	fs.BoolVar(&cmd.JSON, "json", false, "Print the name index as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s names [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print the authors, tags and series free text is matched against.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *NamesCommand) Run() error {
	ctx := context.Background()
	app, err := openApp(ctx, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer app.Close()

	state, err := app.Search.RefreshNames(ctx)
	if err != nil {
		return err
	}
	return cmd.print(state)
}

func (cmd *NamesCommand) print(state services.NameState) error {
	if cmd.JSON {
		enc := json.NewEncoder(cmd.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	}

	fmt.Fprintf(cmd.Out, "Library: %s\n", state.Library)
	section := func(title string, names []string) {
		fmt.Fprintf(cmd.Out, "\n=== %s (%d) ===\n", title, len(names))
		if len(names) > 0 {
			fmt.Fprintln(cmd.Out, strings.Join(names, "\n"))
		}
	}
	section("Authors", state.Index.Authors)
	section("Tags", state.Index.Tags)
	section("Series", state.Index.Series)
	return nil
}
