package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mrlokans/bookfinder/internal/search"
)

type SearchCommand struct {
	DatabasePath string
	JSON         bool
	Description  bool
	Timeout      time.Duration
	Params       search.ExplicitParams

	Out io.Writer
}

func NewSearchCommand() *SearchCommand {
	return &SearchCommand{Out: os.Stdout, Timeout: 30 * time.Second}
}

func (cmd *SearchCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)

	var (
		authors, excludeAuthors stringList
		tags, excludeTags       stringList
		excludeSeries           stringList
		publishers, formats     stringList
		series, comment         optionalString
		pubStart, pubEnd        optionalString
		addedAfter, addedBefore optionalString
		rating, minRating       optionalInt
		maxRating, limit        optionalInt
		offset                  optionalInt
		minSize, maxSize        optionalInt64
		unrated, hasPublisher   optionalBool
		emptyComments           optionalBool
	)

	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the catalog database (default from DATABASE_PATH)")
	fs.BoolVar(&cmd.JSON, "json", false, "Print the result document as JSON instead of a table")
	fs.BoolVar(&cmd.Description, "description", false, "Include a description preview")
	fs.DurationVar(&cmd.Timeout, "timeout", cmd.Timeout, "Give up after this long")
	fs.StringVar(&cmd.Params.Operator, "operator", "", "How free-text terms combine: OR (default), AND or FUZZY")

	fs.Var(&authors, "author", "Author to include (repeatable)")
	fs.Var(&excludeAuthors, "exclude-author", "Author to exclude (repeatable)")
	fs.Var(&tags, "tag", "Tag to include (repeatable)")
	fs.Var(&excludeTags, "exclude-tag", "Tag to exclude (repeatable)")
	fs.Var(&series, "series", "Series to include")
	fs.Var(&excludeSeries, "exclude-series", "Series to exclude (repeatable)")
	fs.Var(&publishers, "publisher", "Publisher to include (repeatable)")
	fs.Var(&hasPublisher, "has-publisher", "Only books with (true) or without (false) a publisher")
	fs.Var(&formats, "format", "File format such as EPUB (repeatable)")
	fs.Var(&rating, "rating", "Exact star rating 1-5")
	fs.Var(&minRating, "min-rating", "Minimum star rating")
	fs.Var(&maxRating, "max-rating", "Maximum star rating")
	fs.Var(&unrated, "unrated", "Only unrated books")
	fs.Var(&comment, "comment", "Text the description must contain")
	fs.Var(&emptyComments, "empty-comments", "Only books with (true) or without (false) a description")
	fs.Var(&pubStart, "pubdate-start", "Published on or after YYYY-MM-DD")
	fs.Var(&pubEnd, "pubdate-end", "Published on or before YYYY-MM-DD")
	fs.Var(&addedAfter, "added-after", "Added on or after YYYY-MM-DD")
	fs.Var(&addedBefore, "added-before", "Added on or before YYYY-MM-DD")
	fs.Var(&minSize, "min-size", "Minimum file size in bytes")
	fs.Var(&maxSize, "max-size", "Maximum file size in bytes")
	fs.Var(&limit, "limit", "Results per page")
	fs.Var(&offset, "offset", "Results to skip")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s search [options] [free text]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Search the active library. Free text may carry hints such as\n")
		fmt.Fprintf(os.Stderr, "author:\"Name\", #tag, -#tag, rating:4, ★★★ or a year.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s search herbert #scifi\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s search -tag classic -min-rating 4 -limit 10\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s search -json -exclude-author \"Jane Austen\" emma\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	p := &cmd.Params
	if text := strings.TrimSpace(strings.Join(fs.Args(), " ")); text != "" {
		p.Text = &text
	}
	p.Authors, p.ExcludeAuthors = authors, excludeAuthors
	p.Tags, p.ExcludeTags = tags, excludeTags
	p.Series, p.ExcludeSeries = series.v, excludeSeries
	p.Publishers, p.HasPublisher = publishers, hasPublisher.v
	p.Formats = formats
	p.Rating, p.MinRating, p.MaxRating, p.Unrated = rating.v, minRating.v, maxRating.v, unrated.v
	p.Comment, p.HasEmptyComments = comment.v, emptyComments.v
	p.PubdateStart, p.PubdateEnd = pubStart.v, pubEnd.v
	p.AddedAfter, p.AddedBefore = addedAfter.v, addedBefore.v
	p.MinSize, p.MaxSize = minSize.v, maxSize.v
	p.Limit, p.Offset = limit.v, offset.v
	return nil
}

// Run executes the search. Validation errors are returned unwrapped so the
// caller can map them to exit code 2.
func (cmd *SearchCommand) Run() error {
	ctx := context.Background()
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	app, err := openApp(ctx, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer app.Close()

	opts := search.AssembleOptions{Table: !cmd.JSON, Description: cmd.Description}
	doc, err := app.Search.Search(ctx, cmd.Params, opts)
	if err != nil {
		return err
	}
	return cmd.print(doc)
}

func (cmd *SearchCommand) print(doc search.ResultDocument) error {
	if cmd.JSON {
		enc := json.NewEncoder(cmd.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	if doc.Total == 0 {
		fmt.Fprintln(cmd.Out, "No books found.")
		return nil
	}
	fmt.Fprint(cmd.Out, doc.Table)
	fmt.Fprintf(cmd.Out, "\nPage %d of %d (%d books)\n", doc.Page, doc.TotalPages, doc.Total)
	return nil
}
