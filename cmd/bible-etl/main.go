// Command bible-etl builds the searchable scripture database.
// It fetches the configured translations, parses and merges them, writes
// the SQLite store and publishes it with its info file.
package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"github.com/FocuswithJustin/JuniperCorpus/core/canon"
	"github.com/FocuswithJustin/JuniperCorpus/core/sqlite"
	"github.com/FocuswithJustin/JuniperCorpus/internal/logging"
	"github.com/FocuswithJustin/JuniperCorpus/internal/pipeline"
	"github.com/FocuswithJustin/JuniperCorpus/internal/store"
)

const version = "0.1.0"

// CLI defines the command-line interface for bible-etl.
type CLI struct {
	Globals

	Run     RunCmd     `cmd:"" help:"Run the full pipeline (or the stages given with --stage)"`
	Fetch   FetchCmd   `cmd:"" help:"Download sources into the downloads directory"`
	Build   BuildCmd   `cmd:"" help:"Parse, merge and write the SQLite store"`
	Publish PublishCmd `cmd:"" help:"Copy the store and its info file into the assets directory"`
	Verify  VerifyCmd  `cmd:"" help:"Run the integrity checks on a built store"`
	Search  SearchCmd  `cmd:"" help:"Full-text search a built store"`
	Stats   StatsCmd   `cmd:"" help:"Print row counts and metadata of a built store"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// Globals are flags shared by every command.
type Globals struct {
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"info" env:"BIBLE_ETL_LOG_LEVEL"`
	LogFormat string `name:"log-format" help:"Log format (text, json)" default:"text" env:"BIBLE_ETL_LOG_FORMAT"`
}

func (g *Globals) initLogging(w io.Writer) error {
	level, err := logging.ParseLevel(g.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(g.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLoggerTo(w, level, format)
	return nil
}

// Paths locate the pipeline inputs and outputs.
type Paths struct {
	Sources   string        `help:"Source descriptor file" default:"bible_sources.json" type:"path" env:"BIBLE_ETL_SOURCES"`
	Downloads string        `help:"Downloads directory" default:"downloads" type:"path" env:"BIBLE_ETL_DOWNLOADS"`
	Output    string        `short:"o" help:"Store output path" default:"dist/bible.db" type:"path" env:"BIBLE_ETL_OUTPUT"`
	Assets    string        `help:"Assets directory for publishing" default:"assets" type:"path" env:"BIBLE_ETL_ASSETS"`
	Timeout   time.Duration `help:"HTTP timeout per download" default:"5m" env:"BIBLE_ETL_TIMEOUT"`
}

func (p *Paths) run(ctx *kong.Context, stages []pipeline.Stage) error {
	sctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := pipeline.Run(sctx, pipeline.Config{
		SourcesFile:  p.Sources,
		DownloadsDir: p.Downloads,
		OutputPath:   p.Output,
		AssetsDir:    p.Assets,
		Stages:       stages,
		Client:       &http.Client{Timeout: p.Timeout},
		Logger:       logging.GetLogger(),
	})
	if err != nil {
		return err
	}
	printResult(ctx.Stdout, res)
	return nil
}

// RunCmd runs the pipeline.
type RunCmd struct {
	Paths `embed:""`

	Stage []string `help:"Stages to run (fetch, build, publish); repeatable, default all" env:"BIBLE_ETL_STAGES"`
}

func (c *RunCmd) Run(ctx *kong.Context) error {
	stages, err := pipeline.ParseStages(c.Stage)
	if err != nil {
		return err
	}
	return c.Paths.run(ctx, stages)
}

// FetchCmd runs only the fetch stage.
type FetchCmd struct {
	Paths `embed:""`
}

func (c *FetchCmd) Run(ctx *kong.Context) error {
	return c.Paths.run(ctx, []pipeline.Stage{pipeline.StageFetch})
}

// BuildCmd runs only the build stage against already fetched sources.
type BuildCmd struct {
	Paths `embed:""`
}

func (c *BuildCmd) Run(ctx *kong.Context) error {
	return c.Paths.run(ctx, []pipeline.Stage{pipeline.StageBuild})
}

// PublishCmd runs only the publish stage.
type PublishCmd struct {
	Paths `embed:""`
}

func (c *PublishCmd) Run(ctx *kong.Context) error {
	return c.Paths.run(ctx, []pipeline.Stage{pipeline.StagePublish})
}

func printResult(w io.Writer, res *pipeline.Result) {
	fmt.Fprintf(w, "Run %s finished in %s\n", res.RunID, res.Duration.Round(time.Millisecond))
	if len(res.Fetched) > 0 {
		fmt.Fprintf(w, "  Fetched:   %d sources\n", len(res.Fetched))
	}
	if b := res.Build; b != nil {
		fmt.Fprintf(w, "  Store:     %s\n", b.Path)
		fmt.Fprintf(w, "  Versions:  %s\n", strings.Join(b.Versions, ", "))
		fmt.Fprintf(w, "  Rows:      %s books, %s chapters, %s verses, %s footnotes\n",
			humanize.Comma(b.Books), humanize.Comma(b.Chapters), humanize.Comma(b.Verses), humanize.Comma(b.Footnotes))
		fmt.Fprintf(w, "  Merge:     %d books replaced, %d chapters discarded\n", res.Merge.BooksReplaced, res.Merge.ChaptersDiscarded)
		fmt.Fprintf(w, "  Warnings:  %d diagnostics, %d verify warnings\n", len(res.Diagnostics), len(b.Verify.Warnings))
		fmt.Fprintf(w, "  Checksum:  %s\n", b.Checksum)
	}
	if p := res.Publish; p != nil {
		fmt.Fprintf(w, "  Published: %s (%s)\n", p.Checksum, humanize.Bytes(uint64(p.SizeBytes)))
	}
}

// VerifyCmd runs the integrity checks on a built store.
type VerifyCmd struct {
	Store string `arg:"" help:"Path to the store" type:"path"`
}

func (c *VerifyCmd) Run(ctx *kong.Context) error {
	report, err := store.Verify(context.Background(), c.Store)
	if report == nil {
		return err
	}

	tw := tabwriter.NewWriter(ctx.Stdout, 0, 4, 2, ' ', 0)
	for _, check := range report.Checks {
		status := "ok"
		if !check.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", check.Name, status, check.Detail)
	}
	tw.Flush()
	for _, w := range report.Warnings {
		fmt.Fprintf(ctx.Stdout, "warning: %s\n", w)
	}
	return err
}

// SearchCmd runs a full-text query.
type SearchCmd struct {
	Store   string `arg:"" help:"Path to the store" type:"path"`
	Query   string `arg:"" help:"FTS5 query"`
	Version string `help:"Restrict to a version id"`
	Book    string `help:"Restrict to a book (code or name)"`
	Chapter int    `help:"Restrict to a chapter (requires --book)"`
	Limit   int    `short:"n" help:"Maximum hits" default:"20"`
	JSON    bool   `name:"json" help:"Print hits as JSON"`
}

func (c *SearchCmd) Run(ctx *kong.Context) error {
	filter := store.SearchFilter{VersionID: c.Version, Chapter: c.Chapter, Limit: c.Limit}
	if c.Book != "" {
		code, ok := canon.New().Normalize(c.Book)
		if !ok {
			return fmt.Errorf("unknown book %q", c.Book)
		}
		filter.Book = code
	}

	db, err := store.Open(c.Store)
	if err != nil {
		return err
	}
	defer db.Close()

	hits, err := store.Search(context.Background(), db, c.Query, filter)
	if err != nil {
		return err
	}
	if c.JSON {
		enc := json.NewEncoder(ctx.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}
	for _, h := range hits {
		fmt.Fprintf(ctx.Stdout, "%s %s %d:%d  %s\n", h.VersionID, h.Book, h.Chapter, h.Verse, h.Text)
	}
	if len(hits) == 0 {
		fmt.Fprintln(ctx.Stdout, "No matches.")
	}
	return nil
}

// StatsCmd prints the row counts and metadata of a store.
type StatsCmd struct {
	Store string `arg:"" help:"Path to the store" type:"path"`
}

func (c *StatsCmd) Run(ctx *kong.Context) error {
	db, err := store.Open(c.Store)
	if err != nil {
		return err
	}
	defer db.Close()

	s, err := store.Stats(context.Background(), db)
	if err != nil {
		return err
	}
	fi, err := os.Stat(c.Store)
	if err != nil {
		return err
	}

	w := ctx.Stdout
	fmt.Fprintf(w, "Store:     %s (%s)\n", c.Store, humanize.Bytes(uint64(fi.Size())))
	fmt.Fprintf(w, "Versions:  %s\n", strings.Join(s.Versions, ", "))
	fmt.Fprintf(w, "Books:     %s\n", humanize.Comma(s.Books))
	fmt.Fprintf(w, "Chapters:  %s\n", humanize.Comma(s.Chapters))
	fmt.Fprintf(w, "Verses:    %s\n", humanize.Comma(s.Verses))
	fmt.Fprintf(w, "Footnotes: %s\n", humanize.Comma(s.Footnotes))
	if built, err := time.Parse(time.RFC3339, s.Metadata[store.MetaBuiltAt]); err == nil {
		fmt.Fprintf(w, "Built:     %s (%s)\n", built.Format(time.RFC3339), humanize.Time(built))
	}
	fmt.Fprintf(w, "Checksum:  %s\n", s.Checksum())
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct {
	Verbose bool `short:"v" help:"Also print the SQLite driver in use"`
}

func (c *VersionCmd) Run(ctx *kong.Context) error {
	fmt.Fprintf(ctx.Stdout, "bible-etl version %s\n", version)
	if c.Verbose {
		info := sqlite.GetInfo()
		fmt.Fprintf(ctx.Stdout, "sqlite driver: %s (%s) from %s\n", info.DriverName, info.DriverType, info.Package)
	}
	return nil
}

// loadEnv reads .env into the environment. A missing file is not an error.
func loadEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && stderrors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	return kong.New(cli, append([]kong.Option{
		kong.Name("bible-etl"),
		kong.Description("Bible ETL - fetch, merge and index scripture translations"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	}, options...)...)
}

func main() {
	if err := loadEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "bible-etl: reading .env: %v\n", err)
		os.Exit(1)
	}

	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	ctx.FatalIfErrorf(cli.initLogging(os.Stderr))

	err = ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
