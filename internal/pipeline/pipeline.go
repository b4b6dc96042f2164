// Package pipeline runs the corpus stages in order: fetch every source,
// parse and merge them one at a time, build the store, publish it.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/JuniperCorpus/core/canon"
	"github.com/FocuswithJustin/JuniperCorpus/core/errors"
	"github.com/FocuswithJustin/JuniperCorpus/core/ir"
	"github.com/FocuswithJustin/JuniperCorpus/internal/fetch"
	"github.com/FocuswithJustin/JuniperCorpus/internal/logging"
	"github.com/FocuswithJustin/JuniperCorpus/internal/publish"
	"github.com/FocuswithJustin/JuniperCorpus/internal/source"
	"github.com/FocuswithJustin/JuniperCorpus/internal/store"
)

// Stage is one step of a run.
type Stage string

const (
	StageFetch   Stage = "fetch"
	StageBuild   Stage = "build"
	StagePublish Stage = "publish"
)

// AllStages is the default, full run.
var AllStages = []Stage{StageFetch, StageBuild, StagePublish}

// ParseStages resolves stage names. An empty list means all stages.
func ParseStages(names []string) ([]Stage, error) {
	if len(names) == 0 {
		return AllStages, nil
	}
	var out []Stage
	for _, n := range names {
		s := Stage(strings.ToLower(strings.TrimSpace(n)))
		switch s {
		case StageFetch, StageBuild, StagePublish:
			out = append(out, s)
		default:
			return nil, errors.NewValidation("stage", fmt.Sprintf("unknown stage %q (want fetch, build or publish)", n))
		}
	}
	return out, nil
}

// Config configures a run.
type Config struct {
	SourcesFile  string
	DownloadsDir string
	OutputPath   string
	AssetsDir    string
	Stages       []Stage

	Client *http.Client
	Logger *slog.Logger
}

func (c *Config) has(s Stage) bool {
	stages := c.Stages
	if len(stages) == 0 {
		stages = AllStages
	}
	for _, st := range stages {
		if st == s {
			return true
		}
	}
	return false
}

// Result summarizes a run.
type Result struct {
	RunID       string
	Fetched     []string
	Merge       ir.MergeStats
	Diagnostics []ir.Diagnostic
	Build       *store.BuildReport
	Publish     *publish.Info
	Duration    time.Duration
}

// Run executes the configured stages. The first fatal error stops the run;
// no later stage starts after it.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString()}
	ctx = logging.WithRunID(ctx, res.RunID)
	logger := logging.FromContext(ctx, cfg.Logger)

	var descs []source.Descriptor
	if cfg.has(StageFetch) || cfg.has(StageBuild) {
		var err error
		descs, err = source.LoadDescriptors(cfg.SourcesFile)
		if err != nil {
			return nil, err
		}
		for _, d := range descs {
			if _, err := source.ParseFormat(d.Format); err != nil {
				return nil, errors.Wrapf(err, "source %s", d.Key)
			}
		}
		logger.Info("sources_loaded", "path", cfg.SourcesFile, "sources", len(descs))
	}

	if cfg.has(StageFetch) {
		f := &fetch.Fetcher{Client: cfg.Client, Root: cfg.DownloadsDir, Logger: logger}
		for _, d := range descs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			dir, err := f.Fetch(ctx, d)
			if err != nil {
				return nil, errors.Wrapf(err, "fetch %s", d.Key)
			}
			res.Fetched = append(res.Fetched, dir)
		}
	}

	if cfg.has(StageBuild) {
		corpus, err := Merge(ctx, descs, cfg.DownloadsDir, logger, &res.Merge)
		if err != nil {
			return nil, err
		}
		res.Diagnostics = corpus.Diagnostics

		report, err := (&store.Builder{Logger: logger}).Build(ctx, corpus, cfg.OutputPath)
		if err != nil {
			return nil, errors.Wrap(err, "build store")
		}
		for _, w := range report.Verify.Warnings {
			logger.Warn("verify_warning", "detail", w)
		}
		res.Build = report
	}

	if cfg.has(StagePublish) {
		info, err := (&publish.Publisher{AssetsDir: cfg.AssetsDir, Logger: logger}).Publish(ctx, cfg.OutputPath)
		if err != nil {
			return nil, errors.Wrap(err, "publish")
		}
		res.Publish = info
	}

	res.Duration = time.Since(start)
	logger.Info("run_complete", "duration_ms", res.Duration.Milliseconds(), "diagnostics", len(res.Diagnostics))
	return res, nil
}

// Merge normalizes each source in order and merges it into a new corpus.
// Each source record is dropped once merged. stats, when non-nil,
// accumulates the merge counters.
func Merge(ctx context.Context, descs []source.Descriptor, downloadsDir string, logger *slog.Logger, stats *ir.MergeStats) (*ir.Corpus, error) {
	logger = logging.Or(logger)
	norm := &source.Normalizer{Registry: canon.New(), Logger: logger}
	corpus := ir.NewCorpus()
	def := source.DefaultIndex(descs)

	for i, d := range descs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		corpus.AddVersion(d.Version(i == def))

		rec, err := norm.Normalize(d, filepath.Join(downloadsDir, d.Key))
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", d.Key)
		}
		ms := corpus.Merge(rec, d.VersionID())
		logger.Info("source_merged",
			"version", d.VersionID(),
			"books_added", ms.BooksAdded,
			"books_replaced", ms.BooksReplaced,
			"chapters_added", ms.ChaptersAdded,
			"chapters_discarded", ms.ChaptersDiscarded,
			"verses", ms.Verses,
			"footnotes", ms.Footnotes,
		)
		if stats != nil {
			stats.BooksAdded += ms.BooksAdded
			stats.BooksReplaced += ms.BooksReplaced
			stats.ChaptersAdded += ms.ChaptersAdded
			stats.ChaptersDiscarded += ms.ChaptersDiscarded
			stats.Verses += ms.Verses
			stats.Footnotes += ms.Footnotes
		}
	}
	return corpus, nil
}
