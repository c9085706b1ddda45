package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgallion1/mdxdigest/internal/concat"
	"github.com/dgallion1/mdxdigest/internal/config"
	"github.com/dgallion1/mdxdigest/internal/tokens"
	"github.com/dgallion1/mdxdigest/internal/transform"
)

// Stats summarizes one assembly run.
type Stats struct {
	Fragments   map[string]int `json:"fragments"` // per category name
	Degraded    int            `json:"degraded"`
	Tokens      int            `json:"tokens"`
	ContentHash string         `json:"content_hash,omitempty"`
}

// Output is an assembled document that has not been written yet.
type Output struct {
	Data  []byte
	Empty bool // nothing to write
	Stats Stats
}

// Result describes a completed build.
type Result struct {
	Written bool
	Path    string
	Stats   Stats
}

// FragmentReport describes how a single fragment converts.
type FragmentReport struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Degraded bool   `json:"degraded"`
	Removed  int    `json:"removed_blocks"`
	Tokens   int    `json:"tokens"`
	Error    string `json:"error,omitempty"`
}

// Orchestrator runs the load, convert, assemble and write pipeline.
type Orchestrator struct {
	cfg  config.Config
	conv *transform.Converter
	log  *slog.Logger

	openDir func(dir string) fs.FS
}

func NewOrchestrator(cfg config.Config, conv *transform.Converter, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		conv:    conv,
		log:     log,
		openDir: os.DirFS,
	}
}

// Sections loads both categories in output order. A missing category
// directory yields an empty section.
func (o *Orchestrator) Sections(ctx context.Context) ([]concat.Section, error) {
	var sections []concat.Section
	for _, c := range o.cfg.Categories() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cat := concat.Category{Name: c.Name, Dir: c.Dir}
		frags, err := concat.LoadFragments(o.openDir(c.Dir), ".", cat, o.cfg.Extension)
		if err != nil {
			if errors.Is(err, concat.ErrCategoryMissing) {
				o.log.Warn("category directory missing, skipping", "category", c.Name, "dir", c.Dir)
				sections = append(sections, concat.Section{Category: cat})
				continue
			}
			return nil, err
		}
		o.log.Info("loaded category", "category", c.Name, "dir", c.Dir, "fragments", len(frags))
		sections = append(sections, concat.Section{Category: cat, Fragments: frags})
	}
	return sections, nil
}

// Assemble loads, converts and concatenates every fragment in memory.
func (o *Orchestrator) Assemble(ctx context.Context) (*Output, error) {
	sections, err := o.Sections(ctx)
	if err != nil {
		return nil, err
	}

	rec := &recorder{conv: o.conv, log: o.log}
	stats := Stats{Fragments: make(map[string]int)}
	for _, s := range sections {
		stats.Fragments[s.Category.Name] = len(s.Fragments)
	}

	data, ok := concat.Concatenate(o.cfg.Banner, sections, rec)
	stats.Degraded = rec.degraded
	if !ok {
		return &Output{Empty: true, Stats: stats}, nil
	}
	stats.Tokens = tokens.Estimate(string(data))
	stats.ContentHash = ContentHashHex(data)
	return &Output{Data: data, Stats: stats}, nil
}

// Build assembles the document and writes it to the configured output
// path. Nothing is written when both categories are empty.
func (o *Orchestrator) Build(ctx context.Context) (*Result, error) {
	out, err := o.Assemble(ctx)
	if err != nil {
		return nil, err
	}
	path := o.cfg.OutputPath
	if out.Empty {
		o.log.Info("no content found, nothing to write")
		return &Result{Path: path, Stats: out.Stats}, nil
	}

	if n, ok := tokens.Budget(string(out.Data), o.cfg.MaxOutputTokens); !ok {
		o.log.Warn("output exceeds token budget", "tokens", n, "max_tokens", o.cfg.MaxOutputTokens)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, out.Data, 0o644); err != nil {
		return nil, fmt.Errorf("write output %s: %w", path, err)
	}

	o.log.Info("wrote output",
		"path", path,
		"bytes", len(out.Data),
		"tokens", out.Stats.Tokens,
		"degraded", out.Stats.Degraded,
		"content_hash", out.Stats.ContentHash,
	)
	return &Result{Written: true, Path: path, Stats: out.Stats}, nil
}

// Inspect converts every fragment and reports per-fragment results
// without assembling.
func (o *Orchestrator) Inspect(ctx context.Context) ([]FragmentReport, error) {
	sections, err := o.Sections(ctx)
	if err != nil {
		return nil, err
	}
	var reports []FragmentReport
	for _, s := range sections {
		for _, f := range s.Fragments {
			res := o.conv.Run(f.Name, f.Source)
			r := FragmentReport{
				Name:     f.Name,
				Category: s.Category.Name,
				Degraded: res.Degraded,
				Removed:  res.Removed,
				Tokens:   tokens.Estimate(res.Text),
			}
			if res.Err != nil {
				r.Error = res.Err.Error()
			}
			reports = append(reports, r)
		}
	}
	return reports, nil
}

// recorder wraps the converter to count degraded fragments.
type recorder struct {
	conv     *transform.Converter
	log      *slog.Logger
	degraded int
}

func (r *recorder) Convert(name string, src []byte) string {
	res := r.conv.Run(name, src)
	if res.Degraded {
		r.degraded++
	}
	r.log.Debug("converted fragment",
		"fragment", name,
		"degraded", res.Degraded,
		"removed_blocks", res.Removed,
		"tokens", tokens.Estimate(res.Text),
	)
	return res.Text
}
