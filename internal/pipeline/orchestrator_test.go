package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/mdxdigest/internal/config"
	"github.com/dgallion1/mdxdigest/internal/transform"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testConfig(root string) config.Config {
	cfg := config.Defaults()
	cfg.CategoryA = config.Category{Name: "Patterns", Dir: filepath.Join(root, "patterns")}
	cfg.CategoryB = config.Category{Name: "Anti-Patterns", Dir: filepath.Join(root, "anti-patterns")}
	cfg.OutputPath = filepath.Join(root, "dist", "llms.txt")
	cfg.Banner = "<!-- generated -->"
	return cfg
}

func newOrchestrator(cfg config.Config) *Orchestrator {
	log := quietLogger()
	return NewOrchestrator(cfg, transform.NewConverter(log), log)
}

func TestBuild_WritesOrderedDocument(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "patterns", "b.mdx"), "import { Meta } from '@storybook/blocks';\n\n<Meta title=\"B\" />\n\n## B\n")
	writeFile(t, filepath.Join(root, "patterns", "a.mdx"), "## A\n")
	writeFile(t, filepath.Join(root, "patterns", "ignored.md"), "## ignored\n")
	writeFile(t, filepath.Join(root, "anti-patterns", "z.mdx"), "## Z\n\n> 🤖 *For Humans only*: hidden\n\nshown\n")

	cfg := testConfig(root)
	res, err := newOrchestrator(cfg).Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Written {
		t.Fatal("expected output to be written")
	}

	data, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "<!-- generated -->\n\n" +
		"# Patterns\n\n" +
		"## A\n\n\n" +
		"## B\n\n\n" +
		"# Anti-Patterns\n\n" +
		"## Z\n\n\nshown\n\n\n"
	if string(data) != want {
		t.Errorf("expected %q, got %q", want, string(data))
	}

	if res.Stats.Fragments["Patterns"] != 2 || res.Stats.Fragments["Anti-Patterns"] != 1 {
		t.Errorf("unexpected fragment counts %v", res.Stats.Fragments)
	}
	if res.Stats.ContentHash != ContentHashHex(data) {
		t.Errorf("expected content hash of written file, got %q", res.Stats.ContentHash)
	}
	if res.Stats.Tokens == 0 {
		t.Error("expected a token estimate")
	}
}

func TestBuild_IsReproducible(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "patterns", "x.mdx"), "# X\n")
	writeFile(t, filepath.Join(root, "anti-patterns", "y.mdx"), "# Y\n")
	cfg := testConfig(root)

	first, err := newOrchestrator(cfg).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := newOrchestrator(cfg).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first.Stats.ContentHash != second.Stats.ContentHash {
		t.Errorf("expected identical hashes, got %q and %q", first.Stats.ContentHash, second.Stats.ContentHash)
	}
}

func TestBuild_NothingToWrite(t *testing.T) {
	root := t.TempDir()
	// Category A exists but is empty, category B is absent.
	if err := os.MkdirAll(filepath.Join(root, "patterns"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(root)

	res, err := newOrchestrator(cfg).Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Written {
		t.Error("expected nothing to be written")
	}
	if _, err := os.Stat(cfg.OutputPath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected no output file, stat returned %v", err)
	}
}

func TestBuild_MissingCategoryIsNotFatal(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "anti-patterns", "only.mdx"), "Only.\n")
	cfg := testConfig(root)

	res, err := newOrchestrator(cfg).Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "# Patterns") {
		t.Errorf("expected missing category to be skipped, got %q", string(data))
	}
	if !strings.Contains(string(data), "# Anti-Patterns\n\nOnly.\n") {
		t.Errorf("expected anti-patterns section, got %q", string(data))
	}
}

func TestBuild_DegradedFragmentStillShips(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "patterns", "bad.mdx"), "<Canvas>\n<Story>\n</Canvas>\n\n> 🤖 *For Humans only*: hidden\n\nkept\n")
	cfg := testConfig(root)

	res, err := newOrchestrator(cfg).Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stats.Degraded != 1 {
		t.Errorf("expected 1 degraded fragment, got %d", res.Stats.Degraded)
	}
	data, _ := os.ReadFile(res.Path)
	if strings.Contains(string(data), "hidden") {
		t.Errorf("expected human-only block removed, got %q", string(data))
	}
	if !strings.Contains(string(data), "kept") {
		t.Errorf("expected remaining text, got %q", string(data))
	}
}

func TestBuild_OutputWriteFailure(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "patterns", "a.mdx"), "A\n")
	blocker := filepath.Join(root, "blocker")
	writeFile(t, blocker, "not a directory")

	cfg := testConfig(root)
	cfg.OutputPath = filepath.Join(blocker, "llms.txt")

	if _, err := newOrchestrator(cfg).Build(context.Background()); err == nil {
		t.Fatal("expected error when output directory cannot be created")
	}
}

func TestInspect_ReportsDegradation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "patterns", "good.mdx"), "<Meta title=\"x\" />\n\nText.\n")
	writeFile(t, filepath.Join(root, "anti-patterns", "bad.mdx"), "<Canvas>\n")
	cfg := testConfig(root)

	reports, err := newOrchestrator(cfg).Inspect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if reports[0].Name != "good.mdx" || reports[0].Degraded || reports[0].Removed != 1 {
		t.Errorf("unexpected report %+v", reports[0])
	}
	if reports[1].Name != "bad.mdx" || !reports[1].Degraded || reports[1].Error == "" {
		t.Errorf("unexpected report %+v", reports[1])
	}
}

func TestAssemble_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newOrchestrator(testConfig(t.TempDir())).Assemble(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}
