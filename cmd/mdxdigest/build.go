package main

import (
	"log/slog"
	"os"

	"github.com/dgallion1/mdxdigest/internal/pipeline"
	"github.com/dgallion1/mdxdigest/internal/transform"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Assemble the fragment categories into the output document.",
	Args:  cobra.NoArgs,
	RunE:  runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("invalid configuration", "error", err)
		return err
	}
	log := newLogger(cfg.LogFormat, cfg.LogLevel)

	conv := transform.NewConverter(log, transform.WithFrontMatter(cfg.StripFrontMatter))
	orch := pipeline.NewOrchestrator(cfg, conv, log)

	res, err := orch.Build(cmd.Context())
	if err != nil {
		log.Error("build failed", "error", err)
		return err
	}
	if res.Written {
		log.Info("build complete",
			"path", res.Path,
			"tokens", res.Stats.Tokens,
			"degraded", res.Stats.Degraded,
			"content_hash", res.Stats.ContentHash,
		)
	}
	return nil
}
