// mdxdigest converts MDX documentation fragments into plain Markdown and
// concatenates them into a single document for language models.
//
// Example usage:
//
//	# Build dist/llms.txt from docs/patterns and docs/anti-patterns
//	mdxdigest
//
//	# Use a YAML config and a different output path
//	mdxdigest build --config mdxdigest.yaml --output public/llms.txt
//
//	# Serve the conversion API
//	mdxdigest serve --port 8090
package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/dgallion1/mdxdigest/internal/config"
	"github.com/spf13/cobra"
)

var version = "dev"

var rootFlags struct {
	configPath string
	outputPath string
}

var rootCmd = &cobra.Command{
	Use:          "mdxdigest",
	Short:        "Convert MDX fragments into one plain-Markdown document for LLMs.",
	Version:      version,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runBuild,
}

func main() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootFlags.configPath, "config", "c", "", "YAML config file (env vars still override)")
	rootCmd.PersistentFlags().StringVarP(&rootFlags.outputPath, "output", "o", "", "Output path for the assembled document")
	rootCmd.AddCommand(buildCmd, serveCmd)
}

// loadConfig resolves the layered configuration and applies flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadFile(rootFlags.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if rootFlags.outputPath != "" {
		cfg.OutputPath = rootFlags.outputPath
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
