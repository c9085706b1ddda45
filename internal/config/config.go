package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category configures one output section.
type Category struct {
	Name string `yaml:"name"`
	Dir  string `yaml:"dir"`
}

type Config struct {
	// Inputs
	CategoryA Category `yaml:"category_a"`
	CategoryB Category `yaml:"category_b"`
	Extension string   `yaml:"extension"`

	// Output artifact
	OutputPath      string `yaml:"output_path"`
	Banner          string `yaml:"banner"`
	MaxOutputTokens int    `yaml:"max_output_tokens"`

	// Conversion
	StripFrontMatter bool `yaml:"strip_front_matter"`

	// HTTP service
	Port           string `yaml:"port"`
	APIKey         string `yaml:"api_key"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

const DefaultBanner = "<!-- This file is auto-generated by mdxdigest. Do not edit it by hand. -->"

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		CategoryA: Category{Name: "Patterns", Dir: "docs/patterns"},
		CategoryB: Category{Name: "Anti-Patterns", Dir: "docs/anti-patterns"},
		Extension: ".mdx",

		OutputPath: "dist/llms.txt",
		Banner:     DefaultBanner,

		Port:           "8090",
		MaxUploadBytes: 5242880, // 5MB

		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load reads configuration from the environment on top of the defaults.
func Load() Config {
	cfg := Defaults()
	applyEnv(&cfg)
	cfg.normalize()
	return cfg
}

// LoadFile layers a YAML file between the defaults and the environment.
// An empty path behaves like Load.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	cfg.normalize()
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.CategoryA.Name = envOr("CATEGORY_A_NAME", cfg.CategoryA.Name)
	cfg.CategoryA.Dir = envOr("CATEGORY_A_DIR", cfg.CategoryA.Dir)
	cfg.CategoryB.Name = envOr("CATEGORY_B_NAME", cfg.CategoryB.Name)
	cfg.CategoryB.Dir = envOr("CATEGORY_B_DIR", cfg.CategoryB.Dir)
	cfg.Extension = envOr("FRAGMENT_EXT", cfg.Extension)

	cfg.OutputPath = envOr("OUTPUT_PATH", cfg.OutputPath)
	cfg.Banner = envOr("OUTPUT_BANNER", cfg.Banner)
	cfg.MaxOutputTokens = envInt("MAX_OUTPUT_TOKENS", cfg.MaxOutputTokens)

	cfg.StripFrontMatter = envBool("STRIP_FRONT_MATTER", cfg.StripFrontMatter)

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("MDXDIGEST_API_KEY", cfg.APIKey)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)

	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOr("LOG_FORMAT", cfg.LogFormat)
}

func (c *Config) normalize() {
	if c.Extension != "" && !strings.HasPrefix(c.Extension, ".") {
		c.Extension = "." + c.Extension
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 5242880
	}
	if c.MaxOutputTokens < 0 {
		c.MaxOutputTokens = 0
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	c.LogFormat = strings.ToLower(c.LogFormat)
}

// Categories returns the categories in output order.
func (c Config) Categories() []Category {
	return []Category{c.CategoryA, c.CategoryB}
}

func (c Config) Validate() error {
	for i, cat := range c.Categories() {
		if cat.Name == "" {
			return fmt.Errorf("category %d: name is required", i+1)
		}
		if cat.Dir == "" {
			return fmt.Errorf("category %q: dir is required", cat.Name)
		}
	}
	if c.CategoryA.Name == c.CategoryB.Name {
		return fmt.Errorf("category names must differ, both are %q", c.CategoryA.Name)
	}
	if c.Extension == "" {
		return fmt.Errorf("FRAGMENT_EXT is required")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("OUTPUT_PATH is required")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
