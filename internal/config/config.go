package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configurable paths and bake/render settings. Values come
// from an optional JSON file, then RIG_* environment variables, then CLI
// flags, then defaults.
type Config struct {
	// Paths
	BaseDir   string `json:"base_dir" env:"RIG_BASE_DIR"`
	SceneFile string `json:"scene_file" env:"RIG_SCENE"`
	RigFile   string `json:"rig_file" env:"RIG_RIG_FILE"`
	StorePath string `json:"store_path" env:"RIG_STORE"`
	OutputDir string `json:"output_dir" env:"RIG_OUTPUT_DIR"`
	Backdrop  string `json:"backdrop" env:"RIG_BACKDROP"`

	// Bake settings
	BakeMode   string `json:"bake_mode" env:"RIG_BAKE_MODE"`
	IntervalMS int    `json:"interval_ms" env:"RIG_INTERVAL_MS"`

	// Render settings
	PreviewWidth  int    `json:"preview_width" env:"RIG_PREVIEW_WIDTH"`
	PreviewHeight int    `json:"preview_height" env:"RIG_PREVIEW_HEIGHT"`
	Supersample   int    `json:"supersample" env:"RIG_SUPERSAMPLE"`
	Format        string `json:"format" env:"RIG_FORMAT"`
	Workers       int    `json:"workers" env:"RIG_WORKERS"`

	// Prop generation
	AnthropicKey   string `json:"-" env:"ANTHROPIC_API_KEY"`
	AnthropicModel string `json:"anthropic_model" env:"RIG_ANTHROPIC_MODEL"`

	LogLevel string `json:"log_level" env:"RIG_LOG_LEVEL"`
}

// Load reads a JSON config file, if path is not empty, and applies
// environment overrides. Fields set nowhere keep their zero values.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override file and environment settings.
type Flags struct {
	SceneFile  string
	StorePath  string
	OutputDir  string
	BakeMode   string
	IntervalMS int
	Format     string
	Workers    int
	LogLevel   string
}

// Resolve applies flags, then fills any empty fields with defaults.
// Relative paths are resolved against BaseDir when one is set.
func (c *Config) Resolve(flags Flags) {
	if flags.SceneFile != "" {
		c.SceneFile = flags.SceneFile
	}
	if flags.StorePath != "" {
		c.StorePath = flags.StorePath
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.BakeMode != "" {
		c.BakeMode = flags.BakeMode
	}
	if flags.IntervalMS > 0 {
		c.IntervalMS = flags.IntervalMS
	}
	if flags.Format != "" {
		c.Format = flags.Format
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}

	if c.OutputDir == "" {
		c.OutputDir = "renders"
	}
	if c.StorePath == "" {
		c.StorePath = "scenes.db"
	}
	if c.BaseDir != "" {
		c.SceneFile = c.resolvePath(c.SceneFile)
		c.RigFile = c.resolvePath(c.RigFile)
		c.StorePath = c.resolvePath(c.StorePath)
		c.OutputDir = c.resolvePath(c.OutputDir)
		c.Backdrop = c.resolvePath(c.Backdrop)
	}

	if c.BakeMode == "" {
		c.BakeMode = "accurate"
	}
	if c.IntervalMS <= 0 {
		c.IntervalMS = 30
	}
	if c.PreviewWidth <= 0 {
		c.PreviewWidth = 400
	}
	if c.PreviewHeight <= 0 {
		c.PreviewHeight = 300
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	c.Format = strings.ToLower(c.Format)
	if c.Format == "" {
		c.Format = "webp"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// Interval returns the accurate-bake sampling interval.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

// Validate reports settings Resolve cannot repair.
func (c Config) Validate() error {
	switch c.Format {
	case "webp", "png":
	default:
		return fmt.Errorf("config: unknown format %q", c.Format)
	}
	return nil
}
