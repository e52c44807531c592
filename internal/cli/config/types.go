// Package config provides configuration management for the panelgen CLI.
//
// Values are layered with koanf: built-in defaults, then panelgen.yaml, then
// environment variables, then explicitly set command-line flags.
package config

import (
	"time"

	"github.com/leapstack-labs/panelgen/internal/blocks"
	"github.com/leapstack-labs/panelgen/internal/compose"
	"github.com/leapstack-labs/panelgen/internal/fetch"
)

// Config holds all CLI configuration options.
type Config struct {
	ImagesDir     string         `koanf:"images_dir"`
	Background    string         `koanf:"background"`
	OutputDir     string         `koanf:"output_dir"`
	FontPath      string         `koanf:"font_path"`
	FontSize      float64        `koanf:"font_size"`
	BlocksFile    string         `koanf:"blocks_file"`
	StatePath     string         `koanf:"state_path"`
	RecordHistory bool           `koanf:"record_history"`
	Verbose       bool           `koanf:"verbose"`
	OutputFormat  string         `koanf:"output"`
	Catalog       CatalogConfig  `koanf:"catalog"`
	Download      DownloadConfig `koanf:"download"`
	Grid          GridConfig     `koanf:"grid"`

	// BaseDir is the directory relative paths were resolved against.
	BaseDir string `koanf:"-"`
}

// CatalogConfig bounds the block numbers a panel may use.
type CatalogConfig struct {
	Min    int   `koanf:"min"`
	Max    int   `koanf:"max"`
	Ignore []int `koanf:"ignore"`
}

// DownloadConfig configures the block downloader.
type DownloadConfig struct {
	URLTemplate string        `koanf:"url_template"`
	From        int           `koanf:"from"`
	To          int           `koanf:"to"`
	Timeout     time.Duration `koanf:"timeout"`
	UserAgent   string        `koanf:"user_agent"`
}

// GridConfig configures panel layout.
type GridConfig struct {
	Offset     int    `koanf:"offset"`
	FrameColor string `koanf:"frame_color"`
}

// Default configuration values.
const (
	DefaultImagesDir  = "images/all"
	DefaultBackground = "images/panelBorder.png"
	DefaultOutputDir  = "images/generated"
	DefaultFontPath   = "fonts/NotoSansMono-Regular-Nerd-Font-Complete.ttf"
	DefaultBlocksFile = "nfh_tiles.json"
	DefaultStateFile  = ".panelgen/state.db"
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultFrameColor = "#000000"
	DefaultUserAgent  = "panelgen"

	// EnvPrefix prefixes every panelgen environment variable.
	EnvPrefix = "PANELGEN_"
)

// ConfigFileNames are searched, in order, in the working directory.
var ConfigFileNames = []string{"panelgen.yaml", "panelgen.yml"}

// CatalogValue converts the catalog section to a blocks.Catalog.
func (c *Config) CatalogValue() blocks.Catalog {
	return blocks.Catalog{Min: c.Catalog.Min, Max: c.Catalog.Max, Ignore: c.Catalog.Ignore}
}

// Default returns the configuration used when nothing is loaded.
func Default() *Config {
	return &Config{
		ImagesDir:     DefaultImagesDir,
		Background:    DefaultBackground,
		OutputDir:     DefaultOutputDir,
		FontPath:      DefaultFontPath,
		FontSize:      compose.DefaultFontSize,
		BlocksFile:    DefaultBlocksFile,
		StatePath:     DefaultStateFile,
		RecordHistory: true,
		OutputFormat:  DefaultOutput,
		Catalog: CatalogConfig{
			Min:    blocks.DefaultMin,
			Max:    blocks.DefaultMax,
			Ignore: append([]int(nil), blocks.DefaultIgnore...),
		},
		Download: DownloadConfig{
			URLTemplate: fetch.DefaultURLTemplate,
			From:        fetch.DefaultFrom,
			To:          fetch.DefaultTo,
			Timeout:     fetch.DefaultTimeout,
			UserAgent:   DefaultUserAgent,
		},
		Grid: GridConfig{
			Offset:     compose.DefaultOffset,
			FrameColor: DefaultFrameColor,
		},
	}
}
