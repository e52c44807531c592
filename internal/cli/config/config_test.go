package config

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/panelgen/internal/testutil"
)

// chdir switches the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "panelgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "")
	flags.String("images-dir", "", "")
	flags.String("output-dir", "", "")
	flags.String("font", "", "")
	flags.String("state", "", "")
	flags.BoolP("verbose", "v", false, "")
	flags.StringP("output", "o", "", "")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	chdir(t, t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultImagesDir, cfg.ImagesDir)
	assert.Equal(t, DefaultBackground, cfg.Background)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, DefaultStateFile, cfg.StatePath)
	assert.Equal(t, float64(12), cfg.FontSize)
	assert.True(t, cfg.RecordHistory)
	assert.Equal(t, 10, cfg.Catalog.Min)
	assert.Equal(t, 612, cfg.Catalog.Max)
	assert.Equal(t, []int{110, 111, 112, 412}, cfg.Catalog.Ignore)
	assert.Equal(t, 600, cfg.Download.From)
	assert.Equal(t, 650, cfg.Download.To)
	assert.Equal(t, 30*time.Second, cfg.Download.Timeout)
	assert.Equal(t, 20, cfg.Grid.Offset)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	chdir(t, t.TempDir())

	path := writeConfig(t, dir, `images_dir: tiles
background: ""
catalog:
  min: 1
  max: 50
  ignore: [7]
download:
  timeout: 5s
grid:
  offset: 10
  frame_color: "#ff0000"
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, dir, cfg.BaseDir)
	assert.Equal(t, filepath.Join(dir, "tiles"), cfg.ImagesDir, "relative paths resolve against the config file")
	assert.Empty(t, cfg.Background, "empty background stays empty")
	assert.Equal(t, 1, cfg.Catalog.Min)
	assert.Equal(t, []int{7}, cfg.Catalog.Ignore)
	assert.Equal(t, 5*time.Second, cfg.Download.Timeout)
	assert.Equal(t, 10, cfg.Grid.Offset)

	c, err := cfg.Grid.Color()
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, c)

	catalog := cfg.CatalogValue()
	assert.True(t, catalog.Ignored(7))
}

func TestLoadConfig_DiscoversFileInWorkingDir(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	chdir(t, dir)
	writeConfig(t, dir, "output_dir: out\n")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "panelgen.yaml", GetConfigFileUsed())
	assert.Equal(t, filepath.Join(cfg.BaseDir, "out"), cfg.OutputDir)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := writeConfig(t, dir, "images_dir: from_file\noutput_dir: from_file\n")

	t.Run("env overrides file", func(t *testing.T) {
		ResetConfig()
		t.Setenv("PANELGEN_IMAGES_DIR", "/env/images")

		cfg, err := LoadConfig(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "/env/images", cfg.ImagesDir)
	})

	t.Run("legacy env overrides file", func(t *testing.T) {
		ResetConfig()
		t.Setenv("IMAGES_PATH", "/legacy/images")

		cfg, err := LoadConfig(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "/legacy/images", cfg.ImagesDir)
	})

	t.Run("prefixed env beats legacy env", func(t *testing.T) {
		ResetConfig()
		t.Setenv("IMAGE_PATH", "/legacy/images")
		t.Setenv("PANELGEN_IMAGES_DIR", "/env/images")

		cfg, err := LoadConfig(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "/env/images", cfg.ImagesDir)
	})

	t.Run("nested env keys", func(t *testing.T) {
		ResetConfig()
		t.Setenv("PANELGEN_DOWNLOAD__TIMEOUT", "2m")
		t.Setenv("PANELGEN_GRID__OFFSET", "4")

		cfg, err := LoadConfig(path, nil)
		require.NoError(t, err)
		assert.Equal(t, 2*time.Minute, cfg.Download.Timeout)
		assert.Equal(t, 4, cfg.Grid.Offset)
	})

	t.Run("flag overrides env and file", func(t *testing.T) {
		ResetConfig()
		t.Setenv("PANELGEN_IMAGES_DIR", "/env/images")

		flags := testFlags()
		require.NoError(t, flags.Set("images-dir", "from_flag"))
		require.NoError(t, flags.Set("state", "history.db"))

		cfg, err := LoadConfig(path, flags)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "from_flag"), cfg.ImagesDir)
		assert.Equal(t, filepath.Join(dir, "history.db"), cfg.StatePath)
		assert.Equal(t, filepath.Join(dir, "from_file"), cfg.OutputDir)
	})

	t.Run("unset flag falls back to env", func(t *testing.T) {
		ResetConfig()
		t.Setenv("PANELGEN_IMAGES_DIR", "/env/images")

		cfg, err := LoadConfig(path, testFlags())
		require.NoError(t, err)
		assert.Equal(t, "/env/images", cfg.ImagesDir)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		errSubstr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:      "empty images dir",
			mutate:    func(c *Config) { c.ImagesDir = "" },
			errSubstr: "images_dir is required",
		},
		{
			name:      "inverted catalog",
			mutate:    func(c *Config) { c.Catalog.Min, c.Catalog.Max = 20, 10 },
			errSubstr: "catalog.min",
		},
		{
			name:      "inverted download range",
			mutate:    func(c *Config) { c.Download.From = 700 },
			errSubstr: "download.from",
		},
		{
			name:      "template without placeholder",
			mutate:    func(c *Config) { c.Download.URLTemplate = "https://example.com/tile.png" },
			errSubstr: "{number}",
		},
		{
			name:      "history without state path",
			mutate:    func(c *Config) { c.StatePath = "" },
			errSubstr: "state_path is required",
		},
		{
			name:   "no state path with history off",
			mutate: func(c *Config) { c.StatePath, c.RecordHistory = "", false },
		},
		{
			name:      "zero font size",
			mutate:    func(c *Config) { c.FontSize = 0 },
			errSubstr: "font_size",
		},
		{
			name:      "negative offset",
			mutate:    func(c *Config) { c.Grid.Offset = -1 },
			errSubstr: "grid.offset",
		},
		{
			name:      "bad colour",
			mutate:    func(c *Config) { c.Grid.FrameColor = "black" },
			errSubstr: "frame_color",
		},
		{
			name:      "unknown output",
			mutate:    func(c *Config) { c.OutputFormat = "yaml" },
			errSubstr: "unknown output format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestGridConfig_Color(t *testing.T) {
	c, err := GridConfig{FrameColor: "#102030"}.Color()
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}, c)

	c, err = GridConfig{FrameColor: "10203040"}.Color()
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0x40}, c)

	_, err = GridConfig{FrameColor: "#zzzzzz"}.Color()
	assert.Error(t, err)
}

func TestLoggerContext(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()), "missing logger falls back to discard")

	logger := testutil.NewTestLogger(t)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}

func TestConfigContext(t *testing.T) {
	ResetConfig()
	assert.Equal(t, Default(), FromContext(context.Background()))

	cfg := Default()
	cfg.ImagesDir = "elsewhere"
	ctx := WithConfig(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
