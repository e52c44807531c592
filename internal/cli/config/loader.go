package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store the logger in a context.
type loggerKey struct{}

// configKey is used to store the loaded config in a context.
type configKey struct{}

// Package-level config file tracking
var (
	configFileUsed string
	currentConfig  *Config
)

// pathKeys are config keys holding filesystem paths.
var pathKeys = []string{"images_dir", "background", "output_dir", "font_path", "blocks_file", "state_path"}

// flagKeys maps flag names that differ from their config key.
var flagKeys = map[string]string{
	"font":  "font_path",
	"state": "state_path",
}

// legacyEnvVars are the variables older scripts used for the images directory.
var legacyEnvVars = map[string]string{
	"IMAGES_PATH": "images_dir",
	"IMAGE_PATH":  "images_dir",
}

// findConfigFile returns the config file to use, or "" when there is none.
// Priority: explicit path > panelgen.yaml > panelgen.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range ConfigFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// defaultsMap flattens Default() into koanf keys.
func defaultsMap() map[string]interface{} {
	d := Default()
	return map[string]interface{}{
		"images_dir":            d.ImagesDir,
		"background":            d.Background,
		"output_dir":            d.OutputDir,
		"font_path":             d.FontPath,
		"font_size":             d.FontSize,
		"blocks_file":           d.BlocksFile,
		"state_path":            d.StatePath,
		"record_history":        d.RecordHistory,
		"verbose":               false,
		"output":                d.OutputFormat,
		"catalog.min":           d.Catalog.Min,
		"catalog.max":           d.Catalog.Max,
		"catalog.ignore":        d.Catalog.Ignore,
		"download.url_template": d.Download.URLTemplate,
		"download.from":         d.Download.From,
		"download.to":           d.Download.To,
		"download.timeout":      d.Download.Timeout.String(),
		"download.user_agent":   d.Download.UserAgent,
		"grid.offset":           d.Grid.Offset,
		"grid.frame_color":      d.Grid.FrameColor,
	}
}

// DefaultValues returns the built-in defaults keyed by config path.
func DefaultValues() map[string]interface{} {
	return defaultsMap()
}

// envKey transforms PANELGEN_DOWNLOAD__TIMEOUT into download.timeout.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// LoadConfig loads configuration from defaults, the config file, environment
// variables and flags. Precedence (highest to lowest):
// flags > PANELGEN_ env vars > legacy env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// Paths given as flags are relative to the working directory, not to the
	// config file, so capture them before anything else.
	flagPaths := map[string]string{}
	if flags != nil {
		flags.Visit(func(f *pflag.Flag) {
			key := FlagKey(f.Name)
			if isPathKey(key) && f.Value.String() != "" {
				if abs, err := filepath.Abs(f.Value.String()); err == nil {
					flagPaths[key] = abs
				}
			}
		})
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaultsMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFileUsed = findConfigFile(cfgFile)
	baseDir := ""
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
		if abs, err := filepath.Abs(configFileUsed); err == nil {
			baseDir = filepath.Dir(abs)
		}
	}

	// 3. Legacy environment variables (IMAGES_PATH, IMAGE_PATH)
	if err := k.Load(env.ProviderWithValue("IMAGE", ".", func(key, value string) (string, interface{}) {
		mapped, ok := legacyEnvVars[key]
		if !ok || value == "" {
			return "", nil
		}
		return mapped, value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. PANELGEN_ environment variables
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Flags (only those explicitly set)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return FlagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 6. Unmarshal
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 7. Resolve paths
	cfg.BaseDir = baseDir
	for _, key := range pathKeys {
		field := cfg.pathField(key)
		if abs, ok := flagPaths[key]; ok {
			*field = abs
			continue
		}
		*field = resolvePathRelativeTo(*field, baseDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	currentConfig = &cfg
	return &cfg, nil
}

func (c *Config) pathField(key string) *string {
	switch key {
	case "images_dir":
		return &c.ImagesDir
	case "background":
		return &c.Background
	case "output_dir":
		return &c.OutputDir
	case "font_path":
		return &c.FontPath
	case "blocks_file":
		return &c.BlocksFile
	case "state_path":
		return &c.StatePath
	}
	panic("unknown path key " + key)
}

// FlagKey returns the config key a global flag sets.
func FlagKey(name string) string {
	if key, ok := flagKeys[name]; ok {
		return key
	}
	return strings.ReplaceAll(name, "-", "_")
}

func isPathKey(key string) bool {
	for _, k := range pathKeys {
		if k == key {
			return true
		}
	}
	return false
}

// resolvePathRelativeTo makes a relative path absolute against baseDir.
// Empty paths and an empty baseDir leave the path unchanged.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the most recently loaded configuration.
func GetCurrentConfig() *Config {
	return currentConfig
}

// ResetConfig clears the package-level state. Tests use it between loads.
func ResetConfig() {
	configFileUsed = ""
	currentConfig = nil
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from ctx, or a discard logger.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return slog.New(slog.DiscardHandler)
}

// WithConfig stores cfg in ctx.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the config stored in ctx. It falls back to the most
// recently loaded config, then to the defaults.
func FromContext(ctx context.Context) *Config {
	if ctx != nil {
		if c, ok := ctx.Value(configKey{}).(*Config); ok {
			return c
		}
	}
	if currentConfig != nil {
		return currentConfig
	}
	return Default()
}
