package config

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/leapstack-labs/panelgen/internal/fetch"
)

// OutputModes lists the accepted values of the output key.
var OutputModes = []string{"auto", "text", "markdown", "json"}

// Validate checks if the configuration is valid. All problems are reported.
func (c *Config) Validate() error {
	var errs []error

	if c.ImagesDir == "" {
		errs = append(errs, errors.New("images_dir is required"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir is required"))
	}
	if c.RecordHistory && c.StatePath == "" {
		errs = append(errs, errors.New("state_path is required while record_history is enabled"))
	}
	if c.FontSize <= 0 {
		errs = append(errs, fmt.Errorf("font_size must be positive, got %v", c.FontSize))
	}
	if c.Catalog.Min > c.Catalog.Max {
		errs = append(errs, fmt.Errorf("catalog.min (%d) is greater than catalog.max (%d)", c.Catalog.Min, c.Catalog.Max))
	}
	if c.Download.From > c.Download.To {
		errs = append(errs, fmt.Errorf("download.from (%d) is greater than download.to (%d)", c.Download.From, c.Download.To))
	}
	if !strings.Contains(c.Download.URLTemplate, fetch.Placeholder) {
		errs = append(errs, fmt.Errorf("download.url_template must contain %s", fetch.Placeholder))
	}
	if c.Download.Timeout < 0 {
		errs = append(errs, errors.New("download.timeout must not be negative"))
	}
	if c.Grid.Offset < 0 {
		errs = append(errs, fmt.Errorf("grid.offset must not be negative, got %d", c.Grid.Offset))
	}
	if _, err := c.Grid.Color(); err != nil {
		errs = append(errs, err)
	}
	if !validOutputMode(c.OutputFormat) {
		errs = append(errs, fmt.Errorf("unknown output format %q (expected one of %s)",
			c.OutputFormat, strings.Join(OutputModes, ", ")))
	}

	return errors.Join(errs...)
}

func validOutputMode(mode string) bool {
	if mode == "" {
		return true
	}
	for _, m := range OutputModes {
		if m == mode {
			return true
		}
	}
	return false
}

// Color parses FrameColor, a #rrggbb or #rrggbbaa hex string.
func (g GridConfig) Color() (color.NRGBA, error) {
	s := strings.TrimPrefix(g.FrameColor, "#")
	if len(s) != 6 && len(s) != 8 {
		return color.NRGBA{}, fmt.Errorf("grid.frame_color %q is not a #rrggbb colour", g.FrameColor)
	}
	if len(s) == 6 {
		s += "ff"
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("grid.frame_color %q is not a #rrggbb colour", g.FrameColor)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
