package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/panelgen/internal/cli/config"
)

// configKeyDocs describes every configuration key.
var configKeyDocs = map[string]string{
	"images_dir":            "Directory holding the block images as <number>.png",
	"background":            "Frame image the tiles are pasted on. Empty draws a plain frame in grid.frame_color",
	"output_dir":            "Directory saved panels are written to",
	"font_path":             "TrueType font for the block number labels. A missing file selects the built-in face",
	"font_size":             "Label font size in pixels",
	"blocks_file":           "JSON or YAML file with the owned blocks under the nfh key",
	"state_path":            "SQLite database recording panels and downloads",
	"record_history":        "Record panels and downloads in the history database",
	"verbose":               "Log debug information to stderr",
	"output":                "Output format: auto, text, markdown or json",
	"catalog.min":           "Lowest valid block number",
	"catalog.max":           "Highest valid block number",
	"catalog.ignore":        "Block numbers inside the range that cannot be used",
	"download.url_template": "Block image URL. {number} is replaced by the block number",
	"download.from":         "First block of the default download range",
	"download.to":           "Last block of the default download range, inclusive",
	"download.timeout":      "Timeout of a single block request",
	"download.user_agent":   "User-Agent header sent with requests",
	"grid.offset":           "Distance in pixels between the frame edge and the tiles",
	"grid.frame_color":      "Colour of a synthesized frame, #rrggbb or #rrggbbaa",
}

// generateConfigDocs writes the configuration reference page.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "Configuration reference for panelgen")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph(fmt.Sprintf("panelgen reads %s from the working directory, or the file given with %s. "+
		"Relative paths are resolved against the directory of the config file.",
		InlineCode(config.ConfigFileNames[0]), InlineCode("--config")))

	w.Header(2, "Precedence")
	w.BulletList([]string{
		"Command-line flags",
		InlineCode(config.EnvPrefix+"*") + " environment variables",
		InlineCode("IMAGES_PATH") + " / " + InlineCode("IMAGE_PATH"),
		"Config file",
		"Built-in defaults",
	})

	w.Header(2, "Keys")
	w.Table([]string{"Key", "Environment", "Default", "Description"}, configRows())

	w.Header(2, "Example")
	w.CodeBlock("yaml", `images_dir: images/all
output_dir: images/generated
catalog:
  min: 10
  max: 612
  ignore: [110, 111, 112, 412]
download:
  timeout: 10s`)

	return os.WriteFile(filepath.Join(outDir, "index.md"), w.Bytes(), 0600)
}

func configRows() [][]string {
	defaults := config.DefaultValues()

	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{
			InlineCode(key),
			InlineCode(envName(key)),
			formatDefault(defaults[key]),
			cleanDescription(configKeyDocs[key]),
		})
	}
	return rows
}

// envName is the inverse of the loader's env key mapping.
func envName(key string) string {
	return config.EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "__"))
}

func formatDefault(v interface{}) string {
	s := fmt.Sprint(v)
	if s == "" {
		return ""
	}
	return InlineCode(s)
}
