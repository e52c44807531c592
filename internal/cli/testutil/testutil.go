// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/panelgen/internal/cli/config"
	"github.com/leapstack-labs/panelgen/internal/cli/output"
	basetest "github.com/leapstack-labs/panelgen/internal/testutil"
)

// Project tile geometry and catalog used by SetupTestProject.
const (
	TileSize   = 24
	CatalogMin = 10
	CatalogMax = 25
)

// CatalogIgnore is the ignore list of the test project catalog.
var CatalogIgnore = []int{12}

// NFHList is the content of the test project's blocks file. It mixes string
// and integer entries the way real lists do.
const NFHList = `{"nfh": ["10", "11", "13", "14", 15, 16, "17", "18", "19"]}`

// TestProject is a temporary workspace with block tiles and a config that
// points into it.
type TestProject struct {
	Dir    string
	Config *config.Config
}

// SetupTestProject creates tiles for every number from CatalogMin to
// CatalogMax, an owned-blocks list and a config rooted in a temp dir. The
// background is left empty so panels are drawn on a synthesized frame.
func SetupTestProject(t *testing.T) *TestProject {
	t.Helper()

	tmpDir := t.TempDir()
	imagesDir := filepath.Join(tmpDir, "images", "all")
	if err := os.MkdirAll(imagesDir, 0755); err != nil {
		t.Fatalf("failed to create directory %s: %v", imagesDir, err)
	}

	numbers := make([]int, 0, CatalogMax-CatalogMin+1)
	for n := CatalogMin; n <= CatalogMax; n++ {
		numbers = append(numbers, n)
	}
	basetest.WriteTiles(t, imagesDir, numbers, TileSize, TileSize)

	blocksFile := filepath.Join(tmpDir, "nfh_tiles.json")
	if err := os.WriteFile(blocksFile, []byte(NFHList), 0644); err != nil {
		t.Fatalf("failed to create blocks file: %v", err)
	}

	cfg := config.Default()
	cfg.ImagesDir = imagesDir
	cfg.Background = ""
	cfg.OutputDir = filepath.Join(tmpDir, "images", "generated")
	cfg.FontPath = ""
	cfg.BlocksFile = blocksFile
	cfg.StatePath = filepath.Join(tmpDir, ".panelgen", "state.db")
	cfg.Catalog = config.CatalogConfig{Min: CatalogMin, Max: CatalogMax, Ignore: CatalogIgnore}

	return &TestProject{Dir: tmpDir, Config: cfg}
}

// Execute runs cmd with args and the project config in its context. Output
// goes to buffers, so the auto output mode resolves to markdown.
func (p *TestProject) Execute(t *testing.T, cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	ctx := config.WithConfig(context.Background(), p.Config)
	ctx = config.WithLogger(ctx, basetest.NewTestLogger(t))

	err = cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererText creates a new test renderer in text mode (simulated TTY).
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks that headers have content.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	lines := strings.Split(md, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
