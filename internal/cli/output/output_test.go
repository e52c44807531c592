package output

import (
	"bytes"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func newTestRenderer(mode OutputMode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestMode(t *testing.T) {
	assert.Equal(t, ModeText, Mode("text"))
	assert.Equal(t, ModeMarkdown, Mode("markdown"))
	assert.Equal(t, ModeMarkdown, Mode("MD"))
	assert.Equal(t, ModeJSON, Mode("json"))
	assert.Equal(t, ModeAuto, Mode(""))
	assert.Equal(t, ModeAuto, Mode("bogus"))
}

func TestRenderer_EffectiveMode(t *testing.T) {
	r, _, _ := newTestRenderer(ModeAuto, true)
	assert.Equal(t, ModeText, r.EffectiveMode())

	r, _, _ = newTestRenderer(ModeAuto, false)
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())

	r, _, _ = newTestRenderer(ModeJSON, true)
	assert.Equal(t, ModeJSON, r.EffectiveMode())
}

func TestRenderer_Markdown(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeMarkdown, false)

	r.Header(2, "Blocks")
	r.StatusLine("600", "downloaded", "1.2 kB")
	r.StatusLine("601", "failed", "")
	r.KeyValue("Total", "2")
	r.Warning("careful")

	got := out.String()
	assert.Contains(t, got, "## Blocks")
	assert.Contains(t, got, "- **600**: Downloaded (1.2 kB)")
	assert.Contains(t, got, "- **601**: Failed\n")
	assert.Contains(t, got, "**Total:** 2")
	assert.Contains(t, errOut.String(), "careful")
	assert.False(t, ansiPattern.MatchString(got+errOut.String()), "markdown must not contain ANSI codes")
}

func TestRenderer_Table(t *testing.T) {
	r, out, _ := newTestRenderer(ModeMarkdown, false)
	r.Table([]string{"Block", "Status"}, [][]string{{"600", "ok"}, {"601", "failed"}})

	got := out.String()
	assert.Contains(t, got, "| Block | Status |")
	assert.Contains(t, got, "| 601 | failed |")

	r, out, _ = newTestRenderer(ModeText, false)
	r.Table([]string{"Block"}, [][]string{{"600"}})
	assert.Contains(t, out.String(), "600")
	assert.Contains(t, out.String(), "┌")
}

func TestRenderer_JSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON, false)
	require.NoError(t, r.JSON(map[string]int{"count": 3}))

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, 3, decoded["count"])
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "# Title", FormatHeader(1, "Title"))
	assert.Equal(t, "### Sub", FormatHeader(3, "Sub"))
	assert.Equal(t, "# Zero", FormatHeader(0, "Zero"))
	assert.Equal(t, "**Key:** value", FormatKeyValue("Key", "value"))
}
