package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/panelgen/internal/blocks"
	"github.com/leapstack-labs/panelgen/internal/cli"
	"github.com/leapstack-labs/panelgen/internal/cli/commands"
	"github.com/leapstack-labs/panelgen/internal/cli/config"
)

// configRef is where generateConfigDocs puts the configuration reference.
const configRef = "/config"

// generateCLIDocs writes an overview page and one page per command.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()
	pages := documentedCommands(root)

	if err := writePage(outDir, "index", cliIndex(root, pages)); err != nil {
		return err
	}
	for _, cmd := range pages {
		if err := writePage(outDir, cmd.Name(), commandPage(cmd)); err != nil {
			return err
		}
	}
	return nil
}

func writePage(outDir, name string, w *MarkdownWriter) error {
	path := filepath.Join(outDir, name+".md")
	if err := os.WriteFile(path, w.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Printf("  Generated %s.md", name)
	return nil
}

func documentedCommands(root *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	for _, cmd := range root.Commands() {
		if cmd.Hidden || cmd.Name() == "help" || cmd.Name() == "__complete" {
			continue
		}
		out = append(out, cmd)
	}
	return out
}

// cliIndex describes the workflow and the rules generate applies to block
// numbers, taken from the default catalog.
func cliIndex(root *cobra.Command, pages []*cobra.Command) *MarkdownWriter {
	catalog := config.Default().CatalogValue()
	w := NewMarkdownWriter()

	w.Frontmatter("CLI Reference", "Command-line interface reference for panelgen")
	w.GeneratedMarker()
	w.Header(1, "CLI Reference")
	w.Paragraph(root.Long)

	rows := make([][]string, 0, len(pages))
	for _, cmd := range pages {
		link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
		rows = append(rows, []string{link, cleanDescription(cmd.Short)})
	}
	w.Header(2, "Commands")
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Workflow")
	w.CodeBlock("bash", `panelgen download --only-nfh --skip-existing
panelgen generate --only-nfh --samples 3 --save`)

	w.Header(2, "Choosing Blocks")
	w.Paragraph(fmt.Sprintf("%s picks %d blocks at random from one source:", InlineCode("generate"), blocks.GridSize))
	w.BulletList([]string{
		InlineCode("--from-numbers a,b,...") + ": the given numbers, comma separated. Spaces around a number are ignored and a repeated number may appear twice in a panel",
		InlineCode("--only-nfh") + ": the " + InlineCode("nfh") + " list of the blocks file",
		fmt.Sprintf("otherwise the catalog: %d to %d without %s", catalog.Min, catalog.Max, InlineCode(ignoreList(catalog.Ignore))),
	})
	w.Paragraph(fmt.Sprintf("The source must hold at least %d entries and every entry must be an integer inside the "+
		"catalog range that is not ignored. The first entry that fails is reported and nothing is drawn. "+
		"The range and the ignore list come from the %s keys of the [configuration](%s).",
		blocks.GridSize, InlineCode("catalog.*"), configRef))

	w.Header(2, "Samples")
	w.Paragraph(fmt.Sprintf("%s builds that many panels from the same source, each one a fresh draw. "+
		"Every panel is shown unless %s is given; %s writes %s. "+
		"A value of zero or less is refused with exit code %d. %s makes the draws repeatable.",
		InlineCode("--samples N"), InlineCode("--dont-show"), InlineCode("--save"),
		InlineCode("<output_dir>/<a-b-...>.png"), commands.ExitNonsense, InlineCode("--seed")))

	w.Header(2, "Exit Codes")
	w.Table([]string{"Code", "Meaning"}, [][]string{
		{InlineCode("0"), "Success"},
		{InlineCode(strconv.Itoa(commands.ExitFailure)), "Invalid block numbers, configuration or I/O error"},
		{InlineCode(strconv.Itoa(commands.ExitNonsense)), "--samples is zero or negative"},
	})

	w.Header(2, "Global Options")
	w.Paragraph(fmt.Sprintf("Each global option overrides a key of the [configuration](%s).", configRef))
	writeFlags(w, root.PersistentFlags(), true)

	return w
}

// commandPage documents one command.
func commandPage(cmd *cobra.Command) *MarkdownWriter {
	w := NewMarkdownWriter()

	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()
	w.Header(1, cmd.Name())
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	w.Header(2, "Usage")
	w.CodeBlock("bash", cmd.UseLine())

	if cmd.HasLocalFlags() {
		w.Header(2, "Options")
		writeFlags(w, cmd.LocalFlags(), false)
	}

	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", dedent(cmd.Example))
	}

	if cmd.HasInheritedFlags() {
		w.Header(2, "See Also")
		w.BulletList([]string{
			"[Global options](/cli#global-options)",
			fmt.Sprintf("[Configuration](%s)", configRef),
		})
	}
	return w
}

// writeFlags writes a flag table. Global flags get a column naming the config
// key they override.
func writeFlags(w *MarkdownWriter, flags *pflag.FlagSet, global bool) {
	headers := []string{"Option", "Default", "Description"}
	if global {
		headers = append(headers, "Config Key")
	}

	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" {
			return
		}
		option := InlineCode("--" + f.Name)
		if f.Shorthand != "" {
			option = InlineCode("-"+f.Shorthand) + ", " + option
		}
		def := ""
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
			def = InlineCode(f.DefValue)
		}
		row := []string{option, def, cleanDescription(f.Usage)}
		if global {
			key := ""
			if f.Name != "config" {
				key = fmt.Sprintf("[%s](%s#keys)", InlineCode(config.FlagKey(f.Name)), configRef)
			}
			row = append(row, key)
		}
		rows = append(rows, row)
	})

	w.Table(headers, rows)
}

// dedent strips the two-space indent cobra examples are written with.
func dedent(example string) string {
	lines := strings.Split(example, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, "  ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func ignoreList(ignore []int) string {
	parts := make([]string, len(ignore))
	for i, n := range ignore {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
