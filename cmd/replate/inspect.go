package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/livefir/replate"
	"github.com/livefir/replate/internal/dom"
	"github.com/livefir/replate/internal/replace"
)

var (
	indexStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	tagStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	attrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	markerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

func inspectCmd(opts *globalOptions) *cobra.Command {
	var (
		flags  templateFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "inspect <template>",
		Short: "Show where a template's markers are",
		Long: `Print the replacement tree of a template: the positions of the
text nodes and attributes that are rewritten on every render.

--format json prints the tree keyed by child index, attribute name and
textContent. --format tree prints an annotated outline.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := opts.loadTemplate(cmd, args[0], &flags)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				return writeTreeJSON(out, tmpl)
			case "tree":
				writeTreeOutline(out, tmpl)
				return nil
			default:
				return fmt.Errorf("unknown format %q (want json or tree)", format)
			}
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "tree", "output format: json or tree")
	return cmd
}

func writeTreeJSON(w io.Writer, tmpl *replate.Template) error {
	encoded, err := json.MarshalIndent(struct {
		Template string        `json:"template"`
		Stats    replace.Stats `json:"stats"`
		Tree     *replate.Tree `json:"tree"`
	}{
		Template: tmpl.Name(),
		Stats:    tmpl.Replacements().Stats(),
		Tree:     tmpl.Replacements(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tree: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", encoded)
	return err
}

func writeTreeOutline(w io.Writer, tmpl *replate.Template) {
	tree := tmpl.Replacements()
	stats := tree.Stats()

	fmt.Fprintln(w, headerStyle.Render(tmpl.Name()))
	fmt.Fprintf(w, "%d dynamic text nodes, %d dynamic attributes, %d markers\n",
		stats.Texts, stats.Attributes, stats.Markers)

	if tree == nil {
		return
	}
	for _, c := range tree.Children {
		writeOutlineNode(w, tmpl.Document().Child(c.Index), c.Index, c.Tree, 1)
	}
}

func writeOutlineNode(w io.Writer, n *dom.Node, index int, tree *replace.Tree, depth int) {
	indent := strings.Repeat("  ", depth)
	label := "#text"
	if n != nil && n.IsElement() {
		label = "<" + n.Data + ">"
	}

	line := indexStyle.Render(strconv.Itoa(index)) + " " + tagStyle.Render(label)
	if tree.Text != nil {
		line += " " + markerStyle.Render(tree.Text.String())
	}
	fmt.Fprintln(w, indent+line)

	for _, a := range tree.Attrs {
		fmt.Fprintln(w, indent+"  "+attrStyle.Render("@"+a.Name)+" "+markerStyle.Render(a.Fragment.String()))
	}
	for _, c := range tree.Children {
		var child *dom.Node
		if n != nil {
			child = n.Child(c.Index)
		}
		writeOutlineNode(w, child, c.Index, c.Tree, depth+1)
	}
}
