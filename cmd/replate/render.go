package main

import (
	"bytes"
	"fmt"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

func renderCmd(opts *globalOptions) *cobra.Command {
	var (
		flags   templateFlags
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Render a template with data",
		Long: `Render a template once and print the HTML.

Data comes from --data, from --fake sample values, or from default_data
in the config file. With --out the result replaces the file atomically.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := opts.loadTemplate(cmd, args[0], &flags)
			if err != nil {
				return err
			}
			doc, err := opts.loadData(tmpl, &flags)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := tmpl.RenderTo(&buf, doc); err != nil {
				return err
			}

			if outPath == "" {
				buf.WriteByte('\n')
				_, err := buf.WriteTo(cmd.OutOrStdout())
				return err
			}
			if err := atomic.WriteFile(outPath, &buf); err != nil {
				return fmt.Errorf("failed to write %s: %w", outPath, err)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the result to a file instead of stdout")
	return cmd
}
