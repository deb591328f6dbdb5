package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/livefir/replate"
	"github.com/livefir/replate/cmd/replate/internal/config"
	"github.com/livefir/replate/cmd/replate/internal/data"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// skipConfig marks commands that run without loading the config file.
const skipConfig = "skip-config"

// globalOptions are shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool

	config *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "replate",
		Short: "Structural HTML templates with ${...} markers",
		Long: `replate renders HTML templates that contain ${path} and
${path:filter:arg} markers.

A template is parsed once into a node tree. Renders only rewrite the text
nodes and attributes that contain markers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipConfig] != "" {
				return nil
			}
			return opts.loadConfig()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/replate/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log template builds to stderr")

	rootCmd.AddCommand(
		renderCmd(opts),
		inspectCmd(opts),
		serveCmd(opts),
		versionCmd(),
	)
	return rootCmd
}

func (o *globalOptions) loadConfig() error {
	var err error
	if o.configPath != "" {
		o.config, err = config.LoadFile(o.configPath)
	} else {
		o.config, err = config.LoadConfig()
	}
	return err
}

// templateFlags are the flags of commands that load a template.
type templateFlags struct {
	dataPath string
	fake     bool
	seed     uint64
	minify   bool
	context  string
}

func (f *templateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.dataPath, "data", "d", "", "JSON or YAML data file, - for stdin")
	cmd.Flags().BoolVar(&f.fake, "fake", false, "render generated sample data for every marker")
	cmd.Flags().Uint64Var(&f.seed, "seed", 1, "seed for --fake")
	cmd.Flags().BoolVar(&f.minify, "minify", false, "collapse whitespace before parsing")
	cmd.Flags().StringVar(&f.context, "context", "", "element the template is parsed inside of (default div)")
}

// loadTemplate reads the template at path and applies config values that
// were not overridden by flags.
func (o *globalOptions) loadTemplate(cmd *cobra.Command, path string, flags *templateFlags, extra ...replate.Option) (*replate.Template, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	minify := o.config.Minify
	if cmd.Flags().Changed("minify") {
		minify = flags.minify
	}
	contextTag := o.config.Context
	if flags.context != "" {
		contextTag = flags.context
	}

	opts := []replate.Option{
		replate.WithName(filepath.Base(path)),
		replate.WithMinify(minify),
		replate.WithLogger(o.logger(cmd.ErrOrStderr())),
	}
	if contextTag != "" {
		opts = append(opts, replate.WithContext(contextTag))
	}
	opts = append(opts, extra...)

	tmpl := replate.New(string(source), opts...)
	if err := tmpl.Build(); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// loadData resolves the data for tmpl: --data, then --fake, then the
// configured default data file.
func (o *globalOptions) loadData(tmpl *replate.Template, flags *templateFlags) (any, error) {
	switch {
	case flags.dataPath != "":
		return data.LoadFile(flags.dataPath)
	case flags.fake:
		return data.Sample(tmpl.Replacements().Units(), flags.seed), nil
	case o.config.DefaultData != "":
		return data.LoadFile(o.config.DefaultData)
	default:
		return nil, nil
	}
}

func (o *globalOptions) logger(w io.Writer) *slog.Logger {
	if !o.verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
