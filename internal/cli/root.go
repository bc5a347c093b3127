// Package cli provides the union-gen command-line interface.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gork-labs/uniongen/internal/config"
	"github.com/gork-labs/uniongen/internal/logging"
)

// flagKeys maps flag names to config keys. Flags only override the config
// when they are set on the command line.
var flagKeys = map[string]string{
	"recursive":      "recursive",
	"schema":         "schemas",
	"output":         "output_dir",
	"templates":      "templates_dir",
	"template":       "template",
	"runtime-import": "runtime_import",
	"concurrency":    "concurrency",
	"dry-run":        "dry_run",
	"debounce":       "watch.debounce",
	"log-level":      "log.level",
	"log-format":     "log.format",
}

// app is the state shared by the subcommands of one invocation.
type app struct {
	v          *viper.Viper
	configPath string
	workDir    string

	cfg *config.Config
	log *zap.Logger

	stdout io.Writer
	stderr io.Writer
}

// Execute runs the command line with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{v: config.New()})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "union-gen",
		Short:        "Generate tagged union types for Go",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to config file (default .uniongen.yml in the working directory)")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("log-format", "", "Log format: auto, console or json")

	root.AddCommand(newGenerateCommand(a))
	root.AddCommand(newWatchCommand(a))
	root.AddCommand(newSchemaCommand(a))
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	a.stdout = cmd.OutOrStdout()
	a.stderr = cmd.ErrOrStderr()
	if a.workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return errors.Wrap(err, "working directory")
		}
		a.workDir = wd
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = a.v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return errors.Wrap(bindErr, "bind flags")
	}

	cfg, err := config.Load(a.v, a.configPath, a.workDir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: a.stderr})
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

// addBuildFlags registers the flags shared by generate and watch.
func addBuildFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolP("recursive", "r", false, "Scan package directories recursively")
	f.StringSlice("schema", nil, "YAML schema files or glob patterns")
	f.StringP("output", "o", "", "Write every generated file to this directory")
	f.String("templates", "", "Directory with template overrides")
	f.String("template", "", "Template name (default union.go.tmpl)")
	f.String("runtime-import", "", "Import path of the unions runtime package")
	f.Int("concurrency", 0, "Number of unions processed in parallel (default 8)")
	f.Bool("dry-run", false, "Print generated code instead of writing files")
}
