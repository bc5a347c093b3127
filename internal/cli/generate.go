package cli

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gork-labs/uniongen/internal/frontend"
	"github.com/gork-labs/uniongen/internal/generator"
	"github.com/gork-labs/uniongen/internal/pipeline"
)

func newGenerateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [package dirs...]",
		Short: "Generate union types once",
		Long: `Generate scans the given package directories for interfaces marked with
//union:generate, reads the configured YAML schemas, and writes one
<name>_union.go file per union.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.generate(cmd.Context(), args)
		},
	}
	addBuildFlags(cmd)
	return cmd
}

func (a *app) generate(ctx context.Context, args []string) error {
	feed, err := a.feed(args)
	if err != nil {
		return err
	}
	report, err := a.pipeline().Run(ctx, feed)
	if err != nil {
		return err
	}
	if err := report.Err(); err != nil {
		return errors.Wrapf(err, "%d of %d unions failed", len(report.Errors), len(report.Errors)+len(report.Emitted))
	}
	return nil
}

// inputs returns the package directories to scan: the arguments when
// given, the configured inputs otherwise.
func (a *app) inputs(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return a.cfg.Inputs
}

func (a *app) feed(args []string) (pipeline.Feed, error) {
	var feeds frontend.Multi
	if dirs := a.inputs(args); len(dirs) > 0 {
		feeds = append(feeds, &frontend.GoFeed{Dirs: dirs, Recursive: a.cfg.Recursive, Logger: a.log})
	}
	if len(a.cfg.Schemas) > 0 {
		feeds = append(feeds, &frontend.YAMLFeed{Paths: a.cfg.Schemas})
	}
	if len(feeds) == 0 {
		return nil, errors.WithHint(
			errors.New("nothing to generate"),
			"pass package directories, set inputs in .uniongen.yml, or use --schema")
	}
	return feeds, nil
}

func (a *app) emitter() *generator.Generator {
	var src generator.TemplateSource = generator.Embedded()
	if a.cfg.TemplatesDir != "" {
		src = generator.Fallback(generator.Dir(a.cfg.TemplatesDir), src)
	}
	return generator.New(src,
		generator.WithTemplate(a.cfg.Template),
		generator.WithRuntimeImport(a.cfg.RuntimeImport))
}

func (a *app) sink() pipeline.Sink {
	if a.cfg.DryRun {
		return &pipeline.WriterSink{W: a.stdout}
	}
	return &pipeline.FileSink{Dir: a.cfg.OutputDir, Logger: a.log}
}

func (a *app) pipeline() *pipeline.Pipeline {
	a.log.Debug("configuration",
		zap.Strings("inputs", a.cfg.Inputs),
		zap.Strings("schemas", a.cfg.Schemas),
		zap.Int("concurrency", a.cfg.Concurrency),
		zap.Bool("dry_run", a.cfg.DryRun))
	return pipeline.New(a.emitter(), a.sink(),
		pipeline.WithLogger(a.log),
		pipeline.WithConcurrency(a.cfg.Concurrency))
}
