package cli

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gork-labs/uniongen/internal/schema"
)

func newSchemaCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "schema [package dirs...]",
		Short: "Print the resolved schemas without generating code",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dumpSchemas(cmd.Context(), args, format)
		},
	}
	cmd.Flags().BoolP("recursive", "r", false, "Scan package directories recursively")
	cmd.Flags().StringSlice("schema", nil, "YAML schema files or glob patterns")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or yaml")
	return cmd
}

func (a *app) dumpSchemas(ctx context.Context, args []string, format string) error {
	if format != "json" && format != "yaml" {
		return errors.Newf("unknown format %q", format)
	}

	feed, err := a.feed(args)
	if err != nil {
		return err
	}
	decls, err := feed.Declarations(ctx)
	if err != nil {
		return err
	}

	schemas := make([]schema.UnionSchema, 0, len(decls))
	for _, decl := range decls {
		s, ok := schema.Transform(decl)
		if !ok {
			a.log.Warn("invalid union declaration",
				zap.String("id", decl.ID),
				zap.NamedError("reason", schema.Validate(decl)))
			continue
		}
		schemas = append(schemas, s)
	}

	switch format {
	case "yaml":
		enc := yaml.NewEncoder(a.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(schemas); err != nil {
			return errors.Wrap(err, "encode yaml")
		}
		return enc.Close()
	default:
		data, err := json.MarshalIndent(schemas, "", "  ")
		if err != nil {
			return errors.Wrap(err, "encode json")
		}
		_, err = a.stdout.Write(append(data, '\n'))
		return err
	}
}
