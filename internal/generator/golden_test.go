package generator_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/gork-labs/uniongen/internal/frontend"
	"github.com/gork-labs/uniongen/internal/generator"
	"github.com/gork-labs/uniongen/internal/pipeline"
	"github.com/gork-labs/uniongen/internal/schema"
)

// The committed example files must be what the embedded template renders
// today; rerun go generate in examples/ after changing the template.
func TestExamplesAreUpToDate(t *testing.T) {
	examples := filepath.Join("..", "..", "examples")
	tests := []struct {
		name string
		feed pipeline.Feed
		file string
	}{
		{
			name: "shapes",
			feed: &frontend.GoFeed{Dirs: []string{filepath.Join(examples, "shapes")}},
			file: filepath.Join(examples, "shapes", "shape_union.go"),
		},
		{
			name: "result",
			feed: &frontend.YAMLFeed{Paths: []string{filepath.Join(examples, "result", "result.yaml")}},
			file: filepath.Join(examples, "result", "result_union.go"),
		},
	}

	gen := generator.New(generator.Embedded())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decls, err := tt.feed.Declarations(context.Background())
			require.NoError(t, err)
			require.Len(t, decls, 1)

			s, ok := schema.Transform(decls[0])
			require.True(t, ok, "%v", schema.Validate(decls[0]))

			art, err := gen.Emit(s)
			require.NoError(t, err)
			require.Equal(t, filepath.Clean(tt.file), filepath.Clean(art.Path))

			want, err := os.ReadFile(tt.file)
			require.NoError(t, err)
			if diff := cmp.Diff(string(want), string(art.Source)); diff != "" {
				t.Errorf("%s is stale (-committed +rendered):\n%s", tt.file, diff)
			}
		})
	}
}
