package cli

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gork-labs/uniongen/internal/watch"
)

func newWatchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [package dirs...]",
		Short: "Regenerate union types whenever their declarations change",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.watch(cmd.Context(), args)
		},
	}
	addBuildFlags(cmd)
	cmd.Flags().Duration("debounce", 0, "Quiet period before regenerating (default 200ms)")
	return cmd
}

func (a *app) watch(ctx context.Context, args []string) error {
	feed, err := a.feed(args)
	if err != nil {
		return err
	}

	w, err := watch.New(a.watchDirs(args), a.cfg.Recursive, a.cfg.Watch.Debounce, a.log)
	if err != nil {
		return err
	}

	// One pipeline for the whole session so unchanged declarations stay
	// cached between cycles.
	p := a.pipeline()
	a.log.Info("watching for changes")
	return w.Run(ctx, func(ctx context.Context) {
		report, err := p.Run(ctx, feed)
		if err != nil {
			if ctx.Err() == nil {
				a.log.Error("cycle failed", zap.Error(err))
			}
			return
		}
		if err := report.Err(); err != nil {
			a.log.Error("some unions failed", zap.Error(err))
		}
	})
}

// watchDirs lists the package directories plus the directories holding
// schema files and templates.
func (a *app) watchDirs(args []string) []string {
	seen := make(map[string]bool)
	add := func(dir string) {
		dir = filepath.Clean(dir)
		seen[dir] = true
	}
	for _, dir := range a.inputs(args) {
		add(dir)
	}
	for _, pattern := range a.cfg.Schemas {
		add(filepath.Dir(pattern))
	}
	if a.cfg.TemplatesDir != "" {
		add(a.cfg.TemplatesDir)
	}

	dirs := make([]string, 0, len(seen))
	for dir := range seen {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}
