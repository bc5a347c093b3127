// Package pipeline drives declarations through transform, aggregation and
// emission once per build cycle, reusing transform results between cycles.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gork-labs/uniongen/internal/generator"
	"github.com/gork-labs/uniongen/internal/schema"
)

// Feed supplies the declarations of one build cycle.
type Feed interface {
	Declarations(ctx context.Context) ([]schema.Declaration, error)
}

// FeedFunc adapts a function to Feed.
type FeedFunc func(ctx context.Context) ([]schema.Declaration, error)

func (f FeedFunc) Declarations(ctx context.Context) ([]schema.Declaration, error) {
	return f(ctx)
}

// Emitter renders one resolved schema.
type Emitter interface {
	Emit(s schema.UnionSchema) (generator.Artifact, error)
}

// Filter decides cheaply whether a declaration is worth transforming.
type Filter func(decl schema.Declaration) bool

// TransformFunc turns a declaration into a resolved schema, or reports
// that it has none.
type TransformFunc func(decl schema.Declaration) (schema.UnionSchema, bool)

// DefaultFilter accepts declarations that name a union and list a case.
func DefaultFilter(decl schema.Declaration) bool {
	return decl.Name != "" && len(decl.Cases) > 0
}

// Pipeline runs build cycles. Run may be called repeatedly; calls must not
// overlap.
type Pipeline struct {
	emitter     Emitter
	sink        Sink
	cache       *Cache
	log         *zap.Logger
	concurrency int
	filter      Filter
	transform   TransformFunc
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger; the default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithConcurrency bounds the number of declarations transformed or
// rendered at once. Values below one leave the default in place.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithFilter replaces DefaultFilter.
func WithFilter(f Filter) Option {
	return func(p *Pipeline) { p.filter = f }
}

// WithTransform replaces schema.Transform.
func WithTransform(fn TransformFunc) Option {
	return func(p *Pipeline) { p.transform = fn }
}

// WithCache shares a cache between pipelines.
func WithCache(c *Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// New creates a pipeline emitting through emitter into sink.
func New(emitter Emitter, sink Sink, opts ...Option) *Pipeline {
	p := &Pipeline{
		emitter:     emitter,
		sink:        sink,
		cache:       NewCache(),
		log:         zap.NewNop(),
		concurrency: 8,
		filter:      DefaultFilter,
		transform:   schema.Transform,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Cache exposes the transform cache.
func (p *Pipeline) Cache() *Cache {
	return p.cache
}

// Skip records a schema left out of emission.
type Skip struct {
	Key    string
	Reason string
}

// Report summarizes one cycle.
type Report struct {
	Cycle        string
	Declarations int
	Candidates   int
	Invalid      int
	CacheHits    int
	Emitted      []string
	Skipped      []Skip
	// Errors holds one error per schema that failed to render or deliver.
	Errors   []error
	Duration time.Duration
}

// Err combines the per-schema errors.
func (r *Report) Err() error {
	return multierr.Combine(r.Errors...)
}

// Run executes one build cycle. It returns an error when the feed fails or
// ctx is cancelled. A cycle cancelled before aggregation leaves the cache
// as the last completed cycle left it; once aggregation has passed, the
// cycle's transforms are committed even if rendering is then cancelled.
// Nothing is delivered when cancellation is seen before delivery starts,
// and delivery stops at the first artifact that finds ctx done. Failures
// of individual schemas are collected in the report instead.
func (p *Pipeline) Run(ctx context.Context, feed Feed) (*Report, error) {
	start := time.Now()
	report := &Report{Cycle: uuid.NewString()}
	log := p.log.With(zap.String("cycle", report.Cycle))

	decls, err := feed.Declarations(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read declarations")
	}
	report.Declarations = len(decls)

	// filter
	candidates := make([]schema.Declaration, 0, len(decls))
	for _, decl := range decls {
		if p.filter(decl) {
			candidates = append(candidates, decl)
		}
	}
	report.Candidates = len(candidates)
	if err := ctx.Err(); err != nil {
		return nil, cancelled(log, err, "filter")
	}

	// transform
	results, hits, err := p.transformAll(ctx, candidates)
	if err != nil {
		return nil, cancelled(log, err, "transform")
	}
	report.CacheHits = hits

	// aggregate
	schemas, skipped, invalid := aggregate(results)
	report.Skipped = skipped
	report.Invalid = invalid
	for _, s := range skipped {
		log.Warn("skipping union", zap.String("key", s.Key), zap.String("reason", s.Reason))
	}
	for _, e := range results {
		if !e.ok {
			log.Debug("invalid union declaration",
				zap.String("id", e.decl.ID),
				zap.NamedError("reason", schema.Validate(e.decl)))
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, cancelled(log, err, "aggregate")
	}

	staged := make(map[string]entry, len(results))
	for _, e := range results {
		staged[e.decl.ID] = e
	}
	p.cache.commit(staged)

	// produce
	artifacts, renderErrs := p.render(schemas)
	if err := ctx.Err(); err != nil {
		return nil, cancelled(log, err, "produce")
	}
	for i, art := range artifacts {
		if err := ctx.Err(); err != nil {
			return nil, cancelled(log, err, "delivery")
		}
		if renderErrs[i] != nil {
			log.Error("render failed", zap.String("key", schemas[i].UniqueKey), zap.Error(renderErrs[i]))
			report.Errors = append(report.Errors, renderErrs[i])
			continue
		}
		if err := p.sink.Deliver(ctx, art); err != nil {
			log.Error("delivery failed", zap.String("key", art.Key), zap.Error(err))
			report.Errors = append(report.Errors, errors.Wrapf(err, "deliver %s", art.Key))
			continue
		}
		report.Emitted = append(report.Emitted, art.Key)
	}

	report.Duration = time.Since(start)
	log.Info("cycle complete",
		zap.Int("declarations", report.Declarations),
		zap.Int("candidates", report.Candidates),
		zap.Int("cache_hits", report.CacheHits),
		zap.Int("invalid", report.Invalid),
		zap.Int("emitted", len(report.Emitted)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("errors", len(report.Errors)),
		zap.Duration("duration", report.Duration))
	return report, nil
}

func cancelled(log *zap.Logger, err error, stage string) error {
	log.Debug("cycle cancelled", zap.String("stage", stage))
	return errors.Wrapf(err, "cycle cancelled during %s", stage)
}

// transformAll runs the transform of every candidate, in parallel, and
// returns the entries in candidate order.
func (p *Pipeline) transformAll(ctx context.Context, candidates []schema.Declaration) ([]entry, int, error) {
	results := make([]entry, len(candidates))
	hit := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, decl := range candidates {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if e, ok := p.cache.lookup(decl); ok {
				p.log.Debug("cache hit", zap.String("id", decl.ID))
				results[i], hit[i] = e, true
				return nil
			}
			results[i] = p.cache.compute(decl, p.transform)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	hits := 0
	for _, h := range hit {
		if h {
			hits++
		}
	}
	return results, hits, nil
}

// aggregate keeps the valid schemas in feed order, dropping any whose
// emission key, output file or package-level names were already claimed by
// an earlier schema.
func aggregate(results []entry) ([]schema.UnionSchema, []Skip, int) {
	var (
		out     []schema.UnionSchema
		skipped []Skip
		invalid int
	)
	keys := make(map[string]bool)
	paths := make(map[string]string)
	// names maps a package to the identifiers claimed in it and their owner.
	names := make(map[string]map[string]string)

	for _, e := range results {
		if !e.ok {
			invalid++
			continue
		}
		s := e.schema
		if keys[s.UniqueKey] {
			skipped = append(skipped, Skip{Key: s.UniqueKey, Reason: "duplicate emission key"})
			continue
		}

		path := filepath.Join(s.OutputDir, s.FileName)
		if owner, ok := paths[path]; ok {
			skipped = append(skipped, Skip{Key: s.UniqueKey, Reason: "output file " + path + " already written by " + owner})
			continue
		}

		pkg := s.OutputDir + "|" + s.Package()
		claimed := names[pkg]
		if claimed == nil {
			claimed = make(map[string]string)
			names[pkg] = claimed
		}
		conflict := ""
		for _, name := range s.PackageNames() {
			if owner, ok := claimed[name]; ok {
				conflict = "identifier " + name + " already declared by " + owner
				break
			}
		}
		if conflict != "" {
			skipped = append(skipped, Skip{Key: s.UniqueKey, Reason: conflict})
			continue
		}

		keys[s.UniqueKey] = true
		paths[path] = s.UniqueKey
		for _, name := range s.PackageNames() {
			claimed[name] = s.UniqueKey
		}
		out = append(out, s)
	}
	return out, skipped, invalid
}

// render emits every schema in parallel. A failure only affects its own
// schema.
func (p *Pipeline) render(schemas []schema.UnionSchema) ([]generator.Artifact, []error) {
	artifacts := make([]generator.Artifact, len(schemas))
	errs := make([]error, len(schemas))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, s := range schemas {
		g.Go(func() error {
			artifacts[i], errs[i] = p.emitter.Emit(s)
			return nil
		})
	}
	_ = g.Wait()
	return artifacts, errs
}
