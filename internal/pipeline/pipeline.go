// Package pipeline wires loading, extraction, validation and routing into a
// single Process call and renders the resulting ClaimResult.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/claimflow/internal/cache"
	"github.com/ppiankov/claimflow/internal/extract"
	"github.com/ppiankov/claimflow/internal/metrics"
	"github.com/ppiankov/claimflow/internal/model"
	"github.com/ppiankov/claimflow/internal/route"
	"github.com/ppiankov/claimflow/internal/source"
	"github.com/ppiankov/claimflow/internal/store"
	"github.com/ppiankov/claimflow/internal/validate"
)

// Pipeline orchestrates processing of one document at a time
type Pipeline struct {
	loader    *source.Loader
	extractor *extract.Extractor
	validator *validate.Validator
	router    *route.Router
	backend   cache.Cache
	cacheTTL  time.Duration
	records   *cache.RecordCache
	store     *store.Store
	metrics   *metrics.Recorder
	logger    *zap.Logger
	progress  io.Writer
	now       func() time.Time
	newID     func() string
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithCache enables the extraction cache on backend
func WithCache(backend cache.Cache, ttl time.Duration) Option {
	return func(p *Pipeline) {
		p.backend = backend
		p.cacheTTL = ttl
	}
}

// WithStore saves every result to s
func WithStore(s *store.Store) Option {
	return func(p *Pipeline) { p.store = s }
}

// WithMetrics records every result on m
func WithMetrics(m *metrics.Recorder) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithProgress writes step-by-step progress lines to w
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) { p.progress = w }
}

// WithLoader replaces the document loader
func WithLoader(l *source.Loader) Option {
	return func(p *Pipeline) { p.loader = l }
}

// WithExtractor replaces the default rule table
func WithExtractor(e *extract.Extractor) Option {
	return func(p *Pipeline) { p.extractor = e }
}

// WithClock sets the time source for timestamps, durations and the model-year bound
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithIDFunc sets the result id generator
func WithIDFunc(f func() string) Option {
	return func(p *Pipeline) { p.newID = f }
}

// New creates a pipeline from cfg. Cached records are scoped to the
// extractor's rule fingerprint.
func New(cfg *model.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor: extract.Default(),
		router:    route.New(cfg.Routing.FastTrackThreshold),
		logger:    zap.NewNop(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.loader == nil {
		p.loader = source.NewLoader(cfg.Source, p.logger)
	}
	if p.backend != nil {
		p.records = cache.NewRecordCache(p.backend, p.extractor.Version(), p.cacheTTL)
	}
	p.validator = validate.New(cfg.Validation, validate.WithClock(p.now))
	return p
}

// Process loads ref and processes its text
func (p *Pipeline) Process(ctx context.Context, ref string) (*model.ClaimResult, error) {
	p.step("Loading document: %s", ref)
	doc, err := p.loader.Load(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", ref, err)
	}
	p.logger.Debug("document loaded",
		zap.String("source", doc.Name),
		zap.String("content_type", doc.ContentType),
		zap.Int("bytes", len(doc.Text)),
		zap.Bool("truncated", doc.Truncated))

	return p.ProcessText(ctx, doc.Name, doc.Text)
}

// ProcessText extracts, validates and routes text. name labels the result.
func (p *Pipeline) ProcessText(ctx context.Context, name, text string) (*model.ClaimResult, error) {
	start := p.now()

	p.step("Extracting fields")
	rec := p.extract(text)

	p.step("Validating claim")
	missing := p.validator.Mandatory(rec)
	issues := p.validator.Consistency(rec)
	if len(missing) > 0 {
		p.step("  Missing fields: %s", strings.Join(missing, ", "))
	}
	for _, issue := range issues {
		p.step("  Inconsistency: %s", issue)
	}

	p.step("Routing claim")
	decision := p.router.Route(rec, missing)
	p.step("  Route: %s", decision.Route)

	res := &model.ClaimResult{
		ID:               p.newID(),
		Source:           name,
		ProcessedAt:      start.UTC(),
		ExtractedFields:  rec,
		MissingFields:    missing,
		Inconsistencies:  issues,
		RecommendedRoute: decision.Route,
		Reasoning:        decision.Reasoning,
		Priority:         decision.Priority,
	}

	if p.store != nil {
		if err := p.store.Save(ctx, res, cache.ContentHash(text)); err != nil {
			return nil, fmt.Errorf("store result: %w", err)
		}
	}

	elapsed := p.now().Sub(start)
	p.metrics.Observe(res, elapsed)

	p.logger.Info("claim processed",
		zap.String("id", res.ID),
		zap.String("source", name),
		zap.String("route", res.RecommendedRoute.String()),
		zap.Int("priority", res.Priority),
		zap.Strings("missing", missing),
		zap.Int("inconsistencies", len(issues)),
		zap.Duration("elapsed", elapsed))

	return res, nil
}

func (p *Pipeline) extract(text string) model.ClaimRecord {
	if p.records == nil {
		return p.extractor.Extract(text)
	}

	rec, hit := p.records.Load(text)
	p.metrics.CacheLookup(hit)
	if hit {
		p.logger.Debug("extraction cache hit", zap.String("version", p.records.Version()))
		return rec
	}

	rec = p.extractor.Extract(text)
	if err := p.records.Save(text, rec); err != nil {
		p.logger.Warn("extraction cache write failed", zap.Error(err))
	}
	return rec
}

func (p *Pipeline) step(format string, args ...any) {
	if p.progress == nil {
		return
	}
	_, _ = fmt.Fprintf(p.progress, format+"\n", args...)
}

// Extractor returns the extractor in use
func (p *Pipeline) Extractor() *extract.Extractor {
	return p.extractor
}

// Router returns the router in use
func (p *Pipeline) Router() *route.Router {
	return p.router
}
