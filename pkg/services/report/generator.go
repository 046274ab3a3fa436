// Package report runs every metric of the annual report for one region and
// year, lays the results out and renders the artifact.
package report

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ses4j/ebird-statistical-report/pkg/metrics"
	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
	"github.com/ses4j/ebird-statistical-report/pkg/runtime/render"
	"github.com/ses4j/ebird-statistical-report/pkg/runtime/render/latex"
	"github.com/ses4j/ebird-statistical-report/pkg/runtime/render/xlsx"
	"github.com/ses4j/ebird-statistical-report/pkg/services/format"
	"github.com/ses4j/ebird-statistical-report/pkg/services/layout"
	"github.com/ses4j/ebird-statistical-report/pkg/services/stats"
)

const (
	DefaultTitle  = "Annual eBird Statistical Report"
	DefaultThanks = "Data extracted from the eBird Basic Dataset. Cornell Lab of Ornithology, Ithaca, New York."
)

type RegionResolver interface {
	Resolve(ctx context.Context, code string) (domain.Region, error)
}

type PhotoSource interface {
	TopPhotos(ctx context.Context, region domain.Region, year, n int) ([]domain.Photo, error)
}

type Publisher interface {
	Put(ctx context.Context, name, localPath string) (string, error)
}

type SubRegionSource interface {
	For(code string) []domain.SubRegion
}

type Settings struct {
	Title            string
	Author           string
	Version          string
	Thanks           string
	ReviewPolicy     domain.ReviewPolicy
	Workers          int
	Photos           int
	OutputDir        string
	ChecklistBaseURL string
	Limits           stats.Limits
}

type Request struct {
	RegionCode string
	Year       int
	AsOf       time.Time // zero means December 31 of Year
	Format     string
}

func (r Request) cutoff() time.Time {
	if !r.AsOf.IsZero() {
		return r.AsOf
	}
	return time.Date(r.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

type Generator struct {
	exec       stats.Executor
	regions    RegionResolver
	names      format.Resolver
	renderers  map[string]render.Renderer
	photos     PhotoSource
	publisher  Publisher
	subRegions SubRegionSource
	metrics    *metrics.Recorder
	settings   Settings
}

type Option func(*Generator)

func WithPhotos(p PhotoSource) Option {
	return func(g *Generator) { g.photos = p }
}

func WithPublisher(p Publisher) Option {
	return func(g *Generator) { g.publisher = p }
}

func WithSubRegions(s SubRegionSource) Option {
	return func(g *Generator) { g.subRegions = s }
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(g *Generator) { g.metrics = r }
}

// WithRenderer registers r for format, replacing any default.
func WithRenderer(format string, r render.Renderer) Option {
	return func(g *Generator) { g.renderers[format] = r }
}

// Renderers returns the renderer of every supported output format.
func Renderers(latexCommand string) map[string]render.Renderer {
	return map[string]render.Renderer{
		"latex": latex.NewRenderer(latex.Settings{}),
		"pdf":   latex.NewRenderer(latex.Settings{PDF: true, Command: latexCommand}),
		"xlsx":  xlsx.NewRenderer(),
	}
}

func NewGenerator(exec stats.Executor, regions RegionResolver, names format.Resolver, settings Settings, opts ...Option) (*Generator, error) {
	if exec == nil {
		return nil, fmt.Errorf("executor is nil")
	}
	if regions == nil {
		return nil, fmt.Errorf("region resolver is nil")
	}
	if settings.Workers < 1 {
		settings.Workers = 1
	}
	if settings.Title == "" {
		settings.Title = DefaultTitle
	}
	if settings.Thanks == "" {
		settings.Thanks = DefaultThanks
	}
	if settings.ReviewPolicy == "" {
		settings.ReviewPolicy = domain.ReviewExcludeRejected
	}

	g := &Generator{
		exec:      exec,
		regions:   regions,
		names:     names,
		renderers: Renderers(""),
		settings:  settings,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Region resolves a region code without running any metric.
func (g *Generator) Region(ctx context.Context, code string) (domain.Region, error) {
	return g.regions.Resolve(ctx, code)
}

// Generate builds the report for req and returns the path of the artifact.
// Nothing is left in the output directory when it fails.
func (g *Generator) Generate(ctx context.Context, req Request) (path string, err error) {
	ctx = withRun(ctx, req)
	log := zerolog.Ctx(ctx)
	defer func() { g.metrics.Report(err) }()

	renderer, ok := g.renderers[req.Format]
	if !ok {
		return "", fmt.Errorf("unknown output format %q", req.Format)
	}

	started := time.Now()
	region, sections, err := g.compute(ctx, req)
	if err != nil {
		return "", err
	}
	log.Info().Int("sections", len(sections)).Dur("elapsed", time.Since(started)).Msg("metrics computed")

	doc, err := layout.Build(&domain.Report{
		Title:       g.settings.Title,
		Region:      region,
		Year:        req.Year,
		AsOf:        req.cutoff(),
		Author:      g.settings.Author,
		Version:     g.settings.Version,
		Thanks:      g.settings.Thanks,
		Sections:    sections,
		TitlePhotos: g.titlePhotos(ctx, region, req.Year),
	})
	if err != nil {
		return "", fmt.Errorf("layout: %w", err)
	}

	name := FileName(req, g.settings.Version) + renderer.Extension()
	path = filepath.Join(g.settings.OutputDir, name)
	if err := renderer.WriteFile(ctx, doc, path); err != nil {
		return "", fmt.Errorf("render %s: %w", req.Format, err)
	}
	log.Info().Str("path", path).Msg("report written")

	if g.publisher != nil {
		if _, err := g.publisher.Put(ctx, name, path); err != nil {
			return path, fmt.Errorf("publish: %w", err)
		}
	}
	return path, nil
}

// Tables computes every section of the report without laying it out.
func (g *Generator) Tables(ctx context.Context, req Request) ([]domain.ReportSection, error) {
	ctx = withRun(ctx, req)
	_, sections, err := g.compute(ctx, req)
	return sections, err
}

// FileName is the artifact name without extension.
func FileName(req Request, version string) string {
	name := fmt.Sprintf("%d Annual eBird Statistical Report - %s", req.Year, req.RegionCode)
	if version != "" {
		name += " - " + version
	}
	return name
}

func withRun(ctx context.Context, req Request) context.Context {
	logger := zerolog.Ctx(ctx).With().
		Str("run_id", uuid.NewString()).
		Str("region", req.RegionCode).
		Int("year", req.Year).
		Logger()
	return logger.WithContext(ctx)
}

func (g *Generator) compute(ctx context.Context, req Request) (domain.Region, []domain.ReportSection, error) {
	if req.Year < 1 {
		return domain.Region{}, nil, fmt.Errorf("invalid year %d", req.Year)
	}
	region, err := g.regions.Resolve(ctx, req.RegionCode)
	if err != nil {
		return domain.Region{}, nil, err
	}

	lib, err := stats.New(g.exec, region, req.cutoff(),
		stats.WithReviewPolicy(g.settings.ReviewPolicy),
		stats.WithNames(g.names),
		stats.WithLimits(g.settings.Limits),
		stats.WithChecklistBaseURL(g.checklistBase()),
	)
	if err != nil {
		return domain.Region{}, nil, err
	}

	in := planInput{region: region, year: req.Year, limits: lib.Limits()}
	if g.subRegions != nil {
		in.subRegions = g.subRegions.For(region.Code)
	}
	sections, err := g.run(ctx, lib, buildPlan(in))
	if err != nil {
		return domain.Region{}, nil, err
	}
	return region, sections, nil
}

func (g *Generator) checklistBase() string {
	if g.settings.ChecklistBaseURL == "" {
		return "https://ebird.org"
	}
	return g.settings.ChecklistBaseURL
}

// run executes every query of plan on the worker pool. Results are slotted
// by position so sections come back in plan order.
func (g *Generator) run(ctx context.Context, lib *stats.Library, plan []sectionPlan) ([]domain.ReportSection, error) {
	var queries []metricQuery
	for _, s := range plan {
		for _, b := range s.blocks {
			queries = append(queries, b.queries...)
		}
	}

	tables := make([]*domain.Table, len(queries))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.settings.Workers)
	for i, q := range queries {
		eg.Go(func() error {
			t, err := q(egCtx, lib)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sections := make([]domain.ReportSection, 0, len(plan))
	next := 0
	for _, s := range plan {
		section := domain.ReportSection{Title: s.title, Description: s.description}
		for _, b := range s.blocks {
			section.Blocks = append(section.Blocks, domain.SectionBlock{
				Kind:    b.kind,
				Tables:  tables[next : next+len(b.queries) : next+len(b.queries)],
				Columns: b.columns,
				RankBy:  b.rankBy,
			})
			next += len(b.queries)
		}
		sections = append(sections, section)
	}
	return sections, nil
}

// titlePhotos logs provider failures and returns no photos.
func (g *Generator) titlePhotos(ctx context.Context, region domain.Region, year int) []domain.Photo {
	if g.photos == nil || g.settings.Photos < 1 {
		return nil
	}
	photos, err := g.photos.TopPhotos(ctx, region, year, g.settings.Photos)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("title page photo unavailable")
		return nil
	}
	return photos
}
