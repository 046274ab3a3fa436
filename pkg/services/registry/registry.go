// Package registry opens the stores and services a configuration describes
// and hands them to the CLI and the web server.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/ses4j/ebird-statistical-report/pkg/metrics"
	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
	"github.com/ses4j/ebird-statistical-report/pkg/models/store"
	"github.com/ses4j/ebird-statistical-report/pkg/runtime/terminal/export"
	"github.com/ses4j/ebird-statistical-report/pkg/services/config"
	"github.com/ses4j/ebird-statistical-report/pkg/services/ingest"
	"github.com/ses4j/ebird-statistical-report/pkg/services/media"
	"github.com/ses4j/ebird-statistical-report/pkg/services/names"
	"github.com/ses4j/ebird-statistical-report/pkg/services/region"
	"github.com/ses4j/ebird-statistical-report/pkg/services/report"
	"github.com/ses4j/ebird-statistical-report/pkg/store/blob/s3"
	"github.com/ses4j/ebird-statistical-report/pkg/store/cache"
	"github.com/ses4j/ebird-statistical-report/pkg/store/duckdb"
	"github.com/ses4j/ebird-statistical-report/pkg/store/observation"
	"github.com/ses4j/ebird-statistical-report/pkg/store/postgres"
	"github.com/ses4j/ebird-statistical-report/pkg/store/query"
)

type Registry struct {
	Config       *config.Config
	DB           *sql.DB
	Observations observation.Store
	Cache        *cache.Cache
	NameCache    *cache.NameCache
	Names        *names.Chain
	Regions      *region.Resolver
	Generator    *report.Generator
	Metrics      *metrics.Recorder
}

// Open connects to the observation store and the cache and builds the
// report generator. Close releases both.
func Open(ctx context.Context, cfg *config.Config) (*Registry, error) {
	logger := zerolog.Ctx(ctx)
	r := &Registry{Config: cfg, Metrics: metrics.NewRecorder()}

	subRegions, err := config.LoadSubRegions(cfg.Report.SubRegionsFile)
	if err != nil {
		return nil, err
	}

	r.DB, err = openStore(ctx, cfg.Store, len(subRegions) > 0)
	if err != nil {
		return nil, err
	}

	if err := r.build(ctx, subRegions); err != nil {
		r.Close()
		return nil, err
	}

	logger.Info().
		Str("driver", cfg.Store.Driver).
		Str("cache", r.Cache.Path()).
		Msg("registry opened")
	return r, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig, spatial bool) (*sql.DB, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.NewDB(ctx, postgres.Settings{DSN: cfg.DSN})
	case "duckdb":
		return duckdb.NewDB(duckdb.Settings{DbPath: cfg.Path, Threads: cfg.Threads, Spatial: spatial})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func (r *Registry) build(ctx context.Context, subRegions config.SubRegions) error {
	cfg := r.Config

	var err error
	r.Observations, err = observation.NewStore(r.DB)
	if err != nil {
		return err
	}
	r.Regions = region.NewResolver(r.Observations)

	r.Cache, err = cache.Open(cfg.Names.CachePath)
	if err != nil {
		return err
	}
	r.NameCache = r.Cache.Names(cfg.Names.TTL)

	overrides, err := names.LoadOverrides(cfg.Names.OverridesFile)
	if err != nil {
		return err
	}
	remote, err := names.NewRemote(names.RemoteSettings{
		BaseURL: cfg.Names.BaseURL,
		Retries: cfg.Names.Retries,
		Timeout: cfg.Names.Timeout,
	}, r.Observations)
	if err != nil {
		return err
	}
	policy, err := names.ParsePolicy(cfg.Names.Policy)
	if err != nil {
		return err
	}
	r.Names = names.NewChain(remote,
		names.WithOverrides(overrides),
		names.WithCache(r.NameCache),
		names.WithPolicy(policy),
		names.WithMetrics(r.Metrics),
	)

	execOpts := []query.Option{query.WithMetrics(r.Metrics)}
	if cfg.ResultsCache.Enabled {
		execOpts = append(execOpts, query.WithCache(r.Cache.Results(cfg.ResultsCache.TTL)))
	}
	exec, err := query.NewExecutor(r.DB, execOpts...)
	if err != nil {
		return err
	}

	opts := []report.Option{
		report.WithMetrics(r.Metrics),
		report.WithSubRegions(subRegions),
		report.WithRenderer("text", export.NewReporter()),
	}
	for format, renderer := range report.Renderers(cfg.Output.LatexCommand) {
		opts = append(opts, report.WithRenderer(format, renderer))
	}
	if cfg.Media.Enabled {
		provider, err := media.NewProvider(cfg.Media.Settings)
		if err != nil {
			return err
		}
		opts = append(opts, report.WithPhotos(provider))
	}
	if cfg.Publish.S3.Bucket != "" {
		publisher, err := s3.New(ctx, s3.Settings{
			Bucket:       cfg.Publish.S3.Bucket,
			Prefix:       cfg.Publish.S3.Prefix,
			Region:       cfg.Publish.S3.Region,
			Endpoint:     cfg.Publish.S3.Endpoint,
			UsePathStyle: cfg.Publish.S3.UsePathStyle,
		})
		if err != nil {
			return err
		}
		opts = append(opts, report.WithPublisher(publisher))
	}

	photos := 0
	if cfg.Media.Enabled {
		photos = cfg.Media.Photos
	}
	r.Generator, err = report.NewGenerator(exec, r.Regions, r.Names, report.Settings{
		Title:            cfg.Report.Title,
		Author:           cfg.Report.Author,
		Version:          cfg.Report.Version,
		Thanks:           cfg.Report.Thanks,
		ReviewPolicy:     domain.ReviewPolicy(cfg.Report.ReviewPolicy),
		Workers:          cfg.Report.Workers,
		Photos:           photos,
		OutputDir:        cfg.Output.Dir,
		ChecklistBaseURL: cfg.Report.ChecklistBaseURL,
		Limits:           cfg.Limits,
	}, opts...)
	return err
}

func (r *Registry) Close() error {
	var errs []error
	if r.Cache != nil {
		errs = append(errs, r.Cache.Close())
	}
	if r.DB != nil {
		errs = append(errs, r.DB.Close())
	}
	return errors.Join(errs...)
}

// Generate writes a report, defaulting the format to output.format.
func (r *Registry) Generate(ctx context.Context, req report.Request) (string, error) {
	if req.Format == "" {
		req.Format = r.Config.Output.Format
	}
	return r.Generator.Generate(ctx, req)
}

func (r *Registry) Region(ctx context.Context, code string) (domain.Region, error) {
	return r.Regions.Resolve(ctx, code)
}

func (r *Registry) ResolveName(ctx context.Context, observerID string) (string, error) {
	return r.Names.Resolve(ctx, observerID)
}

func (r *Registry) CachedNames(ctx context.Context) ([]store.CachedName, error) {
	return r.NameCache.List(ctx)
}

func (r *Registry) ClearNames(ctx context.Context) error {
	return r.NameCache.Clear(ctx)
}

// Load reads an eBird Basic Dataset export into the observation store.
func (r *Registry) Load(ctx context.Context, src io.Reader, batch int) (int, error) {
	loader, err := ingest.NewLoader(r.DB, r.Observations, batch)
	if err != nil {
		return 0, err
	}
	return loader.Load(ctx, src)
}
