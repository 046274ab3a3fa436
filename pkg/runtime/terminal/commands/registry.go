package commands

import (
	"context"
	"io"

	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
	"github.com/ses4j/ebird-statistical-report/pkg/models/store"
	"github.com/ses4j/ebird-statistical-report/pkg/services/report"
)

// Registry is what the commands need from an opened configuration.
type Registry interface {
	Generate(ctx context.Context, req report.Request) (string, error)
	Region(ctx context.Context, code string) (domain.Region, error)
	ResolveName(ctx context.Context, observerID string) (string, error)
	CachedNames(ctx context.Context) ([]store.CachedName, error)
	ClearNames(ctx context.Context) error
	Load(ctx context.Context, src io.Reader, batch int) (int, error)
	Close() error
}

// Opener opens the registry lazily, once flags have been parsed.
type Opener func(ctx context.Context) (Registry, error)

func withRegistry(ctx context.Context, open Opener, fn func(Registry) error) (err error) {
	r, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(r)
}
