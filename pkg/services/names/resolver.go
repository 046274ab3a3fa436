// Package names resolves opaque eBird observer ids (obsrNNN) to display names.
package names

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/ses4j/ebird-statistical-report/pkg/metrics"
	"github.com/ses4j/ebird-statistical-report/pkg/models/store"
	"github.com/ses4j/ebird-statistical-report/pkg/services/format"
	"golang.org/x/sync/singleflight"
)

var ErrUnresolved = errors.New("observer name unresolved")

type Resolver interface {
	Resolve(ctx context.Context, observerID string) (string, error)
}

// Policy decides what happens when an id cannot be resolved.
type Policy string

const (
	PolicyStrict      Policy = "strict"
	PolicyPlaceholder Policy = "placeholder"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyStrict:
		return PolicyStrict, nil
	case PolicyPlaceholder:
		return PolicyPlaceholder, nil
	default:
		return "", fmt.Errorf("unknown name failure policy %q", s)
	}
}

type Cache interface {
	Get(ctx context.Context, observerID string) (store.CachedName, bool, error)
	Put(ctx context.Context, observerID, displayName string) error
}

// Chain looks an id up in the overrides, then the cache, then the remote
// resolver. Results are memoized for the lifetime of the Chain and
// concurrent lookups of the same id share one remote fetch.
type Chain struct {
	overrides Overrides
	cache     Cache
	remote    Resolver
	policy    Policy
	metrics   *metrics.Recorder

	group singleflight.Group
	mu    sync.RWMutex
	memo  map[string]string
}

type ChainOption func(*Chain)

func WithOverrides(o Overrides) ChainOption {
	return func(c *Chain) { c.overrides = o }
}

func WithCache(cache Cache) ChainOption {
	return func(c *Chain) { c.cache = cache }
}

func WithPolicy(p Policy) ChainOption {
	return func(c *Chain) { c.policy = p }
}

func WithMetrics(r *metrics.Recorder) ChainOption {
	return func(c *Chain) { c.metrics = r }
}

func NewChain(remote Resolver, opts ...ChainOption) *Chain {
	c := &Chain{
		remote: remote,
		policy: PolicyStrict,
		memo:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Chain) Resolve(ctx context.Context, observerID string) (string, error) {
	if !format.IsObserverID(observerID) {
		return observerID, nil
	}

	c.mu.RLock()
	name, ok := c.memo[observerID]
	c.mu.RUnlock()
	if ok {
		return name, nil
	}

	v, err, _ := c.group.Do(observerID, func() (any, error) {
		return c.lookup(ctx, observerID)
	})
	if err != nil {
		return "", err
	}

	name = v.(string)
	c.mu.Lock()
	c.memo[observerID] = name
	c.mu.Unlock()
	return name, nil
}

func (c *Chain) lookup(ctx context.Context, observerID string) (string, error) {
	logger := zerolog.Ctx(ctx).With().Str("observer_id", observerID).Logger()

	if name, ok := c.overrides[observerID]; ok {
		c.metrics.NameLookup("override")
		return name, nil
	}

	if c.cache != nil {
		entry, ok, err := c.cache.Get(ctx, observerID)
		if err != nil {
			logger.Warn().Err(err).Msg("name cache read failed")
		} else if ok {
			c.metrics.NameLookup("cache")
			return entry.DisplayName, nil
		}
	}

	if c.remote == nil {
		return c.fail(ctx, observerID, errors.New("no remote resolver configured"))
	}

	logger.Warn().Msg("observer name not cached, fetching")
	name, err := c.remote.Resolve(ctx, observerID)
	if err != nil {
		return c.fail(ctx, observerID, err)
	}
	c.metrics.NameLookup("remote")

	if c.cache != nil {
		if err := c.cache.Put(ctx, observerID, name); err != nil {
			logger.Warn().Err(err).Msg("name cache write failed")
		}
	}
	return name, nil
}

func (c *Chain) fail(ctx context.Context, observerID string, cause error) (string, error) {
	if c.policy == PolicyPlaceholder {
		zerolog.Ctx(ctx).Warn().Err(cause).Str("observer_id", observerID).Msg("using placeholder name")
		c.metrics.NameLookup("placeholder")
		return format.Placeholder(observerID), nil
	}
	return "", fmt.Errorf("%w: %s: %w", ErrUnresolved, observerID, cause)
}

// Static resolves from a fixed map. Unknown ids are an error.
type Static map[string]string

func (s Static) Resolve(_ context.Context, observerID string) (string, error) {
	if name, ok := s[observerID]; ok {
		return name, nil
	}
	if !format.IsObserverID(observerID) {
		return observerID, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnresolved, observerID)
}
