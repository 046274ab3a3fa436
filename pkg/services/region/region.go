package region

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
	"github.com/ses4j/ebird-statistical-report/pkg/models/store"
	"github.com/ses4j/ebird-statistical-report/pkg/store/observation"
)

var (
	ErrUnknownRegionCode = errors.New("unknown region code")
	ErrRegionNotFound    = errors.New("no observations for region")
)

var segment = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// Parse classifies a region code by its number of hyphen separated segments
// and returns the observation column it filters on.
func Parse(code string) (string, domain.RegionLevel, error) {
	parts := strings.Split(code, "-")
	for _, p := range parts {
		if !segment.MatchString(p) {
			return "", "", fmt.Errorf("%w: %q", ErrUnknownRegionCode, code)
		}
	}

	switch len(parts) {
	case 1:
		return "country_code", domain.RegionCountry, nil
	case 2:
		return "state_code", domain.RegionState, nil
	case 3:
		return "county_code", domain.RegionCounty, nil
	default:
		return "", "", fmt.Errorf("%w: %q has %d segments", ErrUnknownRegionCode, code, len(parts))
	}
}

// NameLookup returns the names of one observation matching field = code.
type NameLookup interface {
	RegionNames(ctx context.Context, field, code string) (store.RegionNames, error)
}

type Resolver struct {
	lookup NameLookup
}

func NewResolver(lookup NameLookup) *Resolver {
	return &Resolver{lookup: lookup}
}

func (r *Resolver) Resolve(ctx context.Context, code string) (domain.Region, error) {
	field, level, err := Parse(code)
	if err != nil {
		return domain.Region{}, err
	}

	names, err := r.lookup.RegionNames(ctx, field, code)
	if errors.Is(err, observation.ErrNotFound) {
		return domain.Region{}, fmt.Errorf("%w: %s", ErrRegionNotFound, code)
	}
	if err != nil {
		return domain.Region{}, fmt.Errorf("resolve region %s: %w", code, err)
	}

	return domain.Region{
		Code:        code,
		Level:       level,
		Predicate:   fmt.Sprintf("%s = '%s'", field, code),
		Description: describe(level, names),
	}, nil
}

func describe(level domain.RegionLevel, n store.RegionNames) string {
	switch level {
	case domain.RegionCountry:
		return n.Country
	case domain.RegionState:
		return fmt.Sprintf("%s, %s", n.State, n.Country)
	default:
		if n.County == n.State {
			return n.County
		}
		return fmt.Sprintf("%s, %s", n.County, n.State)
	}
}
