package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
)

// SubRegions maps a region code to the named polygons reported inside it.
type SubRegions map[string][]domain.SubRegion

// LoadSubRegions reads a YAML file of the form
//
//	US-DC:
//	  - name: Ward 1
//	    wkt: POLYGON((...))
//
// An empty path yields no sub-regions.
func LoadSubRegions(path string) (SubRegions, error) {
	if path == "" {
		return SubRegions{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sub-regions file: %w", err)
	}

	var out SubRegions
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse sub-regions file: %w", err)
	}
	for code, blocks := range out {
		for i, b := range blocks {
			if b.Name == "" || b.WKT == "" {
				return nil, fmt.Errorf("sub-region %d of %s needs a name and wkt", i, code)
			}
		}
	}
	return out, nil
}

// For returns the sub-regions configured for a region code.
func (s SubRegions) For(code string) []domain.SubRegion {
	return s[code]
}
