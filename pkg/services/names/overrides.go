package names

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/ini.v1"
)

const overridesSection = "observers"

// Overrides are display names configured by hand, keyed by observer id.
type Overrides map[string]string

// LoadOverrides reads the [observers] section of an ini file:
//
//	[observers]
//	obsr123 = Jane Doe
//
// An empty path or a missing file yields no overrides.
func LoadOverrides(path string) (Overrides, error) {
	if path == "" {
		return Overrides{}, nil
	}

	cfg, err := ini.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Overrides{}, nil
		}
		return nil, fmt.Errorf("load name overrides %s: %w", path, err)
	}

	overrides := Overrides{}
	section, err := cfg.GetSection(overridesSection)
	if err != nil {
		return overrides, nil
	}
	for _, key := range section.Keys() {
		if name := strings.TrimSpace(key.String()); name != "" {
			overrides[key.Name()] = name
		}
	}
	return overrides, nil
}
