// Package format renders cell values and observer names for typeset output.
package format

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
)

const nbsp = "\u00a0"

// Resolver maps an observer id to a display name.
type Resolver interface {
	Resolve(ctx context.Context, observerID string) (string, error)
}

var (
	observerID = regexp.MustCompile(`^obsr\d+$`)
)

func IsObserverID(s string) bool {
	return observerID.MatchString(s)
}

// Placeholder is the pseudonymous stand-in for an unresolved observer.
func Placeholder(observerID string) string {
	return fmt.Sprintf("unknown (%s)", observerID)
}

// Normalize drops characters outside Latin-1 and makes spaces non-breaking
// so names never wrap inside a table cell.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, nbsp, " ")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if _, ok := charmap.ISO8859_1.EncodeRune(r); ok {
			b.WriteRune(r)
		}
	}

	return strings.ReplaceAll(strings.TrimSpace(b.String()), " ", nbsp)
}

// JoinNames resolves observer ids and joins the sorted display names.
func JoinNames(ctx context.Context, r Resolver, ids []string) (string, error) {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		name, err := r.Resolve(ctx, id)
		if err != nil {
			return "", err
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", "), nil
}

// Cell is the canonical text of a normalized cell value.
func Cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format("2006-01-02")
	default:
		return fmt.Sprint(v)
	}
}

// Delta renders a year over year change: "+3", "-" for none, "-2".
func Delta(n int64) string {
	switch {
	case n > 0:
		return "+" + strconv.FormatInt(n, 10)
	case n == 0:
		return "-"
	default:
		return strconv.FormatInt(n, 10)
	}
}
