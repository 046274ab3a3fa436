package query

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/ses4j/ebird-statistical-report/pkg/metrics"
)

// Result is a query result with normalized cell values:
// nil, string, int64, float64, bool or time.Time.
type Result struct {
	Columns []string
	Rows    [][]any
}

// ResultCache memoizes whole results by statement text.
type ResultCache interface {
	Get(ctx context.Context, statement string) ([]string, [][]any, bool, error)
	Put(ctx context.Context, statement string, columns []string, rows [][]any) error
}

// Executor runs single-shot read-only statements. Failures are returned as is
// and never retried.
type Executor struct {
	db      *sql.DB
	cache   ResultCache
	metrics *metrics.Recorder
}

type Option func(*Executor)

func WithCache(c ResultCache) Option {
	return func(e *Executor) { e.cache = c }
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Executor) { e.metrics = r }
}

func NewExecutor(db *sql.DB, opts ...Option) (*Executor, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	e := &Executor{db: db}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Query executes statement and labels logs and metrics with name.
func (e *Executor) Query(ctx context.Context, name, statement string) (*Result, error) {
	logger := zerolog.Ctx(ctx).With().Str("metric", name).Logger()

	if e.cache != nil {
		cols, rows, ok, err := e.cache.Get(ctx, statement)
		if err != nil {
			logger.Warn().Err(err).Msg("result cache read failed")
		} else if ok {
			logger.Debug().Int("rows", len(rows)).Msg("result cache hit")
			return &Result{Columns: cols, Rows: rows}, nil
		}
	}

	logger.Debug().Msg("running query")
	start := time.Now()
	result, err := e.run(ctx, statement)
	elapsed := time.Since(start)
	e.metrics.ObserveQuery(name, elapsed, err)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", name, err)
	}
	logger.Debug().Dur("elapsed", elapsed).Int("rows", len(result.Rows)).Msg("query finished")

	if e.cache != nil {
		if err := e.cache.Put(ctx, statement, result.Columns, result.Rows); err != nil {
			logger.Warn().Err(err).Msg("result cache write failed")
		}
	}
	return result, nil
}

func (e *Executor) run(ctx context.Context, statement string) (*Result, error) {
	rows, err := e.db.QueryContext(ctx, statement)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("read column types: %w", err)
	}

	result := &Result{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			values[i] = Normalize(v, types[i].DatabaseTypeName())
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

type floater interface {
	Float64() float64
}

// Normalize converts driver values to the cell types of a report table.
// dbType is the driver's column type name and decides whether textual
// numerics are parsed.
func Normalize(v any, dbType string) any {
	switch t := v.(type) {
	case nil, string, int64, float64, bool:
		if s, ok := t.(string); ok && isNumeric(dbType) {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
		}
		return t
	case time.Time:
		return t
	case []byte:
		return Normalize(string(t), dbType)
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		return int64(t)
	case float32:
		return float64(t)
	case *big.Int:
		if t == nil {
			return nil
		}
		return t.Int64()
	case floater:
		return t.Float64()
	}

	// decimal types that implement Float64 on the pointer receiver
	rv := reflect.ValueOf(v)
	ptr := reflect.New(rv.Type())
	ptr.Elem().Set(rv)
	if f, ok := ptr.Interface().(floater); ok {
		return f.Float64()
	}
	return fmt.Sprint(v)
}

func isNumeric(dbType string) bool {
	dbType = strings.ToUpper(dbType)
	return strings.HasPrefix(dbType, "NUMERIC") || strings.HasPrefix(dbType, "DECIMAL")
}
