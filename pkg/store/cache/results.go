package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

type ResultCache struct {
	c   *Cache
	ttl time.Duration
}

type cell struct {
	Kind string  `json:"k"`
	S    string  `json:"s,omitempty"`
	I    int64   `json:"i,omitempty"`
	F    float64 `json:"f,omitempty"`
	B    bool    `json:"b,omitempty"`
}

type payload struct {
	Columns []string `json:"columns"`
	Rows    [][]cell `json:"rows"`
}

func Key(statement string) string {
	sum := sha256.Sum256([]byte(statement))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached columns and rows for statement.
func (r *ResultCache) Get(ctx context.Context, statement string) ([]string, [][]any, bool, error) {
	var raw string
	var stored int64
	err := r.c.db.QueryRowContext(ctx,
		`SELECT payload, stored_at FROM query_results WHERE statement_hash = ?`, Key(statement),
	).Scan(&raw, &stored)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, fmt.Errorf("read cached result: %w", err)
	}
	if r.c.expired(stored, r.ttl) {
		return nil, nil, false, nil
	}

	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, nil, false, fmt.Errorf("decode cached result: %w", err)
	}

	rows := make([][]any, len(p.Rows))
	for i, encoded := range p.Rows {
		row := make([]any, len(encoded))
		for j, c := range encoded {
			v, err := decodeCell(c)
			if err != nil {
				return nil, nil, false, err
			}
			row[j] = v
		}
		rows[i] = row
	}
	return p.Columns, rows, true, nil
}

func (r *ResultCache) Put(ctx context.Context, statement string, columns []string, rows [][]any) error {
	p := payload{Columns: columns, Rows: make([][]cell, len(rows))}
	for i, row := range rows {
		encoded := make([]cell, len(row))
		for j, v := range row {
			c, err := encodeCell(v)
			if err != nil {
				return err
			}
			encoded[j] = c
		}
		p.Rows[i] = encoded
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	_, err = r.c.db.ExecContext(ctx,
		`INSERT INTO query_results (statement_hash, payload, stored_at) VALUES (?, ?, ?)
		 ON CONFLICT(statement_hash) DO UPDATE SET payload = excluded.payload, stored_at = excluded.stored_at`,
		Key(statement), string(raw), r.c.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("store result: %w", err)
	}
	return nil
}

func (r *ResultCache) Clear(ctx context.Context) error {
	if _, err := r.c.db.ExecContext(ctx, "DELETE FROM query_results"); err != nil {
		return fmt.Errorf("clear results: %w", err)
	}
	return nil
}

func encodeCell(v any) (cell, error) {
	switch t := v.(type) {
	case nil:
		return cell{Kind: "n"}, nil
	case string:
		return cell{Kind: "s", S: t}, nil
	case int64:
		return cell{Kind: "i", I: t}, nil
	case float64:
		return cell{Kind: "f", F: t}, nil
	case bool:
		return cell{Kind: "b", B: t}, nil
	case time.Time:
		return cell{Kind: "t", S: t.UTC().Format(time.RFC3339Nano)}, nil
	default:
		return cell{}, fmt.Errorf("unsupported cell type %T", v)
	}
}

func decodeCell(c cell) (any, error) {
	switch c.Kind {
	case "n":
		return nil, nil
	case "s":
		return c.S, nil
	case "i":
		return c.I, nil
	case "f":
		return c.F, nil
	case "b":
		return c.B, nil
	case "t":
		t, err := time.Parse(time.RFC3339Nano, c.S)
		if err != nil {
			return nil, fmt.Errorf("decode time cell: %w", err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown cell kind %q", c.Kind)
	}
}
