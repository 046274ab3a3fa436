package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ses4j/ebird-statistical-report/pkg/models/store"
)

type NameCache struct {
	c   *Cache
	ttl time.Duration
}

// Get returns the cached name for observerID. Expired entries are reported as misses.
func (n *NameCache) Get(ctx context.Context, observerID string) (store.CachedName, bool, error) {
	var name string
	var resolved int64
	err := n.c.db.QueryRowContext(ctx,
		`SELECT display_name, resolved_at FROM observer_names WHERE observer_id = ?`, observerID,
	).Scan(&name, &resolved)
	if errors.Is(err, sql.ErrNoRows) {
		return store.CachedName{}, false, nil
	}
	if err != nil {
		return store.CachedName{}, false, fmt.Errorf("read cached name %s: %w", observerID, err)
	}
	if n.c.expired(resolved, n.ttl) {
		return store.CachedName{}, false, nil
	}
	return store.CachedName{ObserverID: observerID, DisplayName: name, ResolvedAt: time.Unix(resolved, 0)}, true, nil
}

func (n *NameCache) Put(ctx context.Context, observerID, displayName string) error {
	_, err := n.c.db.ExecContext(ctx,
		`INSERT INTO observer_names (observer_id, display_name, resolved_at) VALUES (?, ?, ?)
		 ON CONFLICT(observer_id) DO UPDATE SET display_name = excluded.display_name, resolved_at = excluded.resolved_at`,
		observerID, displayName, n.c.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("store cached name %s: %w", observerID, err)
	}
	return nil
}

func (n *NameCache) List(ctx context.Context) ([]store.CachedName, error) {
	rows, err := n.c.db.QueryContext(ctx,
		`SELECT observer_id, display_name, resolved_at FROM observer_names ORDER BY observer_id`)
	if err != nil {
		return nil, fmt.Errorf("list cached names: %w", err)
	}
	defer rows.Close()

	var names []store.CachedName
	for rows.Next() {
		var entry store.CachedName
		var resolved int64
		if err := rows.Scan(&entry.ObserverID, &entry.DisplayName, &resolved); err != nil {
			return nil, fmt.Errorf("scan cached name: %w", err)
		}
		entry.ResolvedAt = time.Unix(resolved, 0)
		names = append(names, entry)
	}
	return names, rows.Err()
}

func (n *NameCache) Clear(ctx context.Context) error {
	if _, err := n.c.db.ExecContext(ctx, "DELETE FROM observer_names"); err != nil {
		return fmt.Errorf("clear names: %w", err)
	}
	return nil
}
