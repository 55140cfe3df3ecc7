package db

import (
	"context"
	"fmt"
)

// RawMessage is one undecoded message row, used by the doctor command
// to inspect field coverage without committing to a schema.
type RawMessage struct {
	ID        string
	SessionID string
	Data      string
}

// TableNames lists the tables present in the database.
func (d *DB) TableNames(ctx context.Context) ([]string, error) {
	conn, err := d.open()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying table names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating table names: %w", err)
	}
	return names, nil
}

// CountRows returns the number of rows in a table. The table name is
// interpolated and must come from a trusted source such as TableNames.
func (d *DB) CountRows(ctx context.Context, table string) (int64, error) {
	conn, err := d.open()
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	var n int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %q", table)
	if err := conn.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting rows in %s: %w", table, err)
	}
	return n, nil
}

// MessageSample returns up to limit of the newest message rows, raw.
// Insertion order approximates recency well enough for sampling.
func (d *DB) MessageSample(ctx context.Context, limit int) ([]RawMessage, error) {
	conn, err := d.open()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, `
SELECT id, COALESCE(session_id, ''), COALESCE(data, '')
FROM message
ORDER BY rowid DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sampling messages: %w", err)
	}
	defer rows.Close()

	var out []RawMessage
	for rows.Next() {
		var m RawMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Data); err != nil {
			return nil, fmt.Errorf("scanning message sample: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message sample: %w", err)
	}
	return out, nil
}
