package db

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"
)

// TokenStats is the per-group token breakdown. Totals come straight
// from the source records; no cross-check against the component fields
// is performed.
type TokenStats struct {
	Input      int64 `json:"input"`
	Output     int64 `json:"output"`
	Reasoning  int64 `json:"reasoning"`
	CacheRead  int64 `json:"cache_read"`
	CacheWrite int64 `json:"cache_write"`
	Total      int64 `json:"total"`
}

// UsageRow is one aggregated result row. Label is never empty: a null
// or empty group key is replaced by the view's placeholder. Detail is
// set only by the agent view, where it carries the model name.
type UsageRow struct {
	Label  string     `json:"label"`
	Calls  int64      `json:"calls"`
	Tokens TokenStats `json:"tokens"`
	Cost   float64    `json:"cost"`
	Detail string     `json:"model,omitempty"`
}

// Window bounds a query to the half-open interval [Since, Until) in
// epoch milliseconds. A nil bound is unbounded.
type Window struct {
	Since *int64
	Until *int64
}

// Millis converts a time to an epoch-millisecond window bound.
func Millis(t time.Time) *int64 {
	ms := t.UnixMilli()
	return &ms
}

// Previous derives the window of equal length immediately preceding w.
// Both bounds must be set; ok is false otherwise.
func (w Window) Previous() (prev Window, ok bool) {
	if w.Since == nil || w.Until == nil {
		return Window{}, false
	}
	span := *w.Until - *w.Since
	since := *w.Since - span
	until := *w.Since
	return Window{Since: &since, Until: &until}, true
}

// timePreds returns the window predicates and their arguments.
func (w Window) timePreds() (preds []string, args []any) {
	if w.Since != nil {
		preds = append(preds, "json_extract(m.data, '$.time.created') >= ?")
		args = append(args, *w.Since)
	}
	if w.Until != nil {
		preds = append(preds, "json_extract(m.data, '$.time.created') < ?")
		args = append(args, *w.Until)
	}
	return preds, args
}

// viewSpec parameterizes the shared aggregation query. Every view runs
// the same statement with a different grouping key and sort; the
// inclusion predicate and the COALESCE defaulting rules therefore exist
// in exactly one place (buildUsageQuery).
type viewSpec struct {
	label    string // SQL expression for the group label
	detail   string // optional SQL expression for the secondary label
	join     string // optional join clause
	groupBy  string
	orderBy  string
	fallback string // placeholder for null/empty labels
}

var (
	dayView = viewSpec{
		label:   "date(json_extract(m.data, '$.time.created') / 1000, 'unixepoch', 'localtime')",
		groupBy: "label",
		orderBy: "label DESC",
	}
	modelView = viewSpec{
		label:   "json_extract(m.data, '$.modelID')",
		groupBy: "label",
		orderBy: "total_tokens DESC",
	}
	providerView = viewSpec{
		label:   "json_extract(m.data, '$.providerID')",
		groupBy: "label",
		orderBy: "total_tokens DESC",
	}
	agentView = viewSpec{
		label:   "json_extract(m.data, '$.agent')",
		detail:  "json_extract(m.data, '$.modelID')",
		groupBy: "label, detail",
		orderBy: "label, total_tokens DESC, detail",
	}
	sessionView = viewSpec{
		label:    "COALESCE(s.title, m.session_id)",
		join:     "\nLEFT JOIN session s ON m.session_id = s.id",
		groupBy:  "m.session_id",
		orderBy:  "total_tokens DESC",
		fallback: "(untitled)",
	}
	totalsView = viewSpec{
		label:   "'total'",
		groupBy: "label",
		orderBy: "total_tokens DESC",
	}
)

const usageQueryFormat = `
SELECT
  %s AS label,%s
  COUNT(*) AS calls,
  COALESCE(SUM(json_extract(m.data, '$.tokens.input')), 0) AS input_tokens,
  COALESCE(SUM(json_extract(m.data, '$.tokens.output')), 0) AS output_tokens,
  COALESCE(SUM(json_extract(m.data, '$.tokens.reasoning')), 0) AS reasoning_tokens,
  COALESCE(SUM(json_extract(m.data, '$.tokens.cache.read')), 0) AS cache_read,
  COALESCE(SUM(json_extract(m.data, '$.tokens.cache.write')), 0) AS cache_write,
  COALESCE(SUM(json_extract(m.data, '$.tokens.total')), 0) AS total_tokens,
  COALESCE(SUM(json_extract(m.data, '$.cost')), 0) AS cost
FROM message m%s
WHERE %s
GROUP BY %s
ORDER BY %s`

// buildUsageQuery assembles the aggregation statement for a view. The
// WHERE clause always applies the inclusion rule first: only assistant
// messages that carry a token total count toward any statistic.
func buildUsageQuery(v viewSpec, w Window, limit int) (string, []any) {
	preds := []string{
		"json_extract(m.data, '$.role') = 'assistant'",
		"json_extract(m.data, '$.tokens.total') IS NOT NULL",
	}
	timePreds, args := w.timePreds()
	preds = append(preds, timePreds...)

	detailCol := ""
	if v.detail != "" {
		detailCol = fmt.Sprintf("\n  %s AS detail,", v.detail)
	}

	query := fmt.Sprintf(
		usageQueryFormat,
		v.label,
		detailCol,
		v.join,
		strings.Join(preds, "\n  AND "),
		v.groupBy,
		v.orderBy,
	)
	if limit > 0 {
		query += "\nLIMIT ?"
		args = append(args, limit)
	}
	return query, args
}

// queryUsage runs one view over its own short-lived connection and maps
// the result into UsageRows. name identifies the view in error messages.
func (d *DB) queryUsage(ctx context.Context, name string, v viewSpec, w Window, limit int) ([]UsageRow, error) {
	conn, err := d.open()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	query, args := buildUsageQuery(v, w, limit)
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", name, err)
	}
	defer rows.Close()

	fallback := v.fallback
	if fallback == "" {
		fallback = "(unknown)"
	}

	var out []UsageRow
	for rows.Next() {
		var (
			label  sql.NullString
			detail sql.NullString
			row    UsageRow
		)
		dest := []any{&label}
		if v.detail != "" {
			dest = append(dest, &detail)
		}
		dest = append(dest,
			&row.Calls,
			&row.Tokens.Input,
			&row.Tokens.Output,
			&row.Tokens.Reasoning,
			&row.Tokens.CacheRead,
			&row.Tokens.CacheWrite,
			&row.Tokens.Total,
			&row.Cost,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning usage row: %w", err)
		}

		row.Label = label.String
		if row.Label == "" {
			row.Label = fallback
		}
		row.Detail = detail.String
		row.Cost = math.Round(row.Cost*10000) / 10000
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating usage rows: %w", err)
	}
	return out, nil
}

// Daily aggregates per local calendar day, most recent day first.
func (d *DB) Daily(ctx context.Context, w Window, limit int) ([]UsageRow, error) {
	return d.queryUsage(ctx, "daily usage", dayView, w, limit)
}

// ByModel aggregates per model, heaviest first.
func (d *DB) ByModel(ctx context.Context, w Window, limit int) ([]UsageRow, error) {
	return d.queryUsage(ctx, "usage by model", modelView, w, limit)
}

// ByProvider aggregates per provider, heaviest first.
func (d *DB) ByProvider(ctx context.Context, w Window, limit int) ([]UsageRow, error) {
	return d.queryUsage(ctx, "usage by provider", providerView, w, limit)
}

// ByAgent aggregates per (agent, model) pair: an agent that used two
// models yields two rows sharing the agent label, each carrying its
// model in Detail. Sorted by agent, then tokens descending, with the
// model name breaking ties deterministically.
func (d *DB) ByAgent(ctx context.Context, w Window, limit int) ([]UsageRow, error) {
	return d.queryUsage(ctx, "usage by agent", agentView, w, limit)
}

// BySession aggregates per session id, labeled by the session title
// when one exists. Two untitled sessions stay distinct rows because the
// grouping key is always the id, never the label.
func (d *DB) BySession(ctx context.Context, w Window, limit int) ([]UsageRow, error) {
	return d.queryUsage(ctx, "usage by session", sessionView, w, limit)
}

// Totals collapses the window into a single row labeled "total". An
// empty window yields a zero-valued row, never an empty result.
func (d *DB) Totals(ctx context.Context, w Window) (UsageRow, error) {
	rows, err := d.queryUsage(ctx, "usage totals", totalsView, w, 0)
	if err != nil {
		return UsageRow{}, err
	}
	if len(rows) == 0 {
		return UsageRow{Label: "total"}, nil
	}
	return rows[0], nil
}
