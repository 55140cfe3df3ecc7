// Package report resolves CLI options into query windows, runs the
// usage views, and hands the rows to table rendering or JSON output.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/wesm/ocusage/internal/db"
	"github.com/wesm/ocusage/internal/render"
	"github.com/wesm/ocusage/internal/timeutil"
)

// Selectable groupings for the -by flag.
const (
	ViewDay      = "day"
	ViewModel    = "model"
	ViewAgent    = "agent"
	ViewProvider = "provider"
	ViewSession  = "session"
)

const defaultWindowDays = 7

// Views lists the selectable groupings.
func Views() []string {
	return []string{ViewModel, ViewAgent, ViewProvider, ViewSession, ViewDay}
}

// ValidView reports whether name is a known grouping.
func ValidView(name string) bool {
	for _, v := range Views() {
		if v == name {
			return true
		}
	}
	return false
}

// Options holds one resolved report request.
type Options struct {
	View    string // one of the View* constants; empty means day
	Command string // "today", "yesterday", or empty
	Days    int
	Since   string
	Until   string
	Limit   int
	Compare bool
	JSON    bool
	NoColor bool
}

// Reporter runs usage reports against a database.
type Reporter struct {
	DB  *db.DB
	Out io.Writer
}

// Run executes one report. The reference time is captured once so the
// current and previous windows cannot drift apart.
func (r *Reporter) Run(ctx context.Context, opts Options) error {
	now := time.Now()

	w, period, err := resolveWindow(opts, now)
	if err != nil {
		return err
	}

	view := opts.View
	if view == "" {
		view = ViewDay
	}

	rows, err := fetchRows(ctx, r.DB, view, w, opts.Limit)
	if err != nil {
		return err
	}
	totals, err := r.DB.Totals(ctx, w)
	if err != nil {
		return err
	}

	if opts.JSON {
		return writeJSON(r.Out, period, totals, rows)
	}

	var deltas []*float64
	var summary *render.Summary
	if opts.Compare {
		deltas, summary, err = r.compare(ctx, view, w, now, rows, totals)
		if err != nil {
			return err
		}
	}

	return render.Write(r.Out, render.Params{
		View:    view,
		Period:  period,
		Rows:    rows,
		Totals:  totals,
		Deltas:  deltas,
		Summary: summary,
		Width:   render.TerminalWidth(r.Out),
	}, render.Styles{Enabled: !opts.NoColor})
}

// resolveWindow turns the request into a concrete half-open window and
// a human-readable period label. Precedence: the today/yesterday
// command, then -since, then -days, then the default week.
func resolveWindow(opts Options, now time.Time) (db.Window, string, error) {
	var since time.Time
	var label string

	switch {
	case opts.Command == "today":
		since = timeutil.Midnight(now)
		label = "Today"
	case opts.Command == "yesterday":
		since = timeutil.Midnight(now).AddDate(0, 0, -1)
		label = "Yesterday & Today"
	case opts.Since != "":
		t, err := timeutil.ParseSince(opts.Since, now)
		if err != nil {
			return db.Window{}, "", err
		}
		since = t
		label = "Since " + t.Format("2006-01-02")
	case opts.Days > 0:
		since = now.Add(-time.Duration(opts.Days) * 24 * time.Hour)
		label = fmt.Sprintf("Last %d days", opts.Days)
	default:
		since = now.Add(-defaultWindowDays * 24 * time.Hour)
		label = fmt.Sprintf("Last %d days", defaultWindowDays)
	}

	w := db.Window{Since: db.Millis(since)}
	if opts.Until != "" {
		t, err := timeutil.ParseSince(opts.Until, now)
		if err != nil {
			return db.Window{}, "", err
		}
		w.Until = db.Millis(t)
		label += " (until " + t.Format("2006-01-02") + ")"
	}
	return w, label, nil
}

// fetchRows dispatches to the view's query. Unknown views yield no
// rows rather than an error.
func fetchRows(
	ctx context.Context, d *db.DB, view string, w db.Window, limit int,
) ([]db.UsageRow, error) {
	switch view {
	case ViewDay:
		return d.Daily(ctx, w, limit)
	case ViewModel:
		return d.ByModel(ctx, w, limit)
	case ViewAgent:
		return d.ByAgent(ctx, w, limit)
	case ViewProvider:
		return d.ByProvider(ctx, w, limit)
	case ViewSession:
		return d.BySession(ctx, w, limit)
	}
	return nil, nil
}

// compare fetches the immediately preceding window of equal length and
// derives per-row and headline deltas. An unbounded current window is
// closed at the reference time first. The daily view only gets
// headline deltas; matching calendar dates across periods is
// meaningless.
func (r *Reporter) compare(
	ctx context.Context, view string, w db.Window, now time.Time,
	rows []db.UsageRow, totals db.UsageRow,
) ([]*float64, *render.Summary, error) {
	bounded := w
	if bounded.Until == nil {
		bounded.Until = db.Millis(now)
	}
	prev, ok := bounded.Previous()
	if !ok {
		return nil, nil, nil
	}

	var deltas []*float64
	if view != ViewDay {
		prevRows, err := fetchRows(ctx, r.DB, view, prev, 0)
		if err != nil {
			return nil, nil, err
		}
		deltas = ComputeDeltas(rows, prevRows)
	}

	prevTotals, err := r.DB.Totals(ctx, prev)
	if err != nil {
		return nil, nil, err
	}
	summary := &render.Summary{
		Calls:  Percent(float64(totals.Calls), float64(prevTotals.Calls)),
		Tokens: Percent(float64(totals.Tokens.Total), float64(prevTotals.Tokens.Total)),
		Cost:   Percent(totals.Cost, prevTotals.Cost),
	}
	return deltas, summary, nil
}

func writeJSON(w io.Writer, period string, totals db.UsageRow, rows []db.UsageRow) error {
	if rows == nil {
		rows = []db.UsageRow{}
	}
	doc := struct {
		Period string        `json:"period"`
		Total  db.UsageRow   `json:"total"`
		Rows   []db.UsageRow `json:"rows"`
	}{period, totals, rows}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}
