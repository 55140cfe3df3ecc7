package report

import "github.com/wesm/ocusage/internal/db"

// matchKey identifies a row across periods. Rows carrying a detail
// (the agent view's per-model fan-out) match on both parts so an
// agent's models are compared independently.
func matchKey(r db.UsageRow) string {
	if r.Detail == "" {
		return r.Label
	}
	return r.Label + ":" + r.Detail
}

// ComputeDeltas returns one optional percentage change per current row,
// positionally aligned. A nil entry means the row has no usable prior
// value: its key is absent from the previous period, or the prior total
// is zero. Duplicate keys in the previous set are summed before
// matching.
func ComputeDeltas(current, previous []db.UsageRow) []*float64 {
	prevTotals := make(map[string]int64, len(previous))
	for _, r := range previous {
		prevTotals[matchKey(r)] += r.Tokens.Total
	}

	deltas := make([]*float64, len(current))
	for i, r := range current {
		deltas[i] = Percent(float64(r.Tokens.Total), float64(prevTotals[matchKey(r)]))
	}
	return deltas
}

// Percent computes the signed percentage change from prev to cur, or
// nil when prev is zero or negative. Absent is deliberately distinct
// from zero: no prior activity is not the same as no change.
func Percent(cur, prev float64) *float64 {
	if prev <= 0 {
		return nil
	}
	d := (cur - prev) / prev * 100
	return &d
}
