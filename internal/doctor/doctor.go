// Package doctor inspects an OpenCode database and reports whether the
// fields the usage views aggregate are actually present in the data.
package doctor

import (
	"context"
	"fmt"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/wesm/ocusage/internal/db"
)

// DefaultSample is how many recent messages Check parses when the
// caller does not say otherwise.
const DefaultSample = 500

// The document paths the usage queries extract. Coverage over a recent
// sample shows whether reports will have anything to aggregate.
var sampledFields = []string{
	"role",
	"time.created",
	"tokens.total",
	"modelID",
	"providerID",
	"agent",
	"cost",
}

// FieldCoverage counts how many sampled messages carry one field.
type FieldCoverage struct {
	Field   string `json:"field"`
	Present int    `json:"present"`
}

// Result is the outcome of one health check. MissingTotal counts the
// assistant turns the reports silently exclude; Oldest/NewestMs bound
// the created times seen in the sample.
type Result struct {
	Path         string          `json:"path"`
	Tables       []string        `json:"tables"`
	MessageCount int64           `json:"message_count"`
	SessionCount int64           `json:"session_count"`
	Sampled      int             `json:"sampled"`
	InvalidJSON  int             `json:"invalid_json"`
	Assistant    int             `json:"assistant_sampled"`
	MissingTotal int             `json:"assistant_missing_total"`
	Coverage     []FieldCoverage `json:"coverage"`
	Models       []string        `json:"models,omitempty"`
	Providers    []string        `json:"providers,omitempty"`
	Agents       []string        `json:"agents,omitempty"`
	OldestMs     int64           `json:"sample_oldest_ms,omitempty"`
	NewestMs     int64           `json:"sample_newest_ms,omitempty"`
	Problems     []string        `json:"problems,omitempty"`
}

// Healthy reports whether the store is usable for reporting.
func (r *Result) Healthy() bool {
	return len(r.Problems) == 0
}

// Check opens the store, verifies the expected tables, and parses a
// sample of recent messages to measure field coverage. Structural
// defects land in Result.Problems; only unexpected query failures
// return an error.
func Check(ctx context.Context, d *db.DB, sampleSize int) (*Result, error) {
	if sampleSize <= 0 {
		sampleSize = DefaultSample
	}

	res := &Result{Path: d.Path()}

	tables, err := d.TableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	res.Tables = tables

	present := make(map[string]bool, len(tables))
	for _, name := range tables {
		present[name] = true
	}
	if !present["message"] {
		res.Problems = append(res.Problems, "message table missing")
	}
	if !present["session"] {
		res.Problems = append(res.Problems,
			"session table missing: the session view will fail")
	}
	if !present["message"] {
		return res, nil
	}

	if res.MessageCount, err = d.CountRows(ctx, "message"); err != nil {
		return nil, fmt.Errorf("counting messages: %w", err)
	}
	if present["session"] {
		if res.SessionCount, err = d.CountRows(ctx, "session"); err != nil {
			return nil, fmt.Errorf("counting sessions: %w", err)
		}
	}
	if res.MessageCount == 0 {
		res.Problems = append(res.Problems, "message table is empty")
		return res, nil
	}

	sample, err := d.MessageSample(ctx, sampleSize)
	if err != nil {
		return nil, fmt.Errorf("sampling messages: %w", err)
	}
	res.Sampled = len(sample)

	counts := make(map[string]int, len(sampledFields))
	models := map[string]bool{}
	providers := map[string]bool{}
	agents := map[string]bool{}
	for _, m := range sample {
		if !gjson.Valid(m.Data) {
			res.InvalidJSON++
			continue
		}
		doc := gjson.Parse(m.Data)
		if doc.Get("role").String() == "assistant" {
			res.Assistant++
			if !doc.Get("tokens.total").Exists() {
				res.MissingTotal++
			}
		}
		if v := doc.Get("modelID").String(); v != "" {
			models[v] = true
		}
		if v := doc.Get("providerID").String(); v != "" {
			providers[v] = true
		}
		if v := doc.Get("agent").String(); v != "" {
			agents[v] = true
		}
		if ms := doc.Get("time.created").Int(); ms > 0 {
			if res.OldestMs == 0 || ms < res.OldestMs {
				res.OldestMs = ms
			}
			if ms > res.NewestMs {
				res.NewestMs = ms
			}
		}
		for _, field := range sampledFields {
			if doc.Get(field).Exists() {
				counts[field]++
			}
		}
	}

	for _, field := range sampledFields {
		res.Coverage = append(res.Coverage, FieldCoverage{
			Field:   field,
			Present: counts[field],
		})
	}
	res.Models = sortedKeys(models)
	res.Providers = sortedKeys(providers)
	res.Agents = sortedKeys(agents)

	if res.InvalidJSON == res.Sampled {
		res.Problems = append(res.Problems,
			"no sampled message contains valid JSON")
	} else if res.Assistant == 0 {
		res.Problems = append(res.Problems,
			"no assistant messages in the sample: reports will be empty")
	}

	return res, nil
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
