// Command mkfixture writes a small OpenCode-shaped SQLite database for
// trying ocusage against known data:
//
//	go run ./cmd/mkfixture -out /tmp/opencode.db
//	ocusage -db /tmp/opencode.db -by model
//
// The generated store spans ten days, several models, providers, and
// agents, a session without a title, and the odd message with missing
// fields, so every view and the doctor command have something to chew
// on.
package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type callSpec struct {
	model    string
	provider string
	agent    string
	input    int64
	output   int64
	cost     float64
}

type sessionSpec struct {
	id      string
	title   string // empty means the session was never titled
	daysAgo int
	calls   []callSpec
}

var specs = []sessionSpec{
	{
		id:    "ses_fix_debug",
		title: "Debug flaky websocket test",
		calls: []callSpec{
			{"claude-sonnet-4-5", "anthropic", "build", 12400, 2100, 0.09},
			{"claude-sonnet-4-5", "anthropic", "build", 31000, 4400, 0.21},
			{"claude-opus-4-1-20250805", "anthropic", "oracle", 8000, 1200, 0.31},
		},
	},
	{
		id:      "ses_fix_refactor",
		title:   "Refactor config loader",
		daysAgo: 1,
		calls: []callSpec{
			{"deepseek-r1", "openrouter", "build", 9200, 3100, 0.012},
			{"deepseek-r1", "openrouter", "build", 4100, 900, 0.004},
			{"qwen-3-coder-free", "openrouter", "explore", 2600, 400, 0},
		},
	},
	{
		id:      "ses_fix_untitled",
		daysAgo: 3,
		calls: []callSpec{
			{"gemini-3-pro-preview", "google", "plan", 5400, 2200, 0.05},
		},
	},
	{
		id:      "ses_fix_archive",
		title:   "Archived spike",
		daysAgo: 9,
		calls: []callSpec{
			{"grok-code-fast-1", "xai", "build", 15800, 6300, 0.02},
			{"grok-code-fast-1", "xai", "build", 7700, 2800, 0.01},
		},
	},
}

func main() {
	out := flag.String("out", "", "output database path")
	flag.Parse()
	if *out == "" {
		fmt.Fprintln(os.Stderr, "usage: mkfixture -out <path>")
		os.Exit(1)
	}

	if err := os.Remove(*out); err != nil &&
		!errors.Is(err, os.ErrNotExist) {
		log.Fatalf("removing existing db: %v", err)
	}

	conn, err := sql.Open("sqlite3", *out)
	if err != nil {
		log.Fatalf("opening db: %v", err)
	}
	defer conn.Close()

	if err := createSchema(conn); err != nil {
		log.Fatalf("creating schema: %v", err)
	}

	base := time.Now()
	seq := 0
	for _, spec := range specs {
		n, err := writeSession(conn, spec, base, &seq)
		if err != nil {
			log.Fatalf("writing session %s: %v", spec.id, err)
		}
		fmt.Printf("  %s: %d messages\n", spec.id, n)
	}

	fmt.Printf("Fixture DB written to %s\n", *out)
}

func createSchema(conn *sql.DB) error {
	stmts := []string{
		`CREATE TABLE message (id TEXT PRIMARY KEY, session_id TEXT, data TEXT)`,
		`CREATE TABLE session (id TEXT PRIMARY KEY, title TEXT)`,
	}
	for _, stmt := range stmts {
		if _, err := conn.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func writeSession(
	conn *sql.DB, spec sessionSpec,
	base time.Time, seq *int,
) (int, error) {
	var title any
	if spec.title != "" {
		title = spec.title
	}
	_, err := conn.Exec(
		`INSERT INTO session (id, title) VALUES (?, ?)`,
		spec.id, title,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting session: %w", err)
	}

	start := base.AddDate(0, 0, -spec.daysAgo).Add(-2 * time.Hour)
	written := 0
	for i, call := range spec.calls {
		ts := start.Add(time.Duration(i) * 5 * time.Minute)

		// Each assistant turn is preceded by the user prompt that
		// produced it. User turns carry no token usage.
		if err := insertMessage(conn, spec.id, nextID(seq), map[string]any{
			"role": "user",
			"time": map[string]any{"created": ts.UnixMilli()},
		}); err != nil {
			return written, err
		}
		written++

		doc := assistantDoc(call, ts.Add(30*time.Second))
		if err := insertMessage(conn, spec.id, nextID(seq), doc); err != nil {
			return written, err
		}
		written++
	}

	// One trailing assistant turn with no recorded token usage, the
	// shape an interrupted generation leaves behind.
	if spec.daysAgo == 0 {
		doc := map[string]any{
			"role":    "assistant",
			"modelID": spec.calls[0].model,
			"time": map[string]any{
				"created": start.Add(time.Hour).UnixMilli(),
			},
		}
		if err := insertMessage(conn, spec.id, nextID(seq), doc); err != nil {
			return written, err
		}
		written++
	}

	return written, nil
}

func nextID(seq *int) string {
	*seq++
	return fmt.Sprintf("msg_fix_%04d", *seq)
}

func assistantDoc(call callSpec, ts time.Time) map[string]any {
	cacheRead := call.input / 4
	cacheWrite := call.input / 20
	total := call.input + call.output + cacheRead + cacheWrite

	return map[string]any{
		"role":       "assistant",
		"modelID":    call.model,
		"providerID": call.provider,
		"agent":      call.agent,
		"cost":       call.cost,
		"tokens": map[string]any{
			"input":     call.input,
			"output":    call.output,
			"reasoning": 0,
			"cache": map[string]any{
				"read":  cacheRead,
				"write": cacheWrite,
			},
			"total": total,
		},
		"time": map[string]any{
			"created":   ts.UnixMilli(),
			"completed": ts.Add(20 * time.Second).UnixMilli(),
		},
	}
}

func insertMessage(
	conn *sql.DB, sessionID, id string, doc map[string]any,
) error {
	doc["id"] = id
	doc["sessionID"] = sessionID
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	_, err = conn.Exec(
		`INSERT INTO message (id, session_id, data) VALUES (?, ?, ?)`,
		id, sessionID, string(data),
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}
