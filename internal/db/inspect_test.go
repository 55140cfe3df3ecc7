package db

import (
	"context"
	"testing"
	"time"
)

func TestTableNames(t *testing.T) {
	d := newTestDB(t)

	names, err := d.TableNames(context.Background())
	if err != nil {
		t.Fatalf("TableNames: %v", err)
	}
	got := map[string]bool{}
	for _, n := range names {
		got[n] = true
	}
	if !got["message"] || !got["session"] {
		t.Errorf("tables = %v, want message and session", names)
	}
}

func TestCountRows(t *testing.T) {
	d := newTestDB(t)
	seedUsageFixture(t, d)

	n, err := d.CountRows(context.Background(), "message")
	if err != nil {
		t.Fatalf("CountRows: %v", err)
	}
	if n != 8 {
		t.Errorf("message rows = %d, want 8", n)
	}

	if _, err := d.CountRows(context.Background(), "no_such_table"); err == nil {
		t.Error("CountRows on a missing table did not fail")
	}
}

func TestMessageSampleNewestFirst(t *testing.T) {
	d := newTestDB(t)
	seedUsageFixture(t, d)

	sample, err := d.MessageSample(context.Background(), 3)
	if err != nil {
		t.Fatalf("MessageSample: %v", err)
	}
	if len(sample) != 3 {
		t.Fatalf("got %d messages, want 3", len(sample))
	}
	// Insertion order is m1..m8, so the newest rowid is m8.
	if sample[0].ID != "m8" {
		t.Errorf("sample[0].ID = %q, want m8", sample[0].ID)
	}
	for _, m := range sample {
		if m.Data == "" {
			t.Errorf("message %s has empty data", m.ID)
		}
	}
}

func TestMessageSampleEmptyStore(t *testing.T) {
	d := newTestDB(t)

	sample, err := d.MessageSample(context.Background(), 10)
	if err != nil {
		t.Fatalf("MessageSample: %v", err)
	}
	if len(sample) != 0 {
		t.Errorf("got %d messages from an empty store", len(sample))
	}
}

func TestMessageSampleNullColumns(t *testing.T) {
	d := newTestDB(t)
	base := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC).UnixMilli()
	insertMessages(t, d, msg("r1", "", base))

	sample, err := d.MessageSample(context.Background(), 1)
	if err != nil {
		t.Fatalf("MessageSample: %v", err)
	}
	if len(sample) != 1 {
		t.Fatalf("got %d messages, want 1", len(sample))
	}
	if sample[0].SessionID != "" {
		t.Errorf("SessionID = %q, want empty", sample[0].SessionID)
	}
}
