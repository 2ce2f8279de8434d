package audit

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE audit_logs (
			id TEXT PRIMARY KEY,
			action TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT,
			user_id INTEGER,
			source TEXT NOT NULL,
			details TEXT,
			created_at TEXT NOT NULL
		) STRICT;
	`)
	if err != nil {
		t.Fatalf("creating audit_logs: %v", err)
	}
	return db
}

func TestSQLiteRepository_CreateAndList(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t))
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	entries := []Entry{
		{Action: ActionCreate, EntityType: "event", EntityID: "1", UserID: 7, Source: "api", CreatedAt: base},
		{Action: ActionUpdate, EntityType: "event", EntityID: "1", UserID: 7, Source: "api", CreatedAt: base.Add(time.Millisecond)},
		{Action: ActionLogin, EntityType: "user", EntityID: "7", UserID: 7, Source: "api", CreatedAt: base.Add(time.Second),
			Details: map[string]any{"remote": "10.0.0.1"}},
	}
	for i := range entries {
		if err := repo.Create(ctx, &entries[i]); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if entries[i].ID == "" {
			t.Fatal("Create() should assign an ID")
		}
	}

	all, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if all.Total != 3 || len(all.Entries) != 3 {
		t.Fatalf("List() total = %d, len = %d; want 3, 3", all.Total, len(all.Entries))
	}
	if all.Entries[0].Action != ActionLogin || all.Entries[2].Action != ActionCreate {
		t.Errorf("List() not newest first: %s ... %s", all.Entries[0].Action, all.Entries[2].Action)
	}
	if all.Entries[0].Details["remote"] != "10.0.0.1" {
		t.Errorf("Details = %v", all.Entries[0].Details)
	}
	if all.Limit != defaultPageSize {
		t.Errorf("Limit = %d, want %d", all.Limit, defaultPageSize)
	}

	events, err := repo.List(ctx, Filter{EntityType: "event", Limit: 1})
	if err != nil {
		t.Fatalf("List(event) error = %v", err)
	}
	if events.Total != 2 || len(events.Entries) != 1 {
		t.Errorf("List(event) total = %d, len = %d; want 2, 1", events.Total, len(events.Entries))
	}
	if events.Entries[0].Action != ActionUpdate {
		t.Errorf("List(event)[0].Action = %s, want update", events.Entries[0].Action)
	}
}

func TestFilter_Normalise(t *testing.T) {
	tests := []struct {
		in         Filter
		wantLimit  int
		wantOffset int
	}{
		{Filter{}, defaultPageSize, 0},
		{Filter{Limit: 1000, Offset: -5}, maxPageSize, 0},
		{Filter{Limit: 10, Offset: 20}, 10, 20},
	}

	for _, tt := range tests {
		f := tt.in
		f.normalise()
		if f.Limit != tt.wantLimit || f.Offset != tt.wantOffset {
			t.Errorf("normalise(%+v) = %d/%d, want %d/%d", tt.in, f.Limit, f.Offset, tt.wantLimit, tt.wantOffset)
		}
	}
}

func TestRecorder_WritesOnClose(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t))
	rec := NewRecorder(repo, slog.Default(), 0)
	rec.Start()

	for range 10 {
		rec.Record(Entry{Action: ActionCreate, EntityType: "post"})
	}
	rec.Close()

	result, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 10 {
		t.Errorf("Total = %d, want 10", result.Total)
	}
	if result.Entries[0].Source != "api" {
		t.Errorf("Source = %q, want default api", result.Entries[0].Source)
	}
}

// blockingRepo holds every Create until release is closed.
type blockingRepo struct {
	release chan struct{}
	mu      sync.Mutex
	count   int
}

func (b *blockingRepo) Create(_ context.Context, _ *Entry) error {
	<-b.release
	b.mu.Lock()
	b.count++
	b.mu.Unlock()
	return nil
}

func (b *blockingRepo) List(_ context.Context, _ Filter) (*ListResult, error) {
	return nil, errors.New("not implemented")
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	repo := &blockingRepo{release: make(chan struct{})}

	// Not started: nothing drains, so the second entry overflows.
	rec := NewRecorder(repo, logger, 1)
	rec.Record(Entry{Action: ActionCreate, EntityType: "event"})
	rec.Record(Entry{Action: ActionDelete, EntityType: "event"})

	if !strings.Contains(logs.String(), "audit queue full") {
		t.Errorf("expected drop warning, got %q", logs.String())
	}

	close(repo.release)
	rec.Start()
	rec.Close()

	if repo.count != 1 {
		t.Errorf("written = %d, want 1", repo.count)
	}
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var rec *Recorder
	rec.Record(Entry{Action: ActionCreate})
}
