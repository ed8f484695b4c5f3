package exportsql

import (
	"context"
	"database/sql"
	"io"
	"testing"

	"github.com/goliatone/go-export/export"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
	})

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, `CREATE TABLE participants (
		id TEXT, full_name TEXT, program_id TEXT, registration_date TEXT
	)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO participants (id, full_name, program_id, registration_date) VALUES
		('2', 'Beatrice', 'p1', '2026-01-02'),
		('1', 'Ada', 'p1', '2026-01-01')`); err != nil {
		t.Fatalf("seed rows: %v", err)
	}
	return db
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(export.TypeParticipants, TableConfig{
		Table:        "participants",
		DateField:    "registration_date",
		ProgramField: "program_id",
		JoinExists: map[string]string{
			"has_payment": "EXISTS (SELECT 1 FROM payments p WHERE p.participant_id = t.id)",
		},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	cfg, ok := reg.Resolve(export.TypeParticipants)
	if !ok {
		t.Fatalf("expected participants table to resolve")
	}
	if cfg.Table != "participants" {
		t.Fatalf("unexpected table %q", cfg.Table)
	}

	if _, ok := reg.Resolve(export.TypePayments); ok {
		t.Fatalf("payments should not resolve without registration")
	}
}

func TestRegistryRequiresTableName(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(export.TypeParticipants, TableConfig{}); err == nil {
		t.Fatalf("expected error for empty table name")
	}
}

func TestSourceOpen_RejectsSortByNotInAllowList(t *testing.T) {
	db := newTestDB(t)
	reg := NewRegistry()
	if err := reg.Register(export.TypeParticipants, TableConfig{
		Table:          "participants",
		ProgramField:   "program_id",
		SortableFields: []string{"id", "full_name"},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	src := NewSource(db, reg)

	// An attacker-controlled sort_by carrying a subquery must be rejected
	// before it ever reaches ORDER BY, not merely quoted.
	filters := export.FilterSpec{
		ProgramID: "p1",
		SortBy:    "(SELECT 1); DROP TABLE participants; --",
	}
	_, err := src.Open(context.Background(), export.TypeParticipants, filters)
	if err == nil {
		t.Fatal("expected an error for a non-allow-listed sort_by")
	}
	if export.KindFromError(err) != export.KindValidation {
		t.Fatalf("expected KindValidation, got %v", export.KindFromError(err))
	}
}

func TestSourceOpen_SortsByAllowedFieldAscending(t *testing.T) {
	db := newTestDB(t)
	reg := NewRegistry()
	if err := reg.Register(export.TypeParticipants, TableConfig{
		Table:          "participants",
		ProgramField:   "program_id",
		SortableFields: []string{"id", "full_name"},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	src := NewSource(db, reg)

	filters := export.FilterSpec{ProgramID: "p1", SortBy: "id", SortOrder: "asc"}
	it, err := src.Open(context.Background(), export.TypeParticipants, filters)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer it.Close()

	first, err := it.Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if first["id"] != "1" {
		t.Fatalf("expected first row id=1 when sorted ascending by id, got %v", first["id"])
	}

	_, err = it.Next(context.Background())
	if err != nil {
		t.Fatalf("expected a second row, got error: %v", err)
	}

	if _, err := it.Next(context.Background()); err != io.EOF {
		t.Fatalf("expected io.EOF after two rows, got %v", err)
	}
}
