package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db")+"?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInitSchema_Fresh(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := InitSchema(ctx, db); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}

	version, err := getSchemaVersion(ctx, db)
	if err != nil {
		t.Fatalf("getSchemaVersion() error = %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("schema version = %d, want %d", version, SchemaVersion)
	}

	for _, table := range []string{"runs", "agents", "ties", "schema_version"} {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestInitSchema_Idempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := InitSchema(ctx, db); err != nil {
			t.Fatalf("InitSchema() pass %d error = %v", i+1, err)
		}
	}

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_version`).Scan(&n); err != nil {
		t.Fatalf("count schema_version: %v", err)
	}
	if n != 1 {
		t.Errorf("schema_version rows = %d, want 1", n)
	}
}

func TestInitSchema_RejectsNewerVersion(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := InitSchema(ctx, db); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`,
		SchemaVersion+1); err != nil {
		t.Fatalf("insert version: %v", err)
	}

	err := InitSchema(ctx, db)
	if err == nil || !strings.Contains(err.Error(), "newer than supported") {
		t.Errorf("InitSchema() error = %v, want newer-version error", err)
	}
}

func TestValidateIntegrity_OrphanedRows(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := InitSchema(ctx, db); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}
	if err := ValidateIntegrity(ctx, db); err != nil {
		t.Fatalf("ValidateIntegrity() on clean db error = %v", err)
	}

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = OFF`); err != nil {
		t.Fatalf("disable foreign keys: %v", err)
	}
	if _, err := db.ExecContext(ctx, `
		INSERT INTO agents (run_id, ord, id, category, opinion, personal_parameter, sub_type)
		VALUES ('missing-run', 0, 'Agent0', 'Believer', 0.9, 1.0, 'None')
	`); err != nil {
		t.Fatalf("insert orphan: %v", err)
	}

	if err := ValidateIntegrity(ctx, db); err == nil {
		t.Error("ValidateIntegrity() expected error for orphaned agent row")
	}
}
