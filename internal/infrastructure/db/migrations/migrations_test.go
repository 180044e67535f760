package migrations

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"
)

func TestMigrations_EmbedsUsersTable(t *testing.T) {
	b, err := fs.ReadFile(Migrations, "00001_create_users.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	sqlText := string(b)
	for _, want := range []string{"+goose Up", "+goose Down", "next_job_run_time", "UNIQUE (username)"} {
		if !strings.Contains(sqlText, want) {
			t.Fatalf("migration missing %q", want)
		}
	}
}

func TestUp_RunsFromEmbeddedRoot(t *testing.T) {
	orig := gooseUp
	defer func() { gooseUp = orig }()

	var gotDir string
	gooseUp = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	if err := Up(context.Background(), nil); err != nil {
		t.Fatalf("up: %v", err)
	}
	if gotDir != "." {
		t.Fatalf("expected dir '.', got %q", gotDir)
	}
}

func TestUp_PropagatesError(t *testing.T) {
	orig := gooseUp
	defer func() { gooseUp = orig }()

	boom := errors.New("boom")
	gooseUp = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error { return boom }

	if err := Up(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
