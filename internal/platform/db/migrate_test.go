package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMigrationFile(t *testing.T, dir, name, sql string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(sql), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadMigrations_SortedByVersion(t *testing.T) {
	dir := t.TempDir()
	writeMigrationFile(t, dir, "0002_kennels.sql", "CREATE TABLE kennels (id INT);")
	writeMigrationFile(t, dir, "0001_projects.sql", "CREATE TABLE projects (id INT);")
	writeMigrationFile(t, dir, "0010_audit.sql", "CREATE TABLE audit_log (id INT);")

	m := NewMigrator(nil, dir)
	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}

	wantVersions := []int{1, 2, 10}
	for i, w := range wantVersions {
		if migrations[i].Version != w {
			t.Errorf("migration %d: expected version %d, got %d", i, w, migrations[i].Version)
		}
	}
	if migrations[0].Name != "0001_projects.sql" {
		t.Errorf("expected 0001_projects.sql first, got %s", migrations[0].Name)
	}
	if migrations[0].SQL != "CREATE TABLE projects (id INT);" {
		t.Errorf("unexpected SQL content: %s", migrations[0].SQL)
	}
}

func TestLoadMigrations_SkipsNonMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	writeMigrationFile(t, dir, "0001_init.sql", "SELECT 1;")
	writeMigrationFile(t, dir, "README.md", "notes")
	writeMigrationFile(t, dir, "helper.sql", "SELECT 2;")
	writeMigrationFile(t, dir, "abc_notnumeric.sql", "SELECT 3;")
	if err := os.Mkdir(filepath.Join(dir, "archive"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	m := NewMigrator(nil, dir)
	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(migrations) != 1 {
		t.Fatalf("expected 1 migration, got %d", len(migrations))
	}
	if migrations[0].Name != "0001_init.sql" {
		t.Errorf("expected 0001_init.sql, got %s", migrations[0].Name)
	}
}

func TestLoadMigrations_MissingDir(t *testing.T) {
	m := NewMigrator(nil, filepath.Join(t.TempDir(), "does-not-exist"))
	if _, err := m.LoadMigrations(); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
