package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, yamlBody string) string {
	t.Helper()
	path := filepath.Join(dir, "database.yml")
	if err := os.WriteFile(path, []byte(yamlBody), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

func TestLoadSQLiteResolvesRelativeFilePath(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
databases:
  - name: default
    dbms: sqlite3
    file: app.db
    connections: 5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	db, err := cfg.Lookup("default")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if db.SQLite == nil {
		t.Fatalf("expected SQLite config")
	}
	if want := filepath.Join(dir, "app.db"); db.SQLite.File != want {
		t.Fatalf("expected resolved path %q, got %q", want, db.SQLite.File)
	}
	if db.SQLite.Connections != 5 {
		t.Fatalf("expected connections 5, got %d", db.SQLite.Connections)
	}
}

func TestLoadSQLiteRejectsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
databases:
  - name: default
    dbms: sqlite3
    connections: 3
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing 'file'")
	}
}

func TestLoadPostgresDefaultsHostPortConnections(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
databases:
  - name: primary
    dbms: postgres
    name_db: ignored
    user: admin
    password: secret
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	db, err := cfg.Lookup("primary")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if db.Postgres == nil {
		t.Fatalf("expected Postgres config")
	}
	if db.Postgres.Host != "localhost" {
		t.Fatalf("expected default host localhost, got %q", db.Postgres.Host)
	}
	if db.Postgres.Port != 5432 {
		t.Fatalf("expected default port 5432, got %d", db.Postgres.Port)
	}
	if db.Postgres.Connections != 3 {
		t.Fatalf("expected default connections 3, got %d", db.Postgres.Connections)
	}
}

func TestLoadRejectsDuplicateDatabaseNames(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
databases:
  - name: default
    dbms: sqlite3
    file: a.db
  - name: default
    dbms: sqlite3
    file: b.db
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for duplicate database name")
	}
}

func TestLoadRejectsUnsupportedDBMS(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
databases:
  - name: default
    dbms: mysql
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unsupported dbms")
	}
}

func TestLoadRejectsNonPositiveConnections(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
databases:
  - name: default
    dbms: sqlite3
    file: a.db
    connections: 0
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for non-positive connections")
	}
}
