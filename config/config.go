// Package config loads a project's database definitions from a YAML
// file, grounded on the teacher's own configuration loading pattern
// and on original_source/src/config/yaml.{h,cpp} (the
// YAMLDatabasesComponent dispatcher) plus its per-dialect counterparts
// src/sqlite3/config/yaml.cpp and src/postgresql/config/yaml.cpp.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	ormerrors "github.com/oarkflow/orm/errors"
	"gopkg.in/yaml.v3"
)

// Database is one named entry under the top-level "databases" list.
// Exactly one of SQLite or Postgres is populated, selected by DBMS.
type Database struct {
	Name   string `yaml:"name"`
	DBMS   string `yaml:"dbms"`
	Raw    map[string]any `yaml:"-"`
	SQLite *SQLiteConfig `yaml:"-"`
	Postgres *PostgresConfig `yaml:"-"`
}

// SQLiteConfig mirrors sqlite3::YAMLSQLite3Component's two fields.
type SQLiteConfig struct {
	// File is the database file path. Relative paths are resolved
	// against the config file's own directory, the way the original
	// resolves against base_directory.
	File string `yaml:"file"`
	// Connections is the pool size. Defaults to 3.
	Connections int `yaml:"connections"`
}

// PostgresConfig mirrors postgresql::PostgreSQLCredentials plus the
// YAML component's pool_size field.
type PostgresConfig struct {
	Name        string `yaml:"name"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Connections int    `yaml:"connections"`
}

// Config is the parsed top-level document: a flat list of named
// database definitions, matching spec.md §6.
type Config struct {
	Databases []Database `yaml:"databases"`
}

// Lookup returns the first Database entry named name, or an error if
// none matches. Load already rejects duplicate names.
func (c *Config) Lookup(name string) (*Database, error) {
	for i := range c.Databases {
		if c.Databases[i].Name == name {
			return &c.Databases[i], nil
		}
	}
	return nil, ormerrors.NewValueError(fmt.Sprintf("no database named %q in configuration", name))
}

type rawDoc struct {
	Databases []map[string]any `yaml:"databases"`
}

// Load reads and validates the YAML document at path, resolving
// sqlite3 "file" paths relative to path's own directory the way the
// original resolves them against base_directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ormerrors.WrapDatabaseError("reading config file "+path, err)
	}

	var doc rawDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, ormerrors.WrapDatabaseError("parsing config file "+path, err)
	}

	baseDir := filepath.Dir(path)
	seen := make(map[string]bool, len(doc.Databases))
	cfg := &Config{Databases: make([]Database, 0, len(doc.Databases))}

	for _, node := range doc.Databases {
		name, err := parseScalarString(node, "name")
		if err != nil {
			return nil, err
		}
		dbms, err := parseScalarString(node, "dbms")
		if err != nil {
			return nil, err
		}
		if seen[name] {
			return nil, ormerrors.NewValueError(fmt.Sprintf("database name should be unique, found duplicated name %q", name))
		}
		seen[name] = true

		db := Database{Name: name, DBMS: dbms, Raw: node}
		switch dbms {
		case "sqlite3":
			sc, err := parseSQLite(node, baseDir)
			if err != nil {
				return nil, err
			}
			db.SQLite = sc
		case "postgres", "postgresql":
			pc, err := parsePostgres(node)
			if err != nil {
				return nil, err
			}
			db.Postgres = pc
		default:
			return nil, ormerrors.NewValueError(fmt.Sprintf("unsupported database %q", dbms))
		}
		cfg.Databases = append(cfg.Databases, db)
	}

	return cfg, nil
}

func parseScalarString(node map[string]any, key string) (string, error) {
	v, ok := node[key]
	if !ok {
		return "", ormerrors.NewValueError(fmt.Sprintf("%q should be non-empty string", key))
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", ormerrors.NewValueError(fmt.Sprintf("%q should be non-empty string", key))
	}
	return s, nil
}

func parseSQLite(node map[string]any, baseDir string) (*SQLiteConfig, error) {
	file, err := parseScalarString(node, "file")
	if err != nil {
		return nil, ormerrors.NewValueError("'file' of sqlite3 database configuration should be non-empty string")
	}
	connections := 3
	if raw, ok := node["connections"]; ok {
		connections = toInt(raw)
	}
	if connections < 1 {
		return nil, ormerrors.NewValueError("'connections' should be positive integer")
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(baseDir, file)
	}
	return &SQLiteConfig{File: file, Connections: connections}, nil
}

func parsePostgres(node map[string]any) (*PostgresConfig, error) {
	name, err := parseScalarString(node, "name")
	if err != nil {
		return nil, err
	}
	user, err := parseScalarString(node, "user")
	if err != nil {
		return nil, err
	}
	password, _ := node["password"].(string)

	host := "localhost"
	if h, ok := node["host"].(string); ok && h != "" {
		host = h
	}
	port := 5432
	if p, ok := node["port"]; ok {
		port = toInt(p)
	}
	connections := 3
	if c, ok := node["connections"]; ok {
		connections = toInt(c)
	}
	if connections < 1 {
		return nil, ormerrors.NewValueError("'connections' should be positive integer")
	}
	return &PostgresConfig{
		Name: name, User: user, Password: password,
		Host: host, Port: port, Connections: connections,
	}, nil
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
