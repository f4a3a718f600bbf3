package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	_ "github.com/lib/pq"

	"github.com/dvega/docuvec/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		sslmode := cfg.SSLMode
		if sslmode == "" {
			sslmode = "disable"
		}
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslmode)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func ApplyMigrations(db *sql.DB) error {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	for _, file := range files {
		content, err := fs.ReadFile(migrationsFS, "migrations/"+file)
		if err != nil {
			return err
		}
		queries := strings.Split(string(content), ";")
		for _, q := range queries {
			q = strings.TrimSpace(q)
			if q == "" {
				continue
			}
			if _, err := db.Exec(q); err != nil {
				if strings.Contains(err.Error(), "already exists") {
					continue
				}
				return fmt.Errorf("execute query in %s: %w", file, err)
			}
		}
	}
	return nil
}

// CheckVectorDimension compares the declared width of documents.embedding
// against the configured embedding dimension. The two are not
// interchangeable: switching the embedding backend (768 vs 1536) requires
// a width-migrating schema change, so a mismatch refuses startup instead
// of failing per request.
func CheckVectorDimension(db *sql.DB, want int) error {
	const query = `
		SELECT atttypmod
		FROM pg_attribute
		WHERE attrelid = 'documents'::regclass AND attname = 'embedding'
	`
	var width int
	if err := db.QueryRow(query).Scan(&width); err != nil {
		return fmt.Errorf("read embedding column width: %w", err)
	}
	if width != want {
		return fmt.Errorf("documents.embedding is vector(%d) but ai.embed_dim is %d; migrate the column before switching backends", width, want)
	}
	return nil
}
