package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Config controls SQLite initialization.
type Config struct {
	Path           string
	ExtensionsPath string
	EnableVSS      bool
	VectorDim      int
	Logger         *slog.Logger
}

// Database wraps the sql.DB handle with feature flags.
type Database struct {
	db        *sql.DB
	enableVSS bool
	vectorDim int
	logger    *slog.Logger
}

// New opens the database, loads extensions if requested, and ensures schema.
func New(ctx context.Context, cfg Config) (*Database, error) {
	if cfg.Path == "" {
		return nil, errors.New("database path is required")
	}

	if cfg.VectorDim == 0 {
		cfg.VectorDim = 256
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", cfg.Path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	wrapper := &Database{db: db, enableVSS: cfg.EnableVSS, vectorDim: cfg.VectorDim, logger: cfg.Logger}

	if cfg.EnableVSS {
		if err := wrapper.loadExtension(ctx, cfg.ExtensionsPath); err != nil {
			db.Close()
			return nil, fmt.Errorf("load sqlite-vss extension: %w", err)
		}
	}

	if err := wrapper.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return wrapper, nil
}

func (d *Database) loadExtension(ctx context.Context, extPath string) error {
	if extPath == "" {
		extPath = os.Getenv("GO_SQLITE3_EXTENSIONS")
	}
	if extPath == "" {
		return errors.New("extension path not provided")
	}

	d.logger.Info("loading sqlite extension", "path", extPath)

	conn, err := d.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "PRAGMA enable_load_extension=1;"); err != nil {
		return err
	}
	if _, err := conn.ExecContext(ctx, "SELECT load_extension(?)", extPath); err != nil {
		return err
	}
	return nil
}

func (d *Database) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS facts (
            id TEXT PRIMARY KEY,
            text TEXT NOT NULL,
            embedding JSON,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_facts_created ON facts(created_at);`,
	}

	if d.enableVSS {
		stmts = append(stmts,
			fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS vss_facts USING vss0(text_embedding(%d));`, d.vectorDim),
			`CREATE TABLE IF NOT EXISTS vss_payload (
                rowid INTEGER PRIMARY KEY,
                fact_id TEXT NOT NULL REFERENCES facts(id) ON DELETE CASCADE
            );`,
		)
	}

	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// DB returns the underlying database handle.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Close releases the database.
func (d *Database) Close() error {
	return d.db.Close()
}

// HasVSS indicates whether the sqlite-vss index is available.
func (d *Database) HasVSS() bool {
	return d.enableVSS
}

// VectorDim returns configured embedding dimension.
func (d *Database) VectorDim() int {
	return d.vectorDim
}
