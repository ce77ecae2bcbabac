package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kadirpekel/echoagent/pkg/config"

	// Database drivers
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// SQLStore implements Store over database/sql.
// Supports PostgreSQL, MySQL, and SQLite.
type SQLStore struct {
	db      *sql.DB
	dialect string // "postgres", "mysql", or "sqlite"
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS invocations (
    id VARCHAR(255) PRIMARY KEY,
    capability VARCHAR(255) NOT NULL,
    message TEXT,
    response TEXT,
    error_kind VARCHAR(50),
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_invocations_created_at ON invocations(created_at);
`

// NewSQLStore creates a SQL-backed store over an open connection.
func NewSQLStore(db *sql.DB, dialect string) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	switch dialect {
	case "postgres", "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported dialect: %s (supported: postgres, mysql, sqlite)", dialect)
	}

	s := &SQLStore{db: db, dialect: dialect}

	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// NewSQLStoreFromConfig opens a connection per the history config and
// builds a SQLStore on it.
func NewSQLStoreFromConfig(cfg *config.HistoryConfig) (*SQLStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("history configuration is required")
	}

	// The go-sqlite3 driver registers as "sqlite3"
	driverName := cfg.Driver
	if driverName == "sqlite" {
		driverName = "sqlite3"
	}

	db, err := sql.Open(driverName, dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewSQLStore(db, cfg.Driver)
}

func dsn(cfg *config.HistoryConfig) string {
	switch cfg.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database, cfg.SSLMode)
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
	default:
		return cfg.Database
	}
}

func (s *SQLStore) initSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// rebind converts ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != "postgres" {
		return query
	}
	result := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			result = append(result, fmt.Sprintf("$%d", n)...)
			continue
		}
		result = append(result, query[i])
	}
	return string(result)
}

func (s *SQLStore) Append(ctx context.Context, record Record) error {
	query := s.rebind(`INSERT INTO invocations (id, capability, message, response, error_kind, created_at)
VALUES (?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.Capability, record.Message, record.Response, record.ErrorKind, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert invocation record: %w", err)
	}
	return nil
}

func (s *SQLStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	query := s.rebind(`SELECT id, capability, message, response, error_kind, created_at
FROM invocations ORDER BY created_at DESC LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query invocation records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var response, errorKind sql.NullString
		if err := rows.Scan(&r.ID, &r.Capability, &r.Message, &response, &errorKind, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan invocation record: %w", err)
		}
		r.Response = response.String
		r.ErrorKind = errorKind.String
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invocation records: %w", err)
	}

	return records, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLStore)(nil)
