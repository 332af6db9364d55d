package records

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"smart-classroom/internal/models"
)

// SQLiteStore keeps both logs in a local SQLite database. It is safe for
// concurrent use.
type SQLiteStore struct {
	db   *sql.DB
	room string
}

// NewSQLiteStore opens or creates the database at path
func NewSQLiteStore(path, room string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, room: room}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS environment_records (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		recorded_at TEXT NOT NULL,
		room        TEXT NOT NULL,
		temperature REAL NOT NULL,
		light       REAL NOT NULL,
		occupancy   INTEGER NOT NULL,
		climate     TEXT NOT NULL,
		lighting    TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS sign_records (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		signed_at TEXT NOT NULL,
		room      TEXT NOT NULL,
		name      TEXT NOT NULL,
		source    TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) AppendEnvironment(ctx context.Context, record models.EnvironmentRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO environment_records (recorded_at, room, temperature, light, occupancy, climate, lighting)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.Timestamp.Format(time.RFC3339Nano),
		record.Room,
		record.Temperature,
		record.Light,
		record.Occupancy,
		string(record.Controls.Climate),
		string(record.Controls.Light),
	)
	if err != nil {
		return fmt.Errorf("insert environment record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AppendSignIn(ctx context.Context, record models.SignRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sign_records (signed_at, room, name, source) VALUES (?, ?, ?, ?)`,
		record.Timestamp.Format(time.RFC3339Nano),
		s.room,
		record.Name,
		record.Source,
	)
	if err != nil {
		return fmt.Errorf("insert sign record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ClearSignIns(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sign_records`); err != nil {
		return fmt.Errorf("clear sign records: %w", err)
	}
	return nil
}

// LoadSignIns returns every sign-in in insertion order
func (s *SQLiteStore) LoadSignIns(ctx context.Context) ([]models.SignRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT signed_at, name, source FROM sign_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query sign records: %w", err)
	}
	defer rows.Close()

	var out []models.SignRecord
	for rows.Next() {
		var signedAt, name, source string
		if err := rows.Scan(&signedAt, &name, &source); err != nil {
			return nil, fmt.Errorf("scan sign record: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, signedAt)
		if err != nil {
			return nil, fmt.Errorf("parse sign record time %q: %w", signedAt, err)
		}
		out = append(out, models.SignRecord{Timestamp: ts, Name: name, Source: source})
	}
	return out, rows.Err()
}

// CountEnvironment returns the number of stored environment rows
func (s *SQLiteStore) CountEnvironment(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM environment_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count environment records: %w", err)
	}
	return n, nil
}
