// Package database mirrors classroom records into ClickHouse.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"smart-classroom/internal/models"
)

// execer is the part of driver.Conn the store writes through
type execer interface {
	Exec(ctx context.Context, query string, args ...any) error
}

type ClickHouseDB struct {
	conn   execer
	closer func() error
	room   string
	logger *slog.Logger
}

// Config holds the ClickHouse connection settings
type Config struct {
	Addr     string
	Database string
	Username string
	Password string
	// Room is stored alongside every sign-in row
	Room string
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(ctx context.Context, cfg Config, logger *slog.Logger) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	db := newClickHouseDB(conn, conn.Close, cfg.Room, logger)
	db.logger.Info("connected", "addr", cfg.Addr, "database", cfg.Database)

	if err := db.InitSchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

var _ execer = (driver.Conn)(nil)

func newClickHouseDB(conn execer, closer func() error, room string, logger *slog.Logger) *ClickHouseDB {
	return &ClickHouseDB{
		conn:   conn,
		closer: closer,
		room:   room,
		logger: logger.With("component", "clickhouse"),
	}
}

// InitSchema creates the necessary tables if they don't exist
func (db *ClickHouseDB) InitSchema(ctx context.Context) error {
	for _, tableSQL := range AllTables() {
		if err := db.conn.Exec(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	db.logger.Info("schema initialized")
	return nil
}

// AppendEnvironment saves one monitoring tick
func (db *ClickHouseDB) AppendEnvironment(ctx context.Context, record models.EnvironmentRecord) error {
	query := `
		INSERT INTO environment_records (timestamp, room, temperature, light, occupancy, climate_state, light_state)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	err := db.conn.Exec(ctx, query,
		record.Timestamp,
		record.Room,
		record.Temperature,
		record.Light,
		uint32(record.Occupancy),
		string(record.Controls.Climate),
		string(record.Controls.Light),
	)

	if err != nil {
		return fmt.Errorf("failed to insert environment record: %w", err)
	}

	return nil
}

// AppendSignIn saves one check-in
func (db *ClickHouseDB) AppendSignIn(ctx context.Context, record models.SignRecord) error {
	query := `
		INSERT INTO sign_records (timestamp, room, name, source)
		VALUES (?, ?, ?, ?)
	`

	err := db.conn.Exec(ctx, query,
		record.Timestamp,
		db.room,
		record.Name,
		record.Source,
	)

	if err != nil {
		return fmt.Errorf("failed to insert sign record: %w", err)
	}

	return nil
}

// ClearSignIns removes every sign-in row
func (db *ClickHouseDB) ClearSignIns(ctx context.Context) error {
	if err := db.conn.Exec(ctx, "TRUNCATE TABLE IF EXISTS sign_records"); err != nil {
		return fmt.Errorf("failed to truncate sign records: %w", err)
	}

	db.logger.Info("sign records truncated")
	return nil
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	if db.closer == nil {
		return nil
	}
	return db.closer()
}
