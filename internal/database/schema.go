package database

// SQL schemas for all ClickHouse tables

const (
	// EnvironmentRecordsTableSQL creates the environment_records table
	EnvironmentRecordsTableSQL = `
		CREATE TABLE IF NOT EXISTS environment_records (
			timestamp DateTime64(3),
			room String,
			temperature Float64,
			light Float64,
			occupancy UInt32,
			climate_state LowCardinality(String),
			light_state LowCardinality(String)
		) ENGINE = MergeTree()
		ORDER BY (room, timestamp)
		PARTITION BY toYYYYMM(timestamp)
	`

	// SignRecordsTableSQL creates the sign_records table
	SignRecordsTableSQL = `
		CREATE TABLE IF NOT EXISTS sign_records (
			timestamp DateTime64(3),
			room String,
			name String,
			source LowCardinality(String)
		) ENGINE = MergeTree()
		ORDER BY (room, timestamp)
	`
)

// AllTables returns all table creation SQL statements
func AllTables() []string {
	return []string{
		EnvironmentRecordsTableSQL,
		SignRecordsTableSQL,
	}
}
