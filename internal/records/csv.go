package records

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"smart-classroom/internal/models"
)

// Column layouts and time formats of the two logs
var (
	EnvironmentHeader = []string{"time", "room", "temperature", "light", "occupancy", "climateState", "lightState"}
	SignInHeader      = []string{"time", "name", "source"}
)

const (
	EnvironmentTimeLayout = "15:04:05"
	SignInTimeLayout      = "2006-01-02 15:04:05"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVStore appends CRLF-terminated rows to two UTF-8 (with BOM) CSV files.
// The header row is written when a file is created.
type CSVStore struct {
	environmentPath string
	signInPath      string
	logger          *slog.Logger
}

// NewCSVStore creates a store writing to the given paths
func NewCSVStore(environmentPath, signInPath string, logger *slog.Logger) *CSVStore {
	return &CSVStore{
		environmentPath: environmentPath,
		signInPath:      signInPath,
		logger:          logger.With("component", "csv-store"),
	}
}

// AppendEnvironment writes one monitoring tick
func (s *CSVStore) AppendEnvironment(_ context.Context, record models.EnvironmentRecord) error {
	row := []string{
		record.Timestamp.Format(EnvironmentTimeLayout),
		record.Room,
		strconv.FormatFloat(record.Temperature, 'f', 1, 64),
		strconv.FormatFloat(record.Light, 'f', 0, 64),
		strconv.Itoa(record.Occupancy),
		string(record.Controls.Climate),
		string(record.Controls.Light),
	}
	if err := appendRow(s.environmentPath, EnvironmentHeader, row); err != nil {
		return fmt.Errorf("failed to append environment record: %w", err)
	}
	return nil
}

// AppendSignIn writes one check-in
func (s *CSVStore) AppendSignIn(_ context.Context, record models.SignRecord) error {
	row := []string{
		record.Timestamp.Format(SignInTimeLayout),
		record.Name,
		record.Source,
	}
	if err := appendRow(s.signInPath, SignInHeader, row); err != nil {
		return fmt.Errorf("failed to append sign-in record: %w", err)
	}
	return nil
}

// ClearSignIns deletes the sign-in log. A missing file is not an error.
func (s *CSVStore) ClearSignIns(_ context.Context) error {
	if err := os.Remove(s.signInPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear sign-in records: %w", err)
	}
	s.logger.Info("sign-in records cleared", "path", s.signInPath)
	return nil
}

// LoadSignIns reads every sign-in row after the header. Rows with fewer
// than two columns or an unparsable time are skipped.
func (s *CSVStore) LoadSignIns(_ context.Context) ([]models.SignRecord, error) {
	data, err := os.ReadFile(s.signInPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sign-in records: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sign-in header: %w", err)
	}

	var records []models.SignRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return records, fmt.Errorf("failed to read sign-in row: %w", err)
		}
		if len(row) < 2 {
			continue
		}

		// A row with an unreadable time is kept with a zero timestamp
		ts, err := time.ParseInLocation(SignInTimeLayout, row[0], time.Local)
		if err != nil {
			s.logger.Warn("sign-in row has bad time", "time", row[0], "name", row[1], "error", err)
			ts = time.Time{}
		}

		source := models.SourceQR
		if len(row) >= 3 && row[2] != "" {
			source = row[2]
		}
		records = append(records, models.SignRecord{Timestamp: ts, Name: row[1], Source: source})
	}

	return records, nil
}

func appendRow(path string, header, row []string) error {
	_, err := os.Stat(path)
	isNew := errors.Is(err, os.ErrNotExist)
	if err != nil && !isNew {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if isNew {
		if _, err := f.Write(utf8BOM); err != nil {
			return err
		}
	}

	w := csv.NewWriter(f)
	w.UseCRLF = true
	if isNew {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
