// Package csvlog appends session results to a CSV file.
package csvlog

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/verte-zerg/nback/internal/model"
)

// Header is written once, when the file is created.
var Header = []string{"user_id", "accuracy", "average_response_time"}

// Writer is an append-only CSV result sink. Existing rows are never rewritten.
type Writer struct {
	path string
}

// New returns a Writer for path. The file is created on first Record.
func New(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the CSV file location.
func (w *Writer) Path() string {
	return w.path
}

// Record appends one row for result, writing the header first if the file did not exist.
func (w *Writer) Record(_ context.Context, result model.SessionResult) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("failed to create csv directory: %w", err)
	}
	_, statErr := os.Stat(w.path)
	exists := statErr == nil
	if statErr != nil && !os.IsNotExist(statErr) {
		return fmt.Errorf("failed to stat csv log: %w", statErr)
	}

	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open csv log: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close; rows are flushed below.
			_ = cerr
		}
	}()

	writer := csv.NewWriter(file)
	if !exists {
		if err := writer.Write(Header); err != nil {
			return fmt.Errorf("failed to write csv header: %w", err)
		}
	}
	if err := writer.Write(Row(result)); err != nil {
		return fmt.Errorf("failed to write csv row: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv log: %w", err)
	}
	return nil
}

// Row formats result as subject, accuracy (2 decimals) and average RT (3 decimals).
func Row(result model.SessionResult) []string {
	return []string{
		result.SubjectID,
		strconv.FormatFloat(result.AccuracyPercent, 'f', 2, 64),
		strconv.FormatFloat(result.AverageResponseTimeSeconds, 'f', 3, 64),
	}
}
