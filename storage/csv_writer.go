package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"immoweb-scraper/models"
)

// csvFile is a truncated CSV file whose header is written on creation, so
// an empty dataset still produces a header-only file. Safe for concurrent use.
type csvFile struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

func createCSV(path string, header []string) (*csvFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}

	return &csvFile{file: f, writer: w}, nil
}

func (c *csvFile) writeRows(rows [][]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, row := range rows {
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *csvFile) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		_ = c.file.Close()
		return fmt.Errorf("csv: flush: %w", err)
	}
	return c.file.Close()
}

// RawCSVWriter writes the raw dataset in models.RawColumns order.
type RawCSVWriter struct {
	*csvFile
}

// NewRawCSVWriter creates (or truncates) the raw CSV file at path and writes
// the header row. Intermediate directories are created automatically.
func NewRawCSVWriter(path string) (*RawCSVWriter, error) {
	f, err := createCSV(path, models.RawColumns)
	if err != nil {
		return nil, err
	}
	return &RawCSVWriter{f}, nil
}

// WriteRaw appends one row per record. Null values are empty cells.
func (w *RawCSVWriter) WriteRaw(records []*models.RawRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Row())
	}
	return w.writeRows(rows)
}

// CleanCSVWriter writes the cleaned dataset in models.CleanColumns order.
type CleanCSVWriter struct {
	*csvFile
}

// NewCleanCSVWriter creates (or truncates) the cleaned CSV file at path and
// writes the header row.
func NewCleanCSVWriter(path string) (*CleanCSVWriter, error) {
	f, err := createCSV(path, models.CleanColumns)
	if err != nil {
		return nil, err
	}
	return &CleanCSVWriter{f}, nil
}

// WriteClean appends one row per record.
func (w *CleanCSVWriter) WriteClean(records []*models.CleanedRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Row())
	}
	return w.writeRows(rows)
}
