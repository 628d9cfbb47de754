package exporter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"arcdata/models"
)

// NewAggregate folds a collection into the single-page export shape,
// however many pages were actually fetched
func NewAggregate(c *models.Collection) models.AggregateExport {
	data := c.Records
	if data == nil {
		data = make([]json.RawMessage, 0)
	}
	return models.AggregateExport{
		Data:       data,
		MaxValue:   c.MaxValue,
		Pagination: models.SinglePage(len(data)),
	}
}

// WriteJSON writes v as 2-space indented JSON without escaping HTML or
// non-ASCII characters. The file appears only once fully written.
// It returns the number of bytes written.
func WriteJSON(path string, v any) (int64, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return 0, fmt.Errorf("failed to encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return 0, fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return 0, fmt.Errorf("failed to move %s into place: %w", path, err)
	}

	return int64(buf.Len()), nil
}

// ReadAggregate loads an export written by WriteJSON
func ReadAggregate(path string) (*models.AggregateExport, error) {
	var export models.AggregateExport
	if err := readJSON(path, &export); err != nil {
		return nil, err
	}
	return &export, nil
}

// ReadWorkbenches loads a workbench document written by WriteJSON
func ReadWorkbenches(path string) (*models.WorkbenchDocument, error) {
	var doc models.WorkbenchDocument
	if err := readJSON(path, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
