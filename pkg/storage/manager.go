package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileNames are the output file names inside the output directory
type FileNames struct {
	Comments string
	Profiles string
	Workbook string
	Report   string
}

// DefaultFileNames matches the names earlier harvest runs produced
func DefaultFileNames() FileNames {
	return FileNames{
		Comments: "comments.csv",
		Profiles: "profiles_phone.csv",
		Workbook: "harvest.xlsx",
		Report:   "report.json",
	}
}

// Manager writes harvest outputs into one directory
type Manager struct {
	outputDir string
	names     FileNames
}

// NewManager creates a new storage manager
func NewManager(outputDir string, names FileNames) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	defaults := DefaultFileNames()
	if names.Comments == "" {
		names.Comments = defaults.Comments
	}
	if names.Profiles == "" {
		names.Profiles = defaults.Profiles
	}
	if names.Workbook == "" {
		names.Workbook = defaults.Workbook
	}
	if names.Report == "" {
		names.Report = defaults.Report
	}

	return &Manager{outputDir: outputDir, names: names}, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// Path returns the full path of a file name inside the output directory
func (m *Manager) Path(name string) string {
	return filepath.Join(m.outputDir, name)
}

// WriteJSON writes v as indented JSON to name
func (m *Manager) WriteJSON(name string, v interface{}) (string, error) {
	return m.writeAtomic(name, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

// writeAtomic writes through a temporary file and renames it into place so
// readers never see a half-written output
func (m *Manager) writeAtomic(name string, write func(w io.Writer) error) (string, error) {
	filename := m.Path(name)

	tempFile := filename + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	err = write(out)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return filename, nil
}

// WriteReport writes the run report under the configured report name
func (m *Manager) WriteReport(r interface{}) (string, error) {
	return m.WriteJSON(m.names.Report, r)
}
