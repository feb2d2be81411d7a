package storage

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"igharvest/pkg/contact"
)

const (
	commentsSheet = "comments"
	profilesSheet = "profiles"
)

// WriteWorkbook writes both tables as sheets of one xlsx workbook
func (m *Manager) WriteWorkbook(rows []CommentRow, profiles []contact.Record) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), commentsSheet); err != nil {
		return "", fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(profilesSheet); err != nil {
		return "", fmt.Errorf("failed to add sheet: %w", err)
	}

	comments := make([][]string, 0, len(rows))
	for _, r := range rows {
		comments = append(comments, r.values())
	}
	if err := fillSheet(f, commentsSheet, commentsHeader, comments); err != nil {
		return "", err
	}

	records := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		records = append(records, profileValues(p))
	}
	if err := fillSheet(f, profilesSheet, profilesHeader, records); err != nil {
		return "", err
	}
	f.SetActiveSheet(0)

	return m.writeAtomic(m.names.Workbook, func(w io.Writer) error {
		return f.Write(w)
	})
}

func fillSheet(f *excelize.File, sheet string, header []string, records [][]string) error {
	all := append([][]string{header}, records...)
	for i, rec := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
