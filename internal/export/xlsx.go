package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"talentos/internal/domain"
)

const candidateSheet = "Candidates"

// columns defines the candidate worksheet header row.
var columns = []string{
	"Name",
	"Email",
	"Phone",
	"Title",
	"Sector",
	"Experience",
	"Education",
	"Skills",
	"Summary",
	"Source File",
	"Created At",
}

// WriteCandidatesXLSX renders candidate records into an XLSX workbook and
// writes it to w.
func WriteCandidatesXLSX(w io.Writer, records []domain.CandidateRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(candidateSheet)
	if err != nil {
		return fmt.Errorf("export.WriteCandidatesXLSX: creating sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("export.WriteCandidatesXLSX: removing default sheet: %w", err)
	}

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("export.WriteCandidatesXLSX: %w", err)
		}
		if err := f.SetCellValue(candidateSheet, cell, col); err != nil {
			return fmt.Errorf("export.WriteCandidatesXLSX: header: %w", err)
		}
	}

	for row, rec := range records {
		values := candidateToRow(&rec)
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return fmt.Errorf("export.WriteCandidatesXLSX: %w", err)
			}
			if err := f.SetCellValue(candidateSheet, cell, v); err != nil {
				return fmt.Errorf("export.WriteCandidatesXLSX: row %d: %w", row+2, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export.WriteCandidatesXLSX: writing workbook: %w", err)
	}
	return nil
}

func candidateToRow(rec *domain.CandidateRecord) []string {
	return []string{
		rec.Name,
		deref(rec.Email),
		deref(rec.Phone),
		deref(rec.Title),
		deref(rec.Sector),
		deref(rec.Experience),
		deref(rec.Education),
		strings.Join(rec.Skills, ", "),
		deref(rec.Summary),
		rec.SourceFile,
		rec.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
