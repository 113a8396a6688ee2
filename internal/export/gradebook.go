package export

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
)

const sheetName = "Submissions"

var header = []interface{}{"Student", "Email", "Score", "Total", "Percent", "Started", "Submitted", "Duration", "Auto-submitted"}

// Gradebook writes quiz submissions as an .xlsx workbook, one row per
// submission, oldest first. students resolves student ids to display names;
// ids it does not know are written as-is.
func Gradebook(w io.Writer, quiz models.Quiz, subs []models.Submission, students map[uuid.UUID]models.User) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: quiz.Title, Creator: "emstudy"}); err != nil {
		return fmt.Errorf("doc props: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	sorted := append([]models.Submission(nil), subs...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].SubmittedAt.Before(sorted[j].SubmittedAt)
	})

	for i, s := range sorted {
		name, email := s.StudentID.String(), ""
		if u, ok := students[s.StudentID]; ok {
			name, email = u.Name, u.Email
		}
		percent := 0.0
		if s.Total > 0 {
			percent = float64(s.Score) / float64(s.Total) * 100
		}
		row := []interface{}{
			name,
			email,
			s.Score,
			s.Total,
			fmt.Sprintf("%.1f", percent),
			s.StartedAt.Format(time.RFC3339),
			s.SubmittedAt.Format(time.RFC3339),
			s.SubmittedAt.Sub(s.StartedAt).Round(time.Second).String(),
			s.AutoSubmitted,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", "B", 28); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// FileName is the download name for quiz's gradebook.
func FileName(quiz models.Quiz) string {
	return fmt.Sprintf("submissions-%s.xlsx", quiz.ID.String()[:8])
}
