package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
)

func TestGradebookRows(t *testing.T) {
	quiz := models.Quiz{ID: uuid.New(), Title: "Midterm", DurationMinutes: 30}
	known, unknown := uuid.New(), uuid.New()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	subs := []models.Submission{
		{StudentID: unknown, Score: 1, Total: 4, StartedAt: start, SubmittedAt: start.Add(30 * time.Minute), AutoSubmitted: true},
		{StudentID: known, Score: 3, Total: 4, StartedAt: start, SubmittedAt: start.Add(12 * time.Minute)},
	}
	students := map[uuid.UUID]models.User{known: {Name: "Grace", Email: "grace@example.com"}}

	var buf bytes.Buffer
	if err := Gradebook(&buf, quiz, subs, students); err != nil {
		t.Fatalf("Gradebook() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "Student" {
		t.Errorf("header = %v", rows[0])
	}
	first := rows[1]
	if first[0] != "Grace" || first[1] != "grace@example.com" || first[2] != "3" || first[4] != "75.0" {
		t.Errorf("first row = %v, want Grace sorted first", first)
	}
	second := rows[2]
	if second[0] != unknown.String() || second[8] != "TRUE" {
		t.Errorf("second row = %v", second)
	}
}

func TestGradebookEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Gradebook(&buf, models.Quiz{ID: uuid.New()}, nil, nil); err != nil {
		t.Fatalf("Gradebook() error = %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty workbook")
	}
}
