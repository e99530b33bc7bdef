// Package export renders the student roster and the reward catalog as XLSX
// workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/codeninja-coin/admin-service/internal/models"
)

const (
	StudentsSheet    = "Students"
	RewardItemsSheet = "Reward Items"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	studentHeader    = []interface{}{"ID", "First Name", "Last Name", "Age", "Belt", "Coins", "Created At", "Updated At"}
	rewardItemHeader = []interface{}{"ID", "Title", "Description", "Image URL", "Price", "Stock", "Created At", "Updated At"}
)

// WriteStudents writes one row per student in the given order
func WriteStudents(w io.Writer, students []*models.Student) error {
	rows := make([][]interface{}, 0, len(students))
	for _, s := range students {
		var age interface{}
		if s.Age != nil {
			age = *s.Age
		}
		rows = append(rows, []interface{}{
			s.ID, s.FirstName, s.LastName, age, string(s.Belt), s.Coins,
			formatTime(s.CreatedAt), formatTime(s.UpdatedAt),
		})
	}
	return writeSheet(w, StudentsSheet, studentHeader, rows)
}

// WriteRewardItems writes one row per reward item in the given order
func WriteRewardItems(w io.Writer, items []*models.RewardItem) error {
	rows := make([][]interface{}, 0, len(items))
	for _, item := range items {
		rows = append(rows, []interface{}{
			item.ID, item.Title, deref(item.Description), deref(item.ImageURL), item.Price, item.Stock,
			formatTime(item.CreatedAt), formatTime(item.UpdatedAt),
		})
	}
	return writeSheet(w, RewardItemsSheet, rewardItemHeader, rows)
}

func writeSheet(w io.Writer, sheet string, header []interface{}, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E8E8E8"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheet, "A", lastCol, 20); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
