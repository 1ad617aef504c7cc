package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"finboard/internal/models"
)

// Export renders the report into a spreadsheet artifact. On any failure the
// caller gets an error and no partial file.
func Export(r models.MonthlyReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}

	summaryRows := [][]interface{}{
		{"Month", r.Summary.Month.String()},
		{"Income", r.Summary.Income.InexactFloat64()},
		{"Expense", r.Summary.Expense.InexactFloat64()},
		{"Balance", r.Summary.Balance.InexactFloat64()},
	}
	for i, row := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("generate report: %w", err)
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("generate report: %w", err)
		}
	}

	const categorySheet = "Categories"
	if _, err := f.NewSheet(categorySheet); err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}
	header := []interface{}{"Category", "Total"}
	if err := f.SetSheetRow(categorySheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}
	for i, c := range r.Summary.Categories {
		row := []interface{}{c.Name, c.Value.InexactFloat64()}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("generate report: %w", err)
		}
		if err := f.SetSheetRow(categorySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("generate report: %w", err)
		}
	}

	const movementSheet = "Movements"
	if _, err := f.NewSheet(movementSheet); err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}
	movementHeader := []interface{}{"Date", "Description", "Category", "Type", "Amount"}
	if err := f.SetSheetRow(movementSheet, "A1", &movementHeader); err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}
	for i, m := range r.Movements {
		row := []interface{}{
			m.OccurredAt.Format("2006-01-02"),
			m.Description,
			m.Category,
			string(m.Type),
			m.Amount.InexactFloat64(),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("generate report: %w", err)
		}
		if err := f.SetSheetRow(movementSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("generate report: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}
	return buf.Bytes(), nil
}
