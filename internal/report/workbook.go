package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/stats"
)

// Sheet names used by Workbook.
const (
	SheetSummary       = "Summary"
	SheetCategories    = "Categories"
	SheetNotifications = "Notifications"
)

// Workbook builds an XLSX document with a summary sheet, a per-category
// expense sheet and, when list is non-empty, a notifications sheet. Amounts
// are written as numbers so spreadsheet formulas keep working.
func Workbook(sum stats.Summary, list []domain.Notification) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return nil, fmt.Errorf("Workbook: rename sheet: %w", err)
	}
	if err := writeSummarySheet(f, sum); err != nil {
		return nil, fmt.Errorf("Workbook: summary: %w", err)
	}
	if err := writeCategorySheet(f, sum.Windowed.ExpensesByCategory); err != nil {
		return nil, fmt.Errorf("Workbook: categories: %w", err)
	}
	if len(list) > 0 {
		if err := writeNotificationSheet(f, list); err != nil {
			return nil, fmt.Errorf("Workbook: notifications: %w", err)
		}
	}
	return f, nil
}

// WriteWorkbook builds the workbook and streams it to w.
func WriteWorkbook(w io.Writer, sum stats.Summary, list []domain.Notification) error {
	f, err := Workbook(sum, list)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("WriteWorkbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, sum stats.Summary) error {
	rows := [][]interface{}{
		{"Period", periodLabel(sum)},
		{"Current from", sum.CurrentRange.Start.Format(dateLayout)},
		{"Current to", sum.CurrentRange.End.Format(dateLayout)},
		{"Previous from", sum.PreviousRange.Start.Format(dateLayout)},
		{"Previous to", sum.PreviousRange.End.Format(dateLayout)},
		{},
		{"Metric", "Current", "Previous", "Change %", "Change"},
	}
	for _, m := range []struct {
		name   string
		metric stats.Metric
	}{
		{"Income", sum.Windowed.Income},
		{"Expenses", sum.Windowed.Expenses},
		{"Balance", sum.Windowed.Balance},
		{"Savings contributions", sum.Windowed.Contributions},
	} {
		rows = append(rows, []interface{}{m.name, m.metric.Current, m.metric.Previous, m.metric.Change.Value, m.metric.Change.Text})
	}
	rows = append(rows,
		[]interface{}{"Transactions", sum.Windowed.CurrentCount, sum.Windowed.PreviousCount},
		[]interface{}{},
		[]interface{}{"Active savings", sum.PointInTime.TotalSavings},
		[]interface{}{"Budgeted", sum.PointInTime.TotalBudget},
		[]interface{}{"Spent against budgets", sum.PointInTime.TotalSpent},
		[]interface{}{"Budget used %", sum.PointInTime.BudgetUsed},
	)
	return writeRows(f, SheetSummary, rows)
}

func writeCategorySheet(f *excelize.File, cats []stats.CategoryTotal) error {
	if _, err := f.NewSheet(SheetCategories); err != nil {
		return err
	}
	rows := [][]interface{}{{"Category", "Amount", "Share %", "Count"}}
	for _, c := range cats {
		rows = append(rows, []interface{}{c.Category, c.Amount, c.Share, c.Count})
	}
	return writeRows(f, SheetCategories, rows)
}

func writeNotificationSheet(f *excelize.File, list []domain.Notification) error {
	if _, err := f.NewSheet(SheetNotifications); err != nil {
		return err
	}
	rows := [][]interface{}{{"ID", "Created", "Type", "Priority", "Title", "Message", "Reference", "Read", "Dismissed"}}
	for _, n := range list {
		rows = append(rows, []interface{}{
			n.ID, n.CreatedAt.Format("2006-01-02 15:04:05"), string(n.Type), string(n.Priority),
			n.Title, n.Message, n.ReferenceID, n.IsRead, n.IsDismissed,
		})
	}
	return writeRows(f, SheetNotifications, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return nil
}
