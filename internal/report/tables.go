// Package report renders period summaries and notification inboxes as
// terminal tables and XLSX workbooks.
package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/dvloznov/finance-insights/internal/change"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/money"
	"github.com/dvloznov/finance-insights/internal/stats"
)

const dateLayout = "2006-01-02"

// Options controls table rendering.
type Options struct {
	Currency money.Currency
	// Color enables ANSI colors for change and priority columns.
	Color bool
}

// WriteSummary renders the windowed metrics, the category breakdown and the
// point-in-time figures of sum.
func WriteSummary(w io.Writer, sum stats.Summary, opts Options) {
	cur := opts.Currency

	fmt.Fprintf(w, "Period %s: %s to %s (previous %s to %s)\n",
		periodLabel(sum),
		sum.CurrentRange.Start.Format(dateLayout), sum.CurrentRange.End.Format(dateLayout),
		sum.PreviousRange.Start.Format(dateLayout), sum.PreviousRange.End.Format(dateLayout))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Metric", "Current", "Previous", "Change"})
	for _, m := range []struct {
		name   string
		metric stats.Metric
	}{
		{"Income", sum.Windowed.Income},
		{"Expenses", sum.Windowed.Expenses},
		{"Balance", sum.Windowed.Balance},
		{"Savings contributions", sum.Windowed.Contributions},
	} {
		t.AppendRow(table.Row{m.name, cur.Format(m.metric.Current), cur.Format(m.metric.Previous), changeText(m.metric.Change, opts.Color)})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"Transactions", sum.Windowed.CurrentCount, sum.Windowed.PreviousCount, ""})
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()

	if len(sum.Windowed.ExpensesByCategory) > 0 {
		c := table.NewWriter()
		c.SetOutputMirror(w)
		c.AppendHeader(table.Row{"Category", "Spent", "Share", "Count"})
		for _, ct := range sum.Windowed.ExpensesByCategory {
			c.AppendRow(table.Row{ct.Category, cur.Format(ct.Amount), fmt.Sprintf("%.1f%%", ct.Share), ct.Count})
		}
		c.SetStyle(table.StyleRounded)
		c.Style().Format.Header = text.FormatDefault
		c.SetColumnConfigs([]table.ColumnConfig{
			{Number: 2, Align: text.AlignRight},
			{Number: 3, Align: text.AlignRight},
		})
		c.Render()
	}

	p := table.NewWriter()
	p.SetOutputMirror(w)
	p.AppendHeader(table.Row{"As of today", "Amount"})
	p.AppendRow(table.Row{"Active savings", cur.Format(sum.PointInTime.TotalSavings)})
	p.AppendRow(table.Row{"Budgeted", cur.Format(sum.PointInTime.TotalBudget)})
	p.AppendRow(table.Row{"Spent against budgets", cur.Format(sum.PointInTime.TotalSpent)})
	p.AppendRow(table.Row{"Budget used", fmt.Sprintf("%.1f%%", sum.PointInTime.BudgetUsed)})
	p.SetStyle(table.StyleRounded)
	p.Style().Format.Header = text.FormatDefault
	p.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	p.Render()
}

// WriteNotifications renders an inbox, most recent first as given.
func WriteNotifications(w io.Writer, list []domain.Notification, opts Options) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"ID", "Created", "Priority", "Type", "Title", "State"})

	unread := 0
	for _, n := range list {
		state := "read"
		switch {
		case n.IsDismissed:
			state = "dismissed"
		case !n.IsRead:
			state = "unread"
			unread++
		}
		t.AppendRow(table.Row{shortID(n.ID), n.CreatedAt.Format("2006-01-02 15:04"), priorityText(n.Priority, opts.Color), n.Type, n.Title, state})
	}

	t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d notifications", len(list)), fmt.Sprintf("%d unread", unread)})
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	t.Render()
}

func periodLabel(sum stats.Summary) string {
	if sum.Period == "" {
		return "custom"
	}
	return string(sum.Period)
}

func changeText(c change.Change, color bool) string {
	if !color {
		return c.Text
	}
	switch c.Type {
	case change.Positive:
		return text.FgGreen.Sprint(c.Text)
	case change.Negative:
		return text.FgRed.Sprint(c.Text)
	default:
		return text.FgHiBlack.Sprint(c.Text)
	}
}

func priorityText(p domain.Priority, color bool) string {
	if !color {
		return string(p)
	}
	switch p {
	case domain.PriorityUrgent:
		return text.Colors{text.FgRed, text.Bold}.Sprint(p)
	case domain.PriorityHigh:
		return text.FgYellow.Sprint(p)
	case domain.PriorityLow:
		return text.FgHiBlack.Sprint(p)
	default:
		return string(p)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
