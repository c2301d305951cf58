package console

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			Padding(0, 1)

	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	headerCells = cellStyle.Bold(true)
)

// Header renders a section title.
func Header(title string) string {
	return headerStyle.Render(title)
}

// Table renders rows under headers. An empty listing still gets its
// header row.
func Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCells
			}
			return cellStyle
		})

	return t.String()
}
