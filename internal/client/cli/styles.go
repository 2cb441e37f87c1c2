package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorDanger  = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorInfo    = lipgloss.Color("#3B82F6")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	failureStyle = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorInfo)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

// success печатает toast об успешном действии
func (c *Cli) success(format string, args ...any) {
	c.io.Println(successStyle.Render("✓ " + fmt.Sprintf(format, args...)))
}

// warning печатает предупреждение, не прерывающее команду
func (c *Cli) warning(format string, args ...any) {
	c.io.Println(warningStyle.Render("⚠ " + fmt.Sprintf(format, args...)))
}

// failure печатает toast об ошибке в stderr
func (c *Cli) failure(err error) {
	fmt.Fprintln(c.io.ErrWriter(), failureStyle.Render("✗ "+err.Error()))
}

func (c *Cli) hint(text string) {
	fmt.Fprintln(c.io.ErrWriter(), mutedStyle.Render(text))
}

func (c *Cli) title(format string, args ...any) {
	c.io.Println(titleStyle.Render(fmt.Sprintf(format, args...)))
}

// printTable печатает таблицу или строку empty для пустого списка
func (c *Cli) printTable(empty string, headers []string, rows [][]string) {
	if len(rows) == 0 {
		c.io.Println(mutedStyle.Render(empty))
		return
	}
	c.io.Println(renderTable(headers, rows))
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

func formatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatID(id int64) string {
	if id == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", id)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
