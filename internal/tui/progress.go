package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const tickInterval = 120 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type tickMsg time.Time

// Column is one table column. Width is a minimum; the header can widen it.
type Column struct {
	Header string
	Width  int
}

// Row is one line of the table.
type Row struct {
	Key    string
	Fields []string
}

// ProgressModel renders a live table of work items, one row per item, with
// a spinner footer counting settled rows.
type ProgressModel struct {
	title     string
	columns   []Column
	widths    []int
	rows      []Row
	index     map[string]int
	statusCol int
	started   time.Time
	tick      int
	done      bool
	err       error
}

// NewProgressModel builds an empty table. The column titled STATUS, if any,
// is styled and drives the footer counts.
func NewProgressModel(title string, columns []Column) ProgressModel {
	m := ProgressModel{
		title:     title,
		columns:   columns,
		widths:    make([]int, len(columns)),
		index:     make(map[string]int),
		statusCol: -1,
		started:   time.Now(),
	}
	for i, c := range columns {
		m.widths[i] = max(len(c.Header), c.Width)
		if m.statusCol < 0 && strings.EqualFold(c.Header, "STATUS") {
			m.statusCol = i
		}
	}
	return m
}

// AddRow appends a row. Rows must be added before the program starts.
func (m *ProgressModel) AddRow(key string, fields []string) {
	row := Row{Key: key, Fields: make([]string, len(m.columns))}
	copy(row.Fields, fields)
	m.index[key] = len(m.rows)
	m.rows = append(m.rows, row)
}

// Rows returns the current table contents.
func (m ProgressModel) Rows() []Row {
	return m.rows
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m ProgressModel) Init() tea.Cmd {
	return tick()
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.tick++
		if m.done {
			return m, nil
		}
		return m, tick()
	case RowUpdateMsg:
		m.apply(msg)
	case WorkDoneMsg:
		m.done = true
		return m, tea.Quit
	case ErrorMsg:
		m.err = msg.Err
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if k := msg.String(); k == "ctrl+c" || k == "q" {
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *ProgressModel) apply(msg RowUpdateMsg) {
	i, ok := m.index[msg.Key]
	if !ok {
		return
	}
	for j, c := range m.columns {
		if v, ok := msg.Fields[c.Header]; ok {
			m.rows[i].Fields[j] = v
		}
	}
}

func (m ProgressModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}

	var b strings.Builder
	if m.title != "" {
		b.WriteString(HeaderStyle.Render(m.title))
		b.WriteString("\n\n")
	}

	cells := make([]string, len(m.columns))
	for i, c := range m.columns {
		cells[i] = HeaderStyle.Render(pad(c.Header, m.widths[i]))
	}
	b.WriteString(strings.Join(cells, "  "))
	b.WriteByte('\n')

	for _, row := range m.rows {
		for i := range m.columns {
			val := TruncateWithEllipsis(row.Fields[i], m.widths[i])
			if i == m.statusCol {
				cells[i] = StatusStyle(val).Render(pad(val, m.widths[i]))
			} else {
				cells[i] = pad(val, m.widths[i])
			}
		}
		b.WriteString(strings.Join(cells, "  "))
		b.WriteByte('\n')
	}

	if !m.done {
		settled, total := m.Counts()
		frame := spinnerFrames[m.tick%len(spinnerFrames)]
		footer := fmt.Sprintf("%s %d/%d settled (%s)", frame, settled, total, FormatElapsed(time.Since(m.started)))
		b.WriteByte('\n')
		b.WriteString(FooterStyle.Render(footer))
		b.WriteByte('\n')
	}
	return b.String()
}

// Counts returns how many rows reached a settled status, and the row total.
func (m ProgressModel) Counts() (int, int) {
	if m.statusCol < 0 {
		return 0, len(m.rows)
	}
	settled := 0
	for _, row := range m.rows {
		if Settled(strings.TrimSpace(row.Fields[m.statusCol])) {
			settled++
		}
	}
	return settled, len(m.rows)
}

func (m ProgressModel) Done() bool { return m.done }

func (m ProgressModel) Err() error { return m.err }

func pad(s string, width int) string {
	if n := len(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// NonEmptyOrDash returns "-" for blank values.
func NonEmptyOrDash(value string) string {
	if value = strings.TrimSpace(value); value == "" {
		return "-"
	}
	return value
}

// TruncateWithEllipsis shortens value to max bytes, ending in "..." when
// there is room for it.
func TruncateWithEllipsis(value string, max int) string {
	value = strings.TrimSpace(value)
	switch {
	case max <= 0:
		return ""
	case len(value) <= max:
		return value
	case max <= 3:
		return value[:max]
	}
	return value[:max-3] + "..."
}

// FormatElapsed renders d compactly: 850ms, 4.2s, 37s, 2m05s.
func FormatElapsed(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < 10*time.Second:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}
