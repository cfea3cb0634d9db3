package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"storyglow/internal/config"
)

const tickInterval = 150 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// tickMsg drives the spinner animation.
type tickMsg time.Time

type videoRow struct {
	id         string
	output     string
	status     string
	framesDone int
	framesAll  int
	err        error
}

// ProgressModel is a bubbletea model showing one row per video as it moves
// through the generation pipeline.
type ProgressModel struct {
	title    string
	rows     []videoRow
	rowIndex map[string]int
	done     bool
	err      error

	tick int
}

// NewProgressModel creates a progress model with one pending row per spec.
func NewProgressModel(title string, specs []config.VideoSpec) ProgressModel {
	m := ProgressModel{
		title:    title,
		rowIndex: make(map[string]int, len(specs)),
	}
	for _, spec := range specs {
		m.rowIndex[spec.ID] = len(m.rows)
		m.rows = append(m.rows, videoRow{id: spec.ID, output: spec.Output, status: "pending"})
	}
	return m
}

func scheduleTick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init satisfies the tea.Model interface.
func (m ProgressModel) Init() tea.Cmd {
	return scheduleTick()
}

// Update satisfies the tea.Model interface.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.tick++
		if m.done {
			return m, nil
		}
		return m, scheduleTick()

	case StageMsg:
		if idx, ok := m.rowIndex[msg.VideoID]; ok {
			m.rows[idx].status = msg.Stage
		}
		return m, nil

	case FrameMsg:
		if idx, ok := m.rowIndex[msg.VideoID]; ok {
			m.rows[idx].framesDone = msg.Done
			m.rows[idx].framesAll = msg.Total
		}
		return m, nil

	case CompleteMsg:
		if idx, ok := m.rowIndex[msg.Result.VideoID]; ok {
			row := &m.rows[idx]
			switch {
			case msg.Result.Err != nil:
				row.status = "error"
				row.err = msg.Result.Err
			case msg.Result.Skipped:
				row.status = "skipped"
			default:
				row.status = "done"
			}
		}
		return m, nil

	case WorkDoneMsg:
		m.done = true
		return m, tea.Quit

	case ErrorMsg:
		m.err = msg.Err
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View satisfies the tea.Model interface.
func (m ProgressModel) View() string {
	if m.done && m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}

	idWidth := len("VIDEO")
	outWidth := len("OUTPUT")
	for _, row := range m.rows {
		if len(row.id) > idWidth {
			idWidth = len(row.id)
		}
		if len(row.output) > outWidth {
			outWidth = len(row.output)
		}
	}
	const framesWidth = 11
	const statusWidth = 9

	var b strings.Builder
	if m.title != "" {
		b.WriteString(HeaderStyle.Render(m.title))
		b.WriteString("\n\n")
	}

	headers := []string{
		HeaderStyle.Render(pad("VIDEO", idWidth)),
		HeaderStyle.Render(pad("OUTPUT", outWidth)),
		HeaderStyle.Render(pad("FRAMES", framesWidth)),
		HeaderStyle.Render(pad("STATUS", statusWidth)),
	}
	b.WriteString(strings.Join(headers, "  "))
	b.WriteByte('\n')

	for _, row := range m.rows {
		frames := "-"
		if row.framesAll > 0 {
			frames = fmt.Sprintf("%d/%d", row.framesDone, row.framesAll)
		}
		parts := []string{
			pad(row.id, idWidth),
			pad(row.output, outWidth),
			pad(frames, framesWidth),
			StatusStyle(row.status).Render(pad(row.status, statusWidth)),
		}
		b.WriteString(strings.Join(parts, "  "))
		if row.err != nil {
			b.WriteString("  " + row.err.Error())
		}
		b.WriteByte('\n')
	}

	if !m.done {
		processed, total := m.progressCounts()
		spinner := spinnerFrames[m.tick%len(spinnerFrames)]
		fmt.Fprintf(&b, "\n%s Generating %d/%d...\n", spinner, processed, total)
	}

	return b.String()
}

// progressCounts returns (finished, total) rows, counting only terminal states.
func (m ProgressModel) progressCounts() (int, int) {
	finished := 0
	for _, row := range m.rows {
		switch row.status {
		case "done", "skipped", "error":
			finished++
		}
	}
	return finished, len(m.rows)
}

// Done reports whether the model has finished.
func (m ProgressModel) Done() bool {
	return m.done
}

// Err returns any fatal error that occurred.
func (m ProgressModel) Err() error {
	return m.err
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
