// Package ui renders pipeline progress as a terminal view: one row per
// recipe with the type it builds and how many of its mutations the model
// accepted.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"typeweave/internal/pipeline"
)

// sessionRow is what the view knows about one recipe.
type sessionRow struct {
	file     string
	typeName string
	stage    pipeline.Stage
	status   pipeline.Status
	applied  int
	failed   int
	elapsed  time.Duration
}

func (r sessionRow) finished() bool {
	return r.status == pipeline.StatusError || (r.stage == pipeline.StageEmit && r.status == pipeline.StatusDone)
}

// weight is the share of the row's work already behind it.
func (r sessionRow) weight() float64 {
	if r.finished() {
		return 1
	}
	switch r.stage {
	case pipeline.StageApply:
		if r.status == pipeline.StatusDone {
			return 0.8
		}
		return 0.3
	case pipeline.StageEmit:
		return 0.9
	case pipeline.StageLoad:
		if r.status == pipeline.StatusDone {
			return 0.2
		}
		return 0.1
	default:
		return 0
	}
}

// label is the short status column.
func (r sessionRow) label() string {
	switch {
	case r.status == pipeline.StatusError:
		return "error"
	case r.finished():
		return "done"
	case r.status == pipeline.StatusQueued || r.stage == "":
		return "queued"
	case r.stage == pipeline.StageLoad:
		return "decoding"
	case r.stage == pipeline.StageApply && r.status == pipeline.StatusDone:
		return "built"
	case r.stage == pipeline.StageApply:
		return "applying"
	default:
		return "emitting"
	}
}

// name prefers the type once the recipe is decoded.
func (r sessionRow) name() string {
	if r.typeName == "" {
		return r.file
	}
	return r.typeName
}

func (r sessionRow) mutations() string {
	switch {
	case r.applied == 0 && r.failed == 0:
		return ""
	case r.failed == 0:
		return fmt.Sprintf("%d applied", r.applied)
	default:
		return fmt.Sprintf("%d applied, %d rejected", r.applied, r.failed)
	}
}

type progressModel struct {
	title     string
	events    <-chan pipeline.Event
	spinner   spinner.Model
	bar       progress.Model
	rows      []sessionRow
	byFile    map[string]int
	phase     pipeline.Stage
	phaseDone bool
	width     int
	closed    bool
}

type eventMsg pipeline.Event
type closedMsg struct{}

// NewProgressModel returns a Bubble Tea model that follows a pipeline run
// recipe by recipe. It quits when events is closed.
func NewProgressModel(title string, files []string, events <-chan pipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 76

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     bar,
		rows:    make([]sessionRow, len(files)),
		byFile:  make(map[string]int, len(files)),
		width:   80,
	}
	for i, file := range files {
		m.rows[i] = sessionRow{file: file, status: pipeline.StatusQueued}
		m.byFile[file] = i
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.applyEvent(pipeline.Event(msg)), m.next())
	case closedMsg:
		m.closed = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.closed {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

// applyEvent folds ev into the rows and returns the bar animation.
func (m *progressModel) applyEvent(ev pipeline.Event) tea.Cmd {
	if ev.File == "" {
		m.phase = ev.Stage
		m.phaseDone = ev.Status == pipeline.StatusDone
		return nil
	}
	idx, ok := m.byFile[ev.File]
	if !ok {
		return nil
	}
	row := &m.rows[idx]
	row.stage, row.status = ev.Stage, ev.Status
	if ev.TypeName != "" {
		row.typeName = ev.TypeName
	}
	if ev.Stage == pipeline.StageApply && ev.Status != pipeline.StatusWorking {
		row.applied, row.failed, row.elapsed = ev.Applied, ev.Failed, ev.Elapsed
	}
	return m.bar.SetPercent(m.fraction())
}

func (m *progressModel) fraction() float64 {
	if len(m.rows) == 0 {
		return 0
	}
	total := 0.0
	for _, r := range m.rows {
		total += r.weight()
	}
	return total / float64(len(m.rows))
}

// phaseLabel names the pipeline-wide stage in progress.
func (m *progressModel) phaseLabel() string {
	switch m.phase {
	case pipeline.StageLoad:
		return "loading"
	case pipeline.StageApply:
		return "applying"
	case pipeline.StageEmit:
		if m.phaseDone {
			return "finished"
		}
		return "emitting"
	default:
		return ""
	}
}

func (m *progressModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	finished, broken, applied, rejected := 0, 0, 0, 0
	for _, r := range m.rows {
		if r.finished() {
			finished++
		}
		if r.status == pipeline.StatusError {
			broken++
		}
		applied += r.applied
		rejected += r.failed
	}

	header := m.title
	if label := m.phaseLabel(); label != "" {
		header = fmt.Sprintf("%s (%s)", header, label)
	}
	header = fmt.Sprintf("%s  %d/%d types", header, finished, len(m.rows))
	if m.closed {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7")).Render(header))
	b.WriteString("\n\n")

	const statusWidth, countsWidth = 9, 32
	nameWidth := max(m.width-statusWidth-countsWidth-6, 20)
	for _, r := range m.rows {
		label := r.label()
		counts := r.mutations()
		if r.elapsed > 0 && counts != "" {
			counts += fmt.Sprintf(" in %s", r.elapsed.Round(time.Millisecond))
		}
		name := truncate(r.name(), nameWidth)
		fmt.Fprintf(&b, "  %s %s%s %s\n",
			statusStyle(label).Render(fmt.Sprintf("%*s", statusWidth, label)),
			name, strings.Repeat(" ", nameWidth-runewidth.StringWidth(name)),
			countStyle(r.failed).Render(truncate(counts, countsWidth)))
	}

	b.WriteString("\n")
	if m.closed {
		b.WriteString(m.bar.ViewAs(1.0))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	summary := fmt.Sprintf("mutations: %d applied, %d rejected", applied, rejected)
	if broken > 0 {
		summary += fmt.Sprintf("; %d types failed", broken)
	}
	b.WriteString(countStyle(rejected + broken).Render(summary))
	b.WriteString("\n")
	return b.String()
}

func statusStyle(label string) lipgloss.Style {
	switch label {
	case "done", "built":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "queued":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	}
}

// countStyle highlights counts that include rejections.
func countStyle(rejected int) lipgloss.Style {
	if rejected > 0 {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
