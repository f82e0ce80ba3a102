package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/grovetools/dtcli/internal/tracker"
)

// jobRow is the last known state of one job. Rows outlive the job's time in the
// tracker so finished jobs stay on screen.
type jobRow struct {
	frame tracker.Frame
	// stopped is set when the job left the tracker without reaching a terminal status.
	stopped    tracker.EvictReason
	pollErrors int
}

// runModel is the progress view for followed runs
type runModel struct {
	engine *tracker.Engine

	rows  []jobRow
	index map[string]int // job ID -> position in rows

	results      []tracker.Result
	launchesDone bool

	bar      progress.Model
	help     help.Model
	showHelp bool
	width    int
	quitting bool
}

func newRunModel(engine *tracker.Engine) runModel {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(24))
	bar.ShowPercentage = false

	return runModel{
		engine: engine,
		index:  make(map[string]int),
		bar:    bar,
		help:   help.New(),
	}
}

func (m runModel) Init() tea.Cmd {
	return nil
}

func (m *runModel) upsert(f tracker.Frame) *jobRow {
	if i, ok := m.index[f.JobID]; ok {
		m.rows[i].frame = f
		return &m.rows[i]
	}
	m.index[f.JobID] = len(m.rows)
	m.rows = append(m.rows, jobRow{frame: f})
	return &m.rows[len(m.rows)-1]
}

// markStopped records that tj left the tracker early, keeping its last frame on screen.
func (m *runModel) markStopped(tj tracker.TrackedJob, reason tracker.EvictReason) {
	row := m.upsert(tj.LastFrame)
	row.stopped = reason
	row.pollErrors = tj.PollErrors
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case framesMsg:
		for _, f := range msg {
			if i, ok := m.index[f.JobID]; ok && m.rows[i].stopped != tracker.EvictNone {
				continue
			}
			m.upsert(f)
		}
		if followFinished(m.launchesDone, msg, m.engine.Tracked()) {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case evictedMsg:
		m.markStopped(msg.job, msg.reason)
		return m, nil

	case launchedMsg:
		m.results = msg.results
		m.launchesDone = true
		launched := 0
		for _, r := range msg.results {
			if r.Err != nil {
				continue
			}
			launched++
			if _, ok := m.index[r.Handle.JobID]; !ok {
				m.upsert(tracker.Frame{
					JobID:      r.Handle.JobID,
					ResourceID: r.Handle.ResourceID,
					Name:       r.Handle.Name,
					Kind:       r.Handle.Kind,
					Status:     tracker.StatusQueued,
				})
			}
		}
		if launched == 0 {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, runKeys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, runKeys.Help):
			m.showHelp = !m.showHelp
			m.help.ShowAll = m.showHelp
		case key.Matches(msg, runKeys.Cancel):
			for _, tj := range m.engine.CancelActive() {
				if i, ok := m.index[tj.Handle.JobID]; ok {
					m.rows[i].stopped = tracker.EvictCancelled
				} else {
					m.markStopped(tj, tracker.EvictCancelled)
				}
			}
		}
		return m, nil
	}

	return m, nil
}

func (m runModel) View() string {
	var b strings.Builder

	active := 0
	for _, r := range m.rows {
		if r.stopped == tracker.EvictNone && r.frame.Status.Active() {
			active++
		}
	}
	header := fmt.Sprintf("%d job(s), %d in progress", len(m.rows), active)
	if !m.launchesDone {
		header += ", launching..."
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n\n")

	for _, r := range m.rows {
		b.WriteString(m.renderRow(r))
		b.WriteString("\n")
	}

	if !m.quitting {
		b.WriteString("\n")
		b.WriteString(m.help.View(runKeys))
		b.WriteString("\n")
	}
	return b.String()
}

func (m runModel) renderRow(r jobRow) string {
	line := m.bar.ViewAs(float64(r.frame.Percentage)/100) + " " + formatFrame(r.frame)
	switch r.stopped {
	case tracker.EvictCancelled:
		line += mutedStyle.Render(" (stopped following)")
	case tracker.EvictPollErrors:
		line += errorStyle.Render(fmt.Sprintf(" (gave up after %d failed status checks)", r.pollErrors))
	}
	return line
}
