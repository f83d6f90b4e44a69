package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/antpack/pkg/aco"
	"github.com/matzehuels/antpack/pkg/pipeline"
)

var (
	barFullStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle = lipgloss.NewStyle().Foreground(colorDim)
	labelStyle    = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

const (
	barFull  = "█"
	barEmpty = "░"
)

// =============================================================================
// SolveModel - Live progress of a solve
// =============================================================================

type progressMsg struct {
	run int
	p   aco.Progress
}

type solveDoneMsg struct {
	result *pipeline.Result
	err    error
}

type tickMsg time.Time

// SolveModel is the bubbletea model showing batch progress, the best fitness
// so far and the elapsed time of a running solve.
type SolveModel struct {
	Title    string
	Runs     int
	Run      int
	Progress aco.Progress
	Best     float64
	Started  time.Time
	Now      time.Time
	Width    int

	Result  *pipeline.Result
	Err     error
	Done    bool
	Aborted bool

	cancel context.CancelFunc
}

// NewSolveModel creates a model for a solve of runs runs. cancel is called
// when the user quits before the solve finishes.
func NewSolveModel(title string, runs int, cancel context.CancelFunc) SolveModel {
	now := time.Now()
	return SolveModel{
		Title:   title,
		Runs:    runs,
		Best:    -1,
		Started: now,
		Now:     now,
		Width:   40,
		cancel:  cancel,
	}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m SolveModel) Init() tea.Cmd {
	return tick()
}

func (m SolveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Aborted = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Width = min(max(msg.Width-30, 10), 60)
	case tickMsg:
		m.Now = time.Time(msg)
		return m, tick()
	case progressMsg:
		m.Run = msg.run
		m.Progress = msg.p
		if m.Best < 0 || msg.p.BestFitness < m.Best {
			m.Best = msg.p.BestFitness
		}
	case solveDoneMsg:
		m.Done = true
		m.Result = msg.result
		m.Err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

// fraction is the share of all batches of all runs completed so far.
func (m SolveModel) fraction() float64 {
	if m.Runs == 0 || m.Progress.Batches == 0 {
		return 0
	}
	perRun := float64(m.Progress.Batch) / float64(m.Progress.Batches)
	return (float64(m.Run) + perRun) / float64(m.Runs)
}

func (m SolveModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n\n")

	filled := int(m.fraction() * float64(m.Width))
	b.WriteString(barFullStyle.Render(strings.Repeat(barFull, filled)))
	b.WriteString(barEmptyStyle.Render(strings.Repeat(barEmpty, m.Width-filled)))
	b.WriteString(StyleDim.Render(fmt.Sprintf(" %3.0f%%", m.fraction()*100)))
	b.WriteString("\n\n")

	row := func(key, value string) {
		b.WriteString(labelStyle.Render(key))
		b.WriteString(StyleValue.Render(value))
		b.WriteString("\n")
	}
	if m.Runs > 1 {
		row("run", fmt.Sprintf("%d/%d", m.Run+1, m.Runs))
	}
	row("batch", fmt.Sprintf("%d/%d", m.Progress.Batch, m.Progress.Batches))
	row("evaluations", fmt.Sprint(m.Progress.Evaluations))
	if m.Best >= 0 {
		row("best", StyleNumber.Render(fmt.Sprint(m.Best)))
	} else {
		row("best", StyleDim.Render("-"))
	}
	row("elapsed", m.Now.Sub(m.Started).Round(100*time.Millisecond).String())

	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q quit"))
	b.WriteString("\n")
	return b.String()
}

// runSolveTUI runs opts with a live progress view on stderr and returns the
// solve's outcome. Quitting the view cancels the solve.
func runSolveTUI(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, title string) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runs := opts.Runs
	if runs == 0 {
		runs = pipeline.DefaultRuns
	}
	prog := tea.NewProgram(NewSolveModel(title, runs, cancel), tea.WithOutput(os.Stderr))

	opts.Progress = func(run int, p aco.Progress) {
		prog.Send(progressMsg{run: run, p: p})
	}
	go func() {
		res, err := runner.Execute(ctx, opts)
		prog.Send(solveDoneMsg{result: res, err: err})
	}()

	final, err := prog.Run()
	if err != nil {
		return nil, fmt.Errorf("progress view: %w", err)
	}
	m := final.(SolveModel)
	if m.Aborted && !m.Done {
		return nil, context.Canceled
	}
	return m.Result, m.Err
}
