package viz

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/eikonal-bridge/dee/internal/optim"
)

const (
	liveGraphWidth  = 70
	liveGraphHeight = 12
	liveMaxParams   = 6
)

// IterMsg carries one accepted optimizer iteration into the view.
type IterMsg optim.Iteration

// DoneMsg ends the live view when the optimizer returns.
type DoneMsg struct {
	Err error
}

// LiveModel is the Bubble Tea model for a running optimization: a merit
// history graph, the current parameter vector, and run stats. Keys:
// space pauses the display (the optimizer keeps going), r clears the
// graph window, q cancels the run.
type LiveModel struct {
	title  string
	msgs   chan tea.Msg
	cancel context.CancelFunc

	costs    []float64
	latest   optim.Iteration
	seen     int
	paused   bool
	finished bool
	err      error
}

func NewLiveModel(title string, msgs chan tea.Msg, cancel context.CancelFunc) LiveModel {
	return LiveModel{title: title, msgs: msgs, cancel: cancel}
}

func (m LiveModel) waitMsg() tea.Cmd {
	return func() tea.Msg { return <-m.msgs }
}

func (m LiveModel) Init() tea.Cmd {
	return m.waitMsg()
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			if m.finished {
				return m, tea.Quit
			}
			// The optimizer notices the cancel and sends DoneMsg.
			return m, nil
		case " ":
			m.paused = !m.paused
		case "r":
			m.costs = nil
		}
		return m, nil
	case IterMsg:
		m.seen++
		m.latest = optim.Iteration(msg)
		if !m.paused {
			m.costs = append(m.costs, m.latest.Cost)
			if len(m.costs) > 600 {
				m.costs = m.costs[len(m.costs)-600:]
			}
		}
		return m, m.waitMsg()
	case DoneMsg:
		m.finished = true
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m LiveModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("optimizing "+m.title) + "\n")

	if len(m.costs) > 1 {
		b.WriteString(GraphStyle.Render(CostPlot(m.costs, liveGraphWidth, liveGraphHeight)) + "\n")
	} else {
		b.WriteString(GraphStyle.Render("waiting for iterations...") + "\n")
	}

	var stats strings.Builder
	stats.WriteString(LabelStyle.Render("iteration") + ValueStyle.Render(fmt.Sprintf("%d", m.latest.N)) + "\n")
	stats.WriteString(LabelStyle.Render("merit") + ValueStyle.Render(fmt.Sprintf("%.6e", m.latest.Cost)) + "\n")
	stats.WriteString(LabelStyle.Render("step") + ValueStyle.Render(fmt.Sprintf("%.3e", m.latest.Step)) + "\n")
	for i, p := range m.latest.Params {
		if i >= liveMaxParams {
			stats.WriteString(LabelStyle.Render("...") + "\n")
			break
		}
		stats.WriteString(LabelStyle.Render(fmt.Sprintf("p%d", i)) + ValueStyle.Render(fmt.Sprintf("%+.6f", p)) + "\n")
	}
	if m.paused {
		stats.WriteString(BadStyle.Render("display paused") + "\n")
	}
	b.WriteString(PanelStyle.Render(strings.TrimRight(stats.String(), "\n")) + "\n")

	b.WriteString(HelpStyle.Render("space pause · r reset graph · q cancel"))
	return b.String()
}

// RunLive runs an optimization under the live view. The run callback
// receives a context canceled when the user quits and a progress function
// to call per iteration; its own results belong to the caller's closure.
// RunLive returns the callback's error once the view exits.
func RunLive(ctx context.Context, title string,
	run func(ctx context.Context, progress func(optim.Iteration)) error) error {

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgs := make(chan tea.Msg, 64)
	go func() {
		msgs <- DoneMsg{Err: run(ctx, func(it optim.Iteration) { msgs <- IterMsg(it) })}
	}()

	p := tea.NewProgram(NewLiveModel(title, msgs, cancel))
	out, err := p.Run()
	if err != nil {
		cancel()
		return err
	}

	m := out.(LiveModel)
	if !m.finished {
		// View exited before the optimizer; wait for its verdict.
		cancel()
		for msg := range msgs {
			if done, ok := msg.(DoneMsg); ok {
				return done.Err
			}
		}
	}
	return m.err
}
