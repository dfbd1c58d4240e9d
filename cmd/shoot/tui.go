package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"go.jacobcolvin.com/shoot/harness"
	"go.jacobcolvin.com/shoot/load"
	"go.jacobcolvin.com/shoot/log"
)

const (
	logTail  = 10
	barWidth = 40
)

type (
	shotMsg load.Shot
	logMsg  string
	doneMsg struct{}
)

// session is a harness run in the background. Its result can be read any
// number of times once done is closed.
type session struct {
	done chan struct{}
	err  error
}

// startSession runs h and closes shots once the run has returned, so no
// reader of shots is left blocked.
func startSession(ctx context.Context, h *harness.Harness, shots chan load.Shot) *session {
	s := &session{done: make(chan struct{})}

	go func() {
		s.err = h.Run(ctx)

		close(shots)
		close(s.done)
	}()

	return s
}

// wait blocks until the run has returned and reports its error.
func (s *session) wait() error {
	<-s.done

	return s.err
}

// runTUI runs the session behind a live progress view. Log records and server
// output are routed into the view instead of the terminal.
func runTUI(ctx context.Context, opts *options, server string, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pub := log.NewPublisher()
	defer pub.Close() //nolint:errcheck // Close never fails.

	sub := pub.Subscribe()
	defer sub.Close()

	handler, err := opts.logCfg.NewHandler(pub)
	if err != nil {
		return err
	}

	shots := make(chan load.Shot, max(opts.cfg.Load.Shots, 1))

	h, err := opts.cfg.NewHarness(server,
		harness.WithLogger(slog.New(handler)),
		harness.WithServerOutput(pub),
		harness.WithObserver(func(s load.Shot) {
			select {
			case shots <- s:
			default:
			}
		}),
	)
	if err != nil {
		return err
	}

	s := startSession(ctx, h, shots)

	_, viewErr := tea.NewProgram(newProgressModel(opts.cfg.Load.Shots, sub.C(), shots, s.done)).Run()

	// Stops a session still running after a quit key or a view failure.
	cancel()

	err = s.wait()

	switch {
	case viewErr != nil:
		return errors.Join(fmt.Errorf("running progress view: %w", viewErr), err)
	case err != nil:
		return err
	}

	_, err = fmt.Fprintln(out, "Job done")
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	return nil
}

// progressModel shows how many shots have been fired, the latest shot and the
// tail of the session log.
type progressModel struct {
	logs     <-chan []byte
	shots    <-chan load.Shot
	done     <-chan struct{}
	last     load.Shot
	lines    []string
	total    int
	fired    int
	finished bool
}

func newProgressModel(total int, logs <-chan []byte, shots <-chan load.Shot, done <-chan struct{}) *progressModel {
	return &progressModel{
		logs:  logs,
		shots: shots,
		done:  done,
		total: total,
	}
}

// Init starts listening on every input channel.
func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.waitLog(), m.waitShot(), m.waitDone())
}

// Update handles shot, log, completion and quit messages.
func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case shotMsg:
		m.fired++
		m.last = load.Shot(msg)

		return m, m.waitShot()

	case logMsg:
		m.appendLog(string(msg))

		return m, m.waitLog()

	case doneMsg:
		m.finished = true

		return m, tea.Quit
	}

	return m, nil
}

// View renders the progress bar, the latest shot and the log tail.
func (m *progressModel) View() tea.View {
	return tea.NewView(m.render())
}

func (m *progressModel) render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %d/%d\n", bar(m.fired, m.total, barWidth), m.fired, m.total)

	if m.fired > 0 {
		fmt.Fprintf(&b, "last: #%d %s (%s)\n",
			m.last.Number, m.last.URL, m.last.Elapsed.Round(time.Millisecond))
	}

	b.WriteString("\n")

	for _, line := range m.lines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if !m.finished {
		b.WriteString("\npress q to abort\n")
	}

	return b.String()
}

func (m *progressModel) appendLog(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > logTail {
		m.lines = m.lines[len(m.lines)-logTail:]
	}
}

func (m *progressModel) waitLog() tea.Cmd {
	return func() tea.Msg {
		entry, ok := <-m.logs
		if !ok {
			return nil
		}

		return logMsg(entry)
	}
}

func (m *progressModel) waitShot() tea.Cmd {
	return func() tea.Msg {
		shot, ok := <-m.shots
		if !ok {
			return nil
		}

		return shotMsg(shot)
	}
}

func (m *progressModel) waitDone() tea.Cmd {
	return func() tea.Msg {
		<-m.done

		return doneMsg{}
	}
}

// bar renders n of total as a fixed-width bar.
func bar(n, total, width int) string {
	if total <= 0 {
		return "[" + strings.Repeat(" ", width) + "]"
	}

	filled := min(width*n/total, width)

	return "[" + strings.Repeat("#", filled) + strings.Repeat(" ", width-filled) + "]"
}
