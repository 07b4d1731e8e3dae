// Package spinner provides a terminal spinner with ticker-style status
// display. During a multi-page search, log lines are piped through
// Writer() and the latest one is shown next to a spinning indicator,
// updating in place without polluting the terminal buffer.
package spinner

import (
	"bufio"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Spinner displays a spinner with ticker-style status updates.
type Spinner struct {
	program *tea.Program
	reader  *io.PipeReader
	writer  *io.PipeWriter
	lineCh  chan string
	done    chan struct{}
	wg      sync.WaitGroup
}

// New creates a Spinner that writes to the given output (typically
// os.Stderr). If output is nil, os.Stderr is used.
//
// The bubbletea program is built here, before any goroutine exists, so
// Start and Stop never race on it and may be ordered either way.
func New(output io.Writer) *Spinner {
	if output == nil {
		output = os.Stderr
	}

	// Terminal width bounds status line truncation.
	width := 80
	if fd := int(os.Stderr.Fd()); term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
	}

	reader, writer := io.Pipe()
	lineCh := make(chan string, 100) // Buffer to avoid blocking the pipe reader

	program := tea.NewProgram(newModel(lineCh, width),
		tea.WithOutput(output),
		tea.WithoutSignalHandler(), // Let parent handle signals
	)

	return &Spinner{
		program: program,
		reader:  reader,
		writer:  writer,
		lineCh:  lineCh,
		done:    make(chan struct{}),
	}
}

// Writer returns the io.Writer whose lines feed the status display.
func (s *Spinner) Writer() io.Writer {
	return s.writer
}

// Start begins the spinner display. This blocks until Stop() is called,
// so run it in a goroutine while the search proceeds. Shutdown is
// driven by the line channel closing, so a Stop that happened before
// Start still terminates the program promptly.
func (s *Spinner) Start() error {
	s.wg.Add(1)
	go s.readLines()

	_, err := s.program.Run()

	s.wg.Wait()

	return err
}

// Stop stops the spinner and clears its line from the terminal. It
// never blocks: it closes the pipe, which drains through readLines and
// quits the program via the closed line channel.
func (s *Spinner) Stop() {
	_ = s.writer.Close()

	close(s.done)
}

// readLines reads lines from the pipe and sends them to the model.
// Closing the line channel on exit is what tells the program to quit.
func (s *Spinner) readLines() {
	defer s.wg.Done()
	defer s.reader.Close()
	defer close(s.lineCh)

	scanner := bufio.NewScanner(s.reader)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		select {
		case s.lineCh <- line:
		case <-s.done:
			return
		}
	}
}

// model is the bubbletea model for the spinner.
type model struct {
	spinner    spinner.Model
	statusLine string
	width      int
	lineCh     <-chan string
	quitting   bool
}

// lineMsg is sent when a new line is received from the pipe.
type lineMsg string

// newModel creates a new spinner model.
func newModel(lineCh <-chan string, width int) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		spinner: s,
		width:   width,
		lineCh:  lineCh,
	}
}

// Init implements tea.Model.
//
//nolint:gocritic // hugeParam: tea.Model interface requires value receiver
func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForLine(m.lineCh),
	)
}

// Update implements tea.Model.
//
//nolint:gocritic // hugeParam: tea.Model interface requires value receiver
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case lineMsg:
		m.statusLine = string(msg)
		return m, waitForLine(m.lineCh)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.QuitMsg:
		m.quitting = true
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
//
//nolint:gocritic // hugeParam: tea.Model interface requires value receiver
func (m model) View() string {
	if m.quitting {
		return "" // Clear the line on exit
	}

	// Spinner is typically 2 chars + 1 space.
	maxLineWidth := m.width - 3
	if maxLineWidth < 10 {
		maxLineWidth = 10
	}

	return m.spinner.View() + " " + truncate(m.statusLine, maxLineWidth)
}

// waitForLine returns a command that waits for the next line from the channel.
func waitForLine(lineCh <-chan string) tea.Cmd {
	return func() tea.Msg {
		line, ok := <-lineCh
		if !ok {
			return tea.Quit()
		}
		return lineMsg(line)
	}
}

// truncate shortens a line to fit the terminal, appending an ellipsis.
// It cuts on rune boundaries so multi-byte characters are never split.
func truncate(line string, max int) string {
	runes := []rune(line)
	if len(runes) <= max {
		return line
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
