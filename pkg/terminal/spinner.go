package terminal

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Spinner animates progress for a long-running bootstrap step.
type Spinner struct {
	out       io.Writer
	message   string
	frames    []string
	current   int
	done      chan struct{}
	mu        sync.Mutex
	style     lipgloss.Style
	startTime time.Time
	showTime  bool
	disabled  bool
}

// SpinnerFrames are the default spinner animation frames.
var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSpinner creates a new spinner with the given message.
func NewSpinner(message string) *Spinner {
	return NewSpinnerWithOutput(os.Stdout, message)
}

// NewSpinnerWithOutput creates a spinner with custom output.
func NewSpinnerWithOutput(out io.Writer, message string) *Spinner {
	return &Spinner{
		out:      out,
		message:  message,
		frames:   SpinnerFrames,
		done:     make(chan struct{}),
		showTime: true,
		style: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#5599FF"}),
	}
}

// Disable turns the spinner into a no-op. Used for quiet mode and
// non-tty output where control characters would garble logs.
func (s *Spinner) Disable() *Spinner {
	s.disabled = true
	return s
}

// WithoutTime disables elapsed time display.
func (s *Spinner) WithoutTime() *Spinner {
	s.showTime = false
	return s
}

// SetMessage updates the spinner message.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	s.startTime = time.Now()
	if s.disabled {
		return
	}
	go s.run()
}

func (s *Spinner) run() {
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			frame := s.frames[s.current%len(s.frames)]
			msg := s.message
			showTime := s.showTime
			startTime := s.startTime
			s.current++
			s.mu.Unlock()

			if showTime && !startTime.IsZero() {
				elapsed := time.Since(startTime).Round(time.Second)
				fmt.Fprintf(s.out, "\r%s %s (%s)", s.style.Render(frame), msg, elapsed)
			} else {
				fmt.Fprintf(s.out, "\r%s %s", s.style.Render(frame), msg)
			}
		}
	}
}

// Elapsed returns the time since the spinner started.
func (s *Spinner) Elapsed() time.Duration {
	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime)
}

func (s *Spinner) stop() {
	if s.disabled {
		return
	}
	close(s.done)
	fmt.Fprintf(s.out, "\r\033[K")
}

// Stop stops the spinner and clears the line.
func (s *Spinner) Stop() {
	s.stop()
}

// StopWithMessage stops and prints a final message.
func (s *Spinner) StopWithMessage(message string) {
	s.stop()
	if s.disabled {
		return
	}
	fmt.Fprintf(s.out, "%s\n", message)
}

// StopWithSuccess stops with a green checkmark and the elapsed time.
func (s *Spinner) StopWithSuccess(message string) {
	successStyle := lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#008000", Dark: "#55FF55"})
	s.StopWithMessage(fmt.Sprintf("%s %s (%s)",
		successStyle.Render("✓"), message, s.Elapsed().Round(time.Second)))
}

// StopWithError stops with a red cross.
func (s *Spinner) StopWithError(message string) {
	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#D00000", Dark: "#FF5555"})
	s.StopWithMessage(fmt.Sprintf("%s %s", errorStyle.Render("✗"), message))
}

// WithSpinner runs fn while showing a spinner, stopping it on return.
func WithSpinner[T any](message string, fn func() (T, error)) (T, error) {
	spinner := NewSpinner(message)
	spinner.Start()

	result, err := fn()

	if err != nil {
		spinner.StopWithError(message + " failed")
	} else {
		spinner.StopWithSuccess(message)
	}

	return result, err
}
