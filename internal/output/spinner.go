package output

import (
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

const (
	spinnerInterval = 80 * time.Millisecond
	spinnerWidth    = 80
)

// Spinner draws scan progress on a writer (typically stderr). Progress and
// Update may be called from any goroutine.
type Spinner struct {
	mu      sync.Mutex
	w       io.Writer
	message string
	done    chan struct{}
	exited  chan struct{}
	running bool
}

// NewSpinner creates a spinner that writes to w.
func NewSpinner(w io.Writer) *Spinner {
	return &Spinner{w: w}
}

// Start begins the animation with the given message.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.message = message
		return
	}
	s.message = message
	s.done = make(chan struct{})
	s.exited = make(chan struct{})
	s.running = true
	go s.loop(s.done, s.exited)
}

// Update changes the displayed message.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Progress has the signature of scanner.ProgressFunc and shows how many
// files have been analyzed.
func (s *Spinner) Progress(done, total int, relPath string) {
	s.Update(fmt.Sprintf("Scanning %s/%s files  %s",
		humanize.Comma(int64(done)), humanize.Comma(int64(total)), path.Base(relPath)))
}

// Stop halts the animation and clears its line. It is idempotent.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.done)
	exited := s.exited
	s.mu.Unlock()

	<-exited

	s.mu.Lock()
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", spinnerWidth))
	s.mu.Unlock()
}

func (s *Spinner) loop(done <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)
	tick := time.NewTicker(spinnerInterval)
	defer tick.Stop()

	for i := 0; ; i++ {
		select {
		case <-done:
			return
		case <-tick.C:
			s.mu.Lock()
			line := fmt.Sprintf("\r%c %s", spinnerFrames[i%len(spinnerFrames)], s.message)
			// Pad so a shorter message overwrites a longer one.
			fmt.Fprintf(s.w, "%-*s", spinnerWidth, line)
			s.mu.Unlock()
		}
	}
}
