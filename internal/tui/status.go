package tui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// StatusWriter shows a single spinner line naming the current build phase,
// redrawn in place until Stop.
type StatusWriter struct {
	w       io.Writer
	mu      sync.Mutex
	phase   string
	since   time.Time
	quit    chan struct{}
	stopped bool
}

// NewStatusWriter starts the spinner on w.
func NewStatusWriter(w io.Writer) *StatusWriter {
	sw := &StatusWriter{w: w, since: time.Now(), quit: make(chan struct{})}
	go sw.loop()
	return sw
}

// Update switches to a new phase and restarts its timer.
func (sw *StatusWriter) Update(phase string) {
	sw.mu.Lock()
	sw.phase = phase
	sw.since = time.Now()
	sw.mu.Unlock()
}

// Stop clears the line. It is safe to call more than once.
func (sw *StatusWriter) Stop() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.stopped {
		return
	}
	sw.stopped = true
	close(sw.quit)
	fmt.Fprint(sw.w, "\r\033[K")
}

func (sw *StatusWriter) loop() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for frame := 0; ; frame++ {
		select {
		case <-sw.quit:
			return
		case <-ticker.C:
			sw.mu.Lock()
			if !sw.stopped {
				fmt.Fprintf(sw.w, "\r\033[K%s %s (%s)", spinnerFrames[frame%len(spinnerFrames)], sw.phase, FormatElapsed(time.Since(sw.since)))
			}
			sw.mu.Unlock()
		}
	}
}
