// Package timing measures and prints how long a snippet takes.
package timing

import (
	"fmt"
	"io"
	"time"
)

// DefaultWidth is the column the elapsed seconds are aligned to.
const DefaultWidth = 40

// Timed runs fn and prints msg padded to width followed by the elapsed
// seconds. The line is printed even when fn fails.
func Timed(w io.Writer, msg string, width int, fn func() error) (time.Duration, error) {
	var sw Stopwatch
	sw.Start()
	err := fn()
	elapsed := sw.Stop()
	if width <= 0 {
		width = DefaultWidth
	}
	fmt.Fprintf(w, "%-*s%.3fs\n", width, msg, elapsed.Seconds())
	return elapsed, err
}

// Stopwatch records a single interval.
type Stopwatch struct {
	start   time.Time
	elapsed time.Duration
	running bool
}

// Start resets the stopwatch and starts it.
func (s *Stopwatch) Start() {
	s.start = time.Now()
	s.elapsed = 0
	s.running = true
}

// Stop stops the stopwatch and returns the elapsed time. Calling Stop on a
// stopped stopwatch returns the previous interval.
func (s *Stopwatch) Stop() time.Duration {
	if s.running {
		s.elapsed = time.Since(s.start)
		s.running = false
	}
	return s.elapsed
}

// Elapsed returns the interval so far, or the final one once stopped.
func (s *Stopwatch) Elapsed() time.Duration {
	if s.running {
		return time.Since(s.start)
	}
	return s.elapsed
}
