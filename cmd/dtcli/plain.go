package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/grovetools/dtcli/internal/tracker"
)

// plainSink prints one line per job when the job reaches a terminal status. It is used
// when the output is not an interactive terminal.
type plainSink struct {
	out io.Writer

	mu      sync.Mutex
	printed map[string]bool
}

func newPlainSink(out io.Writer) *plainSink {
	return &plainSink{out: out, printed: make(map[string]bool)}
}

func (s *plainSink) Render(frames []tracker.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range frames {
		if !f.Status.Terminal() || s.printed[f.JobID] {
			continue
		}
		s.printed[f.JobID] = true
		fmt.Fprintln(s.out, formatFrame(f))
	}
}
