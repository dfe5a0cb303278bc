// Package batch runs per-file work across a worker pool and collects
// run statistics.
package batch

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// maxReportedErrors bounds how many per-file errors the summary prints.
const maxReportedErrors = 10

// Outcome classifies what happened to a single file.
type Outcome int

const (
	Changed Outcome = iota
	Skipped
	Failed
)

// Stats accumulates results across workers.
type Stats struct {
	mu      sync.Mutex
	Total   int
	Changed int
	Skipped int
	Errors  int
	Details []string
}

// Record tallies one file's outcome. detail is only used for Failed.
func (s *Stats) Record(o Outcome, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Total++
	switch o {
	case Changed:
		s.Changed++
	case Skipped:
		s.Skipped++
	case Failed:
		s.Errors++
		s.Details = append(s.Details, detail)
	}
}

// Summary renders the end-of-run report.
func (s *Stats) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	b.WriteString("====================================\n")
	fmt.Fprintf(&b, "Processed: %d\n", s.Total)
	fmt.Fprintf(&b, "Changed:   %d\n", s.Changed)
	fmt.Fprintf(&b, "Skipped:   %d\n", s.Skipped)
	fmt.Fprintf(&b, "Errors:    %d\n", s.Errors)
	for i, d := range s.Details {
		if i == maxReportedErrors {
			fmt.Fprintf(&b, "  ... and %d more\n", len(s.Details)-maxReportedErrors)
			break
		}
		fmt.Fprintf(&b, "  %s\n", d)
	}
	b.WriteString("====================================")
	return b.String()
}

// Orchestrator fans files out to Workers goroutines. With Workers <= 1
// files are processed strictly in order on the calling goroutine,
// which keeps dry-run output deterministic.
type Orchestrator struct {
	Workers int
}

// Run invokes fn once per file. A panic in fn is contained and counted
// as that file's error; one bad file never takes down the run.
func (o Orchestrator) Run(files []string, stats *Stats, fn func(path string) (Outcome, error)) {
	if o.Workers <= 1 {
		for _, f := range files {
			process(f, stats, fn)
		}
		return
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < o.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				process(f, stats, fn)
			}
		}()
	}
	for _, f := range files {
		jobs <- f
	}
	close(jobs)
	wg.Wait()
}

func process(path string, stats *Stats, fn func(string) (Outcome, error)) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("file", path).Interface("panic", r).Msg("worker panicked")
			stats.Record(Failed, fmt.Sprintf("%s: panic: %v", path, r))
		}
	}()
	out, err := fn(path)
	if err != nil {
		stats.Record(Failed, fmt.Sprintf("%s: %v", path, err))
		return
	}
	stats.Record(out, "")
}
