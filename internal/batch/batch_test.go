package batch

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunCountsOutcomes(t *testing.T) {
	files := []string{"a", "b", "c", "d", "e"}
	stats := &Stats{}

	Orchestrator{Workers: 4}.Run(files, stats, func(path string) (Outcome, error) {
		switch path {
		case "a":
			return Skipped, nil
		case "b":
			return Failed, errors.New("boom")
		default:
			return Changed, nil
		}
	})

	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 3, stats.Changed)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Errors)
	assert.Len(t, stats.Details, 1)
	assert.Contains(t, stats.Details[0], "boom")
}

func TestRunSequentialWhenSingleWorker(t *testing.T) {
	var order []string
	stats := &Stats{}

	Orchestrator{Workers: 1}.Run([]string{"a", "b", "c"}, stats, func(path string) (Outcome, error) {
		order = append(order, path)
		return Changed, nil
	})

	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestRunContainsPanic(t *testing.T) {
	stats := &Stats{}
	var processed int32

	Orchestrator{Workers: 2}.Run([]string{"a", "bad", "c", "d"}, stats, func(path string) (Outcome, error) {
		if path == "bad" {
			panic("corrupt state")
		}
		atomic.AddInt32(&processed, 1)
		return Changed, nil
	})

	assert.Equal(t, int32(3), atomic.LoadInt32(&processed))
	assert.Equal(t, 1, stats.Errors)
	assert.Contains(t, stats.Details[0], "panic")
}

func TestSummaryTruncatesErrorDetails(t *testing.T) {
	stats := &Stats{}
	for i := 0; i < 15; i++ {
		stats.Record(Failed, "file: broken")
	}

	out := stats.Summary()
	assert.Contains(t, out, "Errors:    15")
	assert.Contains(t, out, "... and 5 more")
	assert.Equal(t, maxReportedErrors, strings.Count(out, "file: broken"))
}

func TestSummaryFormat(t *testing.T) {
	stats := &Stats{}
	stats.Record(Changed, "")
	stats.Record(Skipped, "")

	out := stats.Summary()
	assert.Contains(t, out, "Processed: 2")
	assert.Contains(t, out, "Changed:   1")
	assert.Contains(t, out, "Skipped:   1")
	assert.Contains(t, out, "Errors:    0")
}
