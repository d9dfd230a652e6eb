package job

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkessler/worklog-api/internal/domain"
)

func TestJobForwardTransitions(t *testing.T) {
	r := NewRegistry()
	j := r.Create(StatusCloning, "Cloning repository...")

	assert.Equal(t, StatusCloning, j.Snapshot().Status)

	j.SetProgress(StatusFetchingHistory, "Fetching git history...")
	assert.Equal(t, StatusFetchingHistory, j.Snapshot().Status)

	j.SetProgress(StatusAnalyzing, "Analyzing...")
	assert.Equal(t, StatusAnalyzing, j.Snapshot().Status)

	j.Complete("Done.", &domain.SummaryRecord{Repo: "octo/hello"})
	snap := j.Snapshot()
	assert.Equal(t, StatusDone, snap.Status)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "octo/hello", snap.Result.Repo)
	assert.Empty(t, snap.Error)
}

func TestJobTerminalStatesAreAbsorbing(t *testing.T) {
	tests := []struct {
		name     string
		finish   func(j *Job)
		terminal Status
	}{
		{
			name:     "done",
			finish:   func(j *Job) { j.Complete("Done.", &domain.SummaryRecord{}) },
			terminal: StatusDone,
		},
		{
			name:     "error",
			finish:   func(j *Job) { j.Fail("git clone failed") },
			terminal: StatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := NewRegistry().Create(StatusCloning, "Cloning repository...")
			tt.finish(j)

			before := j.Snapshot()
			assert.Equal(t, tt.terminal, before.Status)
			assert.True(t, j.Terminal())

			// None of these may move the job out of its terminal state.
			j.SetProgress(StatusAnalyzing, "should not apply")
			j.Complete("second completion", &domain.SummaryRecord{Repo: "other"})
			j.Fail("second failure")

			after := j.Snapshot()
			assert.Equal(t, before.Status, after.Status)
			assert.Equal(t, before.Message, after.Message)
			assert.Equal(t, before.Result, after.Result)
			assert.Equal(t, before.Error, after.Error)
		})
	}
}

func TestJobErrorCarriesMessage(t *testing.T) {
	j := NewRegistry().Create(StatusAnalyzing, "Analyzing...")
	j.Fail("backend timed out after 300 seconds")

	snap := j.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	assert.Equal(t, "backend timed out after 300 seconds", snap.Error)
	assert.Nil(t, snap.Result)
}

func TestAppendLogCapsTail(t *testing.T) {
	j := NewRegistry().Create(StatusAnalyzing, "Analyzing...")

	line := strings.Repeat("x", 1000) + "\n"
	for i := 0; i < 100; i++ {
		j.AppendLog(line)
	}

	tail := j.Snapshot().LogTail
	assert.True(t, strings.HasPrefix(tail, "... (truncated)\n"))
	assert.LessOrEqual(t, len(tail), MaxLogTailBytes+len("... (truncated)\n"))

	// The retained content is the most recent MaxLogTailBytes bytes.
	assert.Equal(t, MaxLogTailBytes, len(strings.TrimPrefix(tail, "... (truncated)\n")))
}

func TestAppendLogSmallChunksUntouched(t *testing.T) {
	j := NewRegistry().Create(StatusAnalyzing, "Analyzing...")
	j.AppendLog("hello ")
	j.AppendLog("world")

	assert.Equal(t, "hello world", j.Snapshot().LogTail)
}

func TestAppendLogConcurrent(t *testing.T) {
	j := NewRegistry().Create(StatusAnalyzing, "Analyzing...")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 100; k++ {
				j.AppendLog("line\n")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10*100*len("line\n"), len(j.Snapshot().LogTail))
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()
	j := r.Create(StatusCloning, "Cloning repository...")

	got, ok := r.Get(j.ID())
	require.True(t, ok)
	assert.Same(t, j, got)

	// A fresh registry returns misses for unknown IDs.
	_, ok = NewRegistry().Get(j.ID())
	assert.False(t, ok)
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	j := r.Create(StatusCloning, "Cloning repository...")
	assert.Equal(t, 1, r.Len())

	r.Remove(j.ID())
	assert.Equal(t, 0, r.Len())

	_, ok := r.Get(j.ID())
	assert.False(t, ok)
}
