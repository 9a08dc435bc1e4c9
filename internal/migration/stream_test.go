package migration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwporter/dwporter/pkg/models"
)

const testInterval = 10 * time.Millisecond

func collectFrames(t *testing.T, frames <-chan Frame) []Frame {
	t.Helper()
	var got []Frame
	timeout := time.After(2 * time.Second)
	for {
		select {
		case f, ok := <-frames:
			if !ok {
				return got
			}
			got = append(got, f)
		case <-timeout:
			t.Fatal("stream did not finish in time")
		}
	}
}

func TestStreamUnknownJob(t *testing.T) {
	s := NewStore()
	frames := collectFrames(t, s.Stream(context.Background(), uuid.New(), testInterval))

	require.Len(t, frames, 1)
	assert.Equal(t, "Job not found", frames[0].Error)
	assert.False(t, frames[0].Complete)
}

func TestStreamTerminalJobEmitsFinalFrame(t *testing.T) {
	s := NewStore()
	id := newTestJob(t, s, 2)
	s.AppendLog(id, models.LogLevelInfo, "started")
	s.Update(id, IncrementCompleted(), IncrementCompleted())
	s.Complete(id, models.JobStatusCompleted)

	frames := collectFrames(t, s.Stream(context.Background(), id, testInterval))
	require.Len(t, frames, 2)

	update := frames[0]
	assert.Equal(t, models.JobStatusCompleted, update.Status)
	assert.Equal(t, 100, update.ProgressPercentage)
	assert.Len(t, update.NewLogs, 1)
	assert.False(t, update.Complete)

	final := frames[1]
	assert.True(t, final.Complete)
	assert.Equal(t, models.JobStatusCompleted, final.Status)
	assert.Equal(t, 2, final.CompletedObjects)
	require.NotNil(t, final.StartTime)
	require.NotNil(t, final.EndTime)
	// Final frame carries no incremental payload.
	assert.Empty(t, final.NewLogs)
	assert.Empty(t, final.NewResults)
}

func TestStreamDeliversIncrementsExactlyOnce(t *testing.T) {
	s := NewStore()
	id := newTestJob(t, s, 3)
	s.AppendLog(id, models.LogLevelInfo, "one")

	frames := s.Stream(context.Background(), id, testInterval)

	first, ok := <-frames
	require.True(t, ok)
	require.Len(t, first.NewLogs, 1)
	assert.Equal(t, "one", first.NewLogs[0].Message)

	s.AppendLog(id, models.LogLevelInfo, "two")
	s.AppendResult(id, models.ObjectResult{ObjectName: "t1", ObjectType: models.ObjectTypeTable, Status: models.ObjectStatusSuccess, Timestamp: time.Now()})
	s.Complete(id, models.JobStatusCompleted)

	var newLogs []models.LogEntry
	var newResults []models.ObjectResult
	for f := range frames {
		newLogs = append(newLogs, f.NewLogs...)
		newResults = append(newResults, f.NewResults...)
	}
	require.Len(t, newLogs, 1, "log must be delivered exactly once")
	assert.Equal(t, "two", newLogs[0].Message)
	require.Len(t, newResults, 1)
	assert.Equal(t, "t1", newResults[0].ObjectName)
}

func TestStreamTwoConsumersIndependentWatermarks(t *testing.T) {
	s := NewStore()
	id := newTestJob(t, s, 1)
	s.AppendLog(id, models.LogLevelInfo, "alpha")
	s.AppendLog(id, models.LogLevelInfo, "beta")
	s.Complete(id, models.JobStatusCompleted)

	a := collectFrames(t, s.Stream(context.Background(), id, testInterval))
	b := collectFrames(t, s.Stream(context.Background(), id, testInterval))

	for _, frames := range [][]Frame{a, b} {
		var logs []models.LogEntry
		for _, f := range frames {
			logs = append(logs, f.NewLogs...)
		}
		require.Len(t, logs, 2, "each consumer sees every log exactly once")
		assert.Equal(t, "alpha", logs[0].Message)
		assert.Equal(t, "beta", logs[1].Message)
	}
}

func TestStreamDeliversLogsPastRingCapacity(t *testing.T) {
	s := NewStore()
	id := newTestJob(t, s, 1)
	for i := 0; i < maxLogEntries; i++ {
		s.AppendLog(id, models.LogLevelInfo, fmt.Sprintf("entry %d", i))
	}

	// Wide interval so the appends below land between polls.
	frames := s.Stream(context.Background(), id, 200*time.Millisecond)

	first, ok := <-frames
	require.True(t, ok)
	require.Len(t, first.NewLogs, maxLogEntries)

	// The ring is full; each of these evicts the oldest entry as it lands.
	for i := 0; i < 10; i++ {
		s.AppendLog(id, models.LogLevelInfo, fmt.Sprintf("fresh %d", i))
	}
	s.Complete(id, models.JobStatusCompleted)

	var fresh []models.LogEntry
	for f := range frames {
		fresh = append(fresh, f.NewLogs...)
	}
	require.Len(t, fresh, 10, "entries appended after the ring fills must still be delivered")
	assert.Equal(t, "fresh 0", fresh[0].Message)
	assert.Equal(t, "fresh 9", fresh[9].Message)
}

func TestStreamFullRingBehindConsumerResumesAtOldestHeld(t *testing.T) {
	s := NewStore()
	id := newTestJob(t, s, 1)
	s.AppendLog(id, models.LogLevelInfo, "first")

	frames := s.Stream(context.Background(), id, 200*time.Millisecond)

	first, ok := <-frames
	require.True(t, ok)
	require.Len(t, first.NewLogs, 1)

	// More than a whole ring lands between polls; the oldest entries are
	// gone and the consumer resumes at the oldest one still held.
	for i := 0; i < maxLogEntries+5; i++ {
		s.AppendLog(id, models.LogLevelInfo, fmt.Sprintf("burst %d", i))
	}
	s.Complete(id, models.JobStatusCompleted)

	var got []models.LogEntry
	for f := range frames {
		got = append(got, f.NewLogs...)
	}
	require.Len(t, got, maxLogEntries)
	assert.Equal(t, "burst 5", got[0].Message)
	assert.Equal(t, fmt.Sprintf("burst %d", maxLogEntries+4), got[len(got)-1].Message)
}

func TestStreamStopsWhenJobDeleted(t *testing.T) {
	s := NewStore()
	id := newTestJob(t, s, 1)

	frames := s.Stream(context.Background(), id, testInterval)

	first, ok := <-frames
	require.True(t, ok)
	assert.Equal(t, models.JobStatusRunning, first.Status)

	require.NoError(t, s.Delete(id))

	var last Frame
	var count int
	timeout := time.After(2 * time.Second)
	for {
		select {
		case f, ok := <-frames:
			if !ok {
				require.GreaterOrEqual(t, count, 1)
				assert.Equal(t, "Job not found", last.Error)
				return
			}
			last = f
			count++
		case <-timeout:
			t.Fatal("stream did not stop after delete")
		}
	}
}

func TestStreamConsumerCancellation(t *testing.T) {
	s := NewStore()
	id := newTestJob(t, s, 1)

	ctx, cancel := context.WithCancel(context.Background())
	frames := s.Stream(ctx, id, testInterval)

	_, ok := <-frames
	require.True(t, ok)
	cancel()

	select {
	case _, ok := <-frames:
		// A frame may already be in flight; the channel must close right
		// after it.
		if ok {
			_, ok = <-frames
			assert.False(t, ok)
		}
	case <-time.After(time.Second):
		t.Fatal("stream did not close after consumer cancellation")
	}
}

func TestStreamLiveJobToCompletion(t *testing.T) {
	s := NewStore()
	id := newTestJob(t, s, 2)

	frames := s.Stream(context.Background(), id, testInterval)

	go func() {
		time.Sleep(3 * testInterval)
		s.Update(id, IncrementCompleted())
		s.AppendLog(id, models.LogLevelInfo, "halfway")
		time.Sleep(3 * testInterval)
		s.Update(id, IncrementCompleted())
		s.Complete(id, models.JobStatusCompleted)
	}()

	all := collectFrames(t, frames)
	require.NotEmpty(t, all)

	final := all[len(all)-1]
	assert.True(t, final.Complete)
	assert.Equal(t, models.JobStatusCompleted, final.Status)
	assert.Equal(t, 100, final.ProgressPercentage)

	var sawHalfway bool
	for _, f := range all {
		for _, entry := range f.NewLogs {
			if entry.Message == "halfway" {
				sawHalfway = true
			}
		}
	}
	assert.True(t, sawHalfway)
}
