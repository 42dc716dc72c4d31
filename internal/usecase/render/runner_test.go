package render

import (
	"context"
	"testing"

	"image-labeler/internal/domain"

	"github.com/stretchr/testify/assert"
)

func drain(run *Run) []domain.Event {
	var events []domain.Event
	for ev := range run.Events() {
		events = append(events, ev)
	}
	return events
}

func TestRunner_CompletesAndClosesEvents(t *testing.T) {
	repo := newMemoryRepo()
	runner := NewRunner(newTestPipeline(repo), 4, testLogger())

	run := runner.Start(context.Background(), testJob(t, testSpec(3)))
	events := drain(run)

	assert.Equal(t, domain.StateCompleted, run.Wait())
	assert.Equal(t, domain.StateCompleted, run.State())
	assert.Len(t, repo.images(), 3)

	last := events[len(events)-1]
	assert.Equal(t, domain.EventDone, last.Type)
	assert.Equal(t, 3, last.Processed)

	var progress []int
	for _, ev := range events {
		if ev.Type == domain.EventProgress {
			progress = append(progress, ev.Processed)
		}
	}
	assert.Equal(t, []int{1, 2, 3}, progress)
}

func TestRunner_CancelBeforeFirstValue(t *testing.T) {
	repo := newMemoryRepo()
	// A one-slot buffer keeps the run parked on its opening events until
	// the test starts draining.
	runner := NewRunner(newTestPipeline(repo), 1, testLogger())

	run := runner.Start(context.Background(), testJob(t, testSpec(20)))
	run.Cancel()
	events := drain(run)

	assert.Equal(t, domain.StateCancelled, run.Wait())
	assert.Empty(t, repo.images())

	last := events[len(events)-1]
	assert.Equal(t, domain.EventDone, last.Type)
	assert.Equal(t, domain.StateCancelled, last.State)
	assert.Zero(t, last.Processed)
}

func TestRunner_ParentContextCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := NewRunner(newTestPipeline(newMemoryRepo()), 1, testLogger())

	run := runner.Start(ctx, testJob(t, testSpec(20)))
	cancel()
	drain(run)

	assert.Equal(t, domain.StateCancelled, run.Wait())
}

func TestRunner_PreviewsNeverBlock(t *testing.T) {
	repo := newMemoryRepo()
	runner := NewRunner(newTestPipeline(repo), 1, testLogger())

	run := runner.Start(context.Background(), testJob(t, testSpec(5)))
	events := drain(run)

	assert.Equal(t, domain.StateCompleted, run.Wait())
	var progress int
	for _, ev := range events {
		if ev.Type == domain.EventProgress {
			progress++
		}
	}
	assert.Equal(t, 5, progress, "ordered events are never dropped")
}

func TestRunner_PanicFailsRun(t *testing.T) {
	repo := newMemoryRepo()
	repo.panicOnSave = 2
	runner := NewRunner(newTestPipeline(repo), 4, testLogger())

	run := runner.Start(context.Background(), testJob(t, testSpec(5)))
	events := drain(run)

	assert.Equal(t, domain.StateFailed, run.Wait())
	assert.Len(t, repo.images(), 1)

	last := events[len(events)-1]
	assert.Equal(t, domain.EventError, last.Type)
	assert.Equal(t, domain.StateFailed, last.State)
	assert.Contains(t, last.Message, ErrRunPanicked.Error())
	assert.Contains(t, last.Message, "storage driver crashed")
}
