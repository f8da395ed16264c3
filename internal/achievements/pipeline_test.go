package achievements

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain will run goleak after all tests have been run in the package
// to detect any goroutine leaks
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// the notification cool-down cache keeps a janitor goroutine running
		// until the cache is finalized
		goleak.IgnoreTopFunction(
			"github.com/patrickmn/go-cache.(*janitor).Run",
		),
	)
}

type countingEvaluator struct {
	mu     sync.Mutex
	passes map[string]int
}

func newCountingEvaluator() *countingEvaluator {
	return &countingEvaluator{passes: map[string]int{}}
}

func (e *countingEvaluator) EvaluateUser(_ context.Context, userID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.passes[userID]++
	return nil
}

func (e *countingEvaluator) passesFor(userID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.passes[userID]
}

func TestPipeline_coalescesBurstIntoOnePass(t *testing.T) {
	evaluator := newCountingEvaluator()
	pipeline := NewPipeline(evaluator, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pipeline.Run(ctx)

	// a burst of mutations within the settle window
	for i := 0; i < 10; i++ {
		pipeline.Trigger("user-1")
	}

	require.Eventually(t, func() bool {
		return evaluator.passesFor("user-1") > 0
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, evaluator.passesFor("user-1"))

	cancel()
	<-pipeline.Done()
}

func TestPipeline_separateUsersEachGetAPass(t *testing.T) {
	evaluator := newCountingEvaluator()
	pipeline := NewPipeline(evaluator, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pipeline.Run(ctx)

	pipeline.Trigger("user-1")
	pipeline.Trigger("user-2")

	require.Eventually(t, func() bool {
		return evaluator.passesFor("user-1") == 1 && evaluator.passesFor("user-2") == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-pipeline.Done()
}

func TestPipeline_drainsPendingOnShutdown(t *testing.T) {
	evaluator := newCountingEvaluator()
	pipeline := NewPipeline(evaluator, time.Hour) // settle never fires on its own

	ctx, cancel := context.WithCancel(context.Background())
	go pipeline.Run(ctx)

	pipeline.Trigger("user-1")
	// give the run loop a moment to pick the trigger up
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-pipeline.Done()

	assert.Equal(t, 1, evaluator.passesFor("user-1"))
}
