package achievements

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

type evaluator interface {
	EvaluateUser(ctx context.Context, userID string) error
}

const DefaultSettleDelay = 150 * time.Millisecond

// Pipeline collects evaluation triggers from all mutation paths (log changes,
// goal changes, prestige changes, logins) and feeds them to the evaluation
// service. Triggers are debounced with a settle delay so a burst of mutations
// coalesces into a single pass per user.
type Pipeline struct {
	evaluator evaluator
	settle    time.Duration
	triggers  chan string
	done      chan struct{}
}

func NewPipeline(evaluator evaluator, settle time.Duration) *Pipeline {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	return &Pipeline{
		evaluator: evaluator,
		settle:    settle,
		triggers:  make(chan string, 128),
		done:      make(chan struct{}),
	}
}

// Trigger requests an evaluation pass for the user. Never blocks: when the
// queue is full the trigger is dropped, which is safe because a later pass
// always re-reads the full state.
func (p *Pipeline) Trigger(userID string) {
	select {
	case p.triggers <- userID:
	default:
		log.Warnf("achievements pipeline queue full, trigger for user [%s] dropped", userID)
	}
}

// Run consumes triggers until the context is cancelled. Call in a goroutine.
func (p *Pipeline) Run(ctx context.Context) {
	defer close(p.done)

	pending := map[string]struct{}{}
	timer := time.NewTimer(p.settle)
	if !timer.Stop() {
		<-timer.C
	}
	timerArmed := false

	for {
		select {
		case <-ctx.Done():
			// drain the pending users before stopping
			p.evaluatePending(context.WithoutCancel(ctx), pending)
			return
		case userID := <-p.triggers:
			pending[userID] = struct{}{}
			if timerArmed && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(p.settle)
			timerArmed = true
		case <-timer.C:
			timerArmed = false
			p.evaluatePending(ctx, pending)
			pending = map[string]struct{}{}
		}
	}
}

// Done is closed once Run has returned.
func (p *Pipeline) Done() <-chan struct{} {
	return p.done
}

func (p *Pipeline) evaluatePending(ctx context.Context, pending map[string]struct{}) {
	for userID := range pending {
		if err := p.evaluator.EvaluateUser(ctx, userID); err != nil {
			log.Errorf("achievements pipeline, evaluate user [%s]: %s", userID, err)
		}
	}
}
