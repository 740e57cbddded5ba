package workflow

import (
	"context"
	"fmt"
	"sync"
)

// InterruptError suspends the run so a human can answer. The engine
// checkpoints the thread and surfaces Value to the caller; Resume feeds the
// answer back into the interrupted node.
type InterruptError struct {
	Value string
}

func (e *InterruptError) Error() string {
	return fmt.Sprintf("workflow interrupted: %s", e.Value)
}

// resumeBag carries at most one pending resume value through a run.
type resumeBag struct {
	mu    sync.Mutex
	value string
	set   bool
}

func (b *resumeBag) take() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.set {
		return "", false
	}
	b.set = false
	return b.value, true
}

type bagKey struct{}

func withResumeBag(ctx context.Context, bag *resumeBag) context.Context {
	return context.WithValue(ctx, bagKey{}, bag)
}

// Interrupt pauses the run with a prompt for the user. On first execution it
// returns an *InterruptError that checkpoints the thread; when the thread is
// resumed and the node re-runs, it returns the supplied answer instead.
func Interrupt(ctx context.Context, prompt string) (string, error) {
	if bag, ok := ctx.Value(bagKey{}).(*resumeBag); ok {
		if answer, pending := bag.take(); pending {
			return answer, nil
		}
	}
	return "", &InterruptError{Value: prompt}
}
