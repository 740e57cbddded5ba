package server

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/finagent-ir/finagent/internal/app"
	"github.com/finagent-ir/finagent/internal/common"
	"github.com/finagent-ir/finagent/internal/workflow"
	"github.com/finagent-ir/finagent/internal/workflow/nodes"
)

// Run status values reported to clients.
const (
	StatusRunning      = "running"
	StatusWaitingInput = "waiting_input"
	StatusCompleted    = "completed"
	StatusFailed       = "failed"
)

// ProgressUpdate is one websocket frame describing run progress.
type ProgressUpdate struct {
	ThreadID string `json:"thread_id"`
	Status   string `json:"status"`
	Node     string `json:"node,omitempty"`
	Step     int    `json:"step"`
	Total    int    `json:"total"`
	Percent  int    `json:"percent"`
	Question string `json:"question,omitempty"`
	Error    string `json:"error,omitempty"`
}

// analysisRun tracks one analysis thread across its interrupt/resume cycles.
type analysisRun struct {
	mu sync.Mutex

	threadID string
	status   string
	question string
	failure  string
	seen     map[string]bool

	subscribers map[chan ProgressUpdate]struct{}
}

// Hub starts analysis runs, fans their progress out to websocket
// subscribers and answers state queries.
type Hub struct {
	mu     sync.Mutex
	runs   map[string]*analysisRun
	app    *app.App
	logger arbor.ILogger
}

// NewHub creates a run hub over the application graph.
func NewHub(application *app.App) *Hub {
	return &Hub{
		runs:   make(map[string]*analysisRun),
		app:    application,
		logger: application.Logger,
	}
}

var errUnknownThread = errors.New("unknown thread")

// Start launches a new analysis thread from the user's opening message and
// returns its thread ID. The run proceeds in the background.
func (h *Hub) Start(message string) string {
	threadID := uuid.New().String()
	run := &analysisRun{
		threadID:    threadID,
		status:      StatusRunning,
		seen:        make(map[string]bool),
		subscribers: make(map[chan ProgressUpdate]struct{}),
	}

	h.mu.Lock()
	h.runs[threadID] = run
	h.mu.Unlock()

	common.SafeGo(h.logger, "analysis-run", func() {
		h.drive(run, func(ctx context.Context) (<-chan workflow.Event, error) {
			return h.app.Graph.Stream(ctx, workflow.Delta{nodes.KeyUserMessage: message}, workflow.Config{ThreadID: threadID})
		})
	})
	return threadID
}

// Resume feeds the user's answer into an interrupted thread.
func (h *Hub) Resume(threadID, answer string) error {
	h.mu.Lock()
	run, ok := h.runs[threadID]
	h.mu.Unlock()
	if !ok {
		// Process restart: the checkpoint may still exist even though the
		// in-memory run is gone.
		snap, err := h.app.Graph.GetState(workflow.Config{ThreadID: threadID})
		if err != nil || snap.Interrupt == "" {
			return errUnknownThread
		}
		run = &analysisRun{
			threadID:    threadID,
			status:      StatusWaitingInput,
			question:    snap.Interrupt,
			seen:        make(map[string]bool),
			subscribers: make(map[chan ProgressUpdate]struct{}),
		}
		h.mu.Lock()
		h.runs[threadID] = run
		h.mu.Unlock()
	}

	run.mu.Lock()
	if run.status != StatusWaitingInput {
		run.mu.Unlock()
		return errors.New("thread is not waiting for input")
	}
	run.status = StatusRunning
	run.question = ""
	run.mu.Unlock()

	common.SafeGo(h.logger, "analysis-resume", func() {
		h.drive(run, func(ctx context.Context) (<-chan workflow.Event, error) {
			return h.app.Graph.ResumeStream(ctx, answer, workflow.Config{ThreadID: threadID})
		})
	})
	return nil
}

// Get returns the run for a thread.
func (h *Hub) Get(threadID string) (*analysisRun, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	run, ok := h.runs[threadID]
	return run, ok
}

// Subscribe registers a progress channel for a thread and sends the current
// position immediately.
func (h *Hub) Subscribe(threadID string) (chan ProgressUpdate, func(), error) {
	run, ok := h.Get(threadID)
	if !ok {
		return nil, nil, errUnknownThread
	}

	ch := make(chan ProgressUpdate, 32)
	run.mu.Lock()
	run.subscribers[ch] = struct{}{}
	ch <- run.snapshotLocked("")
	run.mu.Unlock()

	cancel := func() {
		run.mu.Lock()
		delete(run.subscribers, ch)
		run.mu.Unlock()
	}
	return ch, cancel, nil
}

// drive consumes one streaming pass of the graph (initial run or resume) and
// publishes progress to subscribers.
func (h *Hub) drive(run *analysisRun, start func(context.Context) (<-chan workflow.Event, error)) {
	ctx := h.app.Context()
	events, err := start(ctx)
	if err != nil {
		h.finish(run, StatusFailed, "", err)
		return
	}

	for ev := range events {
		run.mu.Lock()
		for _, key := range nodes.ProgressKeys {
			if _, ok := ev.Delta[key]; ok {
				run.seen[key] = true
			}
		}
		update := run.snapshotLocked(ev.Node)
		if ev.Err != nil {
			update.Error = ev.Err.Error()
		}
		run.publishLocked(update)
		run.mu.Unlock()
	}

	snap, err := h.app.Graph.GetState(workflow.Config{ThreadID: run.threadID})
	if err != nil {
		h.finish(run, StatusFailed, "", err)
		return
	}
	switch {
	case snap.Interrupt != "":
		h.finish(run, StatusWaitingInput, snap.Interrupt, nil)
	case snap.Values.Has(nodes.KeyFinalReport):
		h.finish(run, StatusCompleted, "", nil)
	default:
		h.finish(run, StatusFailed, "", errors.New("run stopped before producing a report"))
	}
}

func (h *Hub) finish(run *analysisRun, status, question string, err error) {
	run.mu.Lock()
	run.status = status
	run.question = question
	if err != nil {
		run.failure = err.Error()
		h.logger.Warn().Err(err).Str("thread_id", run.threadID).Msg("Analysis run failed")
	}
	update := run.snapshotLocked("")
	update.Error = run.failure
	run.publishLocked(update)
	run.mu.Unlock()
}

func (r *analysisRun) snapshotLocked(node string) ProgressUpdate {
	step := len(r.seen)
	return ProgressUpdate{
		ThreadID: r.threadID,
		Status:   r.status,
		Node:     node,
		Step:     step,
		Total:    nodes.TotalSteps,
		Percent:  step * 100 / nodes.TotalSteps,
		Question: r.question,
	}
}

func (r *analysisRun) publishLocked(update ProgressUpdate) {
	for ch := range r.subscribers {
		select {
		case ch <- update:
		default:
			// Slow subscriber, drop the frame rather than stall the run.
		}
	}
}
