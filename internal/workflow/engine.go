package workflow

import (
	"context"
	"errors"
	"fmt"
)

// Config identifies the thread a run belongs to. Every checkpoint for a
// thread overwrites the previous one.
type Config struct {
	ThreadID string
}

// Event is one scheduler observation: a node completed (Delta set), failed
// (Err set), or suspended the run (Interrupt set). Namespace is non-empty for
// nodes running inside a subgraph.
type Event struct {
	Namespace string
	Node      string
	Delta     Delta
	Err       error
	Interrupt string
}

// CompiledGraph is an executable graph. It is safe for concurrent runs on
// distinct threads.
type CompiledGraph struct {
	nodes       map[string]*node
	edges       map[string][]string
	conditional map[string]ConditionFunc
	entry       string
	saver       Checkpointer
}

type completion struct {
	node  string
	delta Delta
	err   error
}

type runResult struct {
	state     State
	step      int
	interrupt *InterruptError
	atNode    string
	nodeErrs  []error
}

// Invoke runs the graph to completion (or to an interrupt) and returns the
// final state. An interrupt surfaces as an *InterruptError; node failures
// halt their own branch and come back joined.
func (c *CompiledGraph) Invoke(ctx context.Context, initial Delta, cfg Config) (State, error) {
	return c.run(ctx, initial, cfg, nil)
}

// Stream runs the graph like Invoke but delivers scheduler events on the
// returned channel as they happen. The channel closes when the run stops.
func (c *CompiledGraph) Stream(ctx context.Context, initial Delta, cfg Config) (<-chan Event, error) {
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		_, _ = c.run(ctx, initial, cfg, events)
	}()
	return events, nil
}

// Resume continues an interrupted thread, feeding answer into the node that
// called Interrupt.
func (c *CompiledGraph) Resume(ctx context.Context, answer string, cfg Config) (State, error) {
	return c.resume(ctx, answer, cfg, nil)
}

// ResumeStream is Resume with scheduler events delivered like Stream.
func (c *CompiledGraph) ResumeStream(ctx context.Context, answer string, cfg Config) (<-chan Event, error) {
	if _, err := c.loadInterrupted(cfg); err != nil {
		return nil, err
	}
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		_, _ = c.resume(ctx, answer, cfg, events)
	}()
	return events, nil
}

func (c *CompiledGraph) resume(ctx context.Context, answer string, cfg Config, events chan<- Event) (State, error) {
	snap, err := c.loadInterrupted(cfg)
	if err != nil {
		return nil, err
	}
	bag := &resumeBag{value: answer, set: true}
	res := c.execute(ctx, snap.Values, snap.Next, bag, cfg, events, "", snap.Step, true)
	return c.finish(cfg, res)
}

func (c *CompiledGraph) loadInterrupted(cfg Config) (*Snapshot, error) {
	snap, err := c.saver.Load(cfg.ThreadID)
	if err != nil {
		return nil, fmt.Errorf("cannot resume thread %s: %w", cfg.ThreadID, err)
	}
	if snap.Interrupt == "" {
		return nil, fmt.Errorf("thread %s is not interrupted", cfg.ThreadID)
	}
	return snap, nil
}

// GetState returns the latest snapshot of a thread.
func (c *CompiledGraph) GetState(cfg Config) (*Snapshot, error) {
	return c.saver.Load(cfg.ThreadID)
}

func (c *CompiledGraph) run(ctx context.Context, initial Delta, cfg Config, events chan<- Event) (State, error) {
	state := State{}
	state.Merge(initial)
	res := c.execute(ctx, state, []string{c.entry}, &resumeBag{}, cfg, events, "", 0, true)
	return c.finish(cfg, res)
}

func (c *CompiledGraph) finish(cfg Config, res *runResult) (State, error) {
	if res.interrupt != nil {
		if cfg.ThreadID != "" {
			_ = c.saver.Save(cfg.ThreadID, &Snapshot{
				Values:    res.state,
				Next:      []string{res.atNode},
				Interrupt: res.interrupt.Value,
				Step:      res.step,
			})
		}
		return res.state, res.interrupt
	}
	if cfg.ThreadID != "" {
		_ = c.saver.Save(cfg.ThreadID, &Snapshot{Values: res.state, Step: res.step})
	}
	return res.state, errors.Join(res.nodeErrs...)
}

// execute is the scheduler loop. Completions are consumed one at a time, so
// merges are serialized; nodes themselves run concurrently on cloned state.
// checkpoint controls whether intermediate snapshots are persisted (subgraphs
// checkpoint at the parent's granularity instead).
func (c *CompiledGraph) execute(ctx context.Context, state State, start []string, bag *resumeBag, cfg Config, events chan<- Event, namespace string, step int, checkpoint bool) *runResult {
	res := &runResult{state: state, step: step}
	results := make(chan completion)
	pending := append([]string(nil), start...)
	inFlight := map[string]int{}
	total := 0

	launch := func(name string) {
		n, ok := c.nodes[name]
		if !ok {
			res.nodeErrs = append(res.nodeErrs, fmt.Errorf("scheduled unknown node %q", name))
			return
		}
		inFlight[name]++
		total++
		snapshot := state.Clone()
		go func() {
			var delta Delta
			var err error
			if n.subgraph != nil {
				delta, err = n.subgraph.runAsNode(ctx, snapshot, bag, events, name)
			} else {
				delta, err = n.run(withResumeBag(ctx, bag), snapshot)
			}
			select {
			case results <- completion{node: name, delta: delta, err: err}:
			case <-ctx.Done():
			}
		}()
	}

	emit := func(ev Event) {
		if events == nil {
			return
		}
		ev.Namespace = namespace
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	for {
		if res.interrupt == nil {
			for _, name := range pending {
				launch(name)
			}
			pending = pending[:0]
		}
		if total == 0 {
			break
		}

		var done completion
		select {
		case done = <-results:
		case <-ctx.Done():
			res.nodeErrs = append(res.nodeErrs, ctx.Err())
			return res
		}
		total--
		inFlight[done.node]--

		if done.err != nil {
			var ie *InterruptError
			if errors.As(done.err, &ie) {
				res.interrupt = ie
				res.atNode = done.node
				emit(Event{Node: done.node, Interrupt: ie.Value})
				continue
			}
			// A failed node halts only its own branch.
			res.nodeErrs = append(res.nodeErrs, fmt.Errorf("node %s: %w", done.node, done.err))
			emit(Event{Node: done.node, Err: done.err})
			continue
		}

		state.Merge(done.delta)
		res.step++
		emit(Event{Node: done.node, Delta: done.delta})

		next := c.successors(done.node, state)
		pending = append(pending, next...)

		if checkpoint && cfg.ThreadID != "" {
			scheduled := append([]string(nil), pending...)
			for name, n := range inFlight {
				for i := 0; i < n; i++ {
					scheduled = append(scheduled, name)
				}
			}
			_ = c.saver.Save(cfg.ThreadID, &Snapshot{
				Values: state,
				Next:   scheduled,
				Step:   res.step,
			})
		}
	}
	return res
}

func (c *CompiledGraph) successors(name string, state State) []string {
	var out []string
	if cond, ok := c.conditional[name]; ok {
		for _, t := range cond(state) {
			if t != End {
				out = append(out, t)
			}
		}
	}
	for _, t := range c.edges[name] {
		if t != End {
			out = append(out, t)
		}
	}
	return out
}

// runAsNode executes the graph as a single parent node: it starts from the
// entry on the given state and returns everything it merged as one delta.
// An interrupt inside the subgraph propagates to the parent, which re-runs
// the subgraph on resume.
func (c *CompiledGraph) runAsNode(ctx context.Context, state State, bag *resumeBag, events chan<- Event, namespace string) (Delta, error) {
	before := state.Clone()
	res := c.execute(ctx, state, []string{c.entry}, bag, Config{}, events, namespace, 0, false)
	if res.interrupt != nil {
		return nil, res.interrupt
	}
	if len(res.nodeErrs) > 0 {
		return nil, errors.Join(res.nodeErrs...)
	}
	// Report only the keys the subgraph changed.
	delta := Delta{}
	for k, v := range res.state {
		if prev, ok := before[k]; !ok || !equalJSON(prev, v) {
			delta[k] = v
		}
	}
	return delta, nil
}
