package workflow

import (
	"context"
	"fmt"
)

// End is the terminal edge target.
const End = "__end__"

// NodeFunc is a unit of work. It receives a snapshot of the state and returns
// the delta to merge. Returning an *InterruptError suspends the run.
type NodeFunc func(ctx context.Context, state State) (Delta, error)

// ConditionFunc routes execution after a node based on the merged state. It
// returns the names of the nodes to schedule next (End to stop the branch).
type ConditionFunc func(state State) []string

type node struct {
	name     string
	run      NodeFunc
	subgraph *CompiledGraph
}

// StateGraph is the mutable graph builder.
type StateGraph struct {
	nodes       map[string]*node
	edges       map[string][]string
	conditional map[string]ConditionFunc
	entry       string
}

func NewStateGraph() *StateGraph {
	return &StateGraph{
		nodes:       map[string]*node{},
		edges:       map[string][]string{},
		conditional: map[string]ConditionFunc{},
	}
}

// AddNode registers a node function under a unique name.
func (g *StateGraph) AddNode(name string, fn NodeFunc) *StateGraph {
	g.nodes[name] = &node{name: name, run: fn}
	return g
}

// AddSubgraph registers a compiled graph as a single node. The subgraph runs
// on the parent state and its accumulated delta merges back as one unit; its
// events surface under the subgraph's namespace.
func (g *StateGraph) AddSubgraph(name string, sub *CompiledGraph) *StateGraph {
	g.nodes[name] = &node{name: name, subgraph: sub}
	return g
}

// AddEdge connects from -> to. A node may have several outgoing edges
// (fan-out) and several incoming edges (fan-in: the target is scheduled once
// per completed predecessor).
func (g *StateGraph) AddEdge(from, to string) *StateGraph {
	g.edges[from] = append(g.edges[from], to)
	return g
}

// AddConditionalEdges installs a router that picks successors at runtime.
func (g *StateGraph) AddConditionalEdges(from string, cond ConditionFunc) *StateGraph {
	g.conditional[from] = cond
	return g
}

// SetEntryPoint names the node the run starts at.
func (g *StateGraph) SetEntryPoint(name string) *StateGraph {
	g.entry = name
	return g
}

// Compile validates the topology and returns an executable graph.
func (g *StateGraph) Compile(opts ...CompileOption) (*CompiledGraph, error) {
	if g.entry == "" {
		return nil, fmt.Errorf("graph has no entry point")
	}
	if _, ok := g.nodes[g.entry]; !ok {
		return nil, fmt.Errorf("entry point %q is not a registered node", g.entry)
	}
	for from, targets := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("edge source %q is not a registered node", from)
		}
		for _, to := range targets {
			if to == End {
				continue
			}
			if _, ok := g.nodes[to]; !ok {
				return nil, fmt.Errorf("edge %q -> %q targets an unknown node", from, to)
			}
		}
	}
	for from := range g.conditional {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("conditional edge source %q is not a registered node", from)
		}
	}

	compiled := &CompiledGraph{
		nodes:       g.nodes,
		edges:       g.edges,
		conditional: g.conditional,
		entry:       g.entry,
		saver:       NewMemorySaver(),
	}
	for _, opt := range opts {
		opt(compiled)
	}
	return compiled, nil
}

// CompileOption configures a compiled graph.
type CompileOption func(*CompiledGraph)

// WithCheckpointer sets the checkpoint store used after every merge.
func WithCheckpointer(saver Checkpointer) CompileOption {
	return func(c *CompiledGraph) { c.saver = saver }
}
