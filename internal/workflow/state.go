// Package workflow implements a typed-state graph engine: nodes produce
// partial state deltas, the scheduler merges them serially and fans execution
// out along edges, with per-thread checkpoints and human-interrupt support.
package workflow

import "encoding/json"

// State is the shared graph state. Nodes read it and return Deltas; only the
// scheduler writes it.
type State map[string]any

// Delta is a partial state fragment returned by a node.
type Delta map[string]any

// Clone deep-copies the state through JSON, so node goroutines can read
// without racing the merge loop.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		// State is built from JSON-decoded values, so this does not happen
		// in practice; fall back to a shallow copy.
		out := make(State, len(s))
		for k, v := range s {
			out[k] = v
		}
		return out
	}
	var out State
	if err := json.Unmarshal(data, &out); err != nil {
		return State{}
	}
	return out
}

// Merge applies a delta field-wise: map values merge key-by-key with the
// delta winning per key, everything else replaces.
func (s State) Merge(delta Delta) {
	for key, value := range delta {
		existing, ok := s[key].(map[string]any)
		incoming, isMap := value.(map[string]any)
		if ok && isMap {
			for k, v := range incoming {
				existing[k] = v
			}
			continue
		}
		s[key] = value
	}
}

// GetString returns a string-valued key, or "".
func (s State) GetString(key string) string {
	v, _ := s[key].(string)
	return v
}

// GetMap returns a map-valued key, or nil.
func (s State) GetMap(key string) map[string]any {
	v, _ := s[key].(map[string]any)
	return v
}

// equalJSON compares two state values through their JSON encoding.
func equalJSON(a, b any) bool {
	da, errA := json.Marshal(a)
	db, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(da) == string(db)
}

// Has reports whether every listed key is present and non-nil.
func (s State) Has(keys ...string) bool {
	for _, key := range keys {
		if v, ok := s[key]; !ok || v == nil {
			return false
		}
	}
	return true
}
