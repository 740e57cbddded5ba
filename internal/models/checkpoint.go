package models

import "time"

// Checkpoint is a persisted workflow state snapshot for one thread. The
// engine writes one after every state merge so a run can resume across
// process restarts.
type Checkpoint struct {
	ThreadID  string    `json:"thread_id" badgerhold:"key"`
	State     []byte    `json:"state"` // JSON-encoded workflow state
	Next      []string  `json:"next"`  // nodes scheduled but not yet run
	Interrupt string    `json:"interrupt,omitempty"`
	Step      int       `json:"step"`
	UpdatedAt time.Time `json:"updated_at"`
}
