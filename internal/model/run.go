package model

import "time"

// RunStats counts what happened during one monitor cycle.
type RunStats struct {
	Fetched    int `json:"fetched"`
	Relevant   int `json:"relevant"`
	Admitted   int `json:"admitted"`
	Duplicates int `json:"duplicates"`
	Mentions   int `json:"mentions"`
}

// Run is the persisted record of one monitor cycle.
type Run struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	ID         string    `json:"id"`
	Monitor    string    `json:"monitor"`
	Error      string    `json:"error,omitempty"`
	Stats      RunStats  `json:"stats"`
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
