// Package mirror republishes the simulated points after every tick to
// message brokers, off the tick goroutine.
package mirror

import (
	"encoding/json"
	"time"
)

// Snapshot is the JSON document published once per tick.
type Snapshot struct {
	RunID   string         `json:"run_id"`
	Tick    uint64         `json:"tick"`
	Time    time.Time      `json:"time"`
	Profile string         `json:"profile"`
	Alarm   string         `json:"alarm"`
	Points  map[string]any `json:"points"`
}

func (s Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}
