package types

import "time"

// Channel names recognized throughout the agent.
const (
	ChannelLight = "light"
	ChannelRain  = "rain"
	ChannelWater = "water"
	ChannelRSSI  = "rssi"
)

// Snapshot is the latest computed state of one measurement channel. It is
// mutated in place by the owning channel driver on its own cadence.
// Seeded is false until the first burst has completed; consumers must treat
// an unseeded snapshot as "no data", not zero.
type Snapshot struct {
	Channel   string    `json:"channel"`
	Timestamp time.Time `json:"timestamp"`
	Seeded    bool      `json:"seeded"`
	Filtered  float64   `json:"filtered"`
	Trend     float64   `json:"trend"`
	Status    string    `json:"status,omitempty"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
}

// Update is a snapshot as handed to the publishers, annotated with whether
// this cycle produced a genuine status transition.
type Update struct {
	Snapshot
	StatusChanged bool   `json:"status_changed,omitempty"`
	PrevStatus    string `json:"prev_status,omitempty"`
}

// SystemInfo holds the per-boot bookkeeping exposed alongside the snapshots.
type SystemInfo struct {
	BootCount     int64     `json:"boot_count"`
	BootRunPeriod int64     `json:"boot_run_period"` // seconds the previous run lasted
	StartedAt     time.Time `json:"started_at"`
	Version       string    `json:"version"`
}
