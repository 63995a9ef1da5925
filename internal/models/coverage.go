package models

type CoverageSnapshot struct {
	SeenTotal     int    `json:"seen_total"`
	EligibleTotal int    `json:"eligible_total"`
	FilteredTotal int    `json:"filtered_total"`
	MonitorCount  int    `json:"mon_count"`
	IgnoreCount   int    `json:"ign_count"`
	Timestamp     string `json:"ts"`
}

const (
	ConnectionOK    = "ok"
	ConnectionError = "error"
)

// ConnectionStatus - здоровье транспорта, отдаётся подписчикам как есть.
type ConnectionStatus struct {
	Status string `json:"status"`
	Msg    string `json:"msg,omitempty"`
}
