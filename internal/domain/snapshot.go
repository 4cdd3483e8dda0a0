package domain

import "time"

// Snapshot is the display state published once per tick.
type Snapshot struct {
	Timestamp      time.Time      `json:"timestamp"`
	State          LifecycleState `json:"state"`
	Paused         bool           `json:"paused"`
	Left           float64        `json:"left"`
	Right          float64        `json:"right"`
	Total          float64        `json:"total"`
	BalancePercent float64        `json:"balancePercent"`
	Ratio          float64        `json:"ratio"`
	Min            float64        `json:"min"`
	Max            float64        `json:"max"`
	HasData        bool           `json:"hasData"`
	SampleCount    uint64         `json:"sampleCount"`
	LeftValid      bool           `json:"leftValid"`
	RightValid     bool           `json:"rightValid"`
	Imbalance      bool           `json:"imbalance"`
	BalanceStatus  BalanceStatus  `json:"balanceStatus"`
	RatePerSecond  float64        `json:"ratePerSecond"`
	QueueLen       int            `json:"queueLen"`
}
