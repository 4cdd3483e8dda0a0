package ports

import "time"

const (
	FoldPerSample = "per_sample"
	FoldLatest    = "latest"
)

type Policy struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	RateWindow   time.Duration `yaml:"rate_window"`
	MaxSamples   int           `yaml:"max_samples"`

	// MaxQueueLen of 0 keeps the queue unbounded.
	MaxQueueLen int    `yaml:"max_queue_len"`
	OnQueueFull string `yaml:"on_queue_full"` // "drop_oldest"
	FoldMode    string `yaml:"fold_mode"`     // "per_sample", "latest"
}

// Thresholds drive channel validation and the balance check.
type Thresholds struct {
	MinValidWeight   float64 `yaml:"min_valid_weight"`
	BalanceThreshold float64 `yaml:"balance_threshold"`
}
