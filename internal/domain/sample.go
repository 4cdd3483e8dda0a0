package domain

import "time"

// Sample is one producer reading as it sits in the ingest queue: both channel
// weights (kg, already tared) and the instant they were taken.
type Sample struct {
	Left      float64   `json:"left"`
	Right     float64   `json:"right"`
	Timestamp time.Time `json:"ts"`
}

// Total is the combined axle weight carried by the sample.
func (s Sample) Total() float64 { return s.Left + s.Right }

// Reading is what a transport hands to the pipeline on every event.
type Reading struct {
	Left      float64
	Right     float64
	Timestamp time.Time
}

// Sample converts the reading into its queued form.
func (r Reading) Sample() Sample {
	return Sample{Left: r.Left, Right: r.Right, Timestamp: r.Timestamp}
}
