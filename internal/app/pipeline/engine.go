package pipeline

import (
	"math"
	"time"

	"github.com/shubhamavl/axleweigh/internal/app/balance"
	"github.com/shubhamavl/axleweigh/internal/app/lifecycle"
	"github.com/shubhamavl/axleweigh/internal/app/stats"
	"github.com/shubhamavl/axleweigh/internal/app/window"
	"github.com/shubhamavl/axleweigh/internal/domain"
	"github.com/shubhamavl/axleweigh/internal/ports"
)

type EngineConfig struct {
	Policy     ports.Policy
	Thresholds ports.Thresholds
	AxleNumber uint8
}

type recycler interface {
	Recycle([]domain.Sample)
}

// Engine is the consumer-side state: windows, session statistics and the
// lifecycle. None of its methods are safe for concurrent use; the Scheduler
// is the only caller once it runs.
type Engine struct {
	queue    ports.SampleQueue
	latest   *LatestReading
	obs      ports.Observability
	th       ports.Thresholds
	foldMode string
	axle     uint8

	windows *window.Pair
	tracker *stats.Tracker
	rate    *stats.RateCounter
	life    *lifecycle.Lifecycle

	paused  bool
	current domain.Reading
	last    domain.Snapshot
}

func NewEngine(cfg EngineConfig, q ports.SampleQueue, latest *LatestReading, obs ports.Observability) *Engine {
	th := cfg.Thresholds
	if th.MinValidWeight == 0 && th.BalanceThreshold == 0 {
		th = balance.DefaultThresholds()
	}
	mode := cfg.Policy.FoldMode
	if mode == "" {
		mode = ports.FoldPerSample
	}
	axle := cfg.AxleNumber
	if axle == 0 {
		axle = 1
	}
	return &Engine{
		queue:    q,
		latest:   latest,
		obs:      obs,
		th:       th,
		foldMode: mode,
		axle:     axle,
		windows:  window.NewPair(cfg.Policy.MaxSamples),
		tracker:  stats.NewTracker(),
		rate:     stats.NewRateCounter(cfg.Policy.RateWindow),
		life:     lifecycle.New(th),
	}
}

// Tick runs one scheduler step. It reports false when the pipeline is paused
// outside a session and nothing was drained or published.
func (e *Engine) Tick(now time.Time) (domain.Snapshot, bool) {
	started := time.Now()

	if rate, ok := e.rate.Tick(now); ok {
		e.obs.SetGauge("axle_sample_rate_hz", rate)
	}

	if e.paused && e.life.State() != domain.StateReading {
		e.obs.SetGauge("axle_queue_length", float64(e.queue.Len()))
		return e.last, false
	}

	batch := e.queue.DrainBatch()
	e.fold(batch)
	if r, ok := e.queue.(recycler); ok {
		r.Recycle(batch)
	}

	e.last = e.snapshot(now)
	e.obs.SetGauge("axle_queue_length", float64(e.last.QueueLen))
	e.obs.ObserveLatency("axle_tick_duration_seconds", time.Since(started).Seconds())
	return e.last, true
}

// fold applies a drained batch. Windows always advance so the live chart keeps
// scrolling; session statistics only advance while Reading.
func (e *Engine) fold(batch []domain.Sample) {
	if len(batch) == 0 {
		return
	}
	reading := e.life.State() == domain.StateReading

	for _, s := range batch {
		r := domain.Reading{Left: s.Left, Right: s.Right, Timestamp: s.Timestamp}
		if e.foldMode == ports.FoldLatest {
			if lr, ok := e.latest.Load(); ok {
				r = lr
			}
		}
		total := r.Left + r.Right
		r.Left = finiteOr(r.Left, e.current.Left)
		r.Right = finiteOr(r.Right, e.current.Right)
		e.windows.Push(r.Left, r.Right)
		if reading {
			e.tracker.Observe(total)
			e.tracker.IncrementSampleCount()
		}
		e.current = r
	}

	e.rate.Add(len(batch))
	e.obs.IncCounter("axle_samples_folded_total", float64(len(batch)))
}

// finiteOr keeps a channel's last finite value when the transport delivers
// NaN or an infinity.
func finiteOr(v, last float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return last
	}
	return v
}

func (e *Engine) snapshot(now time.Time) domain.Snapshot {
	left, right := e.current.Left, e.current.Right
	res := balance.Evaluate(left, right, e.th)
	session := e.tracker.Snapshot()
	lo, hi := session.Bounds()

	count := uint64(e.windows.Len())
	if e.life.State() == domain.StateReading {
		count = session.SampleCount
	}

	return domain.Snapshot{
		Timestamp:      now,
		State:          e.life.State(),
		Paused:         e.paused,
		Left:           left,
		Right:          right,
		Total:          left + right,
		BalancePercent: balance.LeftPercent(left, right),
		Ratio:          res.Ratio,
		Min:            lo,
		Max:            hi,
		HasData:        session.HasData,
		SampleCount:    count,
		LeftValid:      res.LeftValidation == domain.ValidationPass,
		RightValid:     res.RightValidation == domain.ValidationPass,
		Imbalance:      res.Imbalance,
		BalanceStatus:  res.Status,
		RatePerSecond:  e.rate.Rate(),
		QueueLen:       e.queue.Len(),
	}
}

// Start opens a session and resets the session statistics.
func (e *Engine) Start(now time.Time) bool {
	if !e.life.Start(e.axle, now) {
		return false
	}
	e.tracker.Reset()
	e.tracker.Begin(now)
	return true
}

func (e *Engine) Stop() bool { return e.life.Stop() }

// Save finalizes the session record from the latest readings and counters.
func (e *Engine) Save(now time.Time) (*domain.TestRecord, error) {
	session := e.tracker.Snapshot()
	lo, hi := session.Bounds()
	return e.life.Save(lifecycle.Final{
		EndTime:     now,
		Left:        e.current.Left,
		Right:       e.current.Right,
		SampleCount: session.SampleCount,
		MinWeight:   lo,
		MaxWeight:   hi,
	})
}

// Clear drops the record, statistics, windows and anything still queued.
func (e *Engine) Clear() int {
	e.life.Clear()
	e.tracker.Reset()
	e.windows.Clear()
	return e.DiscardQueue()
}

func (e *Engine) Pause()       { e.paused = true }
func (e *Engine) Resume()      { e.paused = false }
func (e *Engine) Paused() bool { return e.paused }

// SetAxle selects the axle number used by the next session.
func (e *Engine) SetAxle(n uint8) {
	if n > 0 {
		e.axle = n
	}
}

func (e *Engine) State() domain.LifecycleState { return e.life.State() }
func (e *Engine) Can(op lifecycle.Op) bool     { return e.life.Can(op) }
func (e *Engine) Record() *domain.TestRecord   { return e.life.Record() }
func (e *Engine) Session() stats.Session       { return e.tracker.Snapshot() }
func (e *Engine) Last() domain.Snapshot        { return e.last }

// Buffers copies both channel windows for export.
func (e *Engine) Buffers() (left, right []float64) { return e.windows.Snapshot() }

// DiscardQueue drops every pending sample and returns how many were dropped.
func (e *Engine) DiscardQueue() int {
	n := len(e.queue.DrainBatch())
	if n > 0 {
		e.obs.IncCounter("axle_queue_dropped_total", float64(n))
	}
	return n
}
