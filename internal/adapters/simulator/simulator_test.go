package simulator

import (
	"math"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/shubhamavl/axleweigh/internal/domain"
	"github.com/shubhamavl/axleweigh/internal/ports"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestStaticPattern(t *testing.T) {
	t0 := time.Unix(1000, 0)
	ch := NewChannel(ports.ChannelParams{Weight: 42}, 1)
	ch.ResetPattern(t0)
	if w := ch.Weight(t0.Add(5 * time.Second)); w != 42 {
		t.Fatalf("expected 42, got %v", w)
	}
}

func TestRampPattern(t *testing.T) {
	t0 := time.Unix(1000, 0)
	ch := NewChannel(ports.ChannelParams{
		Weight:       10,
		Pattern:      ports.PatternRamp,
		Amplitude:    100,
		RampDuration: 2 * time.Second,
	}, 1)
	ch.ResetPattern(t0)

	if w := ch.Weight(t0); !near(w, 10) {
		t.Fatalf("ramp start: got %v", w)
	}
	if w := ch.Weight(t0.Add(time.Second)); !near(w, 60) {
		t.Fatalf("ramp midpoint: got %v", w)
	}
	if w := ch.Weight(t0.Add(10 * time.Second)); !near(w, 110) {
		t.Fatalf("ramp must hold at the top: got %v", w)
	}
}

func TestStepPattern(t *testing.T) {
	t0 := time.Unix(1000, 0)
	ch := NewChannel(ports.ChannelParams{Weight: 5, Pattern: ports.PatternStep, Amplitude: 20, Frequency: 1}, 1)
	ch.ResetPattern(t0)

	if w := ch.Weight(t0.Add(250 * time.Millisecond)); w != 5 {
		t.Fatalf("expected low phase, got %v", w)
	}
	if w := ch.Weight(t0.Add(750 * time.Millisecond)); w != 25 {
		t.Fatalf("expected high phase, got %v", w)
	}
}

func TestDampedSineDecays(t *testing.T) {
	t0 := time.Unix(1000, 0)
	p := ports.ChannelParams{Weight: 100, Pattern: ports.PatternDampedSine, Amplitude: 50, Frequency: 1, Damping: 2}
	ch := NewChannel(p, 1)
	ch.ResetPattern(t0)

	first := math.Abs(ch.Weight(t0.Add(250*time.Millisecond)) - 100)
	later := math.Abs(ch.Weight(t0.Add(2250*time.Millisecond)) - 100)
	if !(later < first) {
		t.Fatalf("expected decaying oscillation, first=%v later=%v", first, later)
	}
	if !near(first, 50*math.Exp(-0.5)) {
		t.Fatalf("unexpected peak %v", first)
	}
}

func TestADCValue(t *testing.T) {
	t0 := time.Unix(1000, 0)
	ch := NewChannel(ports.ChannelParams{Weight: 2.5, ZeroOffset: 100, Sensitivity: 1000}, 1)
	ch.ResetPattern(t0)
	if v := ch.ADCValue(t0); v != 2600 {
		t.Fatalf("expected 2600 counts, got %d", v)
	}
}

func TestNoiseIsBounded(t *testing.T) {
	t0 := time.Unix(1000, 0)
	ch := NewChannel(ports.ChannelParams{Weight: 50, NoiseLevel: 0.5}, 7)
	ch.ResetPattern(t0)

	var sum float64
	const n = 2000
	for i := 0; i < n; i++ {
		w := ch.Weight(t0)
		if math.Abs(w-50) > 5 {
			t.Fatalf("noise sample %v is more than 10 sigma away", w)
		}
		sum += w
	}
	if mean := sum / n; math.Abs(mean-50) > 0.1 {
		t.Fatalf("noise should be zero-mean, got mean %v", mean)
	}
}

func TestSetParams(t *testing.T) {
	ch := NewChannel(ports.ChannelParams{Weight: 1}, 1)
	p := ch.Params()
	p.Weight = 9
	ch.SetParams(p)
	if got := ch.Params().Weight; got != 9 {
		t.Fatalf("expected updated weight, got %v", got)
	}
}

func TestCollectorEmitsReadings(t *testing.T) {
	defer goleak.VerifyNone(t)

	col, err := NewCollector(Config{
		Interval: time.Millisecond,
		Left:     ports.ChannelParams{Weight: 15},
		Right:    ports.ChannelParams{Weight: 45},
	})
	if err != nil {
		t.Fatalf("new collector: %v", err)
	}

	var mu sync.Mutex
	var got []domain.Reading
	enough := make(chan struct{})
	var once sync.Once
	if err := col.Start(func(r domain.Reading) {
		mu.Lock()
		got = append(got, r)
		if len(got) >= 5 {
			once.Do(func() { close(enough) })
		}
		mu.Unlock()
	}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := col.Start(func(domain.Reading) {}); err == nil {
		t.Fatalf("expected error on second start")
	}

	select {
	case <-enough:
	case <-time.After(2 * time.Second):
		t.Fatalf("collector did not emit readings")
	}
	if err := col.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, r := range got {
		if r.Left != 15 || r.Right != 45 || r.Timestamp.IsZero() {
			t.Fatalf("unexpected reading %+v", r)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	if _, err := NewCollector(Config{Left: ports.ChannelParams{NoiseLevel: -1}}); err == nil {
		t.Fatalf("expected negative noise to be rejected")
	}
}
