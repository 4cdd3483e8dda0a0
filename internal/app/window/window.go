// Package window holds the bounded per-channel display history.
package window

// DefaultMaxSamples is the history length kept per channel.
const DefaultMaxSamples = 21000

// Buffer is a sliding window of the most recent values of one channel. It is
// owned by the tick goroutine and is not safe for concurrent mutation.
type Buffer struct {
	data  []float64
	head  int
	count int
}

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultMaxSamples
	}
	return &Buffer{data: make([]float64, capacity)}
}

// Push appends v, evicting the oldest value once the buffer is full.
func (b *Buffer) Push(v float64) {
	tail := (b.head + b.count) % len(b.data)
	b.data[tail] = v
	if b.count < len(b.data) {
		b.count++
		return
	}
	b.head = (b.head + 1) % len(b.data)
}

// Snapshot copies the window oldest-first.
func (b *Buffer) Snapshot() []float64 {
	out := make([]float64, b.count)
	n := copy(out, b.data[b.head:min(b.head+b.count, len(b.data))])
	copy(out[n:], b.data[:b.count-n])
	return out
}

// Last returns the newest value.
func (b *Buffer) Last() (float64, bool) {
	if b.count == 0 {
		return 0, false
	}
	return b.data[(b.head+b.count-1)%len(b.data)], true
}

func (b *Buffer) Clear() {
	b.head = 0
	b.count = 0
}

func (b *Buffer) Len() int { return b.count }
func (b *Buffer) Cap() int { return len(b.data) }

// Pair is the left/right window set of one axle.
type Pair struct {
	Left  *Buffer
	Right *Buffer
}

func NewPair(capacity int) *Pair {
	return &Pair{Left: NewBuffer(capacity), Right: NewBuffer(capacity)}
}

func (p *Pair) Push(left, right float64) {
	p.Left.Push(left)
	p.Right.Push(right)
}

func (p *Pair) Clear() {
	p.Left.Clear()
	p.Right.Clear()
}

// Len is the longer of the two channel lengths.
func (p *Pair) Len() int {
	return max(p.Left.Len(), p.Right.Len())
}

// Snapshot copies both channels for export.
func (p *Pair) Snapshot() (left, right []float64) {
	return p.Left.Snapshot(), p.Right.Snapshot()
}
