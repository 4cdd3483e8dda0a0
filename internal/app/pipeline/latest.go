package pipeline

import (
	"sync"

	"github.com/shubhamavl/axleweigh/internal/domain"
)

// LatestReading holds the most recent transport reading. Producers store into
// it on every event; the tick goroutine reads it when folding in latest mode.
type LatestReading struct {
	mu  sync.Mutex
	r   domain.Reading
	set bool
}

func (l *LatestReading) Store(r domain.Reading) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r = r
	l.set = true
}

func (l *LatestReading) Load() (domain.Reading, bool) {
	if l == nil {
		return domain.Reading{}, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r, l.set
}
