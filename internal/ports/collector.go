package ports

import "github.com/shubhamavl/axleweigh/internal/domain"

// ReadingFunc receives one transport event. Implementations must not block.
type ReadingFunc func(domain.Reading)

// Collector produces left/right readings from a transport (CAN, OPC UA, simulator).
type Collector interface {
	Start(emit ReadingFunc) error
	Stop() error
}
