package slcan

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/shubhamavl/axleweigh/internal/domain"
	"github.com/shubhamavl/axleweigh/internal/ports"
)

// Config selects the serial adapter and the frames carrying each side.
type Config struct {
	Port         string  `yaml:"port"`
	Baud         int     `yaml:"baud"`
	Bitrate      string  `yaml:"bitrate"` // SLCAN Sn code, S6 = 500 kbit/s
	LeftFrameID  uint32  `yaml:"left_frame_id"`
	RightFrameID uint32  `yaml:"right_frame_id"`
	Scale        float64 `yaml:"scale"` // kg per count
}

func (c *Config) ApplyDefaults() {
	if c.Baud == 0 {
		c.Baud = 115200
	}
	if c.Bitrate == "" {
		c.Bitrate = "S6"
	}
	if c.LeftFrameID == 0 && c.RightFrameID == 0 {
		c.LeftFrameID = 0x200
		c.RightFrameID = 0x201
	}
	if c.Scale == 0 {
		c.Scale = 0.01
	}
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.LeftFrameID == c.RightFrameID {
		return errors.New("left_frame_id and right_frame_id must differ")
	}
	return nil
}

type openFunc func(name string, mode *serial.Mode) (io.ReadWriteCloser, error)

func openSerial(name string, mode *serial.Mode) (io.ReadWriteCloser, error) {
	return serial.Open(name, mode)
}

// Collector reads load-cell frames from an SLCAN USB adapter. A Reading is
// emitted each time both sides have reported since the previous one.
type Collector struct {
	cfg  Config
	open openFunc

	mu      sync.Mutex
	port    io.ReadWriteCloser
	wg      sync.WaitGroup
	started bool

	left, right         float64
	haveLeft, haveRight bool
}

func NewCollector(cfg Config) (*Collector, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Collector{cfg: cfg, open: openSerial}, nil
}

// Ports lists the serial devices present on the host.
func Ports() ([]string, error) { return serial.GetPortsList() }

func (c *Collector) Start(emit ports.ReadingFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return fmt.Errorf("slcan collector already started")
	}

	port, err := c.open(c.cfg.Port, &serial.Mode{BaudRate: c.cfg.Baud})
	if err != nil {
		return fmt.Errorf("open %s: %w", c.cfg.Port, err)
	}
	for _, cmd := range []string{"C", c.cfg.Bitrate, "O"} {
		if _, err := io.WriteString(port, cmd+"\r"); err != nil {
			_ = port.Close()
			return fmt.Errorf("slcan init %q: %w", cmd, err)
		}
	}

	c.port = port
	c.started = true
	c.haveLeft, c.haveRight = false, false
	c.wg.Add(1)
	go c.readLoop(port, emit)
	return nil
}

func (c *Collector) Stop() error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	port := c.port
	c.started = false
	c.port = nil
	c.mu.Unlock()

	_, _ = io.WriteString(port, "C\r")
	err := port.Close()
	c.wg.Wait()
	return err
}

func (c *Collector) readLoop(port io.Reader, emit ports.ReadingFunc) {
	defer c.wg.Done()

	sc := bufio.NewScanner(port)
	sc.Split(splitCR)
	for sc.Scan() {
		line := sc.Text()
		if len(line) == 0 || (line[0] != 't' && line[0] != 'T') {
			continue
		}
		f, err := ParseFrame(line)
		if err != nil {
			log.Printf("slcan: %v", err)
			continue
		}
		if r, ok := c.handleFrame(f, time.Now()); ok {
			emit(r)
		}
	}
	if err := sc.Err(); err != nil && !isClosed(err) {
		log.Printf("slcan: read: %v", err)
	}
}

func (c *Collector) handleFrame(f Frame, now time.Time) (domain.Reading, bool) {
	w, ok := f.Weight(c.cfg.Scale)
	if !ok {
		return domain.Reading{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch f.ID {
	case c.cfg.LeftFrameID:
		c.left, c.haveLeft = w, true
	case c.cfg.RightFrameID:
		c.right, c.haveRight = w, true
	default:
		return domain.Reading{}, false
	}
	if !c.haveLeft || !c.haveRight {
		return domain.Reading{}, false
	}
	c.haveLeft, c.haveRight = false, false
	return domain.Reading{Left: c.left, Right: c.right, Timestamp: now}, true
}

// splitCR tokenizes SLCAN output, which terminates frames with '\r' and
// reports errors with BEL. Empty lines (command acks) are skipped within the
// same buffer so a frame behind them is not held back.
func splitCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for {
		i := bytes.IndexAny(data[start:], "\r\a")
		if i < 0 {
			break
		}
		tok := bytes.TrimSpace(data[start : start+i])
		start += i + 1
		if len(tok) > 0 {
			return start, tok, nil
		}
	}
	if atEOF {
		if tok := bytes.TrimSpace(data[start:]); len(tok) > 0 {
			return len(data), tok, nil
		}
		return len(data), nil, nil
	}
	return start, nil, nil
}

func isClosed(err error) bool {
	if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, io.EOF) {
		return true
	}
	var perr *serial.PortError
	return errors.As(err, &perr) && perr.Code() == serial.PortClosed
}

var _ ports.Collector = (*Collector)(nil)
