package slcan

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
)

var ErrMalformedFrame = errors.New("malformed slcan frame")

// Frame is one CAN 2.0 data frame as carried by the SLCAN ASCII protocol.
type Frame struct {
	ID       uint32
	Extended bool
	DLC      uint8
	Data     [8]byte
}

// ParseFrame decodes a single SLCAN line without its '\r' terminator.
// Standard frames look like tIIILDD.., extended ones like TIIIIIIIILDD..
// A trailing 4-digit timestamp is accepted and ignored.
func ParseFrame(line string) (Frame, error) {
	var f Frame
	if len(line) == 0 {
		return f, ErrMalformedFrame
	}
	idLen := 3
	switch line[0] {
	case 't':
	case 'T':
		idLen = 8
		f.Extended = true
	default:
		return f, fmt.Errorf("%w: unsupported command %q", ErrMalformedFrame, line[0])
	}
	if len(line) < 1+idLen+1 {
		return f, fmt.Errorf("%w: %q too short", ErrMalformedFrame, line)
	}

	id, err := strconv.ParseUint(line[1:1+idLen], 16, 32)
	if err != nil {
		return f, fmt.Errorf("%w: id: %v", ErrMalformedFrame, err)
	}
	f.ID = uint32(id)

	dlc := line[1+idLen] - '0'
	if dlc > 8 {
		return f, fmt.Errorf("%w: dlc %q", ErrMalformedFrame, line[1+idLen])
	}
	f.DLC = dlc

	payload := line[2+idLen:]
	if len(payload) != int(dlc)*2 && len(payload) != int(dlc)*2+4 {
		return f, fmt.Errorf("%w: payload length %d for dlc %d", ErrMalformedFrame, len(payload), dlc)
	}
	if _, err := hex.Decode(f.Data[:dlc], []byte(payload[:dlc*2])); err != nil {
		return f, fmt.Errorf("%w: payload: %v", ErrMalformedFrame, err)
	}
	return f, nil
}

// Weight interprets the first four payload bytes as a little-endian signed
// count and scales it to kilograms.
func (f Frame) Weight(scale float64) (float64, bool) {
	if f.DLC < 4 {
		return 0, false
	}
	raw := int32(binary.LittleEndian.Uint32(f.Data[:4]))
	return float64(raw) * scale, true
}
