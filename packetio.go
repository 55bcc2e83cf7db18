package mqttcore

import (
	"fmt"
	"time"

	"github.com/fogwing/mqttcore/internal/codec"
)

// writePacket implements spec.md §4.5 write_packet: it loops on
// Transport.Write until payload is fully sent or deadline expires,
// returning NetworkError on a partial send plus deadline expiry.
// Grounded on the teacher's writeLoop write-then-flush loop (client.go),
// collapsed to a direct call since this client has no background writer
// goroutine to hand off to.
//
// Callers must hold c.writeMu for the full duration (spec.md §5
// write-buffer lock: "held across serialization into the shared send
// buffer AND the subsequent transport write").
func (c *Client) writePacket(payload []byte, deadline time.Time) error {
	total := 0
	for total < len(payload) {
		n, err := c.cfg.Transport.Write(payload[total:], deadline)
		total += n
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		if n == 0 && !time.Now().Before(deadline) {
			return fmt.Errorf("%w: write deadline exceeded with %d/%d bytes sent", ErrNetwork, total, len(payload))
		}
	}
	return nil
}

// readOutcome distinguishes readPacket's possible results so dispatch can
// tell a clean "nothing arrived" apart from a hard failure without
// resorting to sentinel error comparison for the common case.
type readOutcome int

const (
	readTimeout readOutcome = iota
	readOK
	readOverrun
)

// readPacket implements spec.md §4.5 read_packet: frames exactly one
// inbound control packet within deadline, or reports Timeout (not an
// error) if nothing arrived, or drains-and-drops an oversized packet
// (readOverrun) without disconnecting (spec.md §9 third bullet).
// Grounded on the teacher's packets.ReadPacket (internal/packets/reader.go)
// for the header-then-body framing, adapted to read one byte at a time
// off the Transport contract instead of a buffered io.Reader.
func (c *Client) readPacket(deadline time.Time) (outcome readOutcome, kind byte, flags byte, body []byte, err error) {
	var first [1]byte
	n, rerr := c.cfg.Transport.Read(first[:], deadline)
	if rerr != nil {
		return 0, 0, 0, nil, fmt.Errorf("%w: %v", ErrNetwork, rerr)
	}
	if n == 0 {
		return readTimeout, 0, 0, nil, nil
	}
	kind = first[0] >> 4
	flags = first[0] & 0x0F

	value, multiplier := 0, 1
	remainingLength := -1
	for i := 0; i < 4; i++ {
		var b [1]byte
		n, rerr := c.cfg.Transport.Read(b[:], deadline)
		if rerr != nil {
			return 0, 0, 0, nil, fmt.Errorf("%w: %v", ErrNetwork, rerr)
		}
		if n == 0 {
			return 0, 0, 0, nil, fmt.Errorf("%w: deadline exceeded mid remaining-length", ErrNetwork)
		}
		var done bool
		value, multiplier, done, rerr = codec.DecodeVarIntStep(value, multiplier, b[0])
		if rerr != nil {
			return 0, 0, 0, nil, fmt.Errorf("%w: %v", ErrRead, rerr)
		}
		if done {
			remainingLength = value
			break
		}
	}
	if remainingLength < 0 {
		return 0, 0, 0, nil, fmt.Errorf("%w: remaining length exceeds 4 bytes", ErrRead)
	}

	if remainingLength > len(c.readBuf) {
		// spec.md §4.5 step 3: drain the overflow via a scratch buffer and
		// report an overrun without propagating a packet. The connection
		// stays up; the broker will redeliver at QoS >= 1 (spec.md §9).
		var scratch [256]byte
		remaining := remainingLength
		for remaining > 0 {
			chunk := len(scratch)
			if chunk > remaining {
				chunk = remaining
			}
			n, rerr := c.cfg.Transport.Read(scratch[:chunk], deadline)
			if rerr != nil {
				return 0, 0, 0, nil, fmt.Errorf("%w: %v", ErrNetwork, rerr)
			}
			if n == 0 {
				return 0, 0, 0, nil, fmt.Errorf("%w: deadline exceeded while draining overrun", ErrNetwork)
			}
			remaining -= n
		}
		return readOverrun, kind, flags, nil, nil
	}

	read := 0
	for read < remainingLength {
		n, rerr := c.cfg.Transport.Read(c.readBuf[read:remainingLength], deadline)
		if rerr != nil {
			return 0, 0, 0, nil, fmt.Errorf("%w: %v", ErrNetwork, rerr)
		}
		if n == 0 {
			return 0, 0, 0, nil, fmt.Errorf("%w: deadline exceeded mid body", ErrNetwork)
		}
		read += n
	}

	return readOK, kind, flags, c.readBuf[:remainingLength], nil
}
