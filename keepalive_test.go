package mqttcore

import (
	"testing"
	"time"

	"github.com/fogwing/mqttcore/internal/codec"
)

func TestPingIfDueSendsPingreq(t *testing.T) {
	c, tr := newConnectedClientT(t)

	c.generalMu.Lock()
	c.nextPingDeadline = time.Now().Add(-time.Millisecond)
	c.generalMu.Unlock()

	// New already wrote a CONNECT; only look at what pingIfDue writes.
	before := len(tr.writtenBytes())
	c.pingIfDue()

	written := tr.writtenBytes()[before:]
	if len(written) == 0 || written[0]>>4 != codec.PINGREQ {
		t.Fatalf("written = %x, want a PINGREQ as the first packet after CONNECT", written)
	}

	c.generalMu.Lock()
	outstanding := c.pingOutstanding
	c.generalMu.Unlock()
	if !outstanding {
		t.Fatal("pingOutstanding should be true after sending PINGREQ")
	}
}

func TestPingrespClearsOutstanding(t *testing.T) {
	c, tr := newConnectedClientT(t)
	c.generalMu.Lock()
	c.pingOutstanding = true
	c.generalMu.Unlock()

	tr.queueFromBroker(codec.EncodeFixedHeader(nil, codec.PINGRESP, 0, 0))
	if err := c.Yield(50 * time.Millisecond); err != nil {
		t.Fatalf("Yield: %v", err)
	}

	c.generalMu.Lock()
	outstanding := c.pingOutstanding
	c.generalMu.Unlock()
	if outstanding {
		t.Fatal("pingOutstanding should be false after PINGRESP")
	}
}

func TestReconnectBackoffDoublesAndCaps(t *testing.T) {
	c, tr := newConnectedClientT(t)
	tr.connectErr = errAlwaysFailConnect{}

	c.generalMu.Lock()
	c.state = StateDisconnected
	c.generalMu.Unlock()

	c.keepaliveTick() // Disconnected -> Reconnecting, backoff = ReconnectIntervalMin
	c.generalMu.Lock()
	if c.reconnectBackoff != ReconnectIntervalMin {
		t.Fatalf("initial backoff = %v, want %v", c.reconnectBackoff, ReconnectIntervalMin)
	}
	c.reconnectAt = time.Now().Add(-time.Millisecond) // force due
	c.generalMu.Unlock()

	c.keepaliveTick() // attempt fails, backoff doubles
	c.generalMu.Lock()
	got := c.reconnectBackoff
	c.reconnectAt = time.Now().Add(-time.Millisecond)
	c.generalMu.Unlock()
	if got != 2*ReconnectIntervalMin {
		t.Fatalf("backoff after one failure = %v, want %v", got, 2*ReconnectIntervalMin)
	}

	// Drive enough failed attempts to hit the cap.
	for i := 0; i < 10; i++ {
		c.keepaliveTick()
		c.generalMu.Lock()
		c.reconnectAt = time.Now().Add(-time.Millisecond)
		capped := c.reconnectBackoff
		c.generalMu.Unlock()
		if capped > ReconnectIntervalMax {
			t.Fatalf("backoff exceeded cap: %v", capped)
		}
	}
	c.generalMu.Lock()
	final := c.reconnectBackoff
	c.generalMu.Unlock()
	if final != ReconnectIntervalMax {
		t.Fatalf("final backoff = %v, want cap %v", final, ReconnectIntervalMax)
	}
}

type errAlwaysFailConnect struct{}

func (errAlwaysFailConnect) Error() string { return "simulated connect failure" }
