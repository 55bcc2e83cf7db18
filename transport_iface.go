package mqttcore

import "time"

// Transport is the byte-oriented, blocking transport collaborator
// (spec.md §4.2, external contract). Concrete implementations (plain TCP,
// TLS, WebSocket) live in the transport package; Client only depends on
// this interface.
//
// Reads may return (0, nil) on a deadline with nothing available — that is
// not an error, it's how PacketIO's read_packet (spec.md §4.5 step 1)
// distinguishes "nothing arrived yet" from a hard failure. Writes are
// retried by the caller until the full length is sent or the deadline
// expires, so Write may return a short count with a nil error to mean
// "wrote what it could before blocking would exceed the deadline."
type Transport interface {
	// Connect performs whatever handshake is needed to establish the byte
	// stream (TCP dial, TLS handshake, WebSocket upgrade). It may fail with
	// ErrCertVerify for a certificate-chain or expiry failure.
	Connect(deadline time.Time) error

	// Disconnect closes the underlying connection. Idempotent.
	Disconnect() error

	// Read reads into buf, blocking until at least one byte is available,
	// the deadline passes (returns 0, nil), or an error occurs.
	Read(buf []byte, deadline time.Time) (int, error)

	// Write writes buf, blocking until the deadline passes or an error
	// occurs. A partial write with a nil error means the deadline was
	// reached mid-write; the caller loops until all bytes are sent or the
	// deadline expires.
	Write(buf []byte, deadline time.Time) (int, error)
}
