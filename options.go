package mqttcore

import (
	"log/slog"
	"time"
)

// Option configures optional Config fields that have sane zero-value
// defaults, mirroring the teacher's With... functional-option pattern
// (options.go) for everything that isn't a mandatory identity/transport
// field.
type Option func(*Config)

// WithKeepAlive sets the keep-alive interval, clamped to
// [KeepAliveMin, KeepAliveMax].
func WithKeepAlive(d time.Duration) Option {
	return func(c *Config) { c.KeepAlive = d }
}

// WithRequestTimeout sets the ack timeout for publish/subscribe/unsubscribe
// requests, clamped to [RequestTimeoutMin, RequestTimeoutMax].
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Config) { c.RequestTimeout = d }
}

// WithCredentials sets a static username/password sent in CONNECT. Ignored
// if an Authenticator is configured.
func WithCredentials(username, password string) Option {
	return func(c *Config) {
		c.Username = username
		c.Password = password
	}
}

// WithAuthenticator installs a credential source consulted on every
// reconnect attempt (spec.md §4.8).
func WithAuthenticator(a Authenticator) Option {
	return func(c *Config) { c.Authenticator = a }
}

// WithEventHandler installs the handler that receives lifecycle and
// delivery events (spec.md §4.7).
func WithEventHandler(h EventHandler) Option {
	return func(c *Config) { c.EventHandler = h }
}

// WithBufferSizes overrides the module-owned send/read buffer slab sizes.
func WithBufferSizes(writeSize, readSize int) Option {
	return func(c *Config) {
		c.WriteBufferSize = writeSize
		c.ReadBufferSize = readSize
	}
}

// WithPubInflightCap overrides the pub-ack table capacity (REPUB_NUM_MAX).
func WithPubInflightCap(n int) Option {
	return func(c *Config) { c.PubInflightCap = n }
}

// WithSubTableCap overrides the subscription table capacity (SUB_NUM_MAX).
func WithSubTableCap(n int) Option {
	return func(c *Config) { c.SubTableCap = n }
}

// WithLogger installs a structured logger; nil discards logs.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
