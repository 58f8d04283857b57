package rtmpclient

import (
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"rtmpclient/internal/logger"
)

// ClientOptions configures a Connection, following the project's
// Default()/Validate() configuration pattern.
type ClientOptions struct {
	// Dialer opens the transport; defaults to DialTCP.
	Dialer Dialer

	// CommandTimeout bounds how long send_command waits for a response
	// when the caller's context carries no deadline of its own.
	CommandTimeout time.Duration

	// OutboundQueueSize is the bound on the outbound message queue between
	// the public API and the writer pump.
	OutboundQueueSize int

	// CommandRateLimit paces outbound commands, in commands per second;
	// zero disables pacing.
	CommandRateLimit float64
	CommandBurst     int

	// LogLevel controls the structured logger's verbosity.
	LogLevel slog.Level

	// HandshakeNow and HandshakeRand override the handshake's clock and
	// randomness source; both default to real time/crypto-rand and exist
	// for deterministic tests.
	HandshakeNow  func() uint32
	HandshakeRand io.Reader
}

// Default returns the baseline ClientOptions.
func Default() ClientOptions {
	return ClientOptions{
		Dialer:            DialTCP,
		CommandTimeout:    10 * time.Second,
		OutboundQueueSize: 100,
		CommandRateLimit:  50,
		CommandBurst:      10,
		LogLevel:          slog.LevelInfo,
		HandshakeRand:     rand.Reader,
	}
}

// Validate checks ClientOptions for internally consistent values, filling
// in the zero-value defaults that are safe to infer.
func (o *ClientOptions) Validate() error {
	if o.Dialer == nil {
		o.Dialer = DialTCP
	}
	if o.OutboundQueueSize <= 0 {
		return errors.New("rtmpclient: OutboundQueueSize must be positive")
	}
	if o.CommandTimeout <= 0 {
		return errors.New("rtmpclient: CommandTimeout must be positive")
	}
	if o.CommandRateLimit < 0 {
		return errors.New("rtmpclient: CommandRateLimit must not be negative")
	}
	return nil
}

func (o ClientOptions) commandLimiter() *rate.Limiter {
	if o.CommandRateLimit <= 0 {
		return nil
	}
	burst := o.CommandBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(o.CommandRateLimit), burst)
}

func (o ClientOptions) newLogger() *logger.Logger {
	return logger.New(o.LogLevel)
}
