package rtmpclient

import (
	"fmt"

	"rtmpclient/message"
)

// waiterResult is delivered to a one-shot waiter registered for a tx_id.
type waiterResult struct {
	msg message.Message
	err error
}

// outboundFrame is one message queued for the writer pump.
type outboundFrame struct {
	streamID uint32
	payload  []byte
}

// ClosedError reports that the session closed before a pending operation
// resolved, per spec §4.6 "transport/handshake errors are fatal".
type ClosedError struct {
	Cause error
}

func (e *ClosedError) Error() string {
	if e.Cause == nil {
		return "rtmpclient: session closed"
	}
	return "rtmpclient: session closed: " + e.Cause.Error()
}

func (e *ClosedError) Unwrap() error { return e.Cause }

// StatusError wraps a server-returned _error or error-level status that
// terminates one command, without closing the session (spec §5).
type StatusError struct {
	Status message.Status
}

func (e *StatusError) Error() string {
	return "rtmpclient: " + e.Status.Level + " " + e.Status.Code + ": " + e.Status.Description
}

// SessionErrorKind classifies a SessionError.
type SessionErrorKind int

const (
	// KindTxIDCollision reports that a newly allocated tx_id already has an
	// outstanding waiter registered against it (spec §4.5/§7) — fatal only
	// for the command that collided, not for the session.
	KindTxIDCollision SessionErrorKind = iota
)

// SessionError reports a session-level failure that is fatal to one command
// rather than the whole connection (spec §7).
type SessionError struct {
	Kind SessionErrorKind
	ID   float64
}

func (e *SessionError) Error() string {
	switch e.Kind {
	case KindTxIDCollision:
		return fmt.Sprintf("rtmpclient: tx_id collision on %v, an outstanding waiter already exists", e.ID)
	default:
		return "rtmpclient: session error"
	}
}
