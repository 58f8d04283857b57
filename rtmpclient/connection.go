// Package rtmpclient implements the client-side RTMP session orchestrator:
// handshake, chunk framing, command correlation, and per-stream status
// routing, atop the chunk, message, and amf0 packages.
package rtmpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"rtmpclient/amf0"
	"rtmpclient/chunk"
	"rtmpclient/handshake"
	"rtmpclient/internal/logger"
	"rtmpclient/internal/metrics"
	"rtmpclient/internal/pool"
	"rtmpclient/internal/validator"
	"rtmpclient/message"
)

// handshakeBufPool supplies the scratch read buffer performHandshake uses to
// drain S0/S1/S2 off the wire; a process dialing many connections (e.g. a
// publisher fanning out to several servers) reuses buffers instead of
// allocating one 4KB slice per handshake.
var handshakeBufPool = pool.New(4096)

// Connection is a single RTMP session to one server. The zero value is not
// usable; construct one with Connect.
type Connection struct {
	rawURL *url.URL
	app    string
	tcURL  string

	transport Transport
	reader    io.Reader // transport, prefixed with any post-handshake leftover bytes
	framer    *chunk.Framer
	opts      ClientOptions
	log       *logger.Logger
	limiter   *rate.Limiter

	outbound chan outboundFrame

	mu           sync.Mutex
	waiters      map[float64]chan waiterResult
	streamRoutes map[uint32]chan message.Status
	connStatus   chan message.Status

	nextCmdID atomic.Uint64
	connected atomic.Bool

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

// Connect dials rawURL, performs the handshake, and issues the connect
// command against app (the URL's first path segment when app is empty). It
// returns once the server's Response resolves, per spec §4.6.
func Connect(ctx context.Context, rawURL, app string, opts ClientOptions) (*Connection, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := validator.ValidateServerURL(rawURL); err != nil {
		return nil, fmt.Errorf("rtmpclient: %w", err)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("rtmpclient: invalid url %q: %w", rawURL, err)
	}
	if app == "" {
		app = strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)[0]
	}

	transport, err := opts.Dialer(ctx, u)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	remaining, err := performHandshake(ctx, transport, opts)
	if err != nil {
		transport.Close()
		return nil, fmt.Errorf("rtmpclient: handshake: %w", err)
	}
	metrics.HandshakeDuration.Observe(time.Since(start).Seconds())

	var reader io.Reader = transport
	if len(remaining) > 0 {
		reader = io.MultiReader(bytes.NewReader(remaining), transport)
	}

	cctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		rawURL:       u,
		app:          app,
		tcURL:        rawURL,
		transport:    transport,
		reader:       reader,
		framer:       chunk.NewFramer(),
		opts:         opts,
		log:          opts.newLogger().With("app", app),
		limiter:      opts.commandLimiter(),
		outbound:     make(chan outboundFrame, opts.OutboundQueueSize),
		waiters:      make(map[float64]chan waiterResult),
		streamRoutes: make(map[uint32]chan message.Status),
		connStatus:   make(chan message.Status, 16),
		ctx:          cctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
	c.nextCmdID.Store(2) // tx_id 1 is reserved for connect.

	go c.writerPump()
	go c.readerPump()

	connectObj := amf0.Object(map[string]amf0.Value{
		"app":      amf0.Utf8(app),
		"type":     amf0.Utf8("nonprivate"),
		"flashVer": amf0.Utf8("rtmpclient/1,0,0,0"),
		"tcUrl":    amf0.Utf8(rawURL),
	})

	resp, err := c.sendConnect(ctx, connectObj)
	if err != nil {
		c.Close(err)
		return nil, err
	}
	if message.IsConnectSuccess(resp) {
		c.connected.Store(true)
		metrics.RecordSessionStart()
	}
	return c, nil
}

// performHandshake drives handshake.Handshake to completion over t and
// returns any bytes read past S2 that already belong to the first
// post-handshake chunk.
func performHandshake(ctx context.Context, t Transport, opts ClientOptions) ([]byte, error) {
	hs, c0c1, err := handshake.New(&handshake.Options{Now: opts.HandshakeNow, Rand: opts.HandshakeRand})
	if err != nil {
		return nil, err
	}
	if _, err := t.Write(c0c1); err != nil {
		return nil, err
	}

	buf := handshakeBufPool.Get()
	defer handshakeBufPool.Put(buf)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := t.Read(buf)
		if err != nil {
			return nil, handshake.NewClosedError(err)
		}
		res, err := hs.ProcessBytes(buf[:n])
		if err != nil {
			return nil, err
		}
		if len(res.ResponseBytes) > 0 {
			if _, err := t.Write(res.ResponseBytes); err != nil {
				return nil, err
			}
		}
		if res.Completed {
			return res.RemainingBytes, nil
		}
	}
}

// App returns the application name this connection was opened against.
func (c *Connection) App() string { return c.app }

// TCUrl returns the original connect URL.
func (c *Connection) TCUrl() string { return c.tcURL }

// Connected reports whether the connect command resolved with
// NetConnection.Connect.Success.
func (c *Connection) Connected() bool { return c.connected.Load() }

// Status returns the connection-level status channel: onStatus
// notifications addressed to stream id 0 that were not needed to resolve
// the connect waiter (e.g. a later NetConnection.Connect.Closed).
func (c *Connection) Status() <-chan message.Status { return c.connStatus }

// Stats reports point-in-time counters for diagnostics, following the
// project's Stats() map[string]interface{} convention.
func (c *Connection) Stats() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return map[string]interface{}{
		"connected":       c.connected.Load(),
		"pending_waiters": len(c.waiters),
		"open_streams":    len(c.streamRoutes),
		"chunk_size":      c.framer.ChunkSize(),
	}
}
