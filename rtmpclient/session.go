package rtmpclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rtmpclient/amf0"
	"rtmpclient/chunk"
	"rtmpclient/internal/metrics"
	"rtmpclient/message"
)

const connectTxID float64 = 1

// writerPump owns all writes to the transport: it is the only goroutine
// that calls c.framer.WriteMessage, so chunk interleaving on the wire stays
// well-formed even though many callers can enqueue concurrently.
func (c *Connection) writerPump() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case frame, ok := <-c.outbound:
			if !ok {
				return
			}
			if err := c.framer.WriteMessage(c.transport, chunk.TypeAMF0Cmd, frame.streamID, frame.payload); err != nil {
				c.Close(fmt.Errorf("rtmpclient: write: %w", err))
				return
			}
			metrics.RecordBytes("write", int64(len(frame.payload)))
		}
	}
}

// readerPump owns all reads from the transport and routes decoded events to
// waiters or per-stream status channels (spec §4.5).
func (c *Connection) readerPump() {
	defer close(c.done)
	for {
		ev, err := c.framer.ReadMessage(c.reader)
		if err != nil {
			var fe *chunk.FramingError
			if errors.As(err, &fe) && fe.Kind == chunk.KindUnimplemented {
				metrics.RecordUnimplementedChunk(fmt.Sprintf("%d", fe.TypeID))
			}
			c.Close(fmt.Errorf("rtmpclient: read: %w", err))
			return
		}

		switch ev.Kind {
		case chunk.EventSignal:
			c.handleSignal(ev)
		case chunk.EventCommand:
			metrics.RecordBytes("read", int64(len(ev.Payload)))
			m, err := message.Decode(ev.StreamID, ev.Payload)
			if err != nil {
				c.log.Warn("dropping malformed command payload", "err", err, "stream_id", ev.StreamID)
				continue
			}
			c.routeMessage(m)
		}
	}
}

func (c *Connection) handleSignal(ev chunk.Event) {
	switch ev.Signal.Kind {
	case chunk.SignalSetChunkSize:
		c.log.Debug("peer set chunk size", "size", ev.Signal.ChunkSize)
	case chunk.SignalSetWindowAckSize:
		c.log.Debug("peer set window ack size", "size", ev.Signal.WindowAckSize)
	case chunk.SignalSetPeerBandwidth:
		c.log.Debug("peer set bandwidth", "bandwidth", ev.Signal.PeerBandwidth, "type", ev.Signal.PeerBandwidthType)
	case chunk.SignalAck:
		c.log.Debug("peer ack", "sequence", ev.Signal.Sequence)
	case chunk.SignalUserControl:
		c.log.Debug("user control", "event", ev.Signal.UserControlEvent, "stream_id", ev.Signal.StreamID)
	case chunk.SignalAbort:
		c.log.Debug("peer abort", "csid", ev.Signal.AbortCSID)
	}
}

// routeMessage delivers a decoded command message per spec §4.5.
func (c *Connection) routeMessage(m message.Message) {
	switch m.Data.Kind {
	case message.KindResponse, message.KindError:
		c.deliverToWaiter(m)
	case message.KindStatus:
		if m.Data.HasStatus {
			metrics.RecordStreamStatus(m.Data.Status.Code)
		}
		if m.StreamID == 0 {
			c.handleConnectionStatus(m)
			return
		}
		c.deliverToStream(m)
	}
}

func (c *Connection) deliverToWaiter(m message.Message) {
	c.mu.Lock()
	ch, ok := c.waiters[m.Data.ID]
	if ok {
		delete(c.waiters, m.Data.ID)
	}
	c.mu.Unlock()

	if !ok {
		metrics.RecordDroppedRoute("response")
		c.log.Warn("dropping response with no registered waiter", "tx_id", m.Data.ID)
		return
	}
	ch <- waiterResult{msg: m}
}

// handleConnectionStatus treats an onStatus message on stream 0 as a
// connection-level notification; if the connect waiter is still
// outstanding the status resolves that waiter instead (spec §4.5).
func (c *Connection) handleConnectionStatus(m message.Message) {
	c.mu.Lock()
	ch, ok := c.waiters[connectTxID]
	if ok {
		delete(c.waiters, connectTxID)
	}
	c.mu.Unlock()

	if ok {
		ch <- waiterResult{msg: m}
		return
	}

	select {
	case c.connStatus <- m.Data.Status:
	default:
		c.log.Warn("connection status channel full, dropping", "code", m.Data.Status.Code)
	}
}

func (c *Connection) deliverToStream(m message.Message) {
	c.mu.Lock()
	ch, ok := c.streamRoutes[m.StreamID]
	c.mu.Unlock()

	if !ok {
		metrics.RecordDroppedRoute("status")
		c.log.Warn("dropping status with no registered stream route", "stream_id", m.StreamID)
		return
	}
	select {
	case ch <- m.Data.Status:
	case <-c.ctx.Done():
	}
}

// sendConnect issues the connect command with the fixed tx_id of 1, which
// must be sent before any other command (spec §4.5 "Command correlation").
func (c *Connection) sendConnect(ctx context.Context, connectObj amf0.Value) (message.Message, error) {
	return c.sendCommandWithID(ctx, connectTxID, "connect", connectObj, nil)
}

// sendCommand allocates a fresh tx_id and awaits the matching
// Response/Error (spec §4.5).
func (c *Connection) sendCommand(ctx context.Context, name string, obj amf0.Value, opt []amf0.Value) (message.Message, error) {
	id := float64(c.nextCmdID.Add(1) - 1)
	return c.sendCommandWithID(ctx, id, name, obj, opt)
}

func (c *Connection) sendCommandWithID(ctx context.Context, id float64, name string, obj amf0.Value, opt []amf0.Value) (message.Message, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.CommandTimeout)
		defer cancel()
	}

	// The connect command must never be held up by outbound pacing: it is
	// the first thing sent on a fresh connection and nothing else can be in
	// flight yet to have earned a rate-limit wait (SPEC_FULL.md §4.5).
	if c.limiter != nil && id != connectTxID {
		if err := c.limiter.Wait(ctx); err != nil {
			return message.Message{}, err
		}
	}

	waitCh := make(chan waiterResult, 1)
	c.mu.Lock()
	if _, exists := c.waiters[id]; exists {
		c.mu.Unlock()
		return message.Message{}, &SessionError{Kind: KindTxIDCollision, ID: id}
	}
	c.waiters[id] = waitCh
	c.mu.Unlock()

	payload, err := message.Encode(message.Message{StreamID: 0, Data: message.Data{
		Kind: message.KindCommand, Name: name, ID: id, Obj: obj, Opt: opt,
	}})
	if err != nil {
		c.removeWaiter(id)
		return message.Message{}, err
	}

	select {
	case c.outbound <- outboundFrame{streamID: 0, payload: payload}:
	case <-c.ctx.Done():
		c.removeWaiter(id)
		return message.Message{}, &ClosedError{Cause: c.closeErr}
	case <-ctx.Done():
		c.removeWaiter(id)
		return message.Message{}, ctx.Err()
	}

	metrics.RecordCommandSent(name)
	sentAt := time.Now()

	select {
	case res := <-waitCh:
		metrics.CommandLatency.Observe(time.Since(sentAt).Seconds())
		if res.err != nil {
			metrics.RecordCommandError(name)
			return message.Message{}, res.err
		}
		if res.msg.Data.Kind == message.KindError || (res.msg.Data.HasStatus && res.msg.Data.Status.Level == "error") {
			metrics.RecordCommandError(name)
			return res.msg, &StatusError{Status: res.msg.Data.Status}
		}
		return res.msg, nil
	case <-c.ctx.Done():
		c.removeWaiter(id)
		return message.Message{}, &ClosedError{Cause: c.closeErr}
	case <-ctx.Done():
		c.removeWaiter(id)
		return message.Message{}, ctx.Err()
	}
}

// sendStreamCommand sends a Command with tx_id 0 on streamID and returns
// immediately; outcomes arrive as Status values on the stream's channel
// (spec §4.5 "Stream commands").
func (c *Connection) sendStreamCommand(ctx context.Context, streamID uint32, name string, opt []amf0.Value) error {
	payload, err := message.Encode(message.Message{StreamID: streamID, Data: message.Data{
		Kind: message.KindCommand, Name: name, ID: 0, Obj: amf0.Null(), Opt: opt,
	}})
	if err != nil {
		return err
	}

	select {
	case c.outbound <- outboundFrame{streamID: streamID, payload: payload}:
		metrics.RecordCommandSent(name)
		return nil
	case <-c.ctx.Done():
		return &ClosedError{Cause: c.closeErr}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Connection) removeWaiter(id float64) {
	c.mu.Lock()
	delete(c.waiters, id)
	c.mu.Unlock()
}

// Close tears the session down: it stops the pumps, closes the transport,
// fails every outstanding waiter with a ClosedError, and closes every open
// stream's status channel and the connection status channel once the reader
// pump has exited (spec §4.6 "transport/handshake errors are fatal").
func (c *Connection) Close(cause error) error {
	c.closeOnce.Do(func() {
		c.closeErr = cause
		c.cancel()
		c.transport.Close()

		outcome := "closed"
		if cause != nil {
			outcome = "error"
		}
		if c.connected.Load() {
			metrics.RecordSessionEnd(outcome)
		}

		c.mu.Lock()
		for id, ch := range c.waiters {
			ch <- waiterResult{err: &ClosedError{Cause: cause}}
			delete(c.waiters, id)
		}
		c.mu.Unlock()

		// streamRoutes and connStatus are only ever sent to from
		// readerPump; wait for it to exit before closing them so a
		// send can never race a close.
		go c.closeRoutesAfterReaderExit()
	})
	return nil
}

func (c *Connection) closeRoutesAfterReaderExit() {
	<-c.done
	c.mu.Lock()
	for sid, ch := range c.streamRoutes {
		close(ch)
		delete(c.streamRoutes, sid)
	}
	c.mu.Unlock()
	close(c.connStatus)
}

// Err returns the error that caused the session to close, if any.
func (c *Connection) Err() error {
	select {
	case <-c.ctx.Done():
		if c.closeErr != nil {
			return c.closeErr
		}
		return errors.New("rtmpclient: session closed")
	default:
		return nil
	}
}
