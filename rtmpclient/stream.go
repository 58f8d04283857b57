package rtmpclient

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"rtmpclient/amf0"
	"rtmpclient/message"
)

// NetStreamState tracks a NetStream's lifecycle (spec §4.6).
type NetStreamState int

const (
	StreamCreated NetStreamState = iota
	StreamPublishRequested
	StreamPublished
)

func (s NetStreamState) String() string {
	switch s {
	case StreamCreated:
		return "created"
	case StreamPublishRequested:
		return "publish_request"
	case StreamPublished:
		return "published"
	default:
		return "unknown"
	}
}

// NetStream is a server-assigned message stream within a Connection. It is
// also a lazy sequence of Status values: call Next until it reports done.
type NetStream struct {
	id     uint32
	conn   *Connection
	status chan message.Status
	state  atomic.Int32
}

// ID returns the server-assigned stream id.
func (ns *NetStream) ID() uint32 { return ns.id }

// State reports the stream's last known lifecycle state.
func (ns *NetStream) State() NetStreamState { return NetStreamState(ns.state.Load()) }

// Next blocks for the next Status on this stream, returning (status, true),
// or (Status{}, false) once the connection closes or ctx is done. A stream's
// route stays registered until the connection closes.
func (ns *NetStream) Next(ctx context.Context) (message.Status, bool) {
	select {
	case s, ok := <-ns.status:
		if !ok {
			return message.Status{}, false
		}
		if s.Code == "NetStream.Publish.Start" {
			ns.state.Store(int32(StreamPublished))
		}
		return s, true
	case <-ctx.Done():
		return message.Status{}, false
	}
}

// NewStream issues createStream and, on success, returns the resulting
// NetStream (spec §4.6). The server's Response opt carries the assigned
// stream id as a Number.
func (c *Connection) NewStream(ctx context.Context) (*NetStream, error) {
	resp, err := c.sendCommand(ctx, "createStream", amf0.Null(), nil)
	if err != nil {
		return nil, err
	}
	if len(resp.Data.Opt) == 0 {
		return nil, fmt.Errorf("rtmpclient: createStream response carried no stream id")
	}
	id, ok := resp.Data.Opt[0].AsNumber()
	if !ok {
		return nil, fmt.Errorf("rtmpclient: createStream response opt was not numeric (NetStream.Create.Failed)")
	}

	streamID := uint32(id)
	statusCh := make(chan message.Status, 16)
	c.mu.Lock()
	c.streamRoutes[streamID] = statusCh
	c.mu.Unlock()

	return &NetStream{id: streamID, conn: c, status: statusCh}, nil
}

// Publish issues a publish stream command for name with the given publish
// flag ("live", "record", or "append"), per spec §4.6. flag is matched
// case-insensitively and sent lowercase on the wire. It returns once the
// command is enqueued; the outcome arrives as a Status on the stream.
func (ns *NetStream) Publish(ctx context.Context, name, flag string) error {
	flag = strings.ToLower(flag)
	if err := ns.conn.sendStreamCommand(ctx, ns.id, "publish", []amf0.Value{amf0.Utf8(name), amf0.Utf8(flag)}); err != nil {
		return err
	}
	ns.state.Store(int32(StreamPublishRequested))
	return nil
}
