package chunk

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"
)

const defaultChunkSize = 128

// FramingErrorKind classifies a framing failure.
type FramingErrorKind int

const (
	KindUnsupportedFormat FramingErrorKind = iota
	KindUnimplemented
)

// FramingError reports why a chunk could not be framed.
type FramingError struct {
	Kind   FramingErrorKind
	Format uint8
	TypeID uint8
	err    error
}

func (e *FramingError) Error() string {
	switch e.Kind {
	case KindUnsupportedFormat:
		return fmt.Sprintf("chunk: unsupported chunk format %d (client supports only fmt 0 and fmt 3 continuation)", e.Format)
	case KindUnimplemented:
		return fmt.Sprintf("chunk: message type %d not implemented", e.TypeID)
	default:
		return "chunk: framing error"
	}
}

func (e *FramingError) Unwrap() error { return e.err }

// EventKind classifies a decoded chunk Event.
type EventKind int

const (
	EventSignal EventKind = iota
	EventCommand
)

// Event is one fully-reassembled chunk-stream message, decoded just far
// enough to route it: protocol control signals are fully decoded, while
// AMF0 command messages (type 20) are handed up as raw payload bytes for
// the message layer to decode.
type Event struct {
	Kind     EventKind
	Signal   Signal
	StreamID uint32
	TypeID   uint8
	Payload  []byte
}

type partialMessage struct {
	header    Header
	payload   []byte
	bytesRead uint32
}

type csidState struct {
	lastHeader Header
	partial    *partialMessage
}

// Framer reads and writes RTMP chunk-stream framing. A single Framer
// instance tracks per-csid reassembly state across repeated ReadMessage
// calls and must only be driven by one reader at a time; WriteMessage may be
// called concurrently from a different goroutine, since the only state it
// shares with reading is the atomic chunk size.
type Framer struct {
	chunkSize atomic.Uint32
	streams   map[uint32]*csidState
}

// NewFramer constructs a Framer with the default chunk size (spec §3).
func NewFramer() *Framer {
	f := &Framer{streams: make(map[uint32]*csidState)}
	f.chunkSize.Store(defaultChunkSize)
	return f
}

// ChunkSize returns the chunk size currently in effect for both reading and
// writing.
func (f *Framer) ChunkSize() uint32 { return f.chunkSize.Load() }

// SetChunkSize overrides the chunk size, used when a SetChunkSize signal is
// observed. Exposed for tests and for sessions that negotiate chunk size
// outside of the normal read path.
func (f *Framer) SetChunkSize(n uint32) {
	if n > 0 {
		f.chunkSize.Store(n)
	}
}

func readByte(r io.Reader) (byte, error) {
	var b [1]byte
	_, err := io.ReadFull(r, b[:])
	return b[0], err
}

// ReadMessage reads chunks from r, reassembling across fmt-3 continuations,
// until one full message is available, then returns it decoded into an
// Event. Only fmt 0 (new message) and fmt 3 (continuation of an in-progress
// message on the same chunk stream id) are supported, per spec §4.3 — fmt 1
// and fmt 2 delta headers, never emitted by a client peer we expect to
// interoperate with, are rejected.
func (f *Framer) ReadMessage(r io.Reader) (Event, error) {
	for {
		msg, err := f.readChunk(r)
		if err != nil {
			return Event{}, err
		}
		if msg == nil {
			continue
		}
		return f.decodeMessage(msg)
	}
}

func (f *Framer) readChunk(r io.Reader) (*partialMessage, error) {
	h1, err := readByte(r)
	if err != nil {
		return nil, err
	}

	fmtID := (h1 >> 6) & 0x03
	csid := uint32(h1 & 0x3f)
	switch csid {
	case 0:
		b, err := readByte(r)
		if err != nil {
			return nil, err
		}
		csid = 64 + uint32(b)
	case 1:
		b := make([]byte, 2)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, err
		}
		csid = 64 + uint32(b[0]) + uint32(b[1])*256
	}

	state, ok := f.streams[csid]
	if !ok {
		state = &csidState{}
		f.streams[csid] = state
	}

	switch fmtID {
	case 0:
		return f.readFmt0(r, csid, state)
	case 3:
		return f.readFmt3(r, csid, state)
	default:
		return nil, &FramingError{Kind: KindUnsupportedFormat, Format: fmtID}
	}
}

func (f *Framer) readFmt0(r io.Reader, csid uint32, state *csidState) (*partialMessage, error) {
	buf := make([]byte, 11)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	header := Header{
		CSID:      csid,
		Timestamp: bigUint24(buf[0:3]),
		Length:    bigUint24(buf[3:6]),
		TypeID:    buf[6],
	}
	header.StreamID = binary.LittleEndian.Uint32(buf[7:11])

	state.lastHeader = header
	msg := &partialMessage{header: header, payload: make([]byte, header.Length)}
	state.partial = msg
	return f.readPayload(r, state, msg)
}

func (f *Framer) readFmt3(r io.Reader, csid uint32, state *csidState) (*partialMessage, error) {
	if state.partial == nil {
		return nil, &FramingError{Kind: KindUnsupportedFormat, Format: 3,
			err: fmt.Errorf("chunk: fmt 3 continuation on csid %d with no message in progress", csid)}
	}
	return f.readPayload(r, state, state.partial)
}

func (f *Framer) readPayload(r io.Reader, state *csidState, msg *partialMessage) (*partialMessage, error) {
	remaining := msg.header.Length - msg.bytesRead
	toRead := remaining
	if cs := f.chunkSize.Load(); toRead > cs {
		toRead = cs
	}

	if toRead > 0 {
		if _, err := io.ReadFull(r, msg.payload[msg.bytesRead:msg.bytesRead+toRead]); err != nil {
			return nil, err
		}
		msg.bytesRead += toRead
	}

	if msg.bytesRead >= msg.header.Length {
		state.partial = nil
		return msg, nil
	}
	return nil, nil
}

func (f *Framer) decodeMessage(msg *partialMessage) (Event, error) {
	typeID := msg.header.TypeID
	switch {
	case typeID >= TypeSetChunkSize && typeID <= TypeSetPeerBandwidth:
		sig, err := DecodeSignal(typeID, msg.payload)
		if err != nil {
			return Event{}, err
		}
		if sig.Kind == SignalSetChunkSize {
			f.SetChunkSize(sig.ChunkSize)
		}
		return Event{Kind: EventSignal, Signal: sig, StreamID: msg.header.StreamID, TypeID: typeID}, nil

	case typeID == TypeAMF0Cmd:
		return Event{Kind: EventCommand, StreamID: msg.header.StreamID, TypeID: typeID, Payload: msg.payload}, nil

	case typeID == TypeAudio, typeID == TypeVideo, (typeID >= 15 && typeID <= 22):
		return Event{}, &FramingError{Kind: KindUnimplemented, TypeID: typeID}

	default:
		return Event{}, &FramingError{Kind: KindUnimplemented, TypeID: typeID}
	}
}

// WriteMessage writes one message as a fmt-0 chunk followed by fmt-3
// continuation chunks, splitting the payload at the current chunk size, per
// spec §4.3. streamID selects the outbound chunk stream id: the shared
// connection channel (csid 3) for stream id 0, a dedicated per-stream
// channel (csid 4) otherwise.
func (f *Framer) WriteMessage(w io.Writer, typeID uint8, streamID uint32, payload []byte) error {
	csid := uint32(csidConnection)
	if streamID != 0 {
		csid = csidStream
	}

	header := make([]byte, 12)
	header[0] = byte(csid) // fmt 0: top two bits zero
	putBigUint24(header[1:4], 0)
	putBigUint24(header[4:7], uint32(len(payload)))
	header[7] = typeID
	putLittleUint32(header[8:12], streamID)

	if _, err := w.Write(header); err != nil {
		return err
	}

	chunkSize := f.chunkSize.Load()
	written := uint32(0)
	total := uint32(len(payload))
	for written < total {
		if written > 0 {
			if _, err := w.Write([]byte{0xC0 | byte(csid)}); err != nil {
				return err
			}
		}
		end := written + chunkSize
		if end > total {
			end = total
		}
		if _, err := w.Write(payload[written:end]); err != nil {
			return err
		}
		written = end
	}
	return nil
}
