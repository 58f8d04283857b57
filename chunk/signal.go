package chunk

import (
	"encoding/binary"
	"fmt"
)

// Protocol control message type IDs, per spec §3.
const (
	TypeSetChunkSize    uint8 = 1
	TypeAbort           uint8 = 2
	TypeAck             uint8 = 3
	TypeUserControl     uint8 = 4
	TypeWindowAckSize   uint8 = 5
	TypeSetPeerBandwidth uint8 = 6

	TypeAudio   uint8 = 8
	TypeVideo   uint8 = 9
	TypeAMF0Cmd uint8 = 20
)

// SignalKind identifies which protocol control signal a Signal carries.
type SignalKind int

const (
	SignalSetChunkSize SignalKind = iota
	SignalAbort
	SignalAck
	SignalUserControl
	SignalSetWindowAckSize
	SignalSetPeerBandwidth
)

// UserControlEventKind identifies a User Control Message's event type.
type UserControlEventKind int

const (
	EventStreamBegin UserControlEventKind = iota
	EventUnknown
)

// Signal is a decoded protocol control message (chunk message type 1-6).
type Signal struct {
	Kind SignalKind

	ChunkSize     uint32 // SignalSetChunkSize
	AbortCSID     uint32 // SignalAbort
	Sequence      uint32 // SignalAck
	WindowAckSize uint32 // SignalSetWindowAckSize

	PeerBandwidth     uint32 // SignalSetPeerBandwidth
	PeerBandwidthType uint8  // SignalSetPeerBandwidth: 0=hard,1=soft,2=dynamic

	UserControlEvent UserControlEventKind // SignalUserControl
	UserControlCode  uint16               // raw event type, set when Unknown
	StreamID         uint32               // SignalUserControl / EventStreamBegin
}

// DecodeSignal interprets the payload of a protocol control chunk message
// (type ids 1..6, spec §3/§4.3).
func DecodeSignal(typeID uint8, payload []byte) (Signal, error) {
	switch typeID {
	case TypeSetChunkSize:
		if len(payload) < 4 {
			return Signal{}, fmt.Errorf("chunk: SetChunkSize payload too short: %d bytes", len(payload))
		}
		return Signal{Kind: SignalSetChunkSize, ChunkSize: binary.BigEndian.Uint32(payload) & 0x7fffffff}, nil

	case TypeAbort:
		if len(payload) < 4 {
			return Signal{}, fmt.Errorf("chunk: Abort payload too short: %d bytes", len(payload))
		}
		return Signal{Kind: SignalAbort, AbortCSID: binary.BigEndian.Uint32(payload)}, nil

	case TypeAck:
		if len(payload) < 4 {
			return Signal{}, fmt.Errorf("chunk: Ack payload too short: %d bytes", len(payload))
		}
		return Signal{Kind: SignalAck, Sequence: binary.BigEndian.Uint32(payload)}, nil

	case TypeUserControl:
		if len(payload) < 2 {
			return Signal{}, fmt.Errorf("chunk: UserControl payload too short: %d bytes", len(payload))
		}
		eventType := binary.BigEndian.Uint16(payload[0:2])
		sig := Signal{Kind: SignalUserControl, UserControlCode: eventType}
		if eventType == 0 && len(payload) >= 6 {
			sig.UserControlEvent = EventStreamBegin
			sig.StreamID = binary.BigEndian.Uint32(payload[2:6])
		} else {
			sig.UserControlEvent = EventUnknown
		}
		return sig, nil

	case TypeWindowAckSize:
		if len(payload) < 4 {
			return Signal{}, fmt.Errorf("chunk: SetWindowAckSize payload too short: %d bytes", len(payload))
		}
		return Signal{Kind: SignalSetWindowAckSize, WindowAckSize: binary.BigEndian.Uint32(payload)}, nil

	case TypeSetPeerBandwidth:
		if len(payload) < 5 {
			return Signal{}, fmt.Errorf("chunk: SetPeerBandwidth payload too short: %d bytes", len(payload))
		}
		return Signal{
			Kind:              SignalSetPeerBandwidth,
			PeerBandwidth:     binary.BigEndian.Uint32(payload[0:4]),
			PeerBandwidthType: payload[4],
		}, nil

	default:
		return Signal{}, fmt.Errorf("chunk: %d is not a protocol control type", typeID)
	}
}

// EncodeSignal serializes a Signal back into a protocol control payload and
// returns the chunk message type id it belongs to.
func EncodeSignal(sig Signal) (typeID uint8, payload []byte, err error) {
	switch sig.Kind {
	case SignalSetChunkSize:
		payload = make([]byte, 4)
		binary.BigEndian.PutUint32(payload, sig.ChunkSize&0x7fffffff)
		return TypeSetChunkSize, payload, nil

	case SignalAbort:
		payload = make([]byte, 4)
		binary.BigEndian.PutUint32(payload, sig.AbortCSID)
		return TypeAbort, payload, nil

	case SignalAck:
		payload = make([]byte, 4)
		binary.BigEndian.PutUint32(payload, sig.Sequence)
		return TypeAck, payload, nil

	case SignalUserControl:
		payload = make([]byte, 6)
		binary.BigEndian.PutUint16(payload[0:2], sig.UserControlCode)
		binary.BigEndian.PutUint32(payload[2:6], sig.StreamID)
		return TypeUserControl, payload, nil

	case SignalSetWindowAckSize:
		payload = make([]byte, 4)
		binary.BigEndian.PutUint32(payload, sig.WindowAckSize)
		return TypeWindowAckSize, payload, nil

	case SignalSetPeerBandwidth:
		payload = make([]byte, 5)
		binary.BigEndian.PutUint32(payload[0:4], sig.PeerBandwidth)
		payload[4] = sig.PeerBandwidthType
		return TypeSetPeerBandwidth, payload, nil

	default:
		return 0, nil, fmt.Errorf("chunk: unknown signal kind %d", sig.Kind)
	}
}
