// Package chunk implements RTMP chunk stream framing: reading and writing
// the variable-format chunk headers, splitting/reassembling messages across
// chunks, and the protocol control Signal codec. Only full (format 0)
// message headers are supported for new messages, per spec — format 3
// continuation chunks are honored for splitting/reassembly of a single
// message already in progress.
package chunk

import "encoding/binary"

// Header is a parsed Type-0 chunk header (spec §3).
type Header struct {
	CSID      uint32
	Timestamp uint32
	Length    uint32
	TypeID    uint8
	StreamID  uint32
}

// csid assignments for outbound writes, per spec §4.3.
const (
	csidConnection = 3
	csidStream     = 4
)

func bigUint24(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

func putBigUint24(b []byte, v uint32) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

func putLittleUint32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}
