package amf0

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"
)

// EncodeValue writes one AMF0 value to w.
func EncodeValue(w io.Writer, v Value) error {
	switch v.Kind {
	case TypeNumber:
		return encodeNumber(w, v.Number)
	case TypeBoolean:
		return encodeBoolean(w, v.Bool)
	case TypeUtf8:
		return encodeString(w, v.Str)
	case TypeObject:
		return encodeObject(w, markerObject, v.Object)
	case TypeEcmaArray:
		return encodeObject(w, markerEcmaArray, v.Object)
	case TypeNull:
		_, err := w.Write([]byte{markerNull})
		return err
	default:
		return fmt.Errorf("amf0: cannot encode value of kind %d", v.Kind)
	}
}

// EncodeValues writes each value in order, each with its own marker.
func EncodeValues(w io.Writer, values ...Value) error {
	for _, v := range values {
		if err := EncodeValue(w, v); err != nil {
			return err
		}
	}
	return nil
}

func encodeNumber(w io.Writer, n float64) error {
	if _, err := w.Write([]byte{markerNumber}); err != nil {
		return err
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(n))
	_, err := w.Write(b[:])
	return err
}

func encodeBoolean(w io.Writer, b bool) error {
	if _, err := w.Write([]byte{markerBoolean}); err != nil {
		return err
	}
	val := byte(0)
	if b {
		val = 1
	}
	_, err := w.Write([]byte{val})
	return err
}

func encodeString(w io.Writer, s string) error {
	if _, err := w.Write([]byte{markerString}); err != nil {
		return err
	}
	return encodeStringBody(w, s)
}

// encodeStringBody writes the 2-byte length plus UTF-8 bytes without a
// leading marker, used both for top-level strings and object keys.
func encodeStringBody(w io.Writer, s string) error {
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(s)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

// encodeObject writes entries in sorted key order for reproducible byte
// output (spec §4.1's "Key ordering"), then the 00 00 09 terminator.
func encodeObject(w io.Writer, marker byte, m map[string]Value) error {
	if _, err := w.Write([]byte{marker}); err != nil {
		return err
	}
	if marker == markerEcmaArray {
		var countBuf [4]byte
		binary.BigEndian.PutUint32(countBuf[:], uint32(len(m)))
		if _, err := w.Write(countBuf[:]); err != nil {
			return err
		}
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := encodeStringBody(w, k); err != nil {
			return err
		}
		if err := EncodeValue(w, m[k]); err != nil {
			return err
		}
	}

	_, err := w.Write([]byte{0x00, 0x00, markerObjectEnd})
	return err
}
