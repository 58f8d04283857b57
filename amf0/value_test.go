package amf0

import (
	"bytes"
	"errors"
	"testing"
)

func TestNullRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeValue(&buf, Null()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got := buf.Bytes(); !bytes.Equal(got, []byte{0x05}) {
		t.Fatalf("encoded bytes = % x, want 05", got)
	}

	v, err := DecodeValue(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !v.Equal(Null()) {
		t.Fatalf("decoded %v, want Null", v)
	}
}

func TestEmptyStringEncoding(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeValue(&buf, Utf8("")); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got := buf.Bytes(); !bytes.Equal(got, []byte{0x02, 0x00, 0x00}) {
		t.Fatalf("encoded bytes = % x, want 02 00 00", got)
	}
}

func TestDecodeString(t *testing.T) {
	input := []byte{0x02, 0x00, 0x07, 0x63, 0x6f, 0x6e, 0x6e, 0x65, 0x63, 0x74}
	v, err := DecodeValue(bytes.NewReader(input))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	s, ok := v.AsUtf8()
	if !ok || s != "connect" {
		t.Fatalf("decoded %v, want Utf8(connect)", v)
	}
}

func TestDecodeObject(t *testing.T) {
	input := []byte{
		0x03,
		0x00, 0x06, 0x66, 0x6d, 0x73, 0x56, 0x65, 0x72,
		0x02, 0x00, 0x0f, 0x46, 0x4d, 0x53, 0x2f, 0x35, 0x2c, 0x30, 0x2c, 0x31, 0x35, 0x2c, 0x35, 0x30, 0x30, 0x34,
		0x00, 0x0c, 0x63, 0x61, 0x70, 0x61, 0x62, 0x69, 0x6c, 0x69, 0x74, 0x69, 0x65, 0x73,
		0x00, 0x40, 0x6f, 0xe0, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x04, 0x6d, 0x6f, 0x64, 0x65,
		0x00, 0x3f, 0xf0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x09,
	}
	v, err := DecodeValue(bytes.NewReader(input))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := Object(map[string]Value{
		"fmsVer":       Utf8("FMS/5,0,15,5004"),
		"capabilities": Number(255.0),
		"mode":         Number(1.0),
	})
	if !v.Equal(want) {
		t.Fatalf("decoded %v, want %v", v, want)
	}
}

func TestObjectTerminatorBytes(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeValue(&buf, Object(map[string]Value{"a": Number(1)})); err != nil {
		t.Fatalf("encode: %v", err)
	}
	tail := buf.Bytes()[len(buf.Bytes())-3:]
	if !bytes.Equal(tail, []byte{0x00, 0x00, 0x09}) {
		t.Fatalf("terminator = % x, want 00 00 09", tail)
	}
}

func TestNestedObjectRoundTrip(t *testing.T) {
	v := Object(map[string]Value{
		"outer": Object(map[string]Value{
			"inner": Object(map[string]Value{
				"deep": Utf8("value"),
			}),
			"n": Number(3.5),
		}),
		"flag": Boolean(true),
	})

	var buf bytes.Buffer
	if err := EncodeValue(&buf, v); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeValue(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Equal(v) {
		t.Fatalf("round trip mismatch: got %v, want %v", got, v)
	}
}

func TestEcmaArrayDecodesAsObject(t *testing.T) {
	var raw bytes.Buffer
	raw.WriteByte(0x08)
	raw.Write([]byte{0x00, 0x00, 0x00, 0x02}) // count, ignored on decode
	// entries
	for _, kv := range []struct {
		k string
		v Value
	}{{"a", Number(1)}, {"b", Utf8("x")}} {
		_ = encodeStringBody(&raw, kv.k)
		_ = EncodeValue(&raw, kv.v)
	}
	raw.Write([]byte{0x00, 0x00, 0x09})

	v, err := DecodeValue(bytes.NewReader(raw.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !v.Equal(Object(map[string]Value{"a": Number(1), "b": Utf8("x")})) {
		t.Fatalf("decoded %v", v)
	}
}

func TestDecodeUnknownMarker(t *testing.T) {
	_, err := DecodeValue(bytes.NewReader([]byte{0xff}))
	var de *DecodeError
	if !errors.As(err, &de) || de.Kind != KindUnknownMarker {
		t.Fatalf("err = %v, want KindUnknownMarker", err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	_, err := DecodeValue(bytes.NewReader([]byte{0x00, 0x01, 0x02}))
	var de *DecodeError
	if !errors.As(err, &de) || de.Kind != KindTruncated {
		t.Fatalf("err = %v, want KindTruncated", err)
	}
}

func TestDecodeInvalidUtf8(t *testing.T) {
	input := []byte{0x02, 0x00, 0x02, 0xff, 0xfe}
	_, err := DecodeValue(bytes.NewReader(input))
	var de *DecodeError
	if !errors.As(err, &de) || de.Kind != KindInvalidUtf8 {
		t.Fatalf("err = %v, want KindInvalidUtf8", err)
	}
}

func TestEncodeDecodeRoundTripAllVariants(t *testing.T) {
	values := []Value{
		Number(0),
		Number(-42.5),
		Boolean(true),
		Boolean(false),
		Utf8(""),
		Utf8("hello world"),
		Null(),
		Object(nil),
		Object(map[string]Value{"x": Number(1), "y": Boolean(false)}),
	}

	for _, v := range values {
		var buf bytes.Buffer
		if err := EncodeValue(&buf, v); err != nil {
			t.Fatalf("encode %v: %v", v, err)
		}
		got, err := DecodeValue(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("decode %v: %v", v, err)
		}
		if !got.Equal(v) {
			t.Fatalf("round trip %v -> %v", v, got)
		}
	}
}
