package handshake

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// serverHandshakeBytes builds a minimal simple-handshake S0+S1+S2 response
// to a given C1.
func serverHandshakeBytes(c1 []byte, now uint32, rnd io.Reader) []byte {
	s1 := make([]byte, handshakeSize)
	s1[0], s1[1], s1[2], s1[3] = byte(now>>24), byte(now>>16), byte(now>>8), byte(now)
	io.ReadFull(rnd, s1[8:])

	s2 := make([]byte, handshakeSize)
	copy(s2, c1) // S2 is the echo of C1

	out := make([]byte, 0, 1+2*handshakeSize)
	out = append(out, versionByte)
	out = append(out, s1...)
	out = append(out, s2...)
	return out
}

func TestHandshakeSingleRead(t *testing.T) {
	hs, c0c1, err := New(&Options{
		Now:  func() uint32 { return 1 },
		Rand: bytes.NewReader(make([]byte, handshakeSize)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(c0c1) != 1+handshakeSize {
		t.Fatalf("c0c1 len = %d", len(c0c1))
	}
	c1 := c0c1[1:]

	server := serverHandshakeBytes(c1, 2, bytes.NewReader(make([]byte, handshakeSize)))

	res, err := hs.ProcessBytes(server)
	if err != nil {
		t.Fatalf("ProcessBytes: %v", err)
	}
	if !res.Completed {
		t.Fatalf("expected completion in one shot")
	}
	// C2 is the echo of S1, which is server[1:1+handshakeSize].
	wantC2 := server[1 : 1+handshakeSize]
	if !bytes.Equal(res.ResponseBytes, wantC2) {
		t.Fatalf("C2 mismatch")
	}
	if len(res.RemainingBytes) != 0 {
		t.Fatalf("unexpected remaining bytes: %d", len(res.RemainingBytes))
	}
}

func TestHandshakeArbitrarySegmentation(t *testing.T) {
	hs, c0c1, err := New(&Options{
		Now:  func() uint32 { return 1 },
		Rand: bytes.NewReader(make([]byte, handshakeSize)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c1 := c0c1[1:]
	server := serverHandshakeBytes(c1, 2, bytes.NewReader(make([]byte, handshakeSize)))
	appTail := []byte{0xAA, 0xBB, 0xCC}
	server = append(server, appTail...)

	var allResponses []byte
	completed := false
	var remaining []byte

	// feed one byte at a time to exercise robustness to segmentation.
	for i := 0; i < len(server); i++ {
		res, err := hs.ProcessBytes(server[i : i+1])
		if err != nil {
			t.Fatalf("ProcessBytes at byte %d: %v", i, err)
		}
		allResponses = append(allResponses, res.ResponseBytes...)
		if res.Completed {
			completed = true
			remaining = res.RemainingBytes
		}
	}

	if !completed {
		t.Fatalf("handshake never completed")
	}
	wantC2 := server[1 : 1+handshakeSize]
	if !bytes.Equal(allResponses, wantC2) {
		t.Fatalf("accumulated C2 mismatch: got %d bytes, want %d", len(allResponses), len(wantC2))
	}
	if !bytes.Equal(remaining, appTail) {
		t.Fatalf("remaining = % x, want % x", remaining, appTail)
	}
}

func TestHandshakeUnsupportedVersion(t *testing.T) {
	hs, _, err := New(&Options{
		Now:  func() uint32 { return 1 },
		Rand: bytes.NewReader(make([]byte, handshakeSize)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	bad := make([]byte, 1+handshakeSize)
	bad[0] = 0x06 // not versionByte

	_, err = hs.ProcessBytes(bad)
	var he *Error
	if !errors.As(err, &he) || he.Kind != KindUnsupportedVersion {
		t.Fatalf("err = %v, want KindUnsupportedVersion", err)
	}
}

func TestNewClosedErrorWrapsCause(t *testing.T) {
	cause := io.ErrUnexpectedEOF
	err := NewClosedError(cause)
	if err.Kind != KindClosed {
		t.Fatalf("Kind = %v, want KindClosed", err.Kind)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to unwrap to the cause")
	}
}

func TestHandshakeInProgressBeforeComplete(t *testing.T) {
	hs, c0c1, err := New(&Options{
		Now:  func() uint32 { return 1 },
		Rand: bytes.NewReader(make([]byte, handshakeSize)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c1 := c0c1[1:]
	server := serverHandshakeBytes(c1, 2, bytes.NewReader(make([]byte, handshakeSize)))

	// Feed only S0+S1, withhold S2.
	res, err := hs.ProcessBytes(server[:1+handshakeSize])
	if err != nil {
		t.Fatalf("ProcessBytes: %v", err)
	}
	if res.Completed {
		t.Fatalf("should not be completed without S2")
	}
	if len(res.ResponseBytes) != handshakeSize {
		t.Fatalf("expected C2 emitted on S0S1 receipt, got %d bytes", len(res.ResponseBytes))
	}
}
