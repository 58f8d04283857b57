package chunk

import "testing"

func TestDecodeUserControlStreamBegin(t *testing.T) {
	payload := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x01} // event type 0, stream id 1
	sig, err := DecodeSignal(TypeUserControl, payload)
	if err != nil {
		t.Fatalf("DecodeSignal: %v", err)
	}
	if sig.UserControlEvent != EventStreamBegin || sig.StreamID != 1 {
		t.Fatalf("signal = %+v", sig)
	}
}

func TestDecodeUserControlUnknownEvent(t *testing.T) {
	payload := []byte{0x00, 0x04} // PingRequest, no body we understand
	sig, err := DecodeSignal(TypeUserControl, payload)
	if err != nil {
		t.Fatalf("DecodeSignal: %v", err)
	}
	if sig.UserControlEvent != EventUnknown || sig.UserControlCode != 4 {
		t.Fatalf("signal = %+v", sig)
	}
}

func TestEncodeDecodeSignalRoundTrip(t *testing.T) {
	signals := []Signal{
		{Kind: SignalSetChunkSize, ChunkSize: 4096},
		{Kind: SignalAbort, AbortCSID: 7},
		{Kind: SignalAck, Sequence: 1024},
		{Kind: SignalSetWindowAckSize, WindowAckSize: 2500000},
		{Kind: SignalSetPeerBandwidth, PeerBandwidth: 2500000, PeerBandwidthType: 2},
	}
	for _, sig := range signals {
		typeID, payload, err := EncodeSignal(sig)
		if err != nil {
			t.Fatalf("EncodeSignal(%+v): %v", sig, err)
		}
		got, err := DecodeSignal(typeID, payload)
		if err != nil {
			t.Fatalf("DecodeSignal: %v", err)
		}
		if got != sig {
			t.Fatalf("round trip %+v -> %+v", sig, got)
		}
	}
}
