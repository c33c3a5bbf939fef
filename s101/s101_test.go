package s101

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEscapeScenario(t *testing.T) {
	region := []byte{0xFE, 0xF8, 0x01}
	got := escape(region)
	want := []byte{0xFD, 0xDE, 0xFD, 0xD8, 0x01}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("escape mismatch (-want +got):\n%s", diff)
	}

	back := unescape(got)
	if diff := cmp.Diff(region, back); diff != "" {
		t.Fatalf("unescape round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	payload := []byte{0x01, 0x02, 0xFE, 0xFF, 0xF8, 0x03}
	f := Frame{Slot: 0, MessageType: MessageEmberData, Flags: FlagFirstPacket | FlagLastPacket, Payload: payload}

	framed := Encode(f)
	if framed[0] != BOF || framed[len(framed)-1] != EOF {
		t.Fatalf("expected BOF/EOF delimiters, got first=%x last=%x", framed[0], framed[len(framed)-1])
	}

	got, err := Decode(framed)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(payload, got.Payload); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	if got.MessageType != MessageEmberData {
		t.Errorf("message type: want %v, got %v", MessageEmberData, got.MessageType)
	}
}

func TestDecodeRejectsBadCRC(t *testing.T) {
	f := Frame{MessageType: MessageEmberData, Flags: FlagFirstPacket | FlagLastPacket, Payload: []byte{1, 2, 3}}
	framed := Encode(f)
	framed[len(framed)-3] ^= 0xFF // corrupt a CRC byte (the low byte, second to last before EOF)

	if _, err := Decode(framed); err == nil {
		t.Fatal("expected a CRC mismatch error")
	}
}

func TestScannerAcrossChunkBoundaries(t *testing.T) {
	payload := []byte{0x10, 0x20, 0x30}
	framed := Encode(Frame{MessageType: MessageEmberData, Flags: FlagFirstPacket | FlagLastPacket, Payload: payload})

	var scanner Scanner
	mid := len(framed) / 2
	first := scanner.Feed(framed[:mid])
	if len(first) != 0 {
		t.Fatalf("expected no complete frames before EOF arrives, got %d", len(first))
	}
	second := scanner.Feed(framed[mid:])
	if len(second) != 1 {
		t.Fatalf("expected exactly one complete frame, got %d", len(second))
	}

	got, err := Decode(second[0])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(payload, got.Payload); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestScannerMultipleFramesInOneChunk(t *testing.T) {
	a := Encode(Frame{MessageType: MessageEmberData, Flags: FlagFirstPacket | FlagLastPacket, Payload: []byte{1}})
	b := Encode(Frame{MessageType: MessageEmberData, Flags: FlagFirstPacket | FlagLastPacket, Payload: []byte{2}})

	var scanner Scanner
	got := scanner.Feed(append(append([]byte{}, a...), b...))
	if len(got) != 2 {
		t.Fatalf("want 2 frames, got %d", len(got))
	}
}

func TestReassemblerMultiPacket(t *testing.T) {
	var ra Reassembler

	first := Frame{MessageType: MessageEmberData, Flags: FlagFirstPacket, Payload: []byte{1, 2}}
	if _, complete, err := ra.Add(first); err != nil || complete {
		t.Fatalf("first packet: complete=%v err=%v", complete, err)
	}

	mid := Frame{MessageType: MessageEmberData, Payload: []byte{3, 4}}
	if _, complete, err := ra.Add(mid); err != nil || complete {
		t.Fatalf("middle packet: complete=%v err=%v", complete, err)
	}

	last := Frame{MessageType: MessageEmberData, Flags: FlagLastPacket, Payload: []byte{5}}
	payload, complete, err := ra.Add(last)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !complete {
		t.Fatal("expected the last packet to complete the message")
	}
	want := []byte{1, 2, 3, 4, 5}
	if diff := cmp.Diff(want, payload); diff != "" {
		t.Fatalf("reassembled payload mismatch (-want +got):\n%s", diff)
	}
}

func TestReassemblerRejectsContinuationWithoutFirst(t *testing.T) {
	var ra Reassembler
	_, _, err := ra.Add(Frame{MessageType: MessageEmberData, Payload: []byte{1}})
	if err == nil {
		t.Fatal("expected an error for a continuation frame with no preceding FirstPacket")
	}
}
