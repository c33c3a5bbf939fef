package s101

import (
	"encoding/binary"

	"github.com/emberplus-go/goember/emberrors"
)

// Delimiter and escape bytes, per the S101 wire format.
const (
	BOF          byte = 0xFE
	EOF          byte = 0xFF
	escapeByte   byte = 0xFD
	escapeXOR    byte = 0x20
	escapeAbove  byte = 0xF8 // any byte >= this, within BOF..EOF, is escaped
)

// MessageType distinguishes an EmBER payload frame from a keep-alive
// frame.
type MessageType byte

const (
	MessageEmberData         MessageType = 0x00
	MessageKeepAliveRequest  MessageType = 0x01
	MessageKeepAliveResponse MessageType = 0x02
)

// Packet flag bits.
const (
	FlagFirstPacket byte = 0x01
	FlagLastPacket  byte = 0x02
)

const protocolVersion byte = 0x01
const glowDTD byte = 0x01

// Frame is one S101 frame: a header plus an (already de-escaped, CRC
// validated) payload.
type Frame struct {
	Slot        byte
	MessageType MessageType
	Flags       byte
	Payload     []byte
}

// IsFirst reports whether this frame starts a logical message.
func (f Frame) IsFirst() bool { return f.Flags&FlagFirstPacket != 0 }

// IsLast reports whether this frame ends a logical message.
func (f Frame) IsLast() bool { return f.Flags&FlagLastPacket != 0 }

// Encode builds the full wire representation of f: BOF, the escaped
// header+payload+CRC region, EOF.
func Encode(f Frame) []byte {
	header := []byte{
		f.Slot,
		byte(f.MessageType),
		0x00, // command, reserved
		protocolVersion,
		f.Flags,
		glowDTD,
		0x00, // app-bytes count, this implementation carries none
	}
	region := append(header, f.Payload...)

	crc := crc16CCITT(region)
	crcBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(crcBytes, crc)
	region = append(region, crcBytes...)

	out := make([]byte, 0, len(region)*2+2)
	out = append(out, BOF)
	out = append(out, escape(region)...)
	out = append(out, EOF)
	return out
}

// Decode parses one complete BOF..EOF buffer (inclusive of the
// delimiters) into a Frame, validating its CRC.
func Decode(framed []byte) (Frame, error) {
	if len(framed) < 2 || framed[0] != BOF || framed[len(framed)-1] != EOF {
		return Frame{}, frameErr("missing BOF/EOF delimiters")
	}

	region := unescape(framed[1 : len(framed)-1])
	if len(region) < 9 { // 7-byte header + 2-byte CRC, possibly empty payload
		return Frame{}, frameErr("frame too short")
	}

	body := region[:len(region)-2]
	wantCRC := binary.LittleEndian.Uint16(region[len(region)-2:])
	if crc16CCITT(body) != wantCRC {
		return Frame{}, frameErr("CRC mismatch")
	}

	f := Frame{
		Slot:        body[0],
		MessageType: MessageType(body[1]),
		Flags:       body[4],
		Payload:     append([]byte(nil), body[7:]...),
	}
	return f, nil
}

func frameErr(msg string) error {
	return emberrors.WrapInvalid(emberrors.ErrFrame, "s101", "Decode", msg)
}

// escape replaces every byte >= escapeAbove with escapeByte followed by
// byte^escapeXOR.
func escape(region []byte) []byte {
	out := make([]byte, 0, len(region))
	for _, b := range region {
		if b >= escapeAbove {
			out = append(out, escapeByte, b^escapeXOR)
		} else {
			out = append(out, b)
		}
	}
	return out
}

// unescape reverses escape.
func unescape(region []byte) []byte {
	out := make([]byte, 0, len(region))
	for i := 0; i < len(region); i++ {
		if region[i] == escapeByte && i+1 < len(region) {
			out = append(out, region[i+1]^escapeXOR)
			i++
		} else {
			out = append(out, region[i])
		}
	}
	return out
}
