// Package s101 frames BER payloads for transport over a byte stream:
// BOF/EOF delimiters, byte-escaping within the frame, a CRC-16/CCITT
// trailer, multi-packet reassembly, and keep-alive request/response.
//
// A Session wraps a transport.ByteStream, running a reader goroutine that
// turns inbound bytes into reassembled payloads and a keep-alive ticker
// goroutine, both coordinated against the session's context with
// golang.org/x/sync/errgroup — the only concurrency this module permits
// outside the single-actor tree/pipeline core.
package s101
