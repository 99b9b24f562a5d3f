// Package server implements the TCP client-facing transport: length-
// prefixed JSON-RPC framing, one outbound queue and idle keep-alive per
// connection, and request dispatch into internal/engine.
package server

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// maxFrameLen bounds a single frame body to guard against a
// misbehaving or malicious peer claiming an enormous length prefix.
const maxFrameLen = 16 << 20 // 16 MiB

// readFrame reads one length-prefixed frame: a 4-byte big-endian
// length followed by that many bytes of UTF-8 JSON text.
func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFrameLen {
		return nil, errors.Errorf("frame length %d exceeds maximum %d", n, maxFrameLen)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, errors.Wrap(err, "failed to read frame body")
	}
	return body, nil
}

// writeFrame writes body as one length-prefixed frame.
func writeFrame(w io.Writer, body []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return errors.Wrap(err, "failed to write frame length")
	}
	if _, err := w.Write(body); err != nil {
		return errors.Wrap(err, "failed to write frame body")
	}
	return nil
}
