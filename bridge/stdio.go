// Package bridge carries messages between the browser extension and the
// coordination core over the native-messaging transport: each message is a
// 32-bit little-endian length prefix followed by that many bytes of JSON.
package bridge

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// MaxMessageSize caps the declared body length. Screenshot payloads are the
// largest legitimate messages; anything past this is a framing error.
const MaxMessageSize = 64 << 20

// ReadMessage reads one length-prefixed message. io.EOF on a clean close.
func ReadMessage(r *bufio.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}

	length := binary.LittleEndian.Uint32(header[:])
	if length == 0 {
		return nil, fmt.Errorf("zero-length message")
	}
	if length > MaxMessageSize {
		return nil, fmt.Errorf("message length %d exceeds limit %d", length, MaxMessageSize)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read message body: %w", err)
	}
	return payload, nil
}

// WriteMessage writes one length-prefixed message.
func WriteMessage(w io.Writer, payload []byte) error {
	if len(payload) > MaxMessageSize {
		return fmt.Errorf("message length %d exceeds limit %d", len(payload), MaxMessageSize)
	}
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write message header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write message body: %w", err)
	}
	return nil
}
