package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Records travel as a u32 little-endian length prefix followed by the record
// body, written and read in chunks of at most MAX_CHUNK_SIZE bytes.
const MAX_CHUNK_SIZE = 1024

// MAX_RECORD_SIZE bounds how much a single length prefix may ask the
// receiver to allocate.
const MAX_RECORD_SIZE = 16 << 20

var ErrRecordTooLarge = errors.New("record exceeds maximum size")

// WriteRecord frames body onto w.
func WriteRecord(w io.Writer, body []byte) error {
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(body)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("write record prefix: %w", err)
	}
	for len(body) > 0 {
		n := len(body)
		if n > MAX_CHUNK_SIZE {
			n = MAX_CHUNK_SIZE
		}
		if _, err := w.Write(body[:n]); err != nil {
			return fmt.Errorf("write record body: %w", err)
		}
		body = body[n:]
	}
	return nil
}

// ReadRecord reads one framed record from r. A peer that closes the stream
// at a record boundary yields io.EOF; a stream that ends mid-record yields
// an error wrapping io.ErrUnexpectedEOF.
func ReadRecord(r io.Reader) ([]byte, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read record prefix: %w", err)
	}
	size := binary.LittleEndian.Uint32(prefix[:])
	if size > MAX_RECORD_SIZE {
		return nil, ErrRecordTooLarge
	}

	body := make([]byte, size)
	for read := 0; read < int(size); {
		n := int(size) - read
		if n > MAX_CHUNK_SIZE {
			n = MAX_CHUNK_SIZE
		}
		got, err := io.ReadFull(r, body[read:read+n])
		read += got
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("read record body: %w", err)
		}
	}
	return body, nil
}

// WriteMessage encodes m and frames it onto w.
func WriteMessage(w io.Writer, m *Message) error {
	body, err := m.Encode()
	if err != nil {
		return err
	}
	return WriteRecord(w, body)
}
