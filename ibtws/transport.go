/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ibtws

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

// framedReader owns the read half of the socket exclusively; no other
// goroutine ever touches it. It generalizes original_source's
// IBReader, with one deliberate fix: IBReader issued a single
// tcp.read() per header/body, which under TCP can legally return fewer
// bytes than requested. io.ReadFull makes a short read impossible by
// construction instead of merely documenting "short reads are fatal".
type framedReader struct {
	conn    net.Conn
	headbuf [4]byte
}

func newFramedReader(conn net.Conn) *framedReader {
	return &framedReader{conn: conn}
}

// read blocks for exactly one frame: 4 big-endian length bytes, then
// that many payload bytes.
func (r *framedReader) read() ([]byte, error) {
	if _, err := io.ReadFull(r.conn, r.headbuf[:]); err != nil {
		return nil, fmt.Errorf("ibtws: reading frame header: %w", err)
	}
	size := binary.BigEndian.Uint32(r.headbuf[:])
	payload := make([]byte, size)
	if _, err := io.ReadFull(r.conn, payload); err != nil {
		return nil, fmt.Errorf("ibtws: reading frame payload (%d bytes): %w", size, err)
	}
	return payload, nil
}

// framedWriter owns the write half of the socket exclusively.
type framedWriter struct {
	conn net.Conn
}

func newFramedWriter(conn net.Conn) *framedWriter {
	return &framedWriter{conn: conn}
}

// writeRaw writes unframed bytes, used only for the initial "API\0"
// handshake literal.
func (w *framedWriter) writeRaw(b []byte) error {
	_, err := w.conn.Write(b)
	if err != nil {
		return fmt.Errorf("ibtws: writing raw bytes: %w", err)
	}
	return nil
}

// write frames payload with its 4-byte big-endian length prefix and
// writes the whole thing in one call.
func (w *framedWriter) write(payload []byte) error {
	out := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(out[:4], uint32(len(payload)))
	copy(out[4:], payload)
	_, err := w.conn.Write(out)
	if err != nil {
		return fmt.Errorf("ibtws: writing frame (%d bytes): %w", len(payload), err)
	}
	return nil
}
