package netlogolink

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// MaxFrameSize bounds a single frame in either direction.
const MaxFrameSize = 64 << 20

const (
	frameHeaderSize = 4
	streamBufSize   = 8192
)

// MsgpackSerializer encodes messages with MessagePack.
type MsgpackSerializer struct{}

func (MsgpackSerializer) Marshal(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (MsgpackSerializer) Unmarshal(data []byte, v interface{}) error {
	return msgpack.Unmarshal(data, v)
}

// FrameTransport sends and receives frames as a 4-byte big-endian length
// followed by the body. Send is safe for concurrent use; Receive must be
// called from a single goroutine.
type FrameTransport struct {
	r   *bufio.Reader
	w   *bufio.Writer
	rc  io.Closer
	wc  io.Closer
	wmu sync.Mutex
}

// NewFrameTransport wraps the runtime's output (r) and input (w) streams.
func NewFrameTransport(r io.ReadCloser, w io.WriteCloser) *FrameTransport {
	return &FrameTransport{
		r:  bufio.NewReaderSize(r, streamBufSize),
		w:  bufio.NewWriterSize(w, streamBufSize),
		rc: r,
		wc: w,
	}
}

// Send writes one frame and flushes it.
func (t *FrameTransport) Send(data []byte) error {
	if len(data) > MaxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds limit of %d", len(data), MaxFrameSize)
	}
	var header [frameHeaderSize]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(data)))

	t.wmu.Lock()
	defer t.wmu.Unlock()
	if _, err := t.w.Write(header[:]); err != nil {
		return err
	}
	if _, err := t.w.Write(data); err != nil {
		return err
	}
	return t.w.Flush()
}

func (t *FrameTransport) Receive() ([]byte, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(t.r, header[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(header[:])
	if length > MaxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit of %d", length, MaxFrameSize)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(t.r, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Close closes the write side first so the link program sees EOF, then the
// read side.
func (t *FrameTransport) Close() error {
	werr := t.wc.Close()
	rerr := t.rc.Close()
	if werr != nil {
		return werr
	}
	return rerr
}
