// Package sharedmemory exposes a named shared-memory segment used to hand raw
// BGRA frames from a capture process to the converter.
package sharedmemory

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"
)

// HeaderSize is the frame header at the start of a segment:
// sequence (uint64), width (uint32), height (uint32).
const HeaderSize = 16

var (
	ErrBusy   = errors.New("sharedmemory: frame is being written")
	ErrClosed = errors.New("sharedmemory: segment is closed")
)

type Segment struct {
	name string
	shm  *shmi
}

type FrameHeader struct {
	Seq    uint64
	Width  int
	Height int
}

// FrameSize is the segment size needed for a w x h BGRA frame.
func FrameSize(w, h int) int {
	return HeaderSize + w*h*4
}

// Create makes a new segment, replacing any stale one with the same name.
// The creator unlinks the segment on Close.
func Create(name string, size int) (*Segment, error) {
	if size < HeaderSize {
		return nil, fmt.Errorf("sharedmemory: size %d is smaller than the frame header", size)
	}
	shm, err := create(name, size)
	if err != nil {
		return nil, err
	}
	return &Segment{name: name, shm: shm}, nil
}

// Open maps an existing segment; size 0 maps all of it.
func Open(name string, size int) (*Segment, error) {
	shm, err := open(name, size)
	if err != nil {
		return nil, err
	}
	if shm.getSize() < HeaderSize {
		shm.close()
		return nil, fmt.Errorf("sharedmemory: segment %s is smaller than the frame header", name)
	}
	return &Segment{name: name, shm: shm}, nil
}

func (s *Segment) Name() string { return s.name }

func (s *Segment) Size() int {
	if s.shm == nil {
		return 0
	}
	return s.shm.getSize()
}

func (s *Segment) ReadAt(p []byte, off int64) (int, error) {
	if s.shm == nil {
		return 0, ErrClosed
	}
	return s.shm.readAt(p, off)
}

func (s *Segment) WriteAt(p []byte, off int64) (int, error) {
	if s.shm == nil {
		return 0, ErrClosed
	}
	return s.shm.writeAt(p, off)
}

func (s *Segment) Close() error {
	if s.shm == nil {
		return nil
	}
	err := s.shm.close()
	s.shm = nil
	return err
}

// seq is the sequence word at offset 0. It is odd while a frame is being
// written and advances by two per published frame.
func (s *Segment) seq() *uint64 {
	return (*uint64)(unsafe.Pointer(&s.shm.bytes()[0]))
}

// WriteFrame publishes one BGRA frame and returns its sequence number.
func (s *Segment) WriteFrame(w, h int, pixels []byte) (uint64, error) {
	if s.shm == nil {
		return 0, ErrClosed
	}
	if w <= 0 || h <= 0 || len(pixels) < w*h*4 {
		return 0, fmt.Errorf("sharedmemory: %d bytes is not a %dx%d BGRA frame", len(pixels), w, h)
	}
	if FrameSize(w, h) > s.Size() {
		return 0, fmt.Errorf("sharedmemory: %dx%d frame does not fit in %d bytes", w, h, s.Size())
	}

	seq := s.seq()
	start := atomic.LoadUint64(seq) &^ 1
	atomic.StoreUint64(seq, start+1)

	b := s.shm.bytes()
	binary.LittleEndian.PutUint32(b[8:], uint32(w))
	binary.LittleEndian.PutUint32(b[12:], uint32(h))
	copy(b[HeaderSize:], pixels[:w*h*4])

	atomic.StoreUint64(seq, start+2)
	return (start + 2) / 2, nil
}

// ReadFrame copies the latest published frame into dst, growing it when it is
// too small. ErrBusy means a writer was active; retry later.
func (s *Segment) ReadFrame(dst []byte) (FrameHeader, []byte, error) {
	var hdr FrameHeader
	if s.shm == nil {
		return hdr, dst, ErrClosed
	}

	seq := s.seq()
	before := atomic.LoadUint64(seq)
	if before&1 != 0 {
		return hdr, dst, ErrBusy
	}

	b := s.shm.bytes()
	hdr.Seq = before / 2
	hdr.Width = int(binary.LittleEndian.Uint32(b[8:]))
	hdr.Height = int(binary.LittleEndian.Uint32(b[12:]))
	n := hdr.Width * hdr.Height * 4
	if HeaderSize+n > len(b) {
		return hdr, dst, fmt.Errorf("sharedmemory: header claims %dx%d, segment holds %d bytes", hdr.Width, hdr.Height, len(b))
	}
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	copy(dst, b[HeaderSize:HeaderSize+n])

	if atomic.LoadUint64(seq) != before {
		return hdr, dst, ErrBusy
	}
	return hdr, dst, nil
}
