// Package minbuf implements a buffered reader with a minimum-fill policy.
// FillBuf never returns fewer than the configured minimum of buffered
// bytes until the underlying source is exhausted, so parsers on top can
// treat any short refill as the true end of the stream instead of an
// artificial short read.
package minbuf

import (
	"io"
)

// Reader wraps an io.Reader with a large buffer and a min-fill refill
// policy. It replaces byte-by-byte reading for parser workloads.
type Reader struct {
	reader  io.Reader
	buffer  []byte
	start   int
	end     int
	minFill int
	eof     bool
}

// NewReader creates a Reader with the given buffer capacity and minimum
// fill. The capacity must be larger than the minimum fill.
func NewReader(r io.Reader, capacity, minFill int) *Reader {
	if capacity < minFill {
		capacity = minFill
	}
	return &Reader{
		reader:  r,
		buffer:  make([]byte, capacity),
		minFill: minFill,
	}
}

// FillBuf returns the buffered window, refilling it first so that it holds
// at least the configured minimum of bytes. A shorter window means the
// source is exhausted; an empty window means everything was consumed.
func (r *Reader) FillBuf() ([]byte, error) {
	for r.end-r.start < r.minFill && !r.eof {
		if r.start > 0 {
			// Shift the unconsumed remainder to the front to make
			// room for the refill.
			copy(r.buffer, r.buffer[r.start:r.end])
			r.end -= r.start
			r.start = 0
		}
		if r.end == len(r.buffer) {
			break
		}
		n, err := r.reader.Read(r.buffer[r.end:])
		r.end += n
		if err == io.EOF {
			r.eof = true
			break
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			r.eof = true
		}
	}
	return r.buffer[r.start:r.end], nil
}

// Consume advances the reader by n bytes of the window returned by the
// last FillBuf.
func (r *Reader) Consume(n int) {
	r.start += n
	if r.start >= r.end {
		r.start = 0
		r.end = 0
	}
}

// ClearEOF makes the reader retry the underlying source on the next
// FillBuf. Callers tailing a growing file use this after the source has
// been appended to.
func (r *Reader) ClearEOF() {
	r.eof = false
}

// Buffered returns the number of unconsumed bytes currently held.
func (r *Reader) Buffered() int {
	return r.end - r.start
}
