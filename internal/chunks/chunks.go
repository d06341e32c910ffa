// Package chunks groups indexed output lines into chunk descriptors. A
// chunk records which output lines were written to which output bytes, so
// that a consumer can seek straight to the on-disk region of any line
// block. Chunks of one run tile the output file without gaps or overlaps.
package chunks

import (
	"github.com/logdex/logdex/internal/ranges"
)

// Chunk is one line/byte coordinate block of the formatted output file.
// Both ranges are inclusive.
type Chunk struct {
	Lines ranges.LineRange
	Bytes ranges.ByteRange
}

// Factory accumulates written lines and bytes and emits a Chunk whenever
// the configured number of lines has been collected. The byte cursor
// starts at the current size of the output file so that appended runs
// continue the tiling seamlessly.
type Factory struct {
	chunkSize    uint64
	startByte    uint64
	currentByte  uint64
	linesInChunk uint64
}

// NewFactory creates a Factory emitting chunks of chunkSize lines, with
// the byte cursor placed at the current output file size.
func NewFactory(chunkSize, currentOutSize uint64) *Factory {
	if chunkSize == 0 {
		chunkSize = 1
	}
	return &Factory{
		chunkSize:   chunkSize,
		startByte:   currentOutSize,
		currentByte: currentOutSize,
	}
}

// AddBytes accounts for one written line. lineNr is the number of lines
// written so far (the line number of the next line), written the byte
// length of the line just written. When the chunk is full it is returned
// and the factory resets for the next one.
func (f *Factory) AddBytes(lineNr, written uint64) (Chunk, bool) {
	f.currentByte += written
	f.linesInChunk++
	if f.linesInChunk < f.chunkSize {
		return Chunk{}, false
	}
	chunk := Chunk{
		Lines: ranges.NewLineRange(lineNr-f.linesInChunk, lineNr-1),
		Bytes: ranges.NewByteRange(f.startByte, f.currentByte-1),
	}
	f.startByte = f.currentByte
	f.linesInChunk = 0
	return chunk, true
}

// CreateLastChunk flushes any trailing lines into a final chunk. When
// isOnly is set, a chunk is returned even if nothing was added, marking
// an empty output file.
func (f *Factory) CreateLastChunk(lineNr uint64, isOnly bool) (Chunk, bool) {
	if f.linesInChunk > 0 {
		chunk := Chunk{
			Lines: ranges.NewLineRange(lineNr-f.linesInChunk, lineNr-1),
			Bytes: ranges.NewByteRange(f.startByte, f.currentByte-1),
		}
		f.startByte = f.currentByte
		f.linesInChunk = 0
		return chunk, true
	}
	if isOnly {
		return Chunk{}, true
	}
	return Chunk{}, false
}

// CurrentByte returns the absolute output offset after the last added
// line.
func (f *Factory) CurrentByte() uint64 {
	return f.currentByte
}
