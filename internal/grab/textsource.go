package grab

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/logdex/logdex/internal/constants"
	"github.com/logdex/logdex/internal/errors"
	"github.com/logdex/logdex/internal/io/minbuf"
	"github.com/logdex/logdex/internal/progress"
	"github.com/logdex/logdex/internal/ranges"
)

// TextFileSource provides slot metadata and content extraction for plain
// UTF-8 text files.
type TextFileSource struct {
	sourceID string
	path     string
}

// NewTextFileSource creates a source over path. An empty id gets a
// generated one.
func NewTextFileSource(path, id string) *TextFileSource {
	if id == "" {
		id = uuid.NewString()
	}
	return &TextFileSource{sourceID: id, path: path}
}

// SourceID implements MetadataSource.
func (s *TextFileSource) SourceID() string {
	return s.sourceID
}

// Path implements MetadataSource.
func (s *TextFileSource) Path() string {
	return s.path
}

// CountLines returns the number of newline bytes in the file.
func (s *TextFileSource) CountLines() (uint64, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var count uint64
	buffer := make([]byte, constants.LineCountChunkSize)
	for {
		n, err := f.Read(buffer)
		count += uint64(bytes.Count(buffer[:n], []byte{'\n'}))
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return count, err
		}
	}
}

// FromFile builds the slot metadata in a single pass. Slots tile the file
// in byte order with contiguous line ranges starting at 0. A refill
// without any newline (a line longer than the buffer) becomes a slot of
// its own that keeps the one in-progress logical line, so slot boundaries
// never split below one line of granularity. Cancellation is polled every
// refill.
func (s *TextFileSource) FromFile(ctx context.Context) (progress.ComputationResult[Metadata], error) {
	var none progress.ComputationResult[Metadata]
	f, err := os.Open(s.path)
	if err != nil {
		return none, err
	}
	defer f.Close()

	reader := minbuf.NewReader(f, constants.TextReaderCapacity, constants.MinBufferSpace)
	var slots []Slot
	var byteIndex, lineIndex uint64
	lineInProgress := false

	for {
		if ctx.Err() != nil {
			return progress.ComputationResult[Metadata]{Stopped: true}, nil
		}
		content, err := reader.FillBuf()
		if err != nil {
			return none, errors.Wrap(errors.ErrInvalidConfig,
				"error filling buffer with more content: "+err.Error())
		}
		if len(content) == 0 {
			break
		}

		var slot Slot
		var consumed uint64
		if offset := bytes.LastIndexByte(content, '\n'); offset < 0 {
			// A line longer than the refill; package everything read
			// into a slot that keeps the one in-progress line. The line
			// index only advances once the line actually ends.
			consumed = uint64(len(content))
			slot = Slot{
				Bytes: ranges.NewByteRange(byteIndex, byteIndex+consumed-1),
				Lines: ranges.SingleLine(lineIndex),
			}
			lineInProgress = true
		} else {
			nl := uint64(bytes.Count(content[:offset+1], []byte{'\n'}))
			consumed = uint64(offset) + 1
			slot = Slot{
				Bytes: ranges.NewByteRange(byteIndex, byteIndex+consumed-1),
				Lines: ranges.NewLineRange(lineIndex, lineIndex+nl-1),
			}
			lineIndex += nl
			lineInProgress = false
		}
		reader.Consume(int(consumed))
		slots = append(slots, slot)
		byteIndex += consumed
	}

	lineCount := lineIndex
	if lineInProgress {
		// The file does not end in a newline; the trailing partial
		// line still counts as a logical line.
		lineCount++
	}
	return progress.ComputationResult[Metadata]{
		Item: &Metadata{Slots: slots, LineCount: lineCount},
	}, nil
}

// GetEntries returns all lines within lineRange. It reads the slots that
// are involved in one bounded read and drops everything not requested.
func (s *TextFileSource) GetEntries(md *Metadata, lineRange ranges.LineRange) (*GrabbedContent, error) {
	if lineRange.IsEmpty() {
		return nil, errors.Wrapf(errors.ErrInvalidRange,
			"get entries of empty range %s is invalid", lineRange)
	}
	part, ok := identifyByteRange(md.Slots, lineRange)
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidRange,
			"error identifying byte range for %s", lineRange)
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if _, err := f.Seek(int64(part.OffsetInFile), io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, part.Length)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, err
	}

	lines := strings.Split(string(buf), "\n")
	take := part.TotalLines - part.LinesToDrop
	if uint64(len(lines)) > take {
		lines = lines[:take]
	}
	lines = lines[part.LinesToSkip:]

	elements := make([]GrabbedElement, len(lines))
	for i, line := range lines {
		elements[i] = GrabbedElement{SourceID: s.sourceID, Content: line}
	}
	return &GrabbedContent{GrabbedElements: elements}, nil
}
