// Package grab answers line-range queries over large line-oriented files
// in bounded time. A one-shot scan divides a file into slots, each pairing
// a byte range with the line range it holds; resolving a query then costs
// a slot lookup plus one bounded seek and read instead of a rescan.
package grab

import (
	"context"
	"fmt"
	"os"

	"github.com/logdex/logdex/internal/errors"
	"github.com/logdex/logdex/internal/progress"
	"github.com/logdex/logdex/internal/ranges"
)

// Slot is one unit of the index: a byte range and the line range stored in
// it. Within one file's slot vector the byte ranges are adjacent,
// non-overlapping and start at 0; the line ranges are contiguous from 0,
// except that the slots of one line longer than the reader buffer all
// carry that line's index.
type Slot struct {
	Bytes ranges.ByteRange
	Lines ranges.LineRange
}

func (s Slot) String() string {
	return fmt.Sprintf("Slot: bytes: %s, lines: %s", s.Bytes, s.Lines)
}

// Metadata is the cached slot map of one file.
type Metadata struct {
	Slots     []Slot
	LineCount uint64
}

// FilePart is the resolution of a line range against a slot vector: the
// byte region that is the union of all touched slots, plus the counts
// needed to trim the decoded text to exactly the requested lines.
type FilePart struct {
	OffsetInFile uint64
	Length       uint64
	TotalLines   uint64
	LinesToSkip  uint64
	LinesToDrop  uint64
}

// GrabbedElement is one grabbed line with its source identifier.
type GrabbedElement struct {
	SourceID string
	Content  string
	Row      *uint64
	Pos      *uint64
}

// GrabbedContent is the result of one grab query.
type GrabbedContent struct {
	GrabbedElements []GrabbedElement
}

// MetadataSource defines how indexed content is retrieved from a certain
// file type. It provides everything needed to calculate the cached
// metadata that is subsequently used for extracting parts of the file.
type MetadataSource interface {
	// SourceID identifies the source in grabbed elements.
	SourceID() string
	// Path is the path of the file that is the source for the content.
	Path() string
	// FromFile initializes the metadata from the file. A cancelled
	// computation reports Stopped instead of an item.
	FromFile(ctx context.Context) (progress.ComputationResult[Metadata], error)
	// GetEntries delivers the content of the file within lineRange. It
	// is only callable once metadata has been created.
	GetEntries(md *Metadata, lineRange ranges.LineRange) (*GrabbedContent, error)
	// CountLines returns the number of newlines in the file.
	CountLines() (uint64, error)
}

// InputSize returns the size of the source's file.
func InputSize(source MetadataSource) (uint64, error) {
	info, err := os.Stat(source.Path())
	if err != nil {
		return 0, errors.Wrap(errors.ErrInvalidConfig,
			"could not determine size of input file: "+err.Error())
	}
	return uint64(info.Size()), nil
}

// Grabber owns a source and its slot metadata and serves line-range
// queries. The metadata is built from the source file or loaded from a
// serialized cache; it can be replaced (InjectMetadata, LoadMetadata) or
// discarded (DropMetadata) afterwards.
type Grabber[T MetadataSource] struct {
	source        T
	metadata      *Metadata
	InputFileSize uint64
}

// NewGrabber creates a Grabber and builds its metadata immediately. A
// grabber can only be created over a non-empty file.
func NewGrabber[T MetadataSource](source T) (*Grabber[T], error) {
	g, err := NewLazy(source)
	if err != nil {
		return nil, err
	}
	result, err := source.FromFile(context.Background())
	if err != nil {
		return nil, err
	}
	if result.Stopped {
		return nil, errors.ErrInterrupted
	}
	g.metadata = result.Item
	return g, nil
}

// NewLazy creates a Grabber without creating the metadata; CreateMetadata
// builds it later. A grabber can only be created over a non-empty file.
func NewLazy[T MetadataSource](source T) (*Grabber[T], error) {
	size, err := InputSize(source)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, errors.ErrEmptyFile
	}
	return &Grabber[T]{source: source, InputFileSize: size}, nil
}

// CreateMetadata builds the metadata of a lazily created grabber. It is a
// no-op when the metadata already exists.
func (g *Grabber[T]) CreateMetadata(ctx context.Context) error {
	if g.metadata != nil {
		return nil
	}
	result, err := g.source.FromFile(ctx)
	if err != nil {
		return err
	}
	if result.Stopped {
		return errors.ErrInterrupted
	}
	g.metadata = result.Item
	return nil
}

// GrabContent returns the lines of lineRange.
func (g *Grabber[T]) GrabContent(lineRange ranges.LineRange) (*GrabbedContent, error) {
	if g.metadata == nil {
		return nil, errors.ErrNotInitialized
	}
	if lineRange.IsEmpty() {
		return nil, errors.Wrapf(errors.ErrInvalidRange,
			"cannot get entries of empty range %s", lineRange)
	}
	return g.source.GetEntries(g.metadata, lineRange)
}

// InjectMetadata replaces the grabber's metadata.
func (g *Grabber[T]) InjectMetadata(md *Metadata) {
	g.metadata = md
}

// Metadata returns the current metadata, nil when not yet created.
func (g *Grabber[T]) Metadata() *Metadata {
	return g.metadata
}

// DropMetadata discards the metadata; queries fail until it is recreated.
func (g *Grabber[T]) DropMetadata() {
	g.metadata = nil
}

// AssociatedFile returns the path of the grabbed file.
func (g *Grabber[T]) AssociatedFile() string {
	return g.source.Path()
}

// LogEntryCount returns the number of log entries once the metadata was
// created.
func (g *Grabber[T]) LogEntryCount() (uint64, bool) {
	if g.metadata == nil {
		return 0, false
	}
	return g.metadata.LineCount, true
}
