// Package dltfile drives the DLT wire parser over seekable files: it
// produces message streams with recovery across malformed regions, indexes
// files into tagged line output with chunk descriptors, collects per-id
// statistics, and exports byte-exact sections of previously indexed files.
package dltfile

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/logdex/logdex/internal/constants"
	"github.com/logdex/logdex/internal/dlt"
	"github.com/logdex/logdex/internal/io/minbuf"
)

// MessageStats counts parse outcomes of one producer for diagnostics.
type MessageStats struct {
	Parsed  uint64
	NoParse uint64
}

// MessageProducer streams parsed messages from a byte source. It owns a
// min-fill reader, so a short refill reliably means end of stream, and it
// advances the reader by exactly the consumed bytes it reports.
type MessageProducer struct {
	reader            *minbuf.Reader
	filter            *dlt.ProcessedFilterConfig
	stats             MessageStats
	withStorageHeader bool
	fibex             *dlt.FibexMetadata
}

// NewMessageProducer creates a producer over input. filter and fibex may
// be nil.
func NewMessageProducer(input io.Reader, filter *dlt.ProcessedFilterConfig,
	withStorageHeader bool, fibex *dlt.FibexMetadata) *MessageProducer {

	return &MessageProducer{
		reader: minbuf.NewReader(input,
			constants.DltReaderCapacity, constants.MinBufferSpace),
		filter:            filter,
		withStorageHeader: withStorageHeader,
		fibex:             fibex,
	}
}

// Fibex returns the FIBEX catalog the producer was created with, if any.
func (p *MessageProducer) Fibex() *dlt.FibexMetadata {
	return p.fibex
}

// ClearEOF makes the producer retry the source on the next call, used
// when a watched input file has grown after end of stream was reached.
func (p *MessageProducer) ClearEOF() {
	p.reader.ClearEOF()
}

// Stats returns the parse counters accumulated so far.
func (p *MessageProducer) Stats() MessageStats {
	return p.stats
}

// NextMessage produces the next message. The returned consumed count is
// the number of bytes the reader was advanced by:
//
//   - (n, parsed, nil) — a message was recognized; parsed classifies it.
//   - (0, nil, nil) — true end of stream.
//   - (4, nil, hickup) — a recoverable framing error; the reader skipped
//     the sync-pattern length so the caller can resynchronize.
//   - (0, nil, err) — fatal for this run.
func (p *MessageProducer) NextMessage() (int, *dlt.ParsedMessage, error) {
	consumed, parsed, err := p.produce()
	p.reader.Consume(consumed)
	return consumed, parsed, err
}

func (p *MessageProducer) produce() (int, *dlt.ParsedMessage, error) {
	content, err := p.reader.FillBuf()
	if err != nil {
		return 0, nil, &dlt.ParseError{Kind: dlt.Unrecoverable,
			Reason: "filling buffer with dlt messages: " + err.Error()}
	}
	if len(content) == 0 {
		return 0, nil, nil
	}

	rest, parsed, err := dlt.Parse(content, p.filter, p.withStorageHeader)
	if err == nil {
		p.stats.Parsed++
		return len(content) - len(rest), &parsed, nil
	}

	p.stats.NoParse++
	parseErr, ok := err.(*dlt.ParseError)
	if !ok {
		return 0, nil, &dlt.ParseError{Kind: dlt.Unrecoverable, Reason: err.Error()}
	}
	switch parseErr.Kind {
	case dlt.Hickup:
		return constants.DltPatternSize, nil, parseErr
	case dlt.Incomplete:
		// With the min-fill policy an incomplete parse means the stream
		// ended mid-message; there is nothing left to resync on.
		return 0, nil, &dlt.ParseError{Kind: dlt.Unrecoverable,
			Reason: parseErr.Error()}
	default:
		return 0, nil, parseErr
	}
}

// Next is the pull-iterator façade over NextMessage: it yields only
// messages that belong into output, swallows recoverable errors and stops
// at end of stream or on a fatal error.
func (p *MessageProducer) Next() (*dlt.Message, bool) {
	for {
		consumed, parsed, err := p.NextMessage()
		if err != nil {
			parseErr, ok := err.(*dlt.ParseError)
			if ok && parseErr.Kind == dlt.Hickup {
				log.Warn("skipping garbled message", "error", parseErr.Reason)
				continue
			}
			return nil, false
		}
		if parsed == nil && consumed == 0 {
			return nil, false
		}
		if parsed != nil && parsed.Kind == dlt.Item {
			return parsed.Message, true
		}
		// Invalid or filtered out, keep going.
	}
}
