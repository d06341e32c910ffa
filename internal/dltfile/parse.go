package dltfile

import (
	"context"
	"os"

	"github.com/charmbracelet/log"

	"github.com/logdex/logdex/internal/chunks"
	"github.com/logdex/logdex/internal/constants"
	"github.com/logdex/logdex/internal/dlt"
	"github.com/logdex/logdex/internal/errors"
	"github.com/logdex/logdex/internal/io/minbuf"
	"github.com/logdex/logdex/internal/progress"
)

// ParseDltFile exposes the producer as a lazy sequence over a whole file:
// it collects all parsed messages, skipping garbled regions, and yields
// between message reads by honoring ctx. Progress is tracked but
// discarded; callers wanting progress use the indexer.
func ParseDltFile(ctx context.Context, inFile string,
	filter *dlt.FilterConfig, fibex *dlt.FibexMetadata) ([]*dlt.Message, error) {

	f, err := os.Open(inFile)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", inFile)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "could not stat %s", inFile)
	}

	// Nobody listens on this channel; the reporter's ticks are dropped.
	discarded := make(chan progress.Event[chunks.Chunk], 1)
	reporter := progress.NewReporter[chunks.Chunk](uint64(info.Size()), discarded)

	producer := NewMessageProducer(f, dlt.ProcessFilterConfig(filter), true, fibex)
	var messages []*dlt.Message
	for {
		if ctx.Err() != nil {
			return messages, errors.ErrInterrupted
		}
		consumed, parsed, err := producer.NextMessage()
		reporter.MakeProgress(consumed)
		if err != nil {
			parseErr, ok := err.(*dlt.ParseError)
			if ok && parseErr.Kind == dlt.Hickup {
				log.Warn("could not produce message", "error", parseErr.Reason)
				continue
			}
			return messages, err
		}
		if parsed == nil {
			return messages, nil
		}
		if parsed.Kind == dlt.Item {
			messages = append(messages, parsed.Message)
		}
	}
}

// CountDltMessages counts how many recognizable messages are stored in a
// file. Each message needs to be equipped with a storage header.
func CountDltMessages(inFile string) (uint64, error) {
	f, err := os.Open(inFile)
	if err != nil {
		return 0, errors.Wrapf(err, "could not open %s", inFile)
	}
	defer f.Close()

	reader := minbuf.NewReader(f, constants.DltReaderCapacity, constants.MinBufferSpace)
	var count uint64
	for {
		content, err := reader.FillBuf()
		if err != nil {
			return count, errors.Wrap(err, "filling buffer with dlt messages")
		}
		if len(content) == 0 {
			return count, nil
		}
		consumed, err := dlt.ConsumeMessage(content)
		if err != nil {
			return count, nil
		}
		reader.Consume(int(consumed))
		count++
	}
}
