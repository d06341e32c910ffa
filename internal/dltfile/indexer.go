package dltfile

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/logdex/logdex/internal/chunks"
	"github.com/logdex/logdex/internal/config"
	"github.com/logdex/logdex/internal/constants"
	"github.com/logdex/logdex/internal/dlt"
	"github.com/logdex/logdex/internal/errors"
	"github.com/logdex/logdex/internal/progress"
	"github.com/logdex/logdex/internal/protocol"
)

// ChunkResults is the results channel type of an indexing run.
type ChunkResults = chan<- progress.Event[chunks.Chunk]

// CreateIndexAndMapping opens the input of cfg, sets up a message producer
// and indexes the whole file. filter, fibex and fmtOptions may be nil.
func CreateIndexAndMapping(ctx context.Context, cfg config.IndexingConfig,
	sourceFileSize uint64, filter *dlt.FilterConfig, events ChunkResults,
	fibex *dlt.FibexMetadata, fmtOptions *dlt.FormatOptions) error {

	f, err := os.Open(cfg.InFile)
	if err != nil {
		return errors.Wrapf(err, "could not open %s", cfg.InFile)
	}
	defer f.Close()

	producer := NewMessageProducer(f, dlt.ProcessFilterConfig(filter), true, fibex)
	return IndexDltContent(ctx, cfg, sourceFileSize, events, producer, fmtOptions)
}

// IndexDltContent drives producer over the input of cfg and writes one
// tagged line per message to the output file. Chunk descriptors tile the
// output file exactly: the union of all emitted chunk byte ranges equals
// [0, output size). The output buffer is flushed before every chunk is
// sent, so a consumer seeking to a chunk's end byte finds it on disk.
//
// Cancellation is observed at chunk boundaries and, in watch mode, while
// waiting at end of input; it is never checked per message, which would
// dominate parse cost. After cancellation the current chunk is flushed and
// Finished is still sent.
func IndexDltContent(ctx context.Context, cfg config.IndexingConfig,
	sourceFileSize uint64, events ChunkResults, producer *MessageProducer,
	fmtOptions *dlt.FormatOptions) error {

	out, currentOutSize, err := openOutFile(cfg.Append, cfg.OutPath)
	if err != nil {
		return err
	}
	defer out.Close()

	var lineNr uint64
	if cfg.Append {
		if lineNr, err = protocol.NextLineNr(cfg.OutPath); err != nil {
			return errors.Wrap(err, "determining next line number")
		}
	}

	chunkSize := cfg.ChunkSize
	if chunkSize == 0 {
		chunkSize = constants.DefaultChunkSize
	}
	factory := chunks.NewFactory(chunkSize, currentOutSize)
	reporter := progress.NewReporter[chunks.Chunk](sourceFileSize, events)
	writer := bufio.NewWriterSize(out, constants.WriterCapacity)

	var watcher *fsnotify.Watcher
	if cfg.Watch {
		if watcher, err = fsnotify.NewWatcher(); err != nil {
			return errors.Wrap(err, "creating watcher")
		}
		defer watcher.Close()
		if err = watcher.Add(cfg.InFile); err != nil {
			return errors.Wrapf(err, "watching %s", cfg.InFile)
		}
	}

	chunkCount := 0
	skipped := 0
	stopped := false

reading:
	for {
		if stopped {
			log.Info("indexing was stopped", "file", cfg.InFile)
			break
		}
		consumed, parsed, err := producer.NextMessage()
		reporter.MakeProgress(consumed)

		switch {
		case err != nil:
			parseErr, ok := err.(*dlt.ParseError)
			if ok && parseErr.Kind == dlt.Hickup {
				log.Warn("error parsing one message, trying to continue",
					"error", parseErr.Reason)
				continue
			}
			sendEvent(events, progress.NewNotify[chunks.Chunk](progress.SeverityError,
				fmt.Sprintf("error while parsing dlt file: %s", err), nil))
			break reading

		case parsed == nil:
			// End of stream.
			if !cfg.Watch {
				break reading
			}
			if !waitForWrite(ctx, watcher) {
				break reading
			}
			producer.ClearEOF()

		case parsed.Kind == dlt.Item:
			formatted := dlt.FormattableMessage{
				Message: parsed.Message,
				Fibex:   producer.Fibex(),
				Options: fmtOptions,
			}
			written, err := protocol.WriteTaggedLine(writer, cfg.Tag, lineNr,
				formatted.String())
			if err != nil {
				return errors.Wrap(err, "writing tagged line")
			}
			lineNr++
			if chunk, ok := factory.AddBytes(lineNr, written); ok {
				stopped = ctx.Err() != nil
				if err := writer.Flush(); err != nil {
					return errors.Wrap(err, "flushing output")
				}
				chunkCount++
				sendEvent(events, progress.NewGotItem(chunk))
			}

		case parsed.Kind == dlt.FilteredOut:
			skipped++

		default:
			// Invalid, silently skip.
		}
	}

	if err := writer.Flush(); err != nil {
		return errors.Wrap(err, "flushing output")
	}
	if chunk, ok := factory.CreateLastChunk(lineNr, chunkCount == 0); ok {
		chunkCount++
		sendEvent(events, progress.NewGotItem(chunk))
	}
	if chunkCount > 0 {
		if err := verifyOutSize(cfg.OutPath, factory.CurrentByte(), lineNr, events); err != nil {
			return err
		}
	}
	log.Debug("indexing done", "skipped", skipped, "stats", producer.Stats())
	sendEvent(events, progress.NewFinished[chunks.Chunk]())
	return nil
}

// verifyOutSize checks the byte invariant at the end of a run: all chunks
// together have to describe exactly the bytes on disk. A mismatch is
// reported but does not fail the run.
func verifyOutSize(outPath string, expected, lineNr uint64,
	events ChunkResults) error {

	info, err := os.Stat(outPath)
	if err != nil {
		return errors.Wrapf(err, "could not stat %s", outPath)
	}
	if uint64(info.Size()) != expected {
		sendEvent(events, progress.NewNotify[chunks.Chunk](progress.SeverityError,
			fmt.Sprintf("error in computation! last byte in chunks is %d but should be %d",
				expected, info.Size()), &lineNr))
	}
	return nil
}

func openOutFile(appendMode bool, outPath string) (*os.File, uint64, error) {
	if appendMode {
		out, err := os.OpenFile(outPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "could not open %s", outPath)
		}
		info, err := out.Stat()
		if err != nil {
			out.Close()
			return nil, 0, errors.Wrapf(err, "could not stat %s", outPath)
		}
		return out, uint64(info.Size()), nil
	}
	out, err := os.Create(outPath)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "could not create %s", outPath)
	}
	return out, 0, nil
}

// waitForWrite blocks until the watched input grows. It reports false when
// the context was cancelled instead.
func waitForWrite(ctx context.Context, watcher *fsnotify.Watcher) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-watcher.Events:
			if !ok {
				return false
			}
			if event.Has(fsnotify.Write) {
				return true
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return false
			}
			log.Warn("watcher error", "error", err)
		}
	}
}

func sendEvent[T any](events chan<- progress.Event[T], event progress.Event[T]) {
	// A consumer that closed the channel must not fail the producer, so a
	// send on a closed channel is dropped. A full channel blocks until the
	// consumer drains it.
	defer func() {
		_ = recover()
	}()
	events <- event
}
