package dltfile

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/logdex/logdex/internal/constants"
	"github.com/logdex/logdex/internal/dlt"
	"github.com/logdex/logdex/internal/errors"
	"github.com/logdex/logdex/internal/io/minbuf"
	"github.com/logdex/logdex/internal/progress"
)

// StatisticsResults is the results channel type of a statistics scan.
type StatisticsResults = chan<- progress.Event[*dlt.StatisticInfo]

// CollectStatistics walks a DLT file without formatting and aggregates
// per-app-id, per-context-id and per-ECU-id log level histograms. Only the
// message headers are decoded, so the scan is considerably cheaper than
// indexing.
//
// Cancellation is polled every 250 000 messages; a cancelled scan emits
// Stopped instead of Finished.
func CollectStatistics(ctx context.Context, inFile string, events StatisticsResults) error {
	f, err := os.Open(inFile)
	if err != nil {
		return errors.Wrapf(err, "could not open %s", inFile)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errors.Wrapf(err, "could not stat %s", inFile)
	}
	sourceFileSize := uint64(info.Size())

	reader := minbuf.NewReader(f, constants.DltReaderCapacity, constants.MinBufferSpace)
	stats := dlt.NewStatisticInfo()
	index := 0
	processedBytes := uint64(0)

scanning:
	for {
		consumed, row, err := nextRowInfo(reader)
		switch {
		case err != nil:
			parseErr, ok := err.(*dlt.ParseError)
			if ok && parseErr.Kind == dlt.Hickup {
				// At least skip the sync pattern and try to find the
				// next storage header.
				reader.Consume(constants.DltPatternSize)
				log.Debug("error parsing one message, trying to continue",
					"error", parseErr.Reason)
			} else {
				sendEvent(events, progress.NewNotify[*dlt.StatisticInfo](
					progress.SeverityError,
					fmt.Sprintf("error parsing dlt file: %s", err), nil))
				break scanning
			}

		case consumed == 0:
			break scanning

		default:
			reader.Consume(int(consumed))
			processedBytes += consumed
			stats.ContainedNonVerbose = stats.ContainedNonVerbose || !row.Verbose

			appID, contextID := "NONE", "NONE"
			if row.HasIDs {
				appID, contextID = row.AppID, row.ContextID
			}
			ecuID := row.EcuID
			if ecuID == "" {
				ecuID = "NONE"
			}
			stats.AppIDs.AddForLevel(appID, row.Level, row.HasLevel)
			stats.ContextIDs.AddForLevel(contextID, row.Level, row.HasLevel)
			stats.EcuIDs.AddForLevel(ecuID, row.Level, row.HasLevel)
		}

		index++
		if index%constants.StopCheckThreshold == 0 {
			if ctx.Err() != nil {
				sendEvent(events, progress.NewStopped[*dlt.StatisticInfo]())
				return nil
			}
			log.Debug("statistics progress",
				"processed", humanize.Bytes(processedBytes),
				"total", humanize.Bytes(sourceFileSize))
			sendEvent(events, progress.NewProgress[*dlt.StatisticInfo](
				processedBytes, sourceFileSize))
		}
	}

	sendEvent(events, progress.NewGotItem(stats))
	sendEvent(events, progress.NewFinished[*dlt.StatisticInfo]())
	return nil
}

// nextRowInfo reads the header digest of the next message. consumed == 0
// with a nil error means end of stream; the caller advances the reader.
func nextRowInfo(reader *minbuf.Reader) (uint64, dlt.StatisticRowInfo, error) {
	content, err := reader.FillBuf()
	if err != nil {
		return 0, dlt.StatisticRowInfo{}, &dlt.ParseError{Kind: dlt.Unrecoverable,
			Reason: "filling buffer: " + err.Error()}
	}
	if len(content) == 0 {
		return 0, dlt.StatisticRowInfo{}, nil
	}
	return dlt.ParseStatisticRowInfo(content, true)
}
