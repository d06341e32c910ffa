package dltfile

import (
	"context"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/logdex/logdex/internal/chunks"
	"github.com/logdex/logdex/internal/config"
	"github.com/logdex/logdex/internal/constants"
	"github.com/logdex/logdex/internal/dlt"
	"github.com/logdex/logdex/internal/progress"
)

// RunIndexing bridges the blocking indexer to a task-shaped caller: it
// spawns one worker goroutine that owns the producer, the writer and the
// results sender, and returns the results channel together with a wait
// function. The channel is closed once the worker has emitted its
// terminal event.
func RunIndexing(ctx context.Context, cfg config.IndexingConfig,
	filter *dlt.FilterConfig, fibex *dlt.FibexMetadata,
	fmtOptions *dlt.FormatOptions) (<-chan progress.Event[chunks.Chunk], func() error) {

	events := make(chan progress.Event[chunks.Chunk], constants.ChannelCapacity)

	var sourceFileSize uint64
	if info, err := os.Stat(cfg.InFile); err == nil {
		sourceFileSize = uint64(info.Size())
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer close(events)
		return CreateIndexAndMapping(ctx, cfg, sourceFileSize, filter,
			events, fibex, fmtOptions)
	})
	return events, group.Wait
}

// RunStatistics is the worker-goroutine façade over CollectStatistics.
func RunStatistics(ctx context.Context, inFile string) (<-chan progress.Event[*dlt.StatisticInfo], func() error) {
	events := make(chan progress.Event[*dlt.StatisticInfo], constants.ChannelCapacity)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer close(events)
		return CollectStatistics(ctx, inFile, events)
	})
	return events, group.Wait
}
