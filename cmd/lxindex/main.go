// Package main provides the lxindex command. It indexes a DLT file into a
// tagged-line text file and prints the emitted chunk map.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"

	"github.com/logdex/logdex/internal/config"
	"github.com/logdex/logdex/internal/dltfile"
	"github.com/logdex/logdex/internal/progress"
	"github.com/logdex/logdex/internal/version"
)

func main() {
	var cfg config.IndexingConfig
	var displayVersion bool

	flag.StringVar(&cfg.InFile, "in", "", "DLT file to index")
	flag.StringVar(&cfg.OutPath, "out", "", "Output file path")
	flag.StringVar(&cfg.Tag, "tag", "dlt", "Tag prepended to every output line")
	flag.Uint64Var(&cfg.ChunkSize, "chunkSize", 0, "Chunk size in lines (0: default)")
	flag.BoolVar(&cfg.Append, "append", false, "Append to an existing output file")
	flag.BoolVar(&cfg.Watch, "watch", false, "Keep indexing as the input grows")
	flag.BoolVar(&displayVersion, "version", false, "Display version")
	flag.Parse()

	if displayVersion {
		version.PrintAndExit()
	}
	if err := config.Setup(); err != nil {
		log.Fatal("invalid configuration", "error", err)
	}
	if level, err := log.ParseLevel(config.Common.LogLevel); err == nil {
		log.SetLevel(level)
	}
	if cfg.InFile == "" || cfg.OutPath == "" {
		log.Fatal("both -in and -out are required")
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = config.Common.ChunkSize
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	events, wait := dltfile.RunIndexing(ctx, cfg, nil, nil, nil)
	status := 0
	for event := range events {
		switch event.Kind {
		case progress.EventGotItem:
			fmt.Printf("chunk lines %s bytes %s\n", event.Item.Lines, event.Item.Bytes)
		case progress.EventNotify:
			log.Error(event.Note.Content, "severity", event.Note.Severity)
			if event.Note.Severity == progress.SeverityError {
				status = 1
			}
		case progress.EventFinished:
			log.Info("indexing finished", "out", cfg.OutPath)
		}
	}
	if err := wait(); err != nil {
		log.Error("indexing failed", "error", err)
		status = 1
	}
	os.Exit(status)
}
