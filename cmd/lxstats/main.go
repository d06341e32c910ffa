// Package main provides the lxstats command. It scans a DLT file and
// prints the per-id log level distribution.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"

	"github.com/logdex/logdex/internal/config"
	"github.com/logdex/logdex/internal/dlt"
	"github.com/logdex/logdex/internal/dltfile"
	"github.com/logdex/logdex/internal/progress"
	"github.com/logdex/logdex/internal/version"
)

func main() {
	var inFile string
	var displayVersion bool

	flag.StringVar(&inFile, "in", "", "DLT file to scan")
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
	if inFile == "" {
		log.Fatal("-in is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	events, wait := dltfile.RunStatistics(ctx, inFile)
	status := 0
	for event := range events {
		switch event.Kind {
		case progress.EventGotItem:
			printStats(event.Item)
		case progress.EventNotify:
			log.Error(event.Note.Content, "severity", event.Note.Severity)
			if event.Note.Severity == progress.SeverityError {
				status = 1
			}
		case progress.EventStopped:
			log.Warn("scan was stopped")
		}
	}
	if err := wait(); err != nil {
		log.Error("scan failed", "error", err)
		status = 1
	}
	os.Exit(status)
}

func printStats(info *dlt.StatisticInfo) {
	fmt.Println("app ids:")
	printIDMap(info.AppIDs)
	fmt.Println("context ids:")
	printIDMap(info.ContextIDs)
	fmt.Println("ecu ids:")
	printIDMap(info.EcuIDs)
	if info.ContainedNonVerbose {
		fmt.Println("file contains non-verbose messages")
	}
}

func printIDMap(ids dlt.IdMap) {
	for id, dist := range ids {
		fmt.Printf("  %-8s fatal:%d error:%d warn:%d info:%d debug:%d verbose:%d non-log:%d\n",
			id, dist.LogFatal, dist.LogError, dist.LogWarning, dist.LogInfo,
			dist.LogDebug, dist.LogVerbose, dist.NonLog)
	}
}
