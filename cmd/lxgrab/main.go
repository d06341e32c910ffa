// Package main provides the lxgrab command. It builds (or loads) slot
// metadata over a text file and prints the requested line range.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"

	"github.com/logdex/logdex/internal/config"
	"github.com/logdex/logdex/internal/grab"
	"github.com/logdex/logdex/internal/ranges"
	"github.com/logdex/logdex/internal/version"
)

func main() {
	var file, id, loadSlots, exportSlots string
	var from, to uint64
	var displayVersion bool

	flag.StringVar(&file, "file", "", "Text file to grab from")
	flag.StringVar(&id, "id", "", "Source id (generated if empty)")
	flag.StringVar(&loadSlots, "loadSlots", "", "Load slot metadata from this cache file")
	flag.StringVar(&exportSlots, "exportSlots", "", "Export slot metadata to this cache file")
	flag.Uint64Var(&from, "from", 0, "First line to grab")
	flag.Uint64Var(&to, "to", 0, "Last line to grab")
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
	if file == "" {
		log.Fatal("-file is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	grabber, err := grab.NewLazy(grab.NewTextFileSource(file, id))
	if err != nil {
		log.Fatal("could not create grabber", "error", err)
	}
	if loadSlots != "" {
		err = grabber.LoadMetadata(loadSlots)
	} else {
		err = grabber.CreateMetadata(ctx)
	}
	if err != nil {
		log.Fatal("could not initialize metadata", "error", err)
	}
	if exportSlots != "" {
		if err := grabber.ExportSlots(exportSlots); err != nil {
			log.Fatal("could not export slots", "error", err)
		}
	}

	content, err := grabber.GrabContent(ranges.NewLineRange(from, to))
	if err != nil {
		log.Fatal("could not grab content", "error", err)
	}
	for _, element := range content.GrabbedElements {
		fmt.Println(element.Content)
	}
}
