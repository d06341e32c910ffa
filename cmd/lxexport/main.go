// Package main provides the lxexport command. It copies byte-exact
// sections of a previously indexed DLT file to a destination file.
package main

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/logdex/logdex/internal/chunks"
	"github.com/logdex/logdex/internal/config"
	"github.com/logdex/logdex/internal/constants"
	"github.com/logdex/logdex/internal/dltfile"
	"github.com/logdex/logdex/internal/progress"
	"github.com/logdex/logdex/internal/version"
)

func main() {
	var inFile, sessionID, outFile, sectionsArg string
	var displayVersion bool

	flag.StringVar(&inFile, "in", "", "Indexed DLT file to export from")
	flag.StringVar(&sessionID, "session", "", "Session id resolved to its stream file")
	flag.StringVar(&outFile, "out", "", "Destination file")
	flag.StringVar(&sectionsArg, "sections", "",
		"Comma separated first:last line pairs, empty for the whole file")
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
	if outFile == "" || (inFile == "" && sessionID == "") {
		log.Fatal("-out and one of -in or -session are required")
	}

	sections, err := parseSections(sectionsArg)
	if err != nil {
		log.Fatal("invalid -sections", "error", err)
	}

	events := make(chan progress.Event[chunks.Chunk], constants.ChannelCapacity)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range events {
			if event.Kind == progress.EventNotify {
				log.Error(event.Note.Content, "severity", event.Note.Severity)
			}
		}
	}()

	if sessionID != "" {
		err = dltfile.ExportSessionFile(sessionID, outFile, sections, events)
	} else {
		err = dltfile.ExportAsDltFile(inFile, outFile, sections, events)
	}
	close(events)
	<-done
	if err != nil {
		log.Error("export failed", "error", err)
		os.Exit(1)
	}
	log.Info("export finished", "out", outFile)
}

func parseSections(arg string) (config.SectionConfig, error) {
	var cfg config.SectionConfig
	if arg == "" {
		return cfg, nil
	}
	for _, pair := range strings.Split(arg, ",") {
		bounds := strings.SplitN(pair, ":", 2)
		first, err := strconv.ParseUint(bounds[0], 10, 64)
		if err != nil {
			return cfg, err
		}
		last := first
		if len(bounds) == 2 {
			if last, err = strconv.ParseUint(bounds[1], 10, 64); err != nil {
				return cfg, err
			}
		}
		cfg.Sections = append(cfg.Sections, config.Section{FirstLine: first, LastLine: last})
	}
	return cfg, nil
}
