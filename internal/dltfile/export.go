package dltfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	homedir "github.com/mitchellh/go-homedir"

	"github.com/logdex/logdex/internal/chunks"
	"github.com/logdex/logdex/internal/config"
	"github.com/logdex/logdex/internal/constants"
	"github.com/logdex/logdex/internal/dlt"
	"github.com/logdex/logdex/internal/errors"
	"github.com/logdex/logdex/internal/io/minbuf"
	"github.com/logdex/logdex/internal/progress"
)

// FilePart names one byte region of a DLT file to be copied.
type FilePart struct {
	Offset uint64
	Length uint64
}

// ExportSessionFile resolves a session id to its stream file and exports
// the requested sections to destinationPath.
func ExportSessionFile(sessionID, destinationPath string,
	sections config.SectionConfig, events ChunkResults) error {

	sessionFilePath, err := SessionFilePath(sessionID)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfig, err.Error())
	}
	return ExportAsDltFile(sessionFilePath, destinationPath, sections, events)
}

// ExportAsDltFile copies the byte-exact sections of a previously indexed
// DLT file to destinationPath. Message payloads are not reparsed; the
// partitioner only walks storage header frames to map logical lines to
// byte ranges. An empty section list copies the entire file.
func ExportAsDltFile(dltFilePath, destinationPath string,
	sections config.SectionConfig, events ChunkResults) error {

	if _, err := os.Stat(dltFilePath); err != nil {
		reason := fmt.Sprintf("couldn't find session file: %s", dltFilePath)
		sendEvent(events, progress.NewNotify[chunks.Chunk](
			progress.SeverityError, reason, nil))
		return errors.Wrap(errors.ErrMissingSessionFile, dltFilePath)
	}

	partitioner, err := NewFilePartitioner(dltFilePath, sections)
	if err != nil {
		return err
	}
	parts := partitioner.Parts()

	in, err := os.Open(dltFilePath)
	if err != nil {
		return errors.Wrapf(err, "could not open %s", dltFilePath)
	}
	defer in.Close()
	out, err := os.Create(destinationPath)
	if err != nil {
		return errors.Wrapf(err, "could not create %s", destinationPath)
	}
	defer out.Close()

	writer := bufio.NewWriter(out)
	for _, part := range parts {
		log.Debug("copying part", "offset", part.Offset, "length", part.Length)
		if _, err := in.Seek(int64(part.Offset), io.SeekStart); err != nil {
			return errors.Wrapf(err, "seeking to %d", part.Offset)
		}
		if _, err := io.Copy(writer, io.LimitReader(in, int64(part.Length))); err != nil {
			return errors.Wrap(err, "copying section")
		}
		if err := writer.Flush(); err != nil {
			return errors.Wrap(err, "flushing export")
		}
	}
	sendEvent(events, progress.NewFinished[chunks.Chunk]())
	return nil
}

// SessionFilePath resolves a session id to <home>/.chipmunk/streams/<id>.dlt,
// honoring the SessionDir override of the common configuration.
func SessionFilePath(sessionID string) (string, error) {
	dir := ""
	if config.Common != nil {
		dir = config.Common.SessionDir
	}
	if dir == "" {
		home, err := homedir.Dir()
		if err != nil {
			return "", errors.Wrap(err, "resolving home directory")
		}
		dir = filepath.Join(home, ".chipmunk", "streams")
	}
	return filepath.Join(dir, sessionID+".dlt"), nil
}

// CreateDltSessionFile creates the stream file of a session, creating the
// session directory if needed.
func CreateDltSessionFile(sessionID string) (*os.File, error) {
	path, err := SessionFilePath(sessionID)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "creating session directory")
	}
	return os.Create(path)
}

// FilePartitioner maps logical line sections of a DLT file to byte
// regions. One storage header frame is one logical line.
type FilePartitioner struct {
	reader   *minbuf.Reader
	file     *os.File
	offset   uint64
	sections config.SectionConfig
	fileSize uint64
}

// NewFilePartitioner opens inPath for partitioning by sections.
func NewFilePartitioner(inPath string, sections config.SectionConfig) (*FilePartitioner, error) {
	f, err := os.Open(inPath)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", inPath)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "could not stat %s", inPath)
	}
	return &FilePartitioner{
		reader:   minbuf.NewReader(f, constants.DltReaderCapacity, constants.MinBufferSpace),
		file:     f,
		sections: sections,
		fileSize: uint64(info.Size()),
	}, nil
}

// Parts walks the file frame by frame and returns the byte regions
// covering the configured sections, in the order supplied. The walk
// counts messages; section boundaries are inclusive line indexes.
func (p *FilePartitioner) Parts() []FilePart {
	defer p.file.Close()
	if len(p.sections.Sections) == 0 {
		return []FilePart{{Offset: 0, Length: p.fileSize}}
	}

	type state struct {
		index          uint64
		inSection      bool
		bytesInSection uint64
		sectionOffset  uint64
	}
	var parts []FilePart
	var st state

	for _, section := range p.sections.Sections {
		for {
			content, err := p.reader.FillBuf()
			if err != nil {
				log.Warn("partitioner read failed", "error", err)
				return parts
			}
			if len(content) == 0 {
				return parts
			}
			rest, skippedBytes, err := dlt.SkipStorageHeader(content)
			if err != nil {
				log.Warn("partitioner lost framing", "error", err)
				return parts
			}
			frameLen, found := dlt.ForwardToNextStorageHeader(rest)
			if !found {
				frameLen = uint64(len(rest))
			}
			consumed := skippedBytes + frameLen

			if st.index == section.FirstLine {
				st.inSection = true
				st.sectionOffset = p.offset
			}
			if st.inSection {
				st.bytesInSection += consumed
			}
			if st.index == section.LastLine {
				parts = append(parts, FilePart{
					Offset: st.sectionOffset,
					Length: st.bytesInSection,
				})
				st.inSection = false
				st.bytesInSection = 0
				p.offset += consumed
				p.reader.Consume(int(consumed))
				st.index++
				break
			}
			p.offset += consumed
			p.reader.Consume(int(consumed))
			st.index++
		}
	}
	return parts
}
