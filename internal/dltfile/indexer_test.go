package dltfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/logdex/logdex/internal/chunks"
	"github.com/logdex/logdex/internal/config"
	"github.com/logdex/logdex/internal/dlt"
	"github.com/logdex/logdex/internal/progress"
	"github.com/logdex/logdex/internal/protocol"
	"github.com/logdex/logdex/internal/testutil"
)

// uniformSpec yields 48-byte messages; several tests rely on the fixed
// frame size to compute offsets.
var uniformSpec = testutil.DltMessageSpec{
	EcuID:     "ECU1",
	AppID:     "APP1",
	ContextID: "CTX1",
	Level:     uint8(dlt.LevelInfo),
	Text:      "aaa",
	Seconds:   1600000000,
	Timestamp: 1000,
}

func uniformMessages(count int) []byte {
	var out []byte
	for i := 0; i < count; i++ {
		out = append(out, testutil.BuildDltMessage(uniformSpec)...)
	}
	return out
}

func runIndexing(t *testing.T, ctx context.Context, cfg config.IndexingConfig) []progress.Event[chunks.Chunk] {
	t.Helper()
	info, err := os.Stat(cfg.InFile)
	testutil.AssertNoError(t, err)

	events := make(chan progress.Event[chunks.Chunk], 1024)
	err = CreateIndexAndMapping(ctx, cfg, uint64(info.Size()), nil, events, nil, nil)
	testutil.AssertNoError(t, err)
	close(events)

	var collected []progress.Event[chunks.Chunk]
	for event := range events {
		collected = append(collected, event)
	}
	return collected
}

func chunksOf(events []progress.Event[chunks.Chunk]) []chunks.Chunk {
	var out []chunks.Chunk
	for _, event := range events {
		if event.Kind == progress.EventGotItem {
			out = append(out, event.Item)
		}
	}
	return out
}

func assertTerminatedCleanly(t *testing.T, events []progress.Event[chunks.Chunk]) {
	t.Helper()
	if len(events) == 0 {
		t.Fatal("no events emitted")
	}
	last := events[len(events)-1]
	if last.Kind != progress.EventFinished {
		t.Errorf("expected the run to end with Finished, got kind %d", last.Kind)
	}
	for _, event := range events {
		if event.Kind == progress.EventNotify &&
			event.Note.Severity == progress.SeverityError {
			t.Errorf("unexpected error notification: %s", event.Note.Content)
		}
	}
}

func assertChunksTile(t *testing.T, emitted []chunks.Chunk, fileSize uint64) {
	t.Helper()
	if len(emitted) == 0 {
		t.Fatal("no chunks emitted")
	}
	var nextLine, nextByte uint64
	for i, chunk := range emitted {
		if chunk.Lines.Start() != nextLine {
			t.Errorf("chunk %d: expected line start %d, got %s", i, nextLine, chunk.Lines)
		}
		if chunk.Bytes.Start() != nextByte {
			t.Errorf("chunk %d: expected byte start %d, got %s", i, nextByte, chunk.Bytes)
		}
		nextLine = chunk.Lines.End() + 1
		nextByte = chunk.Bytes.End() + 1
	}
	if nextByte != fileSize {
		t.Errorf("chunks cover %d bytes, file has %d", nextByte, fileSize)
	}
}

func TestIndexDltFile(t *testing.T) {
	inFile := testutil.TempFile(t, testutil.BuildDltFile(12, uniformSpec))
	outPath := filepath.Join(t.TempDir(), "out")

	events := runIndexing(t, context.Background(), config.IndexingConfig{
		Tag: "T", ChunkSize: 5, InFile: inFile, OutPath: outPath,
	})
	assertTerminatedCleanly(t, events)

	out, err := os.ReadFile(outPath)
	testutil.AssertNoError(t, err)
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) != 12 {
		t.Fatalf("expected 12 output lines, got %d", len(lines))
	}
	for i, line := range lines {
		prefix := fmt.Sprintf("T%c%d%c", protocol.PluginSentinel, i, protocol.PluginSentinel)
		if !strings.HasPrefix(line, prefix) {
			t.Errorf("line %d is not tagged: %q", i, line)
		}
		testutil.AssertContains(t, line, "aaa")
	}

	emitted := chunksOf(events)
	if len(emitted) != 3 {
		t.Errorf("expected 3 chunks for 12 lines at size 5, got %d", len(emitted))
	}
	assertChunksTile(t, emitted, uint64(len(out)))
}

func TestIndexResyncAfterCorruption(t *testing.T) {
	// 10 uniform 48-byte messages with frame 2 overwritten by noise:
	// indexing skips the noise in sync-pattern steps and picks up again
	// at frame 3.
	raw := uniformMessages(10)
	for i := 96; i < 144; i++ {
		raw[i] = 0xee
	}
	inFile := testutil.TempFile(t, raw)
	outPath := filepath.Join(t.TempDir(), "out")

	events := runIndexing(t, context.Background(), config.IndexingConfig{
		Tag: "T", ChunkSize: 2, InFile: inFile, OutPath: outPath,
	})
	assertTerminatedCleanly(t, events)

	out, err := os.ReadFile(outPath)
	testutil.AssertNoError(t, err)
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) < 8 {
		t.Errorf("expected at least 8 surviving lines, got %d", len(lines))
	}
	assertChunksTile(t, chunksOf(events), uint64(len(out)))
}

func TestIndexAppend(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "out")

	first := testutil.TempFile(t, uniformMessages(3))
	events := runIndexing(t, context.Background(), config.IndexingConfig{
		Tag: "T", ChunkSize: 2, InFile: first, OutPath: outPath,
	})
	assertTerminatedCleanly(t, events)
	firstSize := testutil.FileSize(t, outPath)

	second := testutil.TempFile(t, uniformMessages(3))
	events = runIndexing(t, context.Background(), config.IndexingConfig{
		Tag: "T", ChunkSize: 2, InFile: second, OutPath: outPath, Append: true,
	})
	assertTerminatedCleanly(t, events)

	out, err := os.ReadFile(outPath)
	testutil.AssertNoError(t, err)
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 output lines after append, got %d", len(lines))
	}
	for i, line := range lines {
		prefix := fmt.Sprintf("T%c%d%c", protocol.PluginSentinel, i, protocol.PluginSentinel)
		if !strings.HasPrefix(line, prefix) {
			t.Errorf("line %d numbering broken across append: %q", i, line)
		}
	}

	appended := chunksOf(events)
	if appended[0].Bytes.Start() != firstSize {
		t.Errorf("appended chunks have to continue at %d, got %s",
			firstSize, appended[0].Bytes)
	}
}

func TestIndexCancellation(t *testing.T) {
	inFile := testutil.TempFile(t, uniformMessages(10))
	outPath := filepath.Join(t.TempDir(), "out")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	events := runIndexing(t, ctx, config.IndexingConfig{
		Tag: "T", ChunkSize: 2, InFile: inFile, OutPath: outPath,
	})
	assertTerminatedCleanly(t, events)

	// Cancellation is observed at the first chunk boundary: one chunk
	// arrives, the output holds exactly its bytes.
	emitted := chunksOf(events)
	if len(emitted) != 1 {
		t.Fatalf("expected exactly 1 chunk, got %d", len(emitted))
	}
	if size := testutil.FileSize(t, outPath); size != emitted[0].Bytes.End()+1 {
		t.Errorf("output size %d does not match the last chunk end %d",
			size, emitted[0].Bytes.End())
	}
}

func TestIndexEmptyFile(t *testing.T) {
	inFile := testutil.TempFile(t, nil)
	outPath := filepath.Join(t.TempDir(), "out")

	events := runIndexing(t, context.Background(), config.IndexingConfig{
		Tag: "T", ChunkSize: 2, InFile: inFile, OutPath: outPath,
	})
	assertTerminatedCleanly(t, events)

	emitted := chunksOf(events)
	if len(emitted) != 1 {
		t.Fatalf("expected the empty-file marker chunk, got %d chunks", len(emitted))
	}
	if testutil.FileSize(t, outPath) != 0 {
		t.Error("empty input must produce an empty output file")
	}
}

func TestIndexFiltered(t *testing.T) {
	inFile := testutil.TempFile(t, uniformMessages(5))
	outPath := filepath.Join(t.TempDir(), "out")
	info, err := os.Stat(inFile)
	testutil.AssertNoError(t, err)

	events := make(chan progress.Event[chunks.Chunk], 1024)
	err = CreateIndexAndMapping(context.Background(), config.IndexingConfig{
		Tag: "T", ChunkSize: 2, InFile: inFile, OutPath: outPath,
	}, uint64(info.Size()), &dlt.FilterConfig{AppIDs: []string{"OTHR"}}, events, nil, nil)
	testutil.AssertNoError(t, err)
	close(events)
	var collected []progress.Event[chunks.Chunk]
	for event := range events {
		collected = append(collected, event)
	}
	assertTerminatedCleanly(t, collected)

	if testutil.FileSize(t, outPath) != 0 {
		t.Error("all messages are filtered out, output must stay empty")
	}
}
