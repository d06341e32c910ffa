package protocol

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteTaggedLine(t *testing.T) {
	var buf bytes.Buffer
	written, err := WriteTaggedLine(&buf, "T", 7, "payload")
	if err != nil {
		t.Fatal(err)
	}
	want := fmt.Sprintf("T%c7%cpayload\n", PluginSentinel, PluginSentinel)
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
	if written != uint64(buf.Len()) {
		t.Errorf("reported %d written bytes, buffer has %d", written, buf.Len())
	}
}

func TestNextLineNr(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out")

	var buf bytes.Buffer
	for i := uint64(0); i < 5; i++ {
		if _, err := WriteTaggedLine(&buf, "tag", i, "content"); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	nr, err := NextLineNr(path)
	if err != nil {
		t.Fatal(err)
	}
	if nr != 5 {
		t.Errorf("expected next line nr 5, got %d", nr)
	}
}

func TestNextLineNrMissingFile(t *testing.T) {
	nr, err := NextLineNr(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatal(err)
	}
	if nr != 0 {
		t.Errorf("expected 0 for a missing file, got %d", nr)
	}
}

func TestNextLineNrRejectsForeignContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out")
	if err := os.WriteFile(path, []byte("not a tagged line\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NextLineNr(path); err == nil {
		t.Error("expected an error for a file without tagged lines")
	}
}
