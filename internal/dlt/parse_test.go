package dlt

import (
	"strings"
	"testing"

	"github.com/logdex/logdex/internal/protocol"
	"github.com/logdex/logdex/internal/testutil"
)

func validMessage() []byte {
	return testutil.BuildDltMessage(testutil.DltMessageSpec{
		EcuID:     "ECU1",
		AppID:     "APP1",
		ContextID: "CTX1",
		Level:     uint8(LevelInfo),
		Text:      "hello dlt",
		Seconds:   1600000000,
		Timestamp: 12345,
	})
}

func TestParseValidMessage(t *testing.T) {
	raw := validMessage()
	rest, parsed, err := Parse(raw, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 0 {
		t.Errorf("expected the whole message to be consumed, %d bytes left", len(rest))
	}
	if parsed.Kind != Item {
		t.Fatalf("expected an item, got kind %d", parsed.Kind)
	}

	msg := parsed.Message
	if msg.Storage == nil || msg.Storage.EcuID != "ECU1" {
		t.Error("storage header not parsed")
	}
	if msg.Header.EcuID != "ECU1" || !msg.Header.HasTimestamp ||
		msg.Header.Timestamp != 12345 {
		t.Errorf("standard header not parsed: %+v", msg.Header)
	}
	if msg.Extended == nil {
		t.Fatal("extended header not parsed")
	}
	if msg.Extended.AppID != "APP1" || msg.Extended.ContextID != "CTX1" {
		t.Errorf("unexpected ids: %+v", msg.Extended)
	}
	level, ok := msg.Extended.LogLevel()
	if !ok || level != LevelInfo {
		t.Errorf("expected info level, got %v", level)
	}
	if !msg.Verbose() {
		t.Error("expected a verbose message")
	}
	if len(msg.Payload.Args) != 1 || msg.Payload.Args[0].String() != "hello dlt" {
		t.Errorf("unexpected payload: %+v", msg.Payload)
	}
}

func TestParseConsecutiveMessages(t *testing.T) {
	raw := append(validMessage(), validMessage()...)
	rest, _, err := Parse(raw, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != len(validMessage()) {
		t.Errorf("expected exactly one message consumed, %d bytes left", len(rest))
	}
	if _, parsed, err := Parse(rest, nil, true); err != nil || parsed.Kind != Item {
		t.Errorf("second message did not parse: %v", err)
	}
}

func TestParseHickupOnGarbage(t *testing.T) {
	raw := append([]byte("garbage!"), validMessage()...)
	_, _, err := Parse(raw, nil, true)
	parseErr, ok := err.(*ParseError)
	if !ok || parseErr.Kind != Hickup {
		t.Fatalf("expected a hickup, got %v", err)
	}
}

func TestParseIncompleteOnTruncation(t *testing.T) {
	raw := validMessage()
	_, _, err := Parse(raw[:len(raw)-5], nil, true)
	parseErr, ok := err.(*ParseError)
	if !ok || parseErr.Kind != Incomplete {
		t.Fatalf("expected an incomplete parse, got %v", err)
	}
	if parseErr.Needed != 5 {
		t.Errorf("expected 5 missing bytes, got %d", parseErr.Needed)
	}
}

func TestConsumeMessage(t *testing.T) {
	raw := append(validMessage(), validMessage()...)
	consumed, err := ConsumeMessage(raw)
	if err != nil {
		t.Fatal(err)
	}
	if consumed != uint64(len(validMessage())) {
		t.Errorf("expected %d consumed bytes, got %d", len(validMessage()), consumed)
	}
}

func TestForwardToNextStorageHeader(t *testing.T) {
	raw := append([]byte{0xee, 0xee, 0xee}, validMessage()...)
	dropped, found := ForwardToNextStorageHeader(raw)
	if !found || dropped != 3 {
		t.Errorf("expected 3 dropped bytes, got %d (found: %v)", dropped, found)
	}

	if _, found := ForwardToNextStorageHeader([]byte{0xee, 0xee}); found {
		t.Error("expected no pattern in noise")
	}
}

func TestParseStatisticRowInfo(t *testing.T) {
	raw := validMessage()
	consumed, row, err := ParseStatisticRowInfo(raw, true)
	if err != nil {
		t.Fatal(err)
	}
	if consumed != uint64(len(raw)) {
		t.Errorf("expected the whole message consumed, got %d of %d", consumed, len(raw))
	}
	if !row.HasIDs || row.AppID != "APP1" || row.ContextID != "CTX1" {
		t.Errorf("unexpected ids: %+v", row)
	}
	if row.EcuID != "ECU1" {
		t.Errorf("unexpected ecu: %+v", row)
	}
	if !row.HasLevel || row.Level != LevelInfo {
		t.Errorf("unexpected level: %+v", row)
	}
	if !row.Verbose {
		t.Error("expected verbose flag")
	}
}

func TestFilterByLevel(t *testing.T) {
	filter := ProcessFilterConfig(&FilterConfig{MinLogLevel: LevelWarn})
	_, parsed, err := Parse(validMessage(), filter, true)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Kind != FilteredOut {
		t.Errorf("info message should not pass a warn filter, got kind %d", parsed.Kind)
	}
}

func TestFilterByAppID(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want ParsedKind
	}{
		{"matching id", []string{"APP1"}, Item},
		{"other id", []string{"OTHR"}, FilteredOut},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := ProcessFilterConfig(&FilterConfig{AppIDs: tt.ids})
			_, parsed, err := Parse(validMessage(), filter, true)
			if err != nil {
				t.Fatal(err)
			}
			if parsed.Kind != tt.want {
				t.Errorf("expected kind %d, got %d", tt.want, parsed.Kind)
			}
		})
	}
}

func TestFormattableMessage(t *testing.T) {
	_, parsed, err := Parse(validMessage(), nil, true)
	if err != nil {
		t.Fatal(err)
	}
	line := FormattableMessage{Message: parsed.Message}.String()

	cols := strings.Split(line, string(protocol.ColumnSentinel))
	if len(cols) != 7 {
		t.Fatalf("expected 7 columns, got %d: %q", len(cols), line)
	}
	testutil.AssertContains(t, line, "ECU1")
	testutil.AssertContains(t, line, "APP1")
	testutil.AssertContains(t, line, "CTX1")
	testutil.AssertContains(t, line, "INFO")
	testutil.AssertContains(t, line, "hello dlt")
	if strings.Contains(line, "\n") {
		t.Error("formatted line must not contain newlines")
	}
}

func TestLevelDistribution(t *testing.T) {
	ids := make(IdMap)
	ids.AddForLevel("APP1", LevelError, true)
	ids.AddForLevel("APP1", LevelError, true)
	ids.AddForLevel("APP1", 0, false)
	ids.AddForLevel("APP2", LevelVerbose, true)

	if ids["APP1"].LogError != 2 || ids["APP1"].NonLog != 1 {
		t.Errorf("unexpected distribution: %+v", ids["APP1"])
	}
	if ids["APP2"].LogVerbose != 1 {
		t.Errorf("unexpected distribution: %+v", ids["APP2"])
	}
}
