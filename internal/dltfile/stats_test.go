package dltfile

import (
	"context"
	"testing"

	"github.com/logdex/logdex/internal/dlt"
	"github.com/logdex/logdex/internal/progress"
	"github.com/logdex/logdex/internal/testutil"
)

func statsSpec(app, ctx string, level dlt.LogLevel) testutil.DltMessageSpec {
	return testutil.DltMessageSpec{
		EcuID:     "ECU1",
		AppID:     app,
		ContextID: ctx,
		Level:     uint8(level),
		Text:      "x",
		Seconds:   1600000000,
	}
}

func TestCollectStatistics(t *testing.T) {
	var raw []byte
	for i := 0; i < 3; i++ {
		raw = append(raw, testutil.BuildDltMessage(statsSpec("APP1", "CTXA", dlt.LevelInfo))...)
	}
	for i := 0; i < 2; i++ {
		raw = append(raw, testutil.BuildDltMessage(statsSpec("APP2", "CTXB", dlt.LevelError))...)
	}
	inFile := testutil.TempFile(t, raw)

	events := make(chan progress.Event[*dlt.StatisticInfo], 1024)
	testutil.AssertNoError(t, CollectStatistics(context.Background(), inFile, events))
	close(events)

	var info *dlt.StatisticInfo
	finished := false
	for event := range events {
		switch event.Kind {
		case progress.EventGotItem:
			info = event.Item
		case progress.EventFinished:
			finished = true
		case progress.EventNotify:
			t.Errorf("unexpected notification: %s", event.Note.Content)
		}
	}
	if !finished {
		t.Fatal("expected Finished")
	}
	if info == nil {
		t.Fatal("expected a statistic item")
	}

	if info.AppIDs["APP1"].LogInfo != 3 {
		t.Errorf("unexpected APP1 distribution: %+v", info.AppIDs["APP1"])
	}
	if info.AppIDs["APP2"].LogError != 2 {
		t.Errorf("unexpected APP2 distribution: %+v", info.AppIDs["APP2"])
	}
	if info.ContextIDs["CTXA"].LogInfo != 3 || info.ContextIDs["CTXB"].LogError != 2 {
		t.Error("context id distribution broken")
	}
	dist := info.EcuIDs["ECU1"]
	if dist == nil || dist.LogInfo != 3 || dist.LogError != 2 {
		t.Errorf("unexpected ECU distribution: %+v", dist)
	}
	if info.ContainedNonVerbose {
		t.Error("all messages are verbose")
	}
}

func TestCollectStatisticsSurvivesCorruption(t *testing.T) {
	raw := uniformMessages(6)
	for i := frameSize; i < 2*frameSize; i++ {
		raw[i] = 0xee
	}
	inFile := testutil.TempFile(t, raw)

	events := make(chan progress.Event[*dlt.StatisticInfo], 1024)
	testutil.AssertNoError(t, CollectStatistics(context.Background(), inFile, events))
	close(events)

	var info *dlt.StatisticInfo
	for event := range events {
		if event.Kind == progress.EventGotItem {
			info = event.Item
		}
	}
	if info == nil {
		t.Fatal("expected a statistic item")
	}
	if got := info.AppIDs["APP1"].LogInfo; got != 5 {
		t.Errorf("expected 5 surviving messages, got %d", got)
	}
}
