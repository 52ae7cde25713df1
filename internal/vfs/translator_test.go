package vfs

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"vfswatch/internal/logging"
)

type recordingHandler struct {
	events    []ChangeEvent
	lostState int
}

func (h *recordingHandler) HandleChange(event ChangeEvent) {
	h.events = append(h.events, event)
}

func (h *recordingHandler) HandleLostState() {
	h.lostState++
}

func newTestTranslator() (*eventTranslator, *recordingHandler, *logging.Buffer) {
	handler := &recordingHandler{}
	buffer := logging.NewBuffer(10)
	translator := &eventTranslator{
		stats:   newAccumulator(),
		handler: handler,
		logger:  logging.NewLoggerWithOutput(buffer, logging.LevelInfo, io.Discard),
	}
	return translator, handler, buffer
}

func TestTranslatorMapsKnownKinds(t *testing.T) {
	translator, handler, _ := newTestTranslator()

	inputs := []struct {
		native NativeEventKind
		want   EventKind
	}{
		{NativeCreated, KindCreated},
		{NativeModified, KindModified},
		{NativeRemoved, KindRemoved},
		{NativeInvalidate, KindInvalidate},
	}
	for _, input := range inputs {
		translator.OnPathChanged(input.native, "/project/src/main.go")
	}

	if len(handler.events) != len(inputs) {
		t.Fatalf("expected %d change events, got %d", len(inputs), len(handler.events))
	}
	for i, input := range inputs {
		if handler.events[i].Kind != input.want {
			t.Fatalf("event %d: expected kind %v, got %v", i, input.want, handler.events[i].Kind)
		}
	}
	if handler.lostState != 0 {
		t.Fatalf("expected no lost-state signals, got %d", handler.lostState)
	}

	stats := translator.stats.snapshotAndReset()
	if stats.ReceivedEventCount != len(inputs) {
		t.Fatalf("expected %d received events, got %d", len(inputs), stats.ReceivedEventCount)
	}
}

func TestTranslatorNormalizesPaths(t *testing.T) {
	translator, handler, _ := newTestTranslator()

	translator.OnPathChanged(NativeModified, "/project/src/../src/main.go")

	if len(handler.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(handler.events))
	}
	path := handler.events[0].Path
	if !filepath.IsAbs(path) {
		t.Fatalf("expected absolute path, got %q", path)
	}
	if path != filepath.FromSlash("/project/src/main.go") {
		t.Fatalf("expected cleaned path, got %q", path)
	}
}

func TestTranslatorUnknownKindSignalsLostState(t *testing.T) {
	translator, handler, _ := newTestTranslator()

	translator.OnPathChanged(NativeUnknown, "/project/src/main.go")

	if len(handler.events) != 0 {
		t.Fatalf("expected no change events, got %d", len(handler.events))
	}
	if handler.lostState != 1 {
		t.Fatalf("expected exactly one lost-state signal, got %d", handler.lostState)
	}

	stats := translator.stats.snapshotAndReset()
	if !stats.UnknownEventEncountered {
		t.Fatal("expected unknown flag set")
	}
	if stats.ReceivedEventCount != 0 {
		t.Fatalf("expected unknown event to not count, got %d", stats.ReceivedEventCount)
	}
}

func TestTranslatorErrorRecordsAndSignals(t *testing.T) {
	translator, handler, buffer := newTestTranslator()

	streamErr := errors.New("queue overflow")
	translator.OnError(streamErr)

	if handler.lostState != 1 {
		t.Fatalf("expected one lost-state signal, got %d", handler.lostState)
	}
	stats := translator.stats.snapshotAndReset()
	if !errors.Is(stats.LastError, streamErr) {
		t.Fatalf("expected stream error recorded, got %v", stats.LastError)
	}

	entries := buffer.List()
	if len(entries) != 1 || entries[0].Level != logging.LevelError {
		t.Fatalf("expected one error log entry, got %v", entries)
	}
}

func TestTranslatorNilErrorIgnored(t *testing.T) {
	translator, handler, _ := newTestTranslator()

	translator.OnError(nil)

	if handler.lostState != 0 {
		t.Fatalf("expected no lost-state signal, got %d", handler.lostState)
	}
}

func TestKindFromNativePanicsOnUnmappedKind(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unmapped kind")
		}
	}()
	kindFromNative(NativeEventKind(42))
}
