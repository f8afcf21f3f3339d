package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// recordingHook captures telemetry events. Guarded by a mutex because the
// stream end event fires from the stream goroutine.
type recordingHook struct {
	mu     sync.Mutex
	starts []QueryStartEvent
	ends   []QueryEndEvent
}

func (h *recordingHook) OnQueryStart(e QueryStartEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.starts = append(h.starts, e)
}

func (h *recordingHook) OnQueryEnd(e QueryEndEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ends = append(h.ends, e)
}

func (h *recordingHook) endEvents() []QueryEndEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]QueryEndEvent(nil), h.ends...)
}

func TestTelemetryQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(newTestResponse())
	}))
	defer server.Close()

	hook := &recordingHook{}
	c, err := New("test-key", WithBaseURL(server.URL), WithTelemetry(hook))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := c.Query("How many orders yesterday?").GetResponse(context.Background()); err != nil {
		t.Fatalf("GetResponse() error = %v", err)
	}

	if len(hook.starts) != 1 || len(hook.ends) != 1 {
		t.Fatalf("events = %d starts, %d ends, want 1 each", len(hook.starts), len(hook.ends))
	}

	start := hook.starts[0]
	if start.Version != APIVersionV2 {
		t.Errorf("start Version = %q, want v2", start.Version)
	}
	if start.Interactions != 1 {
		t.Errorf("start Interactions = %d, want 1", start.Interactions)
	}
	if start.Streaming {
		t.Error("start Streaming = true, want false")
	}

	end := hook.ends[0]
	if end.Err != nil {
		t.Errorf("end Err = %v, want nil", end.Err)
	}
	if end.ThreadID.String() != testThreadID {
		t.Errorf("end ThreadID = %s, want %s", end.ThreadID, testThreadID)
	}
	if end.Duration() < 0 {
		t.Errorf("Duration() = %v, want non-negative", end.Duration())
	}
}

func TestTelemetryQueryError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	}))
	defer server.Close()

	hook := &recordingHook{}
	c, err := New("test-key", WithBaseURL(server.URL), WithTelemetry(hook))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := c.Query("Hello").GetResponse(context.Background()); err == nil {
		t.Fatal("GetResponse() should fail")
	}

	if len(hook.ends) != 1 {
		t.Fatalf("end events = %d, want 1", len(hook.ends))
	}
	if hook.ends[0].Err == nil {
		t.Error("end Err should carry the query failure")
	}
}

func TestTelemetryStream(t *testing.T) {
	server := newStreamServer(t, streamLines())
	defer server.Close()

	hook := &recordingHook{}
	c, err := New("test-key", WithBaseURL(server.URL), WithTelemetry(hook))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stream, err := c.Query("How many orders yesterday?").Stream(context.Background())
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	if _, err := DrainStream(context.Background(), stream); err != nil {
		t.Fatalf("DrainStream() error = %v", err)
	}

	if len(hook.starts) != 1 {
		t.Fatalf("start events = %d, want 1", len(hook.starts))
	}
	if !hook.starts[0].Streaming {
		t.Error("start Streaming = false, want true")
	}

	// The end event fires once the stream completes.
	deadline := time.After(time.Second)
	var ends []QueryEndEvent
	for len(ends) == 0 {
		select {
		case <-deadline:
			t.Fatal("no end event after stream completion")
		default:
			time.Sleep(5 * time.Millisecond)
			ends = hook.endEvents()
		}
	}
	end := ends[0]
	if !end.Streaming {
		t.Error("end Streaming = false, want true")
	}
	if end.ThreadID.String() != testThreadID {
		t.Errorf("end ThreadID = %s, want %s", end.ThreadID, testThreadID)
	}
}

func TestTelemetryStreamAbandoned(t *testing.T) {
	server := newFloodStreamServer(t, 100)
	defer server.Close()

	hook := &recordingHook{}
	c, err := New("test-key", WithBaseURL(server.URL), WithTelemetry(hook))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := c.Query("Hello").Stream(ctx)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	// Read one chunk, cancel, and stop reading entirely.
	<-stream.Ch
	cancel()

	// The end event must still fire; the forwarder must not hang on an
	// unread channel.
	deadline := time.After(2 * time.Second)
	var ends []QueryEndEvent
	for len(ends) == 0 {
		select {
		case <-deadline:
			t.Fatal("no end event after cancelling an abandoned stream")
		default:
			time.Sleep(5 * time.Millisecond)
			ends = hook.endEvents()
		}
	}
	if ends[0].Err == nil {
		t.Error("end Err should carry the cancellation")
	}

	// All channels close once the forwarder exits.
	for range stream.Ch {
	}
	if _, ok := <-stream.Final; ok {
		t.Error("no final response expected for an abandoned stream")
	}
}

func TestQueryEndEventDuration(t *testing.T) {
	start := time.Now()
	e := QueryEndEvent{Start: start, End: start.Add(250 * time.Millisecond)}
	if e.Duration() != 250*time.Millisecond {
		t.Errorf("Duration() = %v, want 250ms", e.Duration())
	}
}
