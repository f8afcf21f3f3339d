package core

import (
	"time"

	"github.com/google/uuid"
)

// TelemetryHook receives notifications about query lifecycle events.
// Implementations can use this for logging, metrics, tracing, etc.
//
// # Security Considerations
//
// Event types are designed to NEVER include sensitive data:
//   - API keys are NEVER included (stored separately as core.Secret)
//   - Query text and interaction history are NEVER included
//   - Assistant output and artifact data are NEVER included
//   - Only operational metadata is exposed (version, counts, timing)
//
// If extending this interface, maintain these security properties.
// Never add fields that could contain: API keys, query text, assistant
// responses, artifact contents, or any other potentially sensitive content.
type TelemetryHook interface {
	// OnQueryStart is called when a query begins.
	OnQueryStart(e QueryStartEvent)

	// OnQueryEnd is called when a query completes.
	OnQueryEnd(e QueryEndEvent)
}

// QueryStartEvent contains metadata about a starting query.
type QueryStartEvent struct {
	Version      APIVersion // Active request wire format
	Interactions int        // Number of interactions sent, including the new turn
	Streaming    bool       // Whether a streamed response was requested
	Start        time.Time  // When the query started
}

// QueryEndEvent contains metadata about a completed query.
//
// For streaming queries the event fires once the stream finishes, so Duration
// covers the whole stream lifetime, not just the initial response.
type QueryEndEvent struct {
	Version   APIVersion // Active request wire format
	Streaming bool       // Whether the response was streamed
	Start     time.Time  // When the query started
	End       time.Time  // When the query completed
	ThreadID  uuid.UUID  // Server-assigned thread, zero on failure
	Err       error      // Error if the query failed, nil on success
}

// Duration returns the elapsed time for the query.
func (e QueryEndEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// NoopTelemetryHook is a no-op implementation of TelemetryHook.
// Use this as a default when no telemetry is configured.
type NoopTelemetryHook struct{}

// OnQueryStart does nothing.
func (NoopTelemetryHook) OnQueryStart(QueryStartEvent) {}

// OnQueryEnd does nothing.
func (NoopTelemetryHook) OnQueryEnd(QueryEndEvent) {}

// Compile-time check that NoopTelemetryHook implements TelemetryHook.
var _ TelemetryHook = NoopTelemetryHook{}
