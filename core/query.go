package core

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

// QueryBuilder provides a fluent API for building query requests.
// QueryBuilder is NOT thread-safe and should not be shared across goroutines.
type QueryBuilder struct {
	client             *Client
	message            string
	artifacts          []Artifact
	history            []Interaction
	systemInstructions string
	timezone           string
}

// Artifacts supplies artifacts referenced by the query.
func (b *QueryBuilder) Artifacts(arts ...Artifact) *QueryBuilder {
	b.artifacts = append(b.artifacts, arts...)
	return b
}

// Interactions prepends prior conversation turns to the request, preserving
// context across multiple queries.
func (b *QueryBuilder) Interactions(prior ...Interaction) *QueryBuilder {
	b.history = append(b.history, prior...)
	return b
}

// SystemInstructions sets system instructions for the query.
// Only honored by the v1 API; v2 builds carry their own instructions, so the
// value is accepted but ignored in v2 mode.
func (b *QueryBuilder) SystemInstructions(s string) *QueryBuilder {
	b.systemInstructions = s
	return b
}

// Timezone overrides the client timezone for this query.
func (b *QueryBuilder) Timezone(tz string) *QueryBuilder {
	b.timezone = tz
	return b
}

// validate checks that the request is valid.
func (b *QueryBuilder) validate() error {
	if strings.TrimSpace(b.message) == "" {
		return ErrEmptyMessage
	}
	return nil
}

// interactions returns the full history including the new user turn.
func (b *QueryBuilder) interactions() []Interaction {
	result := make([]Interaction, 0, len(b.history)+1)
	result = append(result, b.history...)
	result = append(result, Interaction{UserMessage: UserMessage{Text: b.message}})
	return result
}

// buildBody constructs the wire request for the client's API version.
func (b *QueryBuilder) buildBody(stream bool) any {
	cfg := &b.client.config

	timezone := b.timezone
	if timezone == "" {
		timezone = cfg.Timezone
	}

	artifacts := b.artifacts
	if artifacts == nil {
		artifacts = []Artifact{}
	}

	if b.client.version == APIVersionV1 {
		return queryRequestV1{
			Version:         APIVersionV1,
			PromptQLAPIKey:  cfg.APIKey.Expose(),
			LLM:             cfg.LLM,
			AIPrimitivesLLM: cfg.AIPrimitivesLLM,
			DDN: DDNConfig{
				URL:     cfg.DDNURL,
				Headers: cfg.DDNHeaders,
			},
			SystemInstructions: b.systemInstructions,
			Stream:             stream,
			Artifacts:          artifacts,
			Timezone:           timezone,
			Interactions:       b.interactions(),
		}
	}

	return queryRequestV2{
		Version: APIVersionV2,
		DDN: DDNConfigV2{
			BuildID:      cfg.BuildID,
			BuildVersion: cfg.BuildVersion,
			Headers:      cfg.DDNHeaders,
		},
		Stream:       stream,
		Artifacts:    artifacts,
		Timezone:     timezone,
		Interactions: b.interactions(),
	}
}

// GetResponse executes the query and returns the complete response.
func (b *QueryBuilder) GetResponse(ctx context.Context) (*QueryResponse, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	version := b.client.version
	interactions := len(b.history) + 1

	b.client.config.Telemetry.OnQueryStart(QueryStartEvent{
		Version:      version,
		Interactions: interactions,
		Start:        start,
	})

	resp, err := b.client.doQuery(ctx, b.buildBody(false))

	event := QueryEndEvent{
		Version: version,
		Start:   start,
		End:     time.Now(),
		Err:     err,
	}
	if resp != nil {
		event.ThreadID = resp.ThreadID
	}
	b.client.config.Telemetry.OnQueryEnd(event)

	return resp, err
}

// Stream executes the query and returns a streaming response.
// The telemetry end event fires when the stream finishes.
func (b *QueryBuilder) Stream(ctx context.Context) (*QueryStream, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	version := b.client.version

	b.client.config.Telemetry.OnQueryStart(QueryStartEvent{
		Version:      version,
		Interactions: len(b.history) + 1,
		Streaming:    true,
		Start:        start,
	})

	stream, err := b.client.doStreamQuery(ctx, b.buildBody(true))
	if err != nil {
		b.client.config.Telemetry.OnQueryEnd(QueryEndEvent{
			Version:   version,
			Streaming: true,
			Start:     start,
			End:       time.Now(),
			Err:       err,
		})
		return nil, err
	}

	return wrapStreamWithTelemetry(ctx, stream, b.client.config.Telemetry, version, start), nil
}

// doQuery performs a non-streaming query request.
func (c *Client) doQuery(ctx context.Context, body any) (*QueryResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, newDecodeError(err)
	}

	url := c.config.BaseURL + queryPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, newNetworkError(err)
	}

	for key, values := range c.buildHeaders() {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	resp, err := c.config.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, newNetworkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newNetworkError(err)
	}

	requestID := resp.Header.Get("x-request-id")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, normalizeError(resp.StatusCode, respBody, requestID)
	}

	var queryResp QueryResponse
	if err := json.Unmarshal(respBody, &queryResp); err != nil {
		return nil, newDecodeError(err)
	}

	return &queryResp, nil
}

// wrapStreamWithTelemetry wraps a QueryStream to emit telemetry on completion.
// The forwarding goroutine exits on context cancellation even when the caller
// has stopped reading, so an abandoned stream still closes its channels and
// fires the end event.
func wrapStreamWithTelemetry(
	ctx context.Context,
	stream *QueryStream,
	hook TelemetryHook,
	version APIVersion,
	start time.Time,
) *QueryStream {
	chunkCh := make(chan StreamChunk, streamChunkBuffer)
	errCh := make(chan error, 1)
	finalCh := make(chan *QueryResponse, 1)

	go func() {
		defer close(chunkCh)
		defer close(errCh)
		defer close(finalCh)

		event := QueryEndEvent{
			Version:   version,
			Streaming: true,
			Start:     start,
		}

		for chunk := range stream.Ch {
			select {
			case chunkCh <- chunk:
			case <-ctx.Done():
				event.Err = ctx.Err()
				event.End = time.Now()
				errCh <- ctx.Err()
				hook.OnQueryEnd(event)
				return
			}
		}

		if err, ok := <-stream.Err; ok && err != nil {
			event.Err = err
			errCh <- err
		}
		if resp, ok := <-stream.Final; ok && resp != nil {
			event.ThreadID = resp.ThreadID
			finalCh <- resp
		}

		event.End = time.Now()
		hook.OnQueryEnd(event)
	}()

	return &QueryStream{
		Ch:    chunkCh,
		Err:   errCh,
		Final: finalCh,
	}
}
