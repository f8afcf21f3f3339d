package core

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// streamChunkBuffer is the channel buffer for decoded chunks.
const streamChunkBuffer = 16

// ChunkType identifies a stream chunk variant.
type ChunkType string

const (
	ChunkTypeThreadMetadata  ChunkType = "thread_metadata_chunk"
	ChunkTypeAssistantAction ChunkType = "assistant_action_chunk"
	ChunkTypeArtifactUpdate  ChunkType = "artifact_update_chunk"
	ChunkTypeError           ChunkType = "error_chunk"
)

// StreamChunk is one decoded unit of a streamed query response.
// Concrete types: ThreadMetadataChunk, AssistantActionChunk,
// ArtifactUpdateChunk, ErrorChunk.
type StreamChunk interface {
	// Type returns the chunk discriminator.
	Type() ChunkType
}

// ThreadMetadataChunk announces the server-assigned thread ID.
// It is the first chunk of a stream.
type ThreadMetadataChunk struct {
	ThreadID uuid.UUID `json:"thread_id"`
}

// Type returns the chunk discriminator.
func (*ThreadMetadataChunk) Type() ChunkType { return ChunkTypeThreadMetadata }

// AssistantActionChunk carries an incremental update to the assistant action
// at Index. Field values are deltas and concatenate across chunks with the
// same index.
type AssistantActionChunk struct {
	Message    string `json:"message,omitempty"`
	Plan       string `json:"plan,omitempty"`
	Code       string `json:"code,omitempty"`
	CodeOutput string `json:"code_output,omitempty"`
	CodeError  string `json:"code_error,omitempty"`
	Index      int    `json:"index"`
}

// Type returns the chunk discriminator.
func (*AssistantActionChunk) Type() ChunkType { return ChunkTypeAssistantAction }

// ArtifactUpdateChunk carries an artifact created or updated mid-stream.
type ArtifactUpdateChunk struct {
	Artifact Artifact `json:"artifact"`
}

// Type returns the chunk discriminator.
func (*ArtifactUpdateChunk) Type() ChunkType { return ChunkTypeArtifactUpdate }

// ErrorChunk carries a server-reported error. The stream stops after it.
type ErrorChunk struct {
	Error string `json:"error"`
}

// Type returns the chunk discriminator.
func (*ErrorChunk) Type() ChunkType { return ChunkTypeError }

// decodeChunk decodes one wire chunk into its concrete type.
func decodeChunk(payload []byte) (StreamChunk, error) {
	var envelope struct {
		Type ChunkType `json:"type"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, err
	}

	switch envelope.Type {
	case ChunkTypeThreadMetadata:
		var chunk ThreadMetadataChunk
		if err := json.Unmarshal(payload, &chunk); err != nil {
			return nil, err
		}
		return &chunk, nil
	case ChunkTypeAssistantAction:
		var chunk AssistantActionChunk
		if err := json.Unmarshal(payload, &chunk); err != nil {
			return nil, err
		}
		return &chunk, nil
	case ChunkTypeArtifactUpdate:
		var chunk ArtifactUpdateChunk
		if err := json.Unmarshal(payload, &chunk); err != nil {
			return nil, err
		}
		return &chunk, nil
	case ChunkTypeError:
		var chunk ErrorChunk
		if err := json.Unmarshal(payload, &chunk); err != nil {
			return nil, err
		}
		return &chunk, nil
	default:
		return nil, fmt.Errorf("unknown chunk type %q", envelope.Type)
	}
}

// QueryStream represents a streaming query response.
//
// Channel Rules:
//   - The client closes Ch, Err, and Final when the stream finishes
//   - On context cancellation the stream terminates promptly and the
//     underlying connection is released
//   - Err emits at most one error
//   - Final emits exactly once on success (zero times on failure), carrying
//     the response assembled from all chunks
//
// The stream is finite, single-pass, and cannot be restarted. A malformed
// chunk surfaces a decode error on Err at that point; chunks before it have
// already been delivered.
type QueryStream struct {
	// Ch emits decoded chunks in arrival order. Closed when the stream ends.
	Ch <-chan StreamChunk

	// Err emits at most one error.
	Err <-chan error

	// Final carries the complete response assembled from the chunks.
	Final <-chan *QueryResponse
}

// doStreamQuery performs a streaming query request.
func (c *Client) doStreamQuery(ctx context.Context, body any) (*QueryStream, error) {
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

	requestID := resp.Header.Get("x-request-id")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, normalizeError(resp.StatusCode, respBody, requestID)
	}

	chunkCh := make(chan StreamChunk, streamChunkBuffer)
	errCh := make(chan error, 1)
	finalCh := make(chan *QueryResponse, 1)

	go c.processStream(ctx, resp.Body, chunkCh, errCh, finalCh)

	return &QueryStream{
		Ch:    chunkCh,
		Err:   errCh,
		Final: finalCh,
	}, nil
}

// processStream reads the chunked body and emits decoded chunks.
func (c *Client) processStream(
	ctx context.Context,
	body io.ReadCloser,
	chunkCh chan<- StreamChunk,
	errCh chan<- error,
	finalCh chan<- *QueryResponse,
) {
	defer body.Close()
	defer close(chunkCh)
	defer close(errCh)
	defer close(finalCh)

	reader := bufio.NewReader(body)
	assembler := newResponseAssembler()

	for {
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
			return
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			if ctx.Err() != nil {
				errCh <- ctx.Err()
				return
			}
			errCh <- newNetworkError(err)
			return
		}

		// A stream may end without a trailing newline; the remainder is
		// still a chunk and must not be dropped.
		line = strings.TrimSpace(line)

		// Empty keep-alive and "event:" lines carry no payload
		if strings.HasPrefix(line, "data:") {
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

			chunk, decErr := decodeChunk([]byte(payload))
			if decErr != nil {
				errCh <- newDecodeError(decErr)
				return
			}

			select {
			case chunkCh <- chunk:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}

			if errChunk, ok := chunk.(*ErrorChunk); ok {
				errCh <- &APIError{
					Code:    "error_chunk",
					Message: errChunk.Error,
					Err:     ErrServer,
				}
				return
			}

			assembler.apply(chunk)
		}

		if err == io.EOF {
			break
		}
	}

	finalCh <- assembler.response()
}

// responseAssembler accumulates stream chunks into a QueryResponse.
type responseAssembler struct {
	threadID  uuid.UUID
	actions   []AssistantAction
	artifacts []Artifact
}

func newResponseAssembler() *responseAssembler {
	return &responseAssembler{}
}

// apply folds one chunk into the accumulated response.
func (a *responseAssembler) apply(chunk StreamChunk) {
	switch c := chunk.(type) {
	case *ThreadMetadataChunk:
		a.threadID = c.ThreadID
	case *AssistantActionChunk:
		for len(a.actions) <= c.Index {
			a.actions = append(a.actions, AssistantAction{})
		}
		action := &a.actions[c.Index]
		action.Message += c.Message
		action.Plan += c.Plan
		action.Code += c.Code
		action.CodeOutput += c.CodeOutput
		action.CodeError += c.CodeError
	case *ArtifactUpdateChunk:
		a.artifacts = upsertArtifact(a.artifacts, c.Artifact)
	}
}

func (a *responseAssembler) response() *QueryResponse {
	return &QueryResponse{
		ThreadID:          a.threadID,
		AssistantActions:  a.actions,
		ModifiedArtifacts: a.artifacts,
	}
}

// DrainStream consumes all chunks and returns the assembled QueryResponse.
// Blocks until the stream completes or the context cancels.
func DrainStream(ctx context.Context, s *QueryStream) (*QueryResponse, error) {
	if s == nil {
		return nil, ErrBadRequest
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case _, ok := <-s.Ch:
			if !ok {
				return drainResult(ctx, s)
			}
		}
	}
}

// drainResult collects the error or final response after Ch is closed.
func drainResult(ctx context.Context, s *QueryStream) (*QueryResponse, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err, ok := <-s.Err:
		if ok && err != nil {
			return nil, err
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp, ok := <-s.Final:
		if !ok {
			return nil, &APIError{
				Code:    "stream_incomplete",
				Message: "stream ended without a final response",
				Err:     ErrDecode,
			}
		}
		return resp, nil
	}
}
