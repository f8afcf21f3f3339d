package core

import (
	"context"
)

// Conversation provides a high-level API for multi-turn queries with
// automatic history and artifact management.
//
// A Conversation is NOT safe for concurrent use: sending a message appends
// the user turn and the assistant's response as two separate mutations of
// shared state. Callers needing concurrency must synchronize externally.
type Conversation struct {
	client             *Client
	systemInstructions string
	timezone           string
	interactions       []Interaction
	artifacts          []Artifact
}

// ConversationOption configures a Conversation.
type ConversationOption func(*Conversation)

// WithSystemInstructions sets system instructions for the conversation.
// Accepted but ignored when the client is in v2 mode: build-based requests
// carry their own instructions server-side.
func WithSystemInstructions(instructions string) ConversationOption {
	return func(c *Conversation) {
		c.systemInstructions = instructions
	}
}

// WithConversationTimezone overrides the client timezone for this
// conversation.
func WithConversationTimezone(tz string) ConversationOption {
	return func(c *Conversation) {
		c.timezone = tz
	}
}

// NewConversation creates a fresh conversation bound to this client.
// Conversation state is process-local and in-memory only.
func (c *Client) NewConversation(opts ...ConversationOption) *Conversation {
	conv := &Conversation{client: c}
	for _, opt := range opts {
		opt(conv)
	}
	return conv
}

// queryBuilder assembles a query carrying the conversation context.
func (c *Conversation) queryBuilder(message string, prior []Interaction) *QueryBuilder {
	builder := c.client.Query(message).
		Interactions(prior...).
		Artifacts(c.artifacts...)

	if c.systemInstructions != "" {
		builder = builder.SystemInstructions(c.systemInstructions)
	}
	if c.timezone != "" {
		builder = builder.Timezone(c.timezone)
	}
	return builder
}

// SendMessage sends a user message and returns the complete response.
//
// The user turn is appended to the log before the request is issued; on
// success the assistant actions and modified artifacts are appended as well.
// If the request fails the user turn remains in the log with no assistant
// actions.
func (c *Conversation) SendMessage(ctx context.Context, text string) (*QueryResponse, error) {
	prior := c.interactions
	c.interactions = append(c.interactions, Interaction{UserMessage: UserMessage{Text: text}})

	resp, err := c.queryBuilder(text, prior).GetResponse(ctx)
	if err != nil {
		return nil, err
	}

	c.commit(resp.AssistantActions, resp.ModifiedArtifacts)
	return resp, nil
}

// SendMessageStream sends a user message and returns a streaming response.
//
// Chunks are forwarded to the caller unchanged while the conversation
// assembles the assistant actions and artifact updates behind the scenes.
// The log is committed only when the stream ends cleanly; an aborted stream
// leaves the user turn in the log with no assistant actions.
func (c *Conversation) SendMessageStream(ctx context.Context, text string) (*QueryStream, error) {
	prior := c.interactions
	c.interactions = append(c.interactions, Interaction{UserMessage: UserMessage{Text: text}})

	stream, err := c.queryBuilder(text, prior).Stream(ctx)
	if err != nil {
		return nil, err
	}

	return c.tee(ctx, stream), nil
}

// tee forwards the stream to the caller and commits the assembled response
// to the conversation log when it completes. The forwarding goroutine exits
// on context cancellation even when the caller has stopped reading; an
// abandoned stream is never committed.
func (c *Conversation) tee(ctx context.Context, stream *QueryStream) *QueryStream {
	chunkCh := make(chan StreamChunk, streamChunkBuffer)
	errCh := make(chan error, 1)
	finalCh := make(chan *QueryResponse, 1)

	go func() {
		defer close(chunkCh)
		defer close(errCh)
		defer close(finalCh)

		for chunk := range stream.Ch {
			select {
			case chunkCh <- chunk:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}

		if err, ok := <-stream.Err; ok && err != nil {
			errCh <- err
			return
		}
		if resp, ok := <-stream.Final; ok && resp != nil {
			c.commit(resp.AssistantActions, resp.ModifiedArtifacts)
			finalCh <- resp
		}
	}()

	return &QueryStream{
		Ch:    chunkCh,
		Err:   errCh,
		Final: finalCh,
	}
}

// commit records the assistant's side of the latest turn.
func (c *Conversation) commit(actions []AssistantAction, artifacts []Artifact) {
	c.interactions[len(c.interactions)-1].AssistantActions = actions
	for _, art := range artifacts {
		c.artifacts = upsertArtifact(c.artifacts, art)
	}
}

// History returns a copy of the interaction log in turn order.
func (c *Conversation) History() []Interaction {
	result := make([]Interaction, len(c.interactions))
	copy(result, c.interactions)
	return result
}

// Artifacts returns the accumulated artifacts in creation order.
// An artifact updated in a later turn keeps its original position; the
// latest content wins.
func (c *Conversation) Artifacts() []Artifact {
	result := make([]Artifact, len(c.artifacts))
	copy(result, c.artifacts)
	return result
}

// Len returns the number of interactions in the conversation.
func (c *Conversation) Len() int {
	return len(c.interactions)
}

// Clear resets the interaction log and artifact set.
// System instructions and the timezone override are kept.
func (c *Conversation) Clear() {
	c.interactions = nil
	c.artifacts = nil
}
