// Package core provides the PromptQL SDK client and types for the PromptQL
// Natural Language API.
//
// # Client
//
// The primary entry point is [Client], created with an API key and options
// selecting one of the two API variants:
//
//	// v1: explicit DDN connection and LLM provider
//	client, err := core.New(apiKey,
//	    core.WithDDN("https://my-project.hasura.app/v1/sql"),
//	    core.WithLLMProvider(core.HasuraLLMProvider{}),
//	)
//
//	// v2: server-side build (applied build when no selector is given)
//	client, err := core.New(apiKey, core.WithBuildVersion("505331f4b2"))
//
// Construction fails fast on conflicting configuration: mixing v1 options
// with build selectors, or setting both a build ID and a build version.
//
// # Queries
//
// [Client.Query] returns a [QueryBuilder] with a fluent API:
//
//	resp, err := client.Query("What were last month's top orders?").
//	    Artifacts(salesTable).
//	    GetResponse(ctx)
//
// # Streaming
//
// Use [QueryBuilder.Stream] for incremental responses:
//
//	stream, err := client.Query("Summarize recent signups").Stream(ctx)
//	if err != nil {
//	    return err
//	}
//	for chunk := range stream.Ch {
//	    if action, ok := chunk.(*core.AssistantActionChunk); ok {
//	        fmt.Print(action.Message)
//	    }
//	}
//
// The [QueryStream] type provides three channels:
//   - Ch: emits decoded chunks in arrival order
//   - Err: emits at most one error
//   - Final: emits the response assembled from all chunks
//
// Use [DrainStream] to collapse a stream into a single [QueryResponse].
// Abandoning a stream early is done by cancelling the context passed to
// Stream, which releases the underlying connection.
//
// # Conversations
//
// [Client.NewConversation] creates a [Conversation] that accumulates turns
// and artifacts, replaying them into each subsequent request:
//
//	conv := client.NewConversation(
//	    core.WithSystemInstructions("You are a data analyst."),
//	)
//	resp, err := conv.SendMessage(ctx, "How many users signed up today?")
//
// Conversation state is process-local and in-memory only, and a Conversation
// is not safe for concurrent use.
//
// # Error Handling
//
// Failures carry sentinel errors checkable with errors.Is:
//   - [ErrUnauthorized], [ErrRateLimited], [ErrBadRequest], [ErrNotFound],
//     [ErrServer]: non-2xx API responses (wrapped in [APIError] with the
//     status and vendor payload)
//   - [ErrNetwork]: transport failures
//   - [ErrDecode]: malformed response or stream chunk
//
// The client never retries internally; apply [WithTimeout] for a request
// deadline and handle transient failures at the call site.
package core
