package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hasura/promptql-go-sdk/core"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitAPI        = 2
	ExitNetwork    = 3
)

var queryStream bool

var queryCmd = &cobra.Command{
	Use:   "query <message>",
	Short: "Send a one-shot natural language query",
	Long: `Send a single natural language query to the PromptQL API.

Examples:
  promptql query "How many orders were placed yesterday?"
  promptql query "Summarize recent signups" --stream
  promptql query "Top customers by revenue" --json`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().BoolVar(&queryStream, "stream", false, "stream the response as it arrives")
}

func runQuery(cmd *cobra.Command, args []string) error {
	message := args[0]

	client, err := newClient()
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	ctx := context.Background()

	if queryStream {
		return runStreamingQuery(ctx, client, message)
	}
	return runNonStreamingQuery(ctx, client, message)
}

func runNonStreamingQuery(ctx context.Context, client *core.Client, message string) error {
	resp, err := client.Query(message).GetResponse(ctx)
	if err != nil {
		return handleQueryError(err)
	}

	if IsJSONOutput() {
		return outputJSON(resp)
	}

	printActions(resp.AssistantActions)
	printArtifactSummary(resp.ModifiedArtifacts)
	return nil
}

func runStreamingQuery(ctx context.Context, client *core.Client, message string) error {
	stream, err := client.Query(message).Stream(ctx)
	if err != nil {
		return handleQueryError(err)
	}

	if IsJSONOutput() {
		// Accumulate for JSON output
		resp, err := core.DrainStream(ctx, stream)
		if err != nil {
			return handleQueryError(err)
		}
		return outputJSON(resp)
	}

	var streamErr error

	for chunk := range stream.Ch {
		if action, ok := chunk.(*core.AssistantActionChunk); ok {
			fmt.Print(action.Message)
		}
	}

	select {
	case err := <-stream.Err:
		if err != nil {
			streamErr = err
		}
	default:
	}

	var final *core.QueryResponse
	select {
	case resp := <-stream.Final:
		final = resp
	default:
	}

	fmt.Println()

	if streamErr != nil {
		return handleQueryError(streamErr)
	}

	if final != nil {
		printArtifactSummary(final.ModifiedArtifacts)
		if IsVerbose() {
			fmt.Fprintf(os.Stderr, "Thread: %s\n", final.ThreadID)
		}
	}

	return nil
}

// printActions renders assistant actions as text output.
func printActions(actions []core.AssistantAction) {
	for _, action := range actions {
		if action.Message != "" {
			fmt.Println(action.Message)
		}
		if IsVerbose() {
			if action.Plan != "" {
				fmt.Fprintf(os.Stderr, "Plan:\n%s\n", action.Plan)
			}
			if action.Code != "" {
				fmt.Fprintf(os.Stderr, "Code:\n%s\n", action.Code)
			}
			if action.CodeError != "" {
				fmt.Fprintf(os.Stderr, "Code error:\n%s\n", action.CodeError)
			}
		}
	}
}

func printArtifactSummary(artifacts []core.Artifact) {
	for _, art := range artifacts {
		fmt.Fprintf(os.Stderr, "Artifact: %s (%s, %s)\n", art.Title, art.Identifier, art.ArtifactType)
	}
}

func handleQueryError(err error) error {
	var apiErr *core.APIError
	if errors.As(err, &apiErr) {
		if IsJSONOutput() {
			outputErrorJSON(apiErr)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", apiErr.Message)
			if apiErr.RequestID != "" {
				fmt.Fprintf(os.Stderr, "  Request ID: %s\n", apiErr.RequestID)
			}
		}

		// Determine exit code based on error type
		switch {
		case errors.Is(err, core.ErrNetwork):
			return exitWithCode(ExitNetwork, err)
		default:
			return exitWithCode(ExitAPI, err)
		}
	}

	// Validation errors
	if errors.Is(err, core.ErrEmptyMessage) {
		if IsJSONOutput() {
			outputSimpleErrorJSON("validation_error", err.Error())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return exitWithCode(ExitValidation, err)
	}

	// Generic error
	if IsJSONOutput() {
		outputSimpleErrorJSON("error", err.Error())
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return exitWithCode(ExitAPI, err)
}

func outputJSON(resp *core.QueryResponse) error {
	output := map[string]interface{}{
		"thread_id":          resp.ThreadID,
		"assistant_actions":  resp.AssistantActions,
		"modified_artifacts": resp.ModifiedArtifacts,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func outputErrorJSON(apiErr *core.APIError) {
	output := map[string]interface{}{
		"error": map[string]interface{}{
			"type":       apiErr.Code,
			"message":    apiErr.Message,
			"status":     apiErr.Status,
			"request_id": apiErr.RequestID,
		},
	}

	enc := json.NewEncoder(os.Stderr)
	enc.SetIndent("", "  ")
	enc.Encode(output)
}

func outputSimpleErrorJSON(errType, message string) {
	output := map[string]interface{}{
		"error": map[string]interface{}{
			"type":    errType,
			"message": message,
		},
	}

	enc := json.NewEncoder(os.Stderr)
	enc.SetIndent("", "  ")
	enc.Encode(output)
}

// exitError wraps an error with an exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) ExitCode() int {
	return e.code
}

func exitWithCode(code int, err error) error {
	return &exitError{code: code, err: err}
}
