package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hasura/promptql-go-sdk/core"
)

var chatSystem string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Start an interactive conversation with the PromptQL API.

History and artifacts accumulate across turns. Inside the session:
  /artifacts   list accumulated artifacts
  /clear       reset the conversation
  exit         leave the session`,
	RunE: runChatSession,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVar(&chatSystem, "system", "", "system instructions (v1 mode only)")
}

func runChatSession(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	var convOpts []core.ConversationOption
	if chatSystem != "" {
		convOpts = append(convOpts, core.WithSystemInstructions(chatSystem))
	}
	conv := client.NewConversation(convOpts...)

	fmt.Println("PromptQL interactive session. Type 'exit' to quit, '/artifacts' or '/clear' for session commands.")

	scanner := bufio.NewScanner(os.Stdin)
	ctx := context.Background()

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return nil
		case line == "/artifacts":
			listArtifacts(conv)
			continue
		case line == "/clear":
			conv.Clear()
			fmt.Println("Conversation cleared.")
			continue
		}

		if err := streamTurn(ctx, conv, line); err != nil {
			// Report the turn's failure and keep the session alive.
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}

// streamTurn sends one message and prints the streamed response.
func streamTurn(ctx context.Context, conv *core.Conversation, message string) error {
	stream, err := conv.SendMessageStream(ctx, message)
	if err != nil {
		return err
	}

	for chunk := range stream.Ch {
		if action, ok := chunk.(*core.AssistantActionChunk); ok {
			fmt.Print(action.Message)
		}
	}
	fmt.Println()

	if err, ok := <-stream.Err; ok && err != nil {
		return err
	}

	if resp, ok := <-stream.Final; ok && resp != nil {
		printArtifactSummary(resp.ModifiedArtifacts)
	}
	return nil
}

func listArtifacts(conv *core.Conversation) {
	artifacts := conv.Artifacts()
	if len(artifacts) == 0 {
		fmt.Println("No artifacts.")
		return
	}
	for _, art := range artifacts {
		fmt.Printf("  - %s (%s, %s)\n", art.Title, art.Identifier, art.ArtifactType)
	}
}
