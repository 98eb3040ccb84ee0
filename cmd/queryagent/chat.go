package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/inferyx/queryagent/pkg/agent"
)

// runChat starts an interactive session: one question per line, one agent
// run per question. Runs until /quit, /exit, EOF, or ctx cancellation.
func runChat(ctx context.Context, qa *agent.Agent, database string, trace bool) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Printf("\nChatting with database %q. Commands:\n", database)
	fmt.Println("  /quit or /exit - End chat session")
	fmt.Println()

	for {
		if ctx.Err() != nil {
			return nil
		}

		fmt.Print("You: ")

		input, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Println()
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			switch input {
			case "/quit", "/exit":
				fmt.Println("\nChat session ended")
				return nil
			default:
				fmt.Printf("Unknown command: %s\n", input)
				continue
			}
		}

		result, err := qa.Ask(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Printf("Error: %v\n\n", err)
			continue
		}

		if trace {
			printTrace(agent.BuildTrace(result.Transcript))
		}

		if result.Outcome == agent.OutcomeRoundLimit {
			fmt.Printf("Agent: no final answer after %d rounds, try a more specific question.\n\n", result.Rounds)
			continue
		}
		fmt.Printf("Agent: %s\n\n", result.Answer)
	}
}
