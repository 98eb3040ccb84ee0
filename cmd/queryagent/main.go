// Command queryagent answers natural language questions about a MongoDB
// database.
//
// Usage:
//
//	queryagent serve --config config.yaml
//	queryagent ask "How many datapods are there?"
//	queryagent index schema
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/inferyx/queryagent/pkg/config"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Serve    ServeCmd    `cmd:"" help:"Start the HTTP server."`
	Ask      AskCmd      `cmd:"" help:"Answer a single question and exit."`
	Chat     ChatCmd     `cmd:"" help:"Interactive chat session."`
	Index    IndexCmd    `cmd:"" help:"Build the retrieval indexes."`
	Ingest   IngestCmd   `cmd:"" help:"Load sample data files into MongoDB."`
	Validate ValidateCmd `cmd:"" help:"Validate a configuration file."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)."`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple, verbose, json)."`
}

// printBanner prints a colored banner for interactive commands.
func printBanner() {
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			// Not a terminal, skip banner
			return
		}
	} else {
		return
	}

	// Green color: #10b981 = RGB(16, 185, 129)
	greenColor := "\033[38;2;16;185;129m"
	resetColor := "\033[0m"

	fmt.Printf("%squeryagent: natural language queries for MongoDB%s\n", greenColor, resetColor)
}

// shouldSkipBanner checks if command should skip banner.
// One-shot informational commands keep their output clean for piping.
func shouldSkipBanner(args []string) bool {
	if len(args) < 2 {
		return false
	}

	for _, arg := range args {
		if arg == "ask" || arg == "validate" || arg == "version" {
			return true
		}
	}
	return false
}

func main() {
	if !shouldSkipBanner(os.Args) {
		printBanner()
	}

	_ = config.LoadEnvFiles()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("queryagent"),
		kong.Description("Natural language query agent for MongoDB"),
		kong.UsageOnError(),
	)

	// Initialize logger before any command runs so config loading logs too.
	cleanup, err := initLoggerFromCLI(cli.LogLevel, cli.LogFile, cli.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
