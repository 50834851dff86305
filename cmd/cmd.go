// Package cmd provides the docchat CLI commands.
//
// Commands:
//   - chat: interactive question loop over the indexed documents
//   - serve: HTTP API server with a small web client
//   - index: (re)build the vector index from the documents directory
//   - smoke: connectivity check against the hosted inference providers
//
// Signal handling and graceful shutdown are implemented for all
// commands via context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
)

// Execute is the main entry point for the docchat CLI.
func Execute() error {
	// Initialize logger once at entry point
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if len(os.Args) < 2 {
		return runChat()
	}

	switch os.Args[1] {
	case "chat":
		return runChat()
	case "serve":
		return runServe()
	case "index":
		return runIndex()
	case "smoke":
		return runSmoke()
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("DocChat - Chat with your documents")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  docchat [chat]        Start the interactive question loop (default)")
	fmt.Println("  docchat serve [addr]  Start the HTTP server (default: 127.0.0.1:8000)")
	fmt.Println("  docchat index         Rebuild the vector index from the documents directory")
	fmt.Println("  docchat smoke [hf|openai|anthropic]")
	fmt.Println("                        Check connectivity to the hosted inference providers")
	fmt.Println("  docchat --version     Show version information")
	fmt.Println("  docchat --help        Show this help")
	fmt.Println()
	fmt.Println("Interactive mode:")
	fmt.Println("  exit                  Quit the question loop")
	fmt.Println("  Ctrl+D                Quit the question loop")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  HUGGINGFACEHUB_API_TOKEN  Required: HuggingFace API token")
	fmt.Println("  EMBEDDING_MODEL           Optional: embedding model override")
	fmt.Println("  LLM_MODEL                 Optional: chat model override")
	fmt.Println("  DOCCHAT_DATA_DIR          Optional: documents directory (default ./data)")
	fmt.Println("  DOCCHAT_INDEX_DIR         Optional: index directory (default ./index)")
	fmt.Println("  DEBUG                     Optional: enable debug logging")
}
