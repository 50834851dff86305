package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/docchat/docchat/internal/config"
	"github.com/docchat/docchat/internal/rag"
)

// runChat starts the interactive question loop on stdin.
func runChat() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()

	svc, err := setupService(ctx, cfg, logger)
	if err != nil {
		return err
	}

	fmt.Println("Ask questions about your documents. Type 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			// EOF (Ctrl+D) ends the session
			fmt.Println()
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return nil
		}

		answer, err := svc.Answer(ctx, question)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		fmt.Println(answer.Answer)
		printSources(answer.Sources)
	}
}

// printSources lists the citations under an answer.
func printSources(sources []rag.Source) {
	for i, src := range sources {
		label := src.Source
		if src.Page != "" {
			label += " (page " + src.Page + ")"
		}
		fmt.Printf("  [%d] %s\n", i+1, label)
	}
}
