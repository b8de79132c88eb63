// Package main wires Google Sheets roster retrieval into a terminal chat
// session against a hosted model endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// main is the program entry point.
func main() {
	log.SetFlags(0)

	if err := run(); err != nil {
		reportStartupError(err)
		os.Exit(1)
	}
}

// run performs the strictly sequential startup and hands off to the loop.
func run() error {
	config, err := ParseConfig()
	if err != nil {
		return err
	}

	// Interrupts anywhere in the run are a graceful shutdown, not an error.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("⚡ %s initializing... Connecting to Starfleet Database (Google Sheets)...\n", config.Persona)

	app, err := NewApp(ctx, config)
	if err != nil {
		return err
	}
	fmt.Printf("✅ Roster loaded (%d chars). Initializing neural interface...\n", len(app.RosterContext))

	loop := newChatLoop(app.Session, config, os.Stdin, os.Stdout)
	return loop.Run(ctx)
}

// reportStartupError maps the two fatal failure classes to their diagnostics.
func reportStartupError(err error) {
	var configErr *ConfigurationError
	if errors.As(err, &configErr) {
		fmt.Fprintf(os.Stderr, "❌ %s not found.\n", configErr.Path)
		fmt.Fprintln(os.Stderr, "   Download from: Google Cloud Console -> APIs & Services -> Credentials")
		fmt.Fprintln(os.Stderr, "   Place in this directory and run again.")
		return
	}

	var retrievalErr *RetrievalError
	if errors.As(err, &retrievalErr) {
		fmt.Fprintf(os.Stderr, "❌ Failed to fetch roster: %v\n", retrievalErr.Err)
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
