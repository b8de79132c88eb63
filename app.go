// Application initialization and setup.
package main

import (
	"context"
	"log"
)

// App holds the application state and dependencies.
type App struct {
	Config        *Config
	Roster        Roster
	RosterContext string
	SystemPrompt  string
	Session       ChatSession
}

// NewApp runs the startup sequence: credentials, roster fetch, prompt
// assembly, session construction. Failures here end the program; there is no
// session to start without roster context.
func NewApp(ctx context.Context, config *Config) (*App, error) {
	if config.Verbose {
		log.Printf("[verbose] app init: provider=%s model=%s spreadsheet=%s range=%s", config.Provider, config.Model, config.SpreadsheetID, config.SheetRange)
	}

	credentials, err := NewCredentialProvider(config)
	if err != nil {
		return nil, err
	}
	client, err := credentials.Client(ctx)
	if err != nil {
		return nil, err
	}

	fetcher, err := NewRosterFetcher(ctx, client, config)
	if err != nil {
		return nil, err
	}
	roster, err := fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	rosterContext := roster.ContextText()
	systemPrompt := BuildSystemPrompt(rosterContext, config.Persona, config.Operator)
	if config.Verbose {
		log.Printf("[verbose] system prompt bytes=%d roster_empty=%v", len(systemPrompt), roster.Empty())
	}

	session, err := NewChatSession(ctx, config, systemPrompt)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:        config,
		Roster:        roster,
		RosterContext: rosterContext,
		SystemPrompt:  systemPrompt,
		Session:       session,
	}, nil
}
