// Interactive terminal loop for the chat session.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
)

// inputLabel prompts the operator for the next message.
const inputLabel = "Admiral > "

// chatLoop owns the conversation history and drives the read-eval-print
// cycle: one user turn and one model turn appended per successful send.
type chatLoop struct {
	session ChatSession
	persona string
	in      io.Reader
	out     io.Writer
	verbose bool

	history []Turn
}

// newChatLoop wires the loop over a session and the terminal streams.
func newChatLoop(session ChatSession, config *Config, in io.Reader, out io.Writer) *chatLoop {
	return &chatLoop{
		session: session,
		persona: config.Persona,
		in:      in,
		out:     out,
		verbose: config.Verbose,
	}
}

// Run blocks until the operator exits, input ends, or ctx is canceled by an
// interrupt. All of those paths end with the farewell and a nil error.
func (l *chatLoop) Run(ctx context.Context) error {
	lines := make(chan string)
	var readErr error
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(l.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr = scanner.Err()
	}()

	fmt.Fprintf(l.out, "\n🖖 %s online. Awaiting input. (Type 'exit' to quit)\n\n", l.persona)

	for {
		fmt.Fprint(l.out, inputLabel)

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintf(l.out, "\n\n%s\n", l.farewell())
			return nil
		case text, ok := <-lines:
			if !ok {
				// End of input counts as a clean exit.
				if readErr != nil {
					log.Printf("Error reading input: %v", readErr)
				}
				fmt.Fprintf(l.out, "\n%s\n", l.farewell())
				return nil
			}
			line = text
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if isExitCommand(input) {
			fmt.Fprintf(l.out, "%s\n", l.farewell())
			return nil
		}

		if l.verbose {
			log.Printf("[verbose] sending turn: bytes=%d history=%d", len(input), len(l.history))
		}

		reply, err := l.session.Send(ctx, l.history, input)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintf(l.out, "\n\n%s\n", l.farewell())
				return nil
			}
			// Per-turn failures are non-fatal; the operator may retry.
			fmt.Fprintf(l.out, "\n⚠️ Error: %v\n\n", err)
			continue
		}

		l.history = append(l.history,
			Turn{Role: RoleUser, Text: input},
			Turn{Role: RoleModel, Text: reply},
		)
		fmt.Fprintf(l.out, "\n%s > %s\n\n", l.persona, reply)
	}
}

// History returns the turns accumulated so far.
func (l *chatLoop) History() []Turn { return l.history }

func (l *chatLoop) farewell() string {
	return fmt.Sprintf("%s offline. Live long and prosper. 🖖", l.persona)
}

// isExitCommand recognizes the terminating commands, case-insensitively.
func isExitCommand(input string) bool {
	switch strings.ToLower(input) {
	case "exit", "quit", "q":
		return true
	}
	return false
}
