package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"

	"github.com/kadirpekel/echoagent/pkg/agent"
	"github.com/kadirpekel/echoagent/pkg/capability"
)

// Session is an interactive loop over a Client. Commands:
//
//	info            show the agent card
//	/prefix <p>     echo subsequent messages with a prefix
//	/clear          drop the prefix
//	quit, exit      leave the session
//
// Anything else is sent to the agent as a message. Invocation errors are
// printed and the session continues.
type Session struct {
	client *Client
	in     io.Reader
	out    io.Writer
	prefix string
}

// NewSession creates a session reading from in and writing to out.
func NewSession(client *Client, in io.Reader, out io.Writer) *Session {
	return &Session{
		client: client,
		in:     in,
		out:    out,
	}
}

// interactive reports whether the input is a terminal.
func (s *Session) interactive() bool {
	if f, ok := s.in.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// Run executes the session loop until EOF or a quit command.
func (s *Session) Run(ctx context.Context) error {
	card, err := s.client.FetchAgentCard(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "Connected to %s (%s)\n", card.Name, card.AgentID)
	fmt.Fprintln(s.out, "Type a message to echo it. Commands: info, /prefix <p>, /clear, quit")

	scanner := bufio.NewScanner(s.in)
	for {
		if s.interactive() {
			fmt.Fprint(s.out, "> ")
		}

		if !scanner.Scan() {
			return scanner.Err()
		}

		raw := scanner.Text()
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case line == "quit" || line == "exit":
			fmt.Fprintln(s.out, "Bye.")
			return nil

		case line == "info":
			s.printCard(card)

		case line == "/clear":
			s.prefix = ""
			fmt.Fprintln(s.out, "Prefix cleared.")

		case strings.HasPrefix(line, "/prefix"):
			// Keep trailing spaces in the prefix argument
			arg := strings.TrimPrefix(strings.TrimLeft(raw, " \t"), "/prefix")
			s.prefix = strings.TrimPrefix(arg, " ")
			fmt.Fprintf(s.out, "Prefix set to %q.\n", s.prefix)

		default:
			s.send(ctx, line)
		}
	}
}

func (s *Session) send(ctx context.Context, message string) {
	capName := "echo"
	var params map[string]any
	if s.prefix != "" {
		capName = "echo_with_prefix"
		params = map[string]any{"prefix": s.prefix}
	}

	res, err := s.client.Invoke(ctx, capName, message, params)
	if err != nil {
		// Agent errors carry a human-readable message; print it as-is
		var invErr *agent.InvocationError
		if errors.As(err, &invErr) {
			fmt.Fprintf(s.out, "Error: %s\n", invErr.Message)
			return
		}
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}

	fmt.Fprintf(s.out, "%v\n", res.Response)
}

func (s *Session) printCard(card *agent.Card) {
	fmt.Fprintf(s.out, "Agent: %s (%s) v%s\n", card.Name, card.AgentID, card.Version)
	if card.Description != "" {
		fmt.Fprintf(s.out, "  %s\n", card.Description)
	}
	fmt.Fprintln(s.out, "Capabilities:")
	for _, cap := range card.Capabilities {
		fmt.Fprintf(s.out, "  %s - %s\n", cap.Name, cap.Description)
		for _, name := range sortedKeys(cap.Parameters) {
			spec := cap.Parameters[name]
			required := "optional"
			if spec.Required {
				required = "required"
			}
			fmt.Fprintf(s.out, "    %s (%s, %s)\n", name, spec.Type, required)
		}
	}
}

func sortedKeys(params map[string]capability.ParameterSpec) []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
