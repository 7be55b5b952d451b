package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"unicode"
)

// runShell reads command lines from stdin and dispatches each through a
// fresh command tree bound to the same App, so sessions persist between
// lines. EOF and exit/quit both drain the held sessions before returning.
func (a *App) runShell(ctx context.Context) error {
	a.console = true
	fmt.Fprintf(a.stdout, "ssoadm console (%s). Type 'help' for commands, 'exit' to quit.\n", version)

	scanner := bufio.NewScanner(a.stdin)
	for {
		fmt.Fprint(a.stdout, a.prompt())
		if !scanner.Scan() {
			fmt.Fprintln(a.stdout)
			a.closeAll(ctx)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		args, err := splitArgs(line)
		if err != nil {
			fmt.Fprintf(a.stderr, "Error: %v\n", err)
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			a.closeAll(ctx)
			return nil
		}
		a.dispatch(ctx, args)
	}
}

// prompt reflects how many sessions the console holds.
func (a *App) prompt() string {
	if a.registry != nil {
		if n := len(a.registry.Active()); n > 0 {
			return fmt.Sprintf("ssoadm(%d)> ", n)
		}
	}
	return "ssoadm> "
}

// dispatch runs one console line. Per-line flags such as --json and --on
// reset afterwards so they do not leak into the next line.
func (a *App) dispatch(ctx context.Context, args []string) {
	jsonOut, target := a.jsonOut, a.target
	defer func() { a.jsonOut, a.target = jsonOut, target }()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
	}
}

// splitArgs tokenizes a console line, honoring single quotes, double
// quotes and backslash escapes outside single quotes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		quote   rune
		escaped bool
		started bool
	)
	for _, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			started = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			started = true
		case unicode.IsSpace(r):
			if started {
				args = append(args, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if escaped {
		return nil, fmt.Errorf("trailing backslash")
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if started {
		args = append(args, current.String())
	}
	return args, nil
}
