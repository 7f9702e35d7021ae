package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

var errNestedShell = errors.New("already in a shell")

func (a *App) shellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session on one engine connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.inShell {
				return errNestedShell
			}
			return a.runShell(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func (a *App) runShell(ctx context.Context, out, errOut io.Writer) error {
	a.persistent = true
	a.inShell = true
	defer func() {
		a.persistent = false
		a.inShell = false
		a.Close()
	}()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "osvswitch> ",
		HistoryFile:     os.ExpandEnv("$HOME/.osvswitchctl_history"),
		AutoComplete:    completer(a.Command()),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          out,
		Stderr:          errOut,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(out, "Type 'help' for available commands, 'exit' or 'quit' to leave")

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					return nil
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		exit, err := a.runLine(ctx, line, out, errOut)
		if err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
		}
		if exit {
			return nil
		}
	}
}

// runLine executes one shell line on a fresh command tree so flags set by a
// previous line do not leak into the next one.
func (a *App) runLine(ctx context.Context, line string, out, errOut io.Writer) (bool, error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false, nil
	}
	switch args[0] {
	case "exit", "quit":
		return true, nil
	case "shell":
		return false, errNestedShell
	}

	saved := *a
	defer func() {
		a.cfgFile = saved.cfgFile
		a.socket = saved.socket
		a.output = saved.output
		a.timeout = saved.timeout
		a.debug = saved.debug
	}()

	root := a.Command()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	return false, root.ExecuteContext(ctx)
}

func completer(root *cobra.Command) *readline.PrefixCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem("exit"),
		readline.PcItem("quit"),
	}
	for _, c := range root.Commands() {
		if c.Hidden || c.Name() == "shell" {
			continue
		}
		items = append(items, completerItem(c))
	}
	return readline.NewPrefixCompleter(items...)
}

func completerItem(c *cobra.Command) *readline.PrefixCompleter {
	var children []readline.PrefixCompleterInterface
	for _, sub := range c.Commands() {
		if sub.Hidden {
			continue
		}
		children = append(children, completerItem(sub))
	}
	return readline.PcItem(c.Name(), children...)
}
