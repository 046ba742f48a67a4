// cmd/modrecon/shell.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func shellCompleter() *readline.PrefixCompleter {
	kinds := func() []readline.PrefixCompleterInterface {
		return []readline.PrefixCompleterInterface{
			readline.PcItem("coils"),
			readline.PcItem("discrete"),
			readline.PcItem("input"),
			readline.PcItem("holding"),
		}
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("read",
			append(kinds(),
				readline.PcItem("all"),
				readline.PcItem("messages"),
				readline.PcItem("probe"),
			)...,
		),
		readline.PcItem("write",
			readline.PcItem("coils"),
			readline.PcItem("holding"),
			readline.PcItem("banner"),
			readline.PcItem("unit-id"),
		),
		readline.PcItem("scan"),
		readline.PcItem("bruteforce"),
		readline.PcItem("banner"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive prompt against one target",
		Long: `shell keeps the resolved target and flags and runs commands line by line.
Ctrl+C cancels the running command; Ctrl+D or "exit" leaves.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Flags given with "shell" become the default for every line.
			a.base = a.cfg
			return runShell(cmd.Context(), a)
		},
	}
}

func runShell(ctx context.Context, a *app) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          text.FgCyan.Sprintf("modrecon %s> ", a.cfg.Target.Address()),
		AutoComplete:    shellCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	out, errOut := a.out, a.errOut
	a.out, a.errOut = rl.Stdout(), rl.Stderr()
	defer func() { a.out, a.errOut = out, errOut }()

	// The process-wide interrupt only cancels the running line.
	base := context.WithoutCancel(ctx)

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		args, err := shlex.Split(strings.TrimSpace(line))
		if err != nil {
			fmt.Fprintf(a.errOut, "error: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}

		switch strings.ToLower(args[0]) {
		case "exit", "quit", "q":
			return nil
		case "shell":
			fmt.Fprintln(a.errOut, "error: already in a shell")
			continue
		}

		if err := runLine(base, a, args); err != nil {
			fmt.Fprintf(a.errOut, "error: %v\n", err)
		}
	}
}

func runLine(ctx context.Context, a *app, args []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	root := newRootCmd(a)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
