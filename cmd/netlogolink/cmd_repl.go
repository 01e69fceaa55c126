package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/richinsley/netlogolink"
	"github.com/spf13/cobra"
)

const (
	prompt             = "netlogo> "
	continuationPrompt = "     ... "
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run SCRIPT",
		Short: "Run a script of commands and reporters",
		Long: `Run a script file ("-" reads standard input). Each line is a command;
lines starting with "?" are reporters whose values are printed. A statement
may span lines while its brackets are open. Lines starting with ";" are
comments. The run stops at the first failing statement.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, _ := cmd.Flags().GetString("model")

			in, closeIn, err := openScript(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer closeIn()

			ctx := cmd.Context()
			s, err := openSession(ctx, cmd, model)
			if err != nil {
				return err
			}
			defer s.close()

			return s.newREPL().Run(ctx, in, cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("model", "", "Model file to load first")
	return cmd
}

func openScript(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open script: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func newREPLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive NetLogo session",
		Long: `Start an interactive session. Enter commands as you would in the NetLogo
command center; prefix a line with "?" to print a reporter's value.
Type "exit", press Ctrl-D or Ctrl-C to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			model, _ := cmd.Flags().GetString("model")

			ctx := cmd.Context()
			s, err := openSession(ctx, cmd, model)
			if err != nil {
				return err
			}
			defer s.close()

			return interact(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), s.newREPL())
		},
	}
	cmd.Flags().String("model", "", "Model file to load first")
	return cmd
}

// interact reads lines until EOF, "exit" or ctx is done. Statement errors
// are printed and the session continues.
func interact(ctx context.Context, in io.Reader, out, errOut io.Writer, repl *netlogolink.REPL) error {
	// the scanner runs apart so an interrupt is seen while waiting for input
	done := make(chan struct{})
	defer close(done)
	lines := make(chan string)
	var scanErr error
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		scanErr = scanner.Err()
	}()

	for {
		if ctx.Err() != nil {
			fmt.Fprintln(out)
			return nil
		}
		if repl.Pending() {
			fmt.Fprint(out, continuationPrompt)
		} else {
			fmt.Fprint(out, prompt)
		}

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return scanErr
			}
			line = l
		}

		if !repl.Pending() {
			switch strings.TrimSpace(line) {
			case "exit", "quit":
				return nil
			}
		}

		result, err := repl.Execute(ctx, line)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			continue
		}
		if result != "" {
			fmt.Fprintln(out, result)
		}
	}
}
