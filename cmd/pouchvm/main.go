package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "pouchvm",
		Short: "Drive the pouch simulator from a script file or an interactive shell.",
	}
	root.AddCommand(runCmd(), replCmd(), inspectCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runCmd batch-executes every line of a script file through one session,
// printing a warning line for any command that produced one. Grounded on
// golang-debug/cmd/viewcore's runObjref(cmd *cobra.Command, args []string)
// handler shape.
func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Run every line of a command file against a fresh session.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			scanner := bufio.NewScanner(f)
			for scanner.Scan() {
				warning, err := s.runLine(scanner.Text())
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "error: %v\n", err)
					continue
				}
				if warning != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", warning)
				}
			}
			return scanner.Err()
		},
	}
}

// replCmd starts an interactive readline-backed shell over one session,
// in the same spirit as ogle's program/client REPL loop.
func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive pouchvm shell.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			rl, err := readline.New("pouchvm> ")
			if err != nil {
				return err
			}
			defer rl.Close()

			for {
				line, err := rl.Readline()
				if err != nil { // io.EOF or readline.ErrInterrupt
					return nil
				}
				warning, err := s.runLine(line)
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "error: %v\n", err)
					continue
				}
				if warning != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", warning)
				}
			}
		},
	}
}

// inspectCmd prints the pouch table for a freshly booted, empty session —
// mostly useful as a smoke test that the session wiring itself works.
func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print the pouch table for a freshly booted session.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			out, err := s.inspectOutput()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
