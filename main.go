// Wrash is a restricted interactive shell that wraps a single base
// command: every input line becomes arguments to that command, so a user
// can be handed "wrash git" instead of a full shell.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/wrash-sh/wrash/history"
	"github.com/wrash-sh/wrash/shell"
)

func main() {
	var frozen bool
	var historyPath string
	var modeName string

	root := &cobra.Command{
		Use:           "wrash [flags] COMMAND [ARG...]",
		Short:         "an interactive wrapper around a single command",
		Version:       "0.1.0",
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args, frozen, modeName, historyPath)
		},
	}
	// Everything after the base command belongs to it, not to us.
	root.Flags().SetInterspersed(false)
	root.Flags().BoolVarP(&frozen, "frozen", "F", false, "lock the session to its starting mode")
	root.Flags().StringVarP(&modeName, "mode", "m", "wrapped", "starting mode, wrapped or normal")
	root.Flags().StringVar(&historyPath, "history", "", "history file to use instead of the default")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "wrash: %s\n", err)
		os.Exit(2)
	}
}

func run(baseArgv []string, frozen bool, modeName, historyPath string) error {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return errors.New("standard input is not a terminal")
	}

	mode, err := history.ParseMode(modeName)
	if err != nil {
		return err
	}

	hist := openHistory(historyPath)

	if _, err := exec.LookPath(baseArgv[0]); err != nil {
		fmt.Fprintf(os.Stderr, "wrash: warning: %s not found in PATH\n", baseArgv[0])
	}

	session, err := shell.NewSession(baseArgv,
		shell.WithMode(mode),
		shell.WithFrozen(frozen),
		shell.WithHistory(hist),
	)
	if err != nil {
		return err
	}
	os.Exit(session.Run())
	return nil
}

// openHistory loads the history store from path, or from the default
// location when path is empty. A corrupt file aborts; an unreachable data
// directory degrades to an in-memory store with a warning.
func openHistory(path string) *history.History {
	if path == "" {
		var err error
		path, err = defaultHistoryPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "wrash: warning: %s; history will not be saved\n", err)
			return history.New()
		}
	}

	hist, err := history.Load(path)
	if err != nil {
		var parseErr *history.ParseError
		if errors.As(err, &parseErr) {
			fmt.Fprintf(os.Stderr, "wrash: %s\n", err)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "wrash: warning: can't load history: %s; history will not be saved\n", err)
		return history.New()
	}
	return hist
}

// defaultHistoryPath resolves the on-disk history location:
// $WRASH_HISTORY_FILE if set, otherwise wrash/history.yaml under the
// user's data directory ($XDG_DATA_HOME or ~/.local/share).
func defaultHistoryPath() (string, error) {
	if path := os.Getenv("WRASH_HISTORY_FILE"); path != "" {
		return path, nil
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("can't determine home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "wrash", "history.yaml"), nil
}
