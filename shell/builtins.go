package shell

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wrash-sh/wrash/history"
)

// builtinNames maps each builtin to its one-line description, as shown by
// help.
var builtinNames = map[string]string{
	"exit":    "leave the shell",
	"cd":      "change the working directory",
	"mode":    "show or switch the session mode",
	"history": "list previously run commands",
	"env":     "show or set session environment variables",
	"help":    "list the available builtins",
}

func isBuiltin(name string) bool {
	_, ok := builtinNames[name]
	return ok
}

// runBuiltin parses and runs one builtin invocation. Builtin commands are
// rebuilt per invocation so flag state never leaks between lines.
func (s *Session) runBuiltin(args []string) {
	var cmd *cobra.Command
	switch args[0] {
	case "exit":
		cmd = s.newExitCmd()
	case "cd":
		cmd = s.newCdCmd()
	case "mode":
		cmd = s.newModeCmd()
	case "history":
		cmd = s.newHistoryCmd()
	case "env":
		cmd = s.newEnvCmd()
	case "help":
		cmd = s.newHelpCmd()
	}

	cmd.SetArgs(args[1:])
	cmd.SetIn(s.in)
	cmd.SetOut(s.out)
	cmd.SetErr(s.errOut)
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(s.errOut, "wrash: %s: %s\n", args[0], err)
	}
}

func (s *Session) newExitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exit [CODE]",
		Short: builtinNames["exit"],
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				code, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid exit code %q", args[0])
				}
				s.exitCode = code
			}
			s.exitRequested = true
			return nil
		},
	}
}

func (s *Session) newCdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cd [DIR]",
		Short: builtinNames["cd"],
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var target string
			if len(args) == 1 {
				target = args[0]
			} else {
				home, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("can't determine home directory: %w", err)
				}
				target = home
			}
			if err := os.Chdir(target); err != nil {
				return fmt.Errorf("can't change directory: %w", err)
			}
			return nil
		},
	}
}

func (s *Session) newModeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mode [wrapped|normal]",
		Short: builtinNames["mode"],
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), strings.ToLower(string(s.mode)))
				return nil
			}
			mode, err := history.ParseMode(args[0])
			if err != nil {
				return err
			}
			return s.SetMode(mode)
		},
	}
}

func (s *Session) newHistoryCmd() *cobra.Command {
	var number int
	var showBase bool
	var modeName string

	cmd := &cobra.Command{
		Use:   "history [-n N] [-s] [-m MODE] [PATTERN]",
		Short: builtinNames["history"],
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := history.Filter{Base: &s.base}
			if modeName != "" {
				mode, err := history.ParseMode(modeName)
				if err != nil {
					return err
				}
				filter.Base = nil
				filter.Mode = &mode
			}
			if len(args) == 1 {
				pattern, err := regexp.Compile(args[0])
				if err != nil {
					return fmt.Errorf("can't compile pattern: %w", err)
				}
				filter.Pattern = pattern
			}

			matched := s.hist.Filtered(filter.Match)

			// Indices are positions in the filtered set, so they stay
			// stable under the -n cutoff.
			start := 0
			if number > 0 && number < len(matched) {
				start = len(matched) - number
			}
			for i := start; i < len(matched); i++ {
				entry := matched[i]
				text := entry.Argv
				if showBase && entry.Base != nil {
					text = entry.Command()
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%5d  %s\n", i, text)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&number, "number", "n", 0, "show only the last N matching entries")
	cmd.Flags().BoolVarP(&showBase, "show", "s", false, "include the base command")
	cmd.Flags().StringVarP(&modeName, "mode", "m", "", "show entries from either mode's sessions, whatever their base")
	return cmd
}

func (s *Session) newEnvCmd() *cobra.Command {
	show := &cobra.Command{
		Use:   "show",
		Short: "show session environment variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := make([]string, 0, len(s.environ))
			for key := range s.environ {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s='%s'\n", key, s.environ[key])
			}
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set KEY [VALUE]",
		Short: "set or unset a session environment variable",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				delete(s.environ, args[0])
				return nil
			}
			s.environ[args[0]] = args[1]
			return nil
		},
	}

	cmd := &cobra.Command{
		Use:   "env",
		Short: builtinNames["env"],
		Args:  cobra.NoArgs,
		RunE:  show.RunE,
	}
	cmd.AddCommand(show, set)
	return cmd
}

func (s *Session) newHelpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "help",
		Short: builtinNames["help"],
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]string, 0, len(builtinNames))
			longest := 0
			for name := range builtinNames {
				names = append(names, name)
				if len(name) > longest {
					longest = len(name)
				}
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "wrash wraps %q; anything that is not a builtin becomes its arguments.\n\n", s.base)
			for _, name := range names {
				fmt.Fprintf(out, "  %-*s  %s\n", longest, name, builtinNames[name])
			}
			return nil
		},
	}
}
