// Package cli parses whisperkey command lines into a Parsed value.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

type Command string

const (
	CommandListen     Command = "listen"
	CommandPress      Command = "press"
	CommandRelease    Command = "release"
	CommandCancel     Command = "cancel"
	CommandStatus     Command = "status"
	CommandDevices    Command = "devices"
	CommandDoctor     Command = "doctor"
	CommandTranscribe Command = "transcribe"
	CommandHistory    Command = "history"
	CommandVersion    Command = "version"
	CommandHelp       Command = "help"
)

// DefaultHistoryLimit is the row count for `history` without -n.
const DefaultHistoryLimit = 20

type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool
	Help       string
	Key        string
	File       string
	Limit      int
}

type subcommand struct {
	command Command
	short   string
	args    cobra.PositionalArgs
	use     string
	flags   func(*cobra.Command, *Parsed)
}

var subcommands = []subcommand{
	{command: CommandListen, short: "Run the push-to-talk listener in the foreground"},
	{command: CommandPress, short: "Send a hotkey press to the listener", flags: keyFlag},
	{command: CommandRelease, short: "Send a hotkey release to the listener", flags: keyFlag},
	{command: CommandCancel, short: "Discard the active recording"},
	{command: CommandStatus, short: "Print listener state (idle, recording, processing)"},
	{command: CommandDevices, short: "List available input devices"},
	{command: CommandDoctor, short: "Run configuration and environment checks"},
	{command: CommandTranscribe, use: "transcribe FILE", short: "Transcribe a WAV file and print the text", args: cobra.ExactArgs(1)},
	{command: CommandHistory, short: "Print recent transcriptions", flags: func(c *cobra.Command, p *Parsed) {
		c.Flags().IntVarP(&p.Limit, "limit", "n", DefaultHistoryLimit, "number of entries to print")
	}},
	{command: CommandVersion, short: "Print version information"},
}

func keyFlag(c *cobra.Command, p *Parsed) {
	c.Flags().StringVar(&p.Key, "key", "", "hotkey name; must match the listener's hotkey.key")
}

// Parse interprets args. No arguments, -h, --help, and `help` all yield ShowHelp.
func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}
	root, showVersion := newRoot(&parsed)
	parsed.Help = root.UsageString()

	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return Parsed{}, err
	}
	if *showVersion && !parsed.ShowHelp {
		parsed.Command = CommandVersion
	}
	if parsed.Command == CommandHistory && parsed.Limit <= 0 {
		return Parsed{}, errors.New("--limit must be > 0")
	}
	return parsed, nil
}

func newRoot(parsed *Parsed) (*cobra.Command, *bool) {
	showVersion := false
	root := &cobra.Command{
		Use:           "whisperkey",
		Short:         "Push-to-talk dictation for Wayland",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			parsed.ShowHelp = !showVersion
			return nil
		},
	}
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&parsed.ConfigPath, "config", "", "config file path (default: $XDG_CONFIG_HOME/whisperkey/config.jsonc)")
	root.Flags().BoolVar(&showVersion, "version", false, "show version")
	root.SetHelpFunc(func(c *cobra.Command, _ []string) {
		parsed.Command = CommandHelp
		parsed.ShowHelp = true
		parsed.Help = c.UsageString()
	})

	for _, s := range subcommands {
		use := s.use
		if use == "" {
			use = string(s.command)
		}
		args := s.args
		if args == nil {
			args = cobra.NoArgs
		}
		sub := &cobra.Command{
			Use:   use,
			Short: s.short,
			Args:  args,
			RunE: func(_ *cobra.Command, positional []string) error {
				parsed.Command = s.command
				parsed.ShowHelp = false
				if s.command == CommandTranscribe {
					parsed.File = positional[0]
				}
				return nil
			},
		}
		if s.flags != nil {
			s.flags(sub, parsed)
		}
		root.AddCommand(sub)
	}
	return root, &showVersion
}

// HelpText renders top-level usage for binaryName.
func HelpText(binaryName string) string {
	var parsed Parsed
	root, _ := newRoot(&parsed)
	usage := root.UsageString()
	if binaryName != "" && binaryName != root.Name() {
		usage = strings.ReplaceAll(usage, root.Name(), binaryName)
	}
	return fmt.Sprintf("%s\n%s", root.Short, usage)
}
