// Package cli parses the top-level command line: a global --config flag
// followed by one subcommand name and its own args. Each subcommand owns
// its own flags, parsed by internal/app with the standard flag package.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

// Command names the top-level action requested. Daemon sub-actions
// (start/stop/status/logs) are parsed as the first positional arg by
// internal/app rather than as distinct Commands, since they share the
// daemon's config wiring.
type Command string

const (
	CommandDecode         Command = "decode"
	CommandVAD            Command = "vad"
	CommandCondense       Command = "condense"
	CommandRecord         Command = "record"
	CommandTranscribe     Command = "transcribe"
	CommandTranscribeFull Command = "transcribe-full"
	CommandBatch          Command = "batch"
	CommandBench          Command = "bench"
	CommandRefine         Command = "refine"
	CommandDaemon         Command = "daemon"
	CommandDoctor         Command = "doctor"
	CommandVersion        Command = "version"
	CommandHelp           Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandDecode:         {},
	CommandVAD:            {},
	CommandCondense:       {},
	CommandRecord:         {},
	CommandTranscribe:     {},
	CommandTranscribeFull: {},
	CommandBatch:          {},
	CommandBench:          {},
	CommandRefine:         {},
	CommandDaemon:         {},
	CommandDoctor:         {},
	CommandVersion:        {},
	CommandHelp:           {},
}

// Parsed is the top-level command plus whatever args remain for the
// subcommand to parse itself.
type Parsed struct {
	Command    Command
	ConfigPath string
	Args       []string
	ShowHelp   bool
}

// Parse splits global flags (which must precede the subcommand) from the
// subcommand name and its own argument list.
func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
			return parsed, nil
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
			return parsed, nil
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown global flag: %s", arg)
			}
			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}
			parsed.Command = cmd
			parsed.ShowHelp = false
			parsed.Args = args[i+1:]
			return parsed, nil
		}
	}

	return parsed, nil
}

// HelpText renders the top-level usage summary.
func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [args]

Commands:
  decode            Decode an audio file to a normalized wav
  vad                Run voice activity detection over a wav file
  condense           Condense detected speech spans into chunk files
  record             Capture microphone audio for a fixed duration
  transcribe         Transcribe a single audio file
  transcribe-full    Run the full pipeline (decode, vad, condense, transcribe, refine)
  batch              Transcribe every file in a directory
  bench              Measure real-time factor for an engine profile
  refine             Refine an already-transcribed text file
  daemon             Control the warm-model daemon (start|stop|status|logs)
  doctor             Run configuration and environment checks
  version            Print version information
  help               Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/vociferous/config.jsonc)
  -h, --help      Show help
  --version       Show version

Exit codes:
  0   success
  1   runtime failure
  2   user-input or configuration error
  3   engine or dependency initialization error
  130 interrupted
`, binaryName)
}
