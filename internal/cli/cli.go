package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandOrder   Command = "order"
	CommandSearch  Command = "search"
	CommandDevices Command = "devices"
	CommandMigrate Command = "migrate"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandOrder:   {},
	CommandSearch:  {},
	CommandDevices: {},
	CommandMigrate: {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

type Parsed struct {
	Command  Command
	Query    string
	EnvPath  string
	ShowHelp bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--env":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--env requires a path")
			}
			parsed.EnvPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp

			if cmd == CommandSearch {
				// Remaining args form the query text.
				parsed.Query = strings.TrimSpace(strings.Join(args[i+1:], " "))
				return parsed, nil
			}
			if i != len(args)-1 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--env PATH] <command>

Commands:
  order           Record a voice order, transcribe it, and search products
  search TEXT...  Search products from typed text (no audio)
  devices         List available input devices
  migrate         Apply product database migrations
  doctor          Run configuration and environment checks
  version         Print version information
  help            Show this help

Flags:
  --env PATH      Env file to load before reading configuration
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
