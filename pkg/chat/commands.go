package chat

import (
	"fmt"
	"strings"
)

type CommandName string

const (
	CommandNone    CommandName = ""
	CommandMsg     CommandName = "msg"
	CommandTime    CommandName = "time"
	CommandWeather CommandName = "weather"
	CommandCoins   CommandName = "coins"
	CommandHelp    CommandName = "help"
	CommandGlobal  CommandName = "g"
)

// Command is a parsed slash command.
type Command struct {
	Name   CommandName
	Target string
	Arg    string
}

const HelpText = "/msg <player> <text>, /g <text>, /time day|night, /weather clear|rain, /coins, /help"

// ParseCommand parses a chat line. Lines that do not start with "/" return
// CommandNone and no error.
func ParseCommand(text string) (Command, error) {
	if !strings.HasPrefix(text, "/") {
		return Command{}, nil
	}
	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	name := strings.ToLower(fields[0])
	args := fields[1:]
	rest := func(from int) string {
		if len(args) <= from {
			return ""
		}
		return strings.Join(args[from:], " ")
	}

	switch name {
	case "msg", "w", "tell":
		if len(args) < 2 {
			return Command{}, fmt.Errorf("usage: /msg <player> <text>")
		}
		return Command{Name: CommandMsg, Target: args[0], Arg: rest(1)}, nil
	case "g", "global":
		if len(args) == 0 {
			return Command{}, fmt.Errorf("usage: /g <text>")
		}
		return Command{Name: CommandGlobal, Arg: rest(0)}, nil
	case "time":
		if len(args) != 1 || (args[0] != "day" && args[0] != "night") {
			return Command{}, fmt.Errorf("usage: /time day|night")
		}
		return Command{Name: CommandTime, Arg: args[0]}, nil
	case "weather":
		if len(args) != 1 || (args[0] != "clear" && args[0] != "rain") {
			return Command{}, fmt.Errorf("usage: /weather clear|rain")
		}
		return Command{Name: CommandWeather, Arg: args[0]}, nil
	case "coins":
		return Command{Name: CommandCoins}, nil
	case "help", "?":
		return Command{Name: CommandHelp}, nil
	default:
		return Command{}, fmt.Errorf("unknown command: /%s", name)
	}
}
