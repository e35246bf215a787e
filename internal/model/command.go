package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCommand is returned by ParseCommand for unrecognised names.
var ErrUnknownCommand = errors.New("unknown command")

// Command is a playback control sent to the remote player.
type Command string

// Supported playback commands.
const (
	CommandNext      Command = "next"
	CommandPrevious  Command = "previous"
	CommandPlayPause Command = "play-pause"
	CommandPlay      Command = "play"
	CommandPause     Command = "pause"
	CommandStop      Command = "stop"
)

// Commands lists every supported command in display order.
var Commands = []Command{
	CommandPlayPause,
	CommandNext,
	CommandPrevious,
	CommandPlay,
	CommandPause,
	CommandStop,
}

var commandAliases = map[string]Command{
	"next":       CommandNext,
	"previous":   CommandPrevious,
	"prev":       CommandPrevious,
	"play-pause": CommandPlayPause,
	"playpause":  CommandPlayPause,
	"toggle":     CommandPlayPause,
	"play":       CommandPlay,
	"pause":      CommandPause,
	"stop":       CommandStop,
}

// ParseCommand resolves a command name, case-insensitively.
func ParseCommand(s string) (Command, error) {
	c, ok := commandAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
	}
	return c, nil
}

func (c Command) String() string {
	return string(c)
}
