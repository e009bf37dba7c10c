package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/absher-session/internal/model"
)

// ErrInvalidCommand is returned for malformed slash commands.
var ErrInvalidCommand = errors.New("invalid command")

// CommandKind identifies what a line of chat input asks for.
type CommandKind int

// Command kinds.
const (
	CommandEmpty CommandKind = iota
	CommandMessage
	CommandChip
	CommandOpen
	CommandReview
	CommandPay
	CommandFree
	CommandHome
	CommandVerify
	CommandState
	CommandReset
	CommandHelp
	CommandQuit
)

// Command is one parsed line of chat input. Index is 1-based for chips and
// links. Amount is zero when /pay is given without one.
type Command struct {
	Text    string
	Service model.ServiceKind
	Amount  float64
	Index   int
	Kind    CommandKind
}

// HelpText lists the slash commands.
const HelpText = `/chip N     tap suggestion chip N
/open N     open deep link N
/review K   open the review screen for service K
            (driving_license_renewal, passport_renewal, national_id_renewal)
/pay [SAR]  approve a payment (default: selected amount)
/free       approve a free service
/home       go to the home screen
/verify     force a verification refresh
/state      show the session state
/reset      start the demo over
/quit       leave`

// ParseCommand parses a line of chat input. Anything not starting with a
// slash is a message.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{Kind: CommandEmpty}, nil
	}
	if !strings.HasPrefix(line, "/") {
		return Command{Kind: CommandMessage, Text: line}, nil
	}

	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]

	switch name {
	case "/chip", "/open":
		kind := CommandChip
		if name == "/open" {
			kind = CommandOpen
		}
		index, err := parseIndex(name, args)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: kind, Index: index}, nil
	case "/review":
		if len(args) != 1 {
			return Command{}, fmt.Errorf("%w: /review needs exactly one service", ErrInvalidCommand)
		}
		service, err := model.ParseServiceKind(args[0])
		if err != nil {
			return Command{}, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
		}
		return Command{Kind: CommandReview, Service: service}, nil
	case "/pay":
		if len(args) == 0 {
			return Command{Kind: CommandPay}, nil
		}
		amount, err := strconv.ParseFloat(args[0], 64)
		if err != nil || amount <= 0 {
			return Command{}, fmt.Errorf("%w: /pay needs a positive amount, got %q", ErrInvalidCommand, args[0])
		}
		return Command{Kind: CommandPay, Amount: amount}, nil
	case "/free":
		return Command{Kind: CommandFree}, nil
	case "/home":
		return Command{Kind: CommandHome}, nil
	case "/verify":
		return Command{Kind: CommandVerify}, nil
	case "/state":
		return Command{Kind: CommandState}, nil
	case "/reset":
		return Command{Kind: CommandReset}, nil
	case "/help":
		return Command{Kind: CommandHelp}, nil
	case "/quit", "/exit":
		return Command{Kind: CommandQuit}, nil
	default:
		return Command{}, fmt.Errorf("%w: unknown command %s", ErrInvalidCommand, name)
	}
}

func parseIndex(name string, args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: %s needs exactly one number", ErrInvalidCommand, name)
	}
	index, err := strconv.Atoi(args[0])
	if err != nil || index < 1 {
		return 0, fmt.Errorf("%w: %s needs a number from 1, got %q", ErrInvalidCommand, name, args[0])
	}
	return index, nil
}
