package runtime

import (
	"fmt"
	"log/slog"
	"netquiz/contract"
	"netquiz/domain"
	"netquiz/errors"
	"netquiz/protocol"
	"strings"

	"github.com/abadojack/whatlanggo"
)

type CommandKind int

const (
	CmdChat CommandKind = iota
	CmdPrivate
	CmdUsers
	CmdHelp
	CmdLogout
	CmdMalformed
	CmdUnknown
	CmdEmpty
)

const (
	privatePrefix = "/msg"
	usersCommand  = "/users"
	helpCommand   = "/help"
	privateUsage  = "Usage: /msg <username> <message>"
	tooLong       = "Message too long, it was not sent"
)

var helpLines = []string{
	"Available commands:",
	"  /msg <username> <message>  - Send a private message",
	"  /users                     - List connected users",
	"  /help                      - Show this help",
	"  LOGOUT                     - Leave the chat",
}

// Command is a parsed chat line.
type Command struct {
	Kind   CommandKind
	Target string
	Text   string
}

// Censor masks forbidden words and reports which ones it found.
type Censor interface {
	Censor(text string) (string, []string)
}

// ParseLine classifies one chat line. It never fails: blank lines are empty,
// unknown slash commands are flagged and anything else is public chat.
func ParseLine(line string) Command {
	if line == protocol.CmdLogout {
		return Command{Kind: CmdLogout}
	}

	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return Command{Kind: CmdEmpty}
	case trimmed == usersCommand:
		return Command{Kind: CmdUsers}
	case trimmed == helpCommand:
		return Command{Kind: CmdHelp}
	case trimmed == privatePrefix || strings.HasPrefix(trimmed, privatePrefix+" "):
		rest := strings.TrimSpace(strings.TrimPrefix(trimmed, privatePrefix))
		target, text, found := strings.Cut(rest, " ")
		text = strings.TrimSpace(text)
		if !found || target == "" || text == "" {
			return Command{Kind: CmdMalformed, Text: privateUsage}
		}
		return Command{Kind: CmdPrivate, Target: target, Text: text}
	case strings.HasPrefix(trimmed, "/"):
		name, _, _ := strings.Cut(trimmed, " ")
		return Command{Kind: CmdUnknown, Text: name}
	default:
		return Command{Kind: CmdChat, Text: line}
	}
}

// Interpreter turns chat lines into hub deliveries and direct replies.
type Interpreter struct {
	log       *slog.Logger
	hub       *Hub
	directory contract.SessionDirectory
	censor    Censor
}

func NewInterpreter(log *slog.Logger, hub *Hub, directory contract.SessionDirectory, censor Censor) *Interpreter {
	return &Interpreter{log: log, hub: hub, directory: directory, censor: censor}
}

// Interpret executes one line sent by sender and reports whether the sender asked to log out.
func (i *Interpreter) Interpret(line string, sender contract.Recipient) (logout bool) {
	cmd := ParseLine(line)
	name := sender.Username()

	switch cmd.Kind {
	case CmdLogout:
		return true
	case CmdEmpty:
	case CmdUsers:
		_ = i.hub.Reply(sender, domain.NewUserList(i.directory.Usernames()))
	case CmdHelp:
		_ = i.hub.Reply(sender, domain.NewHelp(helpLines))
	case CmdMalformed:
		_ = i.hub.Reply(sender, domain.NewError(cmd.Text))
	case CmdUnknown:
		_ = i.hub.Reply(sender, domain.NewError(fmt.Sprintf("Unknown command %s, type /help for the list of commands", cmd.Text)))
	case CmdPrivate:
		i.private(sender, cmd)
	case CmdChat:
		evt := domain.NewBroadcast(name, i.sanitize(name, cmd.Text))
		if !fitsFrame(evt) {
			_ = i.hub.Reply(sender, domain.NewError(tooLong))
			return false
		}
		i.hub.Broadcast(evt, name)
	}
	return false
}

func (i *Interpreter) private(sender contract.Recipient, cmd Command) {
	name := sender.Username()
	if cmd.Target == name {
		_ = i.hub.Reply(sender, domain.NewError("You cannot send a private message to yourself"))
		return
	}

	evt := domain.NewPrivate(name, cmd.Target, i.sanitize(name, cmd.Text))
	if !fitsFrame(evt) {
		_ = i.hub.Reply(sender, domain.NewError(tooLong))
		return
	}
	err := i.hub.SendTo(cmd.Target, evt)
	switch {
	case errors.Is(err, errors.ErrUserNotFound):
		_ = i.hub.Reply(sender, domain.NewError(fmt.Sprintf("User %s not found", cmd.Target)))
	case err != nil:
		// The target's disconnect path already ran from the hub.
		_ = i.hub.Reply(sender, domain.NewError(fmt.Sprintf("Message to %s could not be delivered", cmd.Target)))
	default:
		_ = i.hub.Reply(sender, domain.NewSystem(fmt.Sprintf("Message delivered to %s", cmd.Target)))
	}
}

func (i *Interpreter) sanitize(author, text string) string {
	if i.censor == nil {
		return text
	}
	sanitized, found := i.censor.Censor(text)
	if len(found) > 0 {
		info := whatlanggo.Detect(text)
		i.log.Warn("Message censored",
			"author", author,
			"words", len(found),
			"lang", info.Lang.Iso6391())
	}
	return sanitized
}

// fitsFrame reports whether the rendered text of evt fits in one wire string.
func fitsFrame(evt domain.ChatEvent) bool {
	return len(evt.Body()) <= protocol.MaxStringLen
}
