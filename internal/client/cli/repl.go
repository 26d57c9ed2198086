package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface runREPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Appointments(ctx context.Context) error
	Show(ctx context.Context, id string) error
	Upload(ctx context.Context, id string) error
	ProfileImage(ctx context.Context) error
	Receipt(ctx context.Context, donationID string) error
	Submit(ctx context.Context, id string) error
	Reconcile(ctx context.Context) error
	Notifications(ctx context.Context, args []string) error
	Watch(ctx context.Context) error
}

const (
	guestHelp = "Available commands: register, login, help, exit"
	userHelp  = "Available commands: appointments, show <id>, upload <id>, submit <id>, profileimage, " +
		"receipt <donation id>, reconcile, notifications [read <id>], watch, logout, help, exit"
)

// needsArg lists commands that take exactly one argument.
var needsArg = map[string]string{
	"show":    "Usage: show <appointment id>",
	"upload":  "Usage: upload <appointment id>",
	"submit":  "Usage: submit <appointment id>",
	"receipt": "Usage: receipt <donation id>",
}

// readLine returns false once the reader is exhausted. Commands share the
// reader with prompts, so lines are never buffered ahead.
func readLine(r *bufio.Reader) (string, bool) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return line, true
}

// runREPL reads commands line by line and dispatches them to a. It returns
// on EOF, exit or quit. Handler errors are reported by the handlers.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("parish (%s)> ", statusFn()))
		line, ok := readLine(reader)
		if !ok {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if usage, ok := needsArg[cmd]; ok && len(args) != 1 {
			printlnFn(usage)
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(userHelp)
			} else {
				printlnFn(guestHelp)
			}
		case "register":
			_ = a.Register(ctx)
		case "login":
			_ = a.Login(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			if !a.isLoggedIn() {
				printlnFn("Please log in first. " + guestHelp)
				continue
			}
			dispatch(ctx, a, cmd, args)
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) {
	switch cmd {
	case "logout":
		_ = a.Logout(ctx)
	case "appointments", "l":
		_ = a.Appointments(ctx)
	case "show":
		_ = a.Show(ctx, args[0])
	case "upload":
		_ = a.Upload(ctx, args[0])
	case "submit":
		_ = a.Submit(ctx, args[0])
	case "profileimage":
		_ = a.ProfileImage(ctx)
	case "receipt":
		_ = a.Receipt(ctx, args[0])
	case "reconcile":
		_ = a.Reconcile(ctx)
	case "notifications", "n":
		_ = a.Notifications(ctx, args)
	case "watch":
		_ = a.Watch(ctx)
	default:
		printlnFn("Unknown command:", cmd)
	}
}
