package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies
// it; tests provide a stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Verify(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Balance(ctx context.Context) error
	Value(ctx context.Context) error
	Open(ctx context.Context, path string) error
}

// runREPL reads commands from reader until EOF or "exit". Prompts inside
// the handlers read from the same reader. Page commands
// (buy, sell, transfer, history) go through Open so the route guard sees
// them. Handler errors are not fatal; handlers report them to the user.
//
//	help                  show available commands
//	register | verify     create an account, confirm it with the mailed code
//	login | logout
//	balance               show a balance
//	value                 show the current token value
//	buy | sell | transfer open a transaction form
//	history               list transactions
//	exit | quit
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("sc %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := strings.ToLower(parts[0])

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: balance, value, buy, sell, transfer, history, logout, exit")
			} else {
				printlnFn("Available commands: register, verify, login, balance, value, buy, sell, transfer, history, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "verify":
			_ = a.Verify(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "balance":
			_ = a.Balance(ctx)

		case "value":
			_ = a.Value(ctx)

		case "buy", "purchase":
			_ = a.Open(ctx, "/purchase")

		case "sell", "transfer", "history":
			_ = a.Open(ctx, "/"+cmd)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
