package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

var ErrUnknownCommand = errors.New("unknown command")

type sessionStore interface {
	Load() (client.Tokens, error)
	Save(client.Tokens) error
}

type App struct {
	config  *config.Config
	client  client.Client
	session sessionStore
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		return nil, err
	}

	return &App{
		config:  c,
		client:  apiClient,
		session: client.NewSessionFile(c.TokenFile),
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, nil
}

type command struct {
	usage string
	run   func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"register":    {usage: "register [-u username] [-e email]", run: (*App).Register},
	"login":       {usage: "login [-u username|email]", run: (*App).Login},
	"refresh":     {usage: "refresh", run: (*App).Refresh},
	"logout":      {usage: "logout", run: (*App).Logout},
	"delete-user": {usage: "delete-user [-id account-id]", run: (*App).DeleteUser},
	"ping":        {usage: "ping", run: (*App).Ping},
}

var commandOrder = []string{"register", "login", "refresh", "logout", "delete-user", "ping"}

// Run executes the sub-command found in args. The stored token pair is
// loaded first and written back afterwards, also when the command fails,
// because a failed call may still have rotated the pair.
func (a *App) Run(ctx context.Context, args []string) error {
	defer a.client.Close()

	name, rest := flagx.SplitCommand(args)
	if name == "" || name == "help" {
		a.usage()
		return nil
	}

	cmd, ok := commands[name]
	if !ok {
		a.usage()
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	tokens, err := a.session.Load()
	if err != nil {
		return err
	}
	a.client.SetTokens(tokens)

	runErr := cmd.run(a, ctx, rest)

	if after := a.client.Tokens(); after != tokens {
		if err := a.session.Save(after); err != nil {
			return errors.Join(runErr, err)
		}
	}
	return runErr
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "usage: gophauth-client [-a addr] [-t seconds] [-f token-file] <command> [args]")
	fmt.Fprintln(a.out, "commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(a.out, "  %s\n", commands[name].usage)
	}
}
