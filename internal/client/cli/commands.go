package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/golang-jwt/jwt/v5"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// prompted returns v, or asks for it when v is empty.
func (a *App) prompted(v, prompt string) (string, error) {
	if v != "" {
		return v, nil
	}
	return getSimpleText(a.reader, prompt, a.out)
}

func (a *App) Register(ctx context.Context, args []string) error {
	fs := newFlagSet("register")
	username := fs.String("u", "", "username")
	email := fs.String("e", "", "email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if *username, err = a.prompted(*username, "Enter username"); err != nil {
		return err
	}
	if *email, err = a.prompted(*email, "Enter email"); err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	confirm, err := getPassword("Confirm password", a.out)
	if err != nil {
		return err
	}
	defer wipe(confirm)

	acc, err := a.client.Register(ctx, client.RegisterInput{
		Username:        *username,
		Email:           *email,
		Password:        string(password),
		ConfirmPassword: string(confirm),
	})
	if err != nil {
		return a.explain(err)
	}

	fmt.Fprintf(a.out, "Registered %s (%s), id %s\n", acc.Username, acc.Email, acc.ID)
	return nil
}

func (a *App) Login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	login := fs.String("u", "", "username or email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if *login, err = a.prompted(*login, "Enter username or email"); err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	acc, err := a.client.Login(ctx, *login, string(password))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", acc.Username, acc.Role)
	return nil
}

func (a *App) Refresh(ctx context.Context, _ []string) error {
	if err := a.client.Refresh(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Session refreshed")
	return nil
}

func (a *App) Logout(ctx context.Context, _ []string) error {
	if err := a.client.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

// DeleteUser removes the account named by -id, defaulting to the signed-in
// one. Deleting yourself also forgets the local session.
func (a *App) DeleteUser(ctx context.Context, args []string) error {
	fs := newFlagSet("delete-user")
	id := fs.String("id", "", "account id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	self := subjectOf(a.client.Tokens().AccessToken)
	if *id == "" {
		*id = self
	}
	if *id == "" {
		return client.ErrNotSignedIn
	}

	if err := a.client.DeleteUser(ctx, *id); err != nil {
		return err
	}

	if *id == self {
		a.client.SetTokens(client.Tokens{})
	}
	fmt.Fprintf(a.out, "Deleted account %s\n", *id)
	return nil
}

func (a *App) Ping(ctx context.Context, _ []string) error {
	if err := a.client.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "OK")
	return nil
}

// explain prints each server-side field message on its own line.
func (a *App) explain(err error) error {
	var ve *client.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	for _, v := range ve.Violations {
		fmt.Fprintf(a.out, "  - %s\n", v.Description)
	}
	return err
}

// subjectOf reads the account id from an access token without verifying it.
// The server still verifies the token on every protected call.
func subjectOf(token string) string {
	if token == "" {
		return ""
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	return claims.Subject
}
