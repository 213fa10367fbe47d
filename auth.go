package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/andinfinity/idroplink-go/internal/session"
)

func newSignupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create a new idrop.link account",
		Args:  cobra.NoArgs,
		RunE:  runSignup,
	}
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in with saved or freshly entered credentials",
		Args:  cobra.NoArgs,
		RunE:  runLogin,
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and remove saved credentials",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Display the logged-in account",
		Args:  cobra.NoArgs,
		RunE:  runWhoami,
	}
}

func runSignup(_ *cobra.Command, _ []string) error {
	app := buildApp()
	defer app.Close()

	email, password, err := promptCredentials()
	if err != nil {
		return err
	}

	id, err := app.Session.SignUp(context.Background(), email, password)
	if err != nil {
		return fmt.Errorf("%s", session.UserMessage(err))
	}

	statusf("Account created (id %s). You are now set up; run `idroplink login`.\n", id)

	return nil
}

func runLogin(_ *cobra.Command, _ []string) error {
	app := buildApp()
	defer app.Close()

	ctx := context.Background()

	// Saved credentials first; prompt only when recovery comes up empty.
	if !app.Session.RestoreCredentials() {
		email, password, err := promptCredentials()
		if err != nil {
			return err
		}

		if err := app.Session.FetchUserID(ctx, email, password); err != nil {
			return fmt.Errorf("%s", session.UserMessage(err))
		}
	}

	if err := app.Session.Login(ctx); err != nil {
		return fmt.Errorf("%s", session.UserMessage(err))
	}

	statusf("Logged in as %s.\n", app.Session.Credentials().Email)

	return nil
}

func runLogout(_ *cobra.Command, _ []string) error {
	app := buildApp()
	defer app.Close()

	app.Session.PurgeCredentials()
	app.Session.Logout()

	statusf("Logged out.\n")

	return nil
}

func runWhoami(_ *cobra.Command, _ []string) error {
	app := buildApp()
	defer app.Close()

	if !app.Session.RestoreCredentials() {
		return fmt.Errorf("%s", session.UserMessage(session.ErrNoCredentials))
	}

	cred := app.Session.Credentials()
	fmt.Printf("%s (id %s)\n", cred.Email, cred.UserID)

	return nil
}

// promptCredentials reads an email and password from the terminal. The
// password is read without echo when stdin is a TTY.
func promptCredentials() (email, password string, err error) {
	reader := bufio.NewReader(os.Stdin)

	fmt.Fprint(os.Stderr, "Email: ")

	email, err = reader.ReadString('\n')
	if err != nil {
		return "", "", fmt.Errorf("reading email: %w", err)
	}

	email = strings.TrimSpace(email)

	fmt.Fprint(os.Stderr, "Password: ")

	if isatty.IsTerminal(os.Stdin.Fd()) {
		raw, readErr := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)

		if readErr != nil {
			return "", "", fmt.Errorf("reading password: %w", readErr)
		}

		password = string(raw)
	} else {
		line, readErr := reader.ReadString('\n')
		if readErr != nil {
			return "", "", fmt.Errorf("reading password: %w", readErr)
		}

		password = strings.TrimSpace(line)
	}

	if email == "" || password == "" {
		return "", "", fmt.Errorf("email and password must not be empty")
	}

	return email, password, nil
}
