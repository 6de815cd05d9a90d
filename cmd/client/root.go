// cmd/client/root.go
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"roamly/internal/client/gqlclient"
	"roamly/internal/client/session"
	"roamly/internal/client/signup"
)

type rootFlags struct {
	server  string
	token   string
	verbose bool
}

func NewCmdRoot() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:          "roamly",
		Short:        "Join and use the roamly travel community from the terminal",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&flags.server, "server", envOr("ROAMLY_SERVER", "http://localhost:3000/graphql"), "GraphQL endpoint")
	cmd.PersistentFlags().StringVar(&flags.token, "token-file", session.DefaultPath(), "Where the session token is kept")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log diagnostics to stderr")

	cmd.AddCommand(NewCmdSignup(flags))
	cmd.AddCommand(NewCmdWhoami(flags))
	cmd.AddCommand(NewCmdLogout(flags))

	return cmd
}

func NewCmdSignup(root *rootFlags) *cobra.Command {
	var values signup.Request

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if values.Password == "" && term.IsTerminal(int(os.Stdin.Fd())) {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				pw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(cmd.ErrOrStderr())
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				values.Password = string(pw)
			}

			store := session.NewStore(root.token)
			client := gqlclient.New(root.server, tokenSource(store))
			form := signup.NewForm(client, store, root.logger(cmd))

			for name, value := range map[string]string{
				signup.FieldUsername:    values.Username,
				signup.FieldEmail:       values.Email,
				signup.FieldPassword:    values.Password,
				signup.FieldLocation:    values.Location,
				signup.FieldDescription: values.Description,
			} {
				if err := form.Change(name, value); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.ErrOrStderr(), signup.LabelInFlight)
			if !form.Submit(cmd.Context()) {
				return fmt.Errorf("%s", form.ErrorText())
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Welcome aboard, %s! You are now logged in.\n", values.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&values.Username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&values.Email, "email", "e", "", "Email address")
	cmd.Flags().StringVarP(&values.Password, "password", "p", "", "Password (prompted when omitted)")
	cmd.Flags().StringVarP(&values.Location, "location", "l", "", "Where you are based")
	cmd.Flags().StringVarP(&values.Description, "description", "d", "", "Tell us a little about yourself")

	return cmd
}

func NewCmdWhoami(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := session.NewStore(root.token)
			if !store.LoggedIn() {
				return session.ErrNoSession
			}

			me, err := gqlclient.New(root.server, tokenSource(store)).Me(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", me.Username, me.Email)
			if me.Location != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Based in %s\n", me.Location)
			}
			if me.Description != "" {
				fmt.Fprintln(cmd.OutOrStdout(), me.Description)
			}
			return nil
		},
	}
}

func NewCmdLogout(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := session.NewStore(root.token)
			if store.LoggedIn() {
				if err := gqlclient.New(root.server, tokenSource(store)).Logout(cmd.Context()); err != nil {
					root.logger(cmd).Warn("server logout failed", "error", err)
				}
			}
			return store.Logout()
		},
	}
}

func (f *rootFlags) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(cmd.ErrOrStderr(), &tint.Options{Level: level}))
}

func tokenSource(store *session.Store) gqlclient.TokenSource {
	return func() string {
		token, err := store.Token()
		if err != nil {
			return ""
		}
		return token
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
