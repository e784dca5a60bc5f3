package main

import (
	"errors"
	"fmt"

	"note-taker/internal/clients/api"

	"github.com/spf13/cobra"
)

type accountFlags struct {
	email    string
	password string
}

func (f *accountFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.email, "email", "", "Account e-mail")
	cmd.Flags().StringVar(&f.password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
}

func newRegisterCommand(c *cli) *cobra.Command {
	var f accountFlags
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cred, err := c.client.SignUp(cmd.Context(), f.email, f.password)
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}
			c.printf("%s signed up as %s\n", ok.Sprint("✔"), cred.Email)
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newLoginCommand(c *cli) *cobra.Command {
	var f accountFlags
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cred, err := c.client.SignIn(cmd.Context(), f.email, f.password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			c.printf("%s signed in as %s\n", ok.Sprint("✔"), cred.Email)
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newLogoutCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.creds.Clear(); err != nil {
				return err
			}
			c.printf("signed out\n")
			return nil
		},
	}
}

func newWhoamiCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, found := c.creds.Current(); !found {
				return errNotSignedIn
			}
			user, err := c.client.Me(cmd.Context())
			if errors.Is(err, api.ErrUnauthorized) {
				// Expired or revoked: drop it so the next command asks for a login.
				_ = c.creds.Clear()
				return errNotSignedIn
			}
			if err != nil {
				return err
			}
			c.printf("%s %s\n", bold.Sprint(user.Email), faint.Sprint(user.ID))
			return nil
		},
	}
}
