package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xxxsen/griffin/internal/client"
)

func newLoginCmd() *cobra.Command {
	var (
		email    string
		password string
		name     string
		signup   bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "log in (or sign up) and remember the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("GRIFFIN_PASSWORD")
			}
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password (or GRIFFIN_PASSWORD) are required")
			}
			store, err := openState()
			if err != nil {
				return err
			}
			server := resolveServer(store)
			api := client.New(server)
			var res *client.AuthResult
			if signup {
				res, err = api.Signup(cmd.Context(), email, password, name)
			} else {
				res, err = api.Login(cmd.Context(), email, password)
			}
			if err != nil {
				return err
			}
			if err := store.Set(stateKeyServer, server); err != nil {
				return err
			}
			if err := store.Set(stateKeyToken, res.Token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (%s)\n", res.User.Email, server)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&name, "name", "", "display name used with --signup")
	cmd.Flags().BoolVar(&signup, "signup", false, "create the account first")
	return cmd
}
