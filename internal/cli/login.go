package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (a *app) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <device-uuid>",
		Short: "Log in with a device uuid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.newClient(a.apiURL)
			if err != nil {
				return err
			}

			session, err := client.Login(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			user, err := client.FetchCurrentUser(cmd.Context(), session.AccessToken)
			if err != nil {
				return fmt.Errorf("login, fetch user: %w", err)
			}

			if err := saveCredentials(a.credentialsPath, &Credentials{
				APIURL:      a.apiURL,
				AccessToken: session.AccessToken,
				UserID:      user.ID,
				Email:       user.Email,
				LoggedInAt:  time.Now().UTC().Truncate(time.Second),
			}); err != nil {
				return err
			}

			name := user.Email
			if name == "" {
				name = user.ID
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", name)
			return nil
		},
	}
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := removeCredentials(a.credentialsPath)
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintln(cmd.OutOrStdout(), "not logged in")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}
