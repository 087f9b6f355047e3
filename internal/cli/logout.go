package cli

import (
	"log/slog"

	"github.com/mss-project-web/admin-dashboard-sub000/pkg/apiclient"
	"github.com/spf13/cobra"
)

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the stored cookies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, jar, err := a.openClient("/")
			if err != nil {
				return err
			}

			logoutErr := client.Logout(cmd.Context())

			// The local session goes either way; a server that cannot be
			// reached still expires the cookies on its own.
			if err := jar.Clear(); err != nil {
				a.logger.Warn("failed to clear session", slog.String("path", jar.Path()), slog.Any("error", err))
			}

			if logoutErr != nil {
				return &userError{msg: apiclient.HandleAPIErrorIn(logoutErr, a.tag), cause: logoutErr}
			}
			if a.jsonOutput {
				return a.printJSON(map[string]string{"status": "signed_out"})
			}
			return nil
		},
	}
}
