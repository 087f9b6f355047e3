package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mss-project-web/admin-dashboard-sub000/pkg/apiclient"
	"github.com/spf13/cobra"
)

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "Send an authenticated GET and print the response body",
		Example: `  mssadmin get /users/me
  mssadmin --lang th get /users/me`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			client, jar, err := a.openClient(path)
			if err != nil {
				return err
			}
			defer a.saveJar(jar)

			resp, err := client.Do(cmd.Context(), apiclient.Request{Method: http.MethodGet, Path: path})
			if err != nil {
				return &userError{msg: apiclient.HandleAPIErrorIn(err, a.tag), cause: err}
			}
			return a.printBody(resp.Body)
		},
	}
}

// printBody pretty-prints JSON bodies and writes anything else verbatim
func (a *app) printBody(body []byte) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		_, err = fmt.Fprintln(a.out, string(body))
		return err
	}
	_, err := fmt.Fprintln(a.out, buf.String())
	return err
}
