package cli

import (
	"math"
	"path/filepath"

	"github.com/mss-project-web/admin-dashboard-sub000/internal/session"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/throttle"
	"github.com/spf13/cobra"
)

type statusResult struct {
	State            string `json:"state"`
	Failures         int    `json:"failures"`
	RemainingSeconds int    `json:"remaining_seconds"`
	SessionCookies   int    `json:"session_cookies"`
	Degraded         bool   `json:"degraded,omitempty"`
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the login throttle and stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			guard := a.openGuard()
			jar, err := session.Open(filepath.Join(a.cfg.StateDir, sessionFile), a.cfg.APIBaseURL)
			if err != nil {
				return err
			}

			res := statusResult{
				State:            guard.State().String(),
				Failures:         guard.Failures(),
				RemainingSeconds: int(math.Ceil(guard.Remaining().Seconds())),
				SessionCookies:   jar.Len(),
				Degraded:         guard.Degraded(),
			}
			if a.jsonOutput {
				return a.printJSON(res)
			}

			a.println(msgStatusState, res.State)
			a.println(msgStatusFailures, res.Failures)
			if guard.State() == throttle.Locked {
				a.println(msgStatusRemaining, res.RemainingSeconds)
			}
			a.println(msgStatusSession, res.SessionCookies)
			if res.Degraded {
				a.println(msgStorageDegraded)
			}
			return nil
		},
	}
}
