package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/mss-project-web/admin-dashboard-sub000/internal/throttle"
	"github.com/mss-project-web/admin-dashboard-sub000/pkg/apiclient"
	"github.com/spf13/cobra"
)

type loginResult struct {
	Status           string `json:"status"`
	Email            string `json:"email,omitempty"`
	Message          string `json:"message,omitempty"`
	Failures         int    `json:"failures,omitempty"`
	RemainingSeconds int    `json:"remaining_seconds,omitempty"`
}

func newLoginCmd(a *app) *cobra.Command {
	var (
		email         string
		passwordStdin bool
		wait          bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			guard := a.openGuard()

			// Rejected locally while suspended: no password prompt, no request.
			if err := guard.CheckSubmit(); err != nil {
				var locked *throttle.LockedError
				if errors.As(err, &locked) {
					return a.suspended(cmd, guard, wait)
				}
				return err
			}

			password, err := a.password(passwordStdin)
			if err != nil {
				return err
			}

			client, jar, err := a.openClient(apiclient.LoginScreen)
			if err != nil {
				return err
			}
			defer a.saveJar(jar)

			err = client.Login(cmd.Context(), apiclient.Credentials{Email: email, Password: password})
			if err == nil {
				guard.RecordSuccess()
				if a.jsonOutput {
					return a.printJSON(loginResult{Status: "ok", Email: strings.ToLower(strings.TrimSpace(email))})
				}
				a.println(msgSignedIn, strings.ToLower(strings.TrimSpace(email)))
				return nil
			}

			if !countsAsFailedAttempt(err) {
				return a.loginError(err, guard.Failures())
			}

			if guard.RecordFailure() == throttle.Locked {
				return a.suspended(cmd, guard, wait)
			}
			return a.loginError(err, guard.Failures())
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.Flags().BoolVar(&wait, "wait", false, "when suspended, count down until login is available")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// countsAsFailedAttempt reports whether the server answered and refused
// the sign-in. Validation, transport errors and server faults are not the
// user's attempts and do not move the counter.
func countsAsFailedAttempt(err error) bool {
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode >= http.StatusBadRequest && apiErr.StatusCode < http.StatusInternalServerError
}

func (a *app) loginError(err error, failures int) error {
	var msg string
	if errors.Is(err, apiclient.ErrInvalidCredentials) {
		msg = apiclient.Localize(a.tag, apiclient.MsgInvalidData)
	} else {
		msg = apiclient.HandleAPIErrorIn(err, a.tag)
	}

	if a.jsonOutput {
		_ = a.printJSON(loginResult{Status: "failed", Message: msg, Failures: failures})
	}

	text := a.p.Sprintf(msgLoginFailed, msg)
	if failures > 0 {
		if left := throttle.DefaultMaxFailures - failures; left > 0 {
			text += "\n" + a.p.Sprintf(msgAttemptsLeft, left)
		}
	}
	return &userError{msg: text, cause: err}
}

func (a *app) suspended(cmd *cobra.Command, guard *throttle.Guard, wait bool) error {
	seconds := int(math.Ceil(guard.Remaining().Seconds()))
	msg := a.p.Sprintf(msgLoginSuspended, seconds)

	if a.jsonOutput {
		_ = a.printJSON(loginResult{Status: "locked", Message: msg, Failures: guard.Failures(), RemainingSeconds: seconds})
	}

	if !wait {
		return &userError{msg: msg, cause: throttle.ErrLocked}
	}

	fmt.Fprintln(a.errOut, msg)
	err := guard.Countdown(cmd.Context(), func(left int) {
		if left > 0 {
			fmt.Fprintln(a.errOut, a.p.Sprintf(msgLockCountdown, left))
		}
	})
	if err != nil {
		return err
	}
	a.println(msgLoginAvailable)
	return nil
}

// password reads the password without echo, or from stdin when asked
func (a *app) password(fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(a.in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	if !a.isTerminal(a.stdinFd) {
		return "", &userError{msg: a.p.Sprintf(msgNoTerminal)}
	}

	fmt.Fprint(a.errOut, a.p.Sprintf(msgPasswordPrompt))
	pw, err := a.readPassword(a.stdinFd)
	fmt.Fprintln(a.errOut)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}
