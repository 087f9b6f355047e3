// Package cli implements the mssadmin command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/mss-project-web/admin-dashboard-sub000/internal/config"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/session"
	"github.com/mss-project-web/admin-dashboard-sub000/internal/throttle"
	"github.com/mss-project-web/admin-dashboard-sub000/pkg/apiclient"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	sessionFile  = "session.json"
	throttleFile = "throttle.json"
)

// app carries what every command shares. Tests swap the streams, the
// password reader and the clock.
type app struct {
	jsonOutput bool
	lang       string

	cfg    *config.ClientConfig
	logger *slog.Logger
	tag    language.Tag
	p      *message.Printer

	in           io.Reader
	out          io.Writer
	errOut       io.Writer
	stdinFd      int
	readPassword func(fd int) ([]byte, error)
	isTerminal   func(fd int) bool
	now          func() time.Time
	tickInterval time.Duration
}

func newApp() *app {
	return &app{
		in:           os.Stdin,
		out:          os.Stdout,
		errOut:       os.Stderr,
		stdinFd:      int(os.Stdin.Fd()),
		readPassword: term.ReadPassword,
		isTerminal:   term.IsTerminal,
		now:          time.Now,
		tickInterval: time.Second,
	}
}

// NewRootCmd builds the mssadmin command tree
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "mssadmin",
		Short: "MSS Admin portal from the terminal",
		Long: `mssadmin signs in to the MSS Admin API and keeps the session cookies
between runs. Expired sessions are refreshed transparently; repeated failed
sign-ins suspend login for a minute.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&a.lang, "lang", "", "message language (en, th); defaults to LOCALE")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newGetCmd(a),
		newStatusCmd(a),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func (a *app) setup() error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = slog.New(slog.NewJSONHandler(a.errOut, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	}))

	lang := a.lang
	if lang == "" {
		lang = cfg.Locale
	}
	a.tag = apiclient.ParseLanguage(lang)
	a.p = newPrinter(a.tag)
	return nil
}

// openClient returns a client whose cookies live in the state directory.
// location is where the user "is" while the command runs.
func (a *app) openClient(location string) (*apiclient.Client, *session.Jar, error) {
	jar, err := session.Open(filepath.Join(a.cfg.StateDir, sessionFile), a.cfg.APIBaseURL)
	if err != nil {
		return nil, nil, err
	}

	opts := []apiclient.Option{
		apiclient.WithHTTPClient(&http.Client{Jar: jar}),
		apiclient.WithNavigator(newTerminalNavigator(location, a.errOut, a.p)),
		apiclient.WithLogger(a.logger),
	}
	if a.cfg.SharedRefresh {
		opts = append(opts, apiclient.WithSharedRefresh())
	}

	client, err := apiclient.New(a.cfg.APIBaseURL, opts...)
	if err != nil {
		return nil, nil, err
	}
	return client, jar, nil
}

func (a *app) openGuard() *throttle.Guard {
	return throttle.NewGuard(throttle.NewFileStore(filepath.Join(a.cfg.StateDir, throttleFile)),
		throttle.WithClock(a.now),
		throttle.WithLogger(a.logger),
		throttle.WithTickInterval(a.tickInterval))
}

// saveJar persists cookies after a command. Failure only costs the next
// run a fresh login, so it is logged, not returned.
func (a *app) saveJar(jar *session.Jar) {
	if err := jar.Save(); err != nil {
		a.logger.Warn("failed to save session", slog.String("path", jar.Path()), slog.Any("error", err))
	}
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) println(key string, args ...any) {
	fmt.Fprintln(a.out, a.p.Sprintf(key, args...))
}

// userError is an error whose text has already been localized
type userError struct {
	msg   string
	cause error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.cause }
