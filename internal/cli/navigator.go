package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/mss-project-web/admin-dashboard-sub000/pkg/apiclient"
	"golang.org/x/text/message"
)

// terminalNavigator stands in for the browser location. Redirects are
// shown as a one-line notice, like the toast on the login screen.
type terminalNavigator struct {
	mu       sync.Mutex
	location string
	out      io.Writer
	p        *message.Printer
}

func newTerminalNavigator(location string, out io.Writer, p *message.Printer) *terminalNavigator {
	return &terminalNavigator{location: location, out: out, p: p}
}

func (n *terminalNavigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

func (n *terminalNavigator) Navigate(target string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.location = target

	switch target {
	case apiclient.SessionExpiredTarget:
		fmt.Fprintln(n.out, n.p.Sprintf(msgSessionExpired))
	case apiclient.LoggedOutTarget:
		fmt.Fprintln(n.out, n.p.Sprintf(msgSignedOut))
	default:
		fmt.Fprintln(n.out, n.p.Sprintf(msgRedirect, target))
	}
}
