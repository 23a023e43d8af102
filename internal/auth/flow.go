package auth

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
	"golang.org/x/oauth2"
)

// oobRedirectURL asks the authorization server to show the code in the
// browser for copy-and-paste instead of redirecting anywhere.
const oobRedirectURL = "urn:ietf:wg:oauth:2.0:oob"

const consentPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>drivesync</title></head>
<body>
<h1>%s</h1>
<p>%s</p>
</body>
</html>
`

// Authorize runs the interactive consent flow and returns the new token.
// It binds an ephemeral local webserver for the redirect; when no listener
// can be bound it falls back to prompting for a pasted code on in/out.
func (s *Store) Authorize(ctx context.Context, conf *oauth2.Config, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		logrus.WithError(err).Debug("cannot bind consent listener, using manual code entry")
		return s.authorizeManual(ctx, conf, state, in, out)
	}
	defer ln.Close()

	return s.authorizeLocal(ctx, conf, state, ln, out)
}

type authCode struct {
	code string
	err  error
}

// authorizeLocal serves a single OAuth redirect on ln and exchanges the
// received code.
func (s *Store) authorizeLocal(ctx context.Context, conf *oauth2.Config, state string, ln net.Listener, out io.Writer) (*oauth2.Token, error) {
	local := *conf
	local.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr().String())

	results := make(chan authCode, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		switch {
		case q.Get("error") != "":
			fmt.Fprintf(w, consentPage, "Authorization failed", q.Get("error"))
			results <- authCode{err: fmt.Errorf("consent denied: %s", q.Get("error"))}
		case q.Get("state") != state:
			fmt.Fprintf(w, consentPage, "Authorization failed", "State mismatch - please retry.")
			results <- authCode{err: fmt.Errorf("state mismatch in redirect")}
		case q.Get("code") == "":
			fmt.Fprintf(w, consentPage, "Authorization failed", "No code in redirect - please retry.")
			results <- authCode{err: fmt.Errorf("no code in redirect")}
		default:
			fmt.Fprintf(w, consentPage, "All done", "You can close this window and return to drivesync.")
			results <- authCode{code: q.Get("code")}
		}
	})

	srv := &http.Server{Handler: mux}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Debug("consent listener stopped")
		}
	}()
	defer srv.Close()

	authURL := local.AuthCodeURL(state, oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Opening the authorization page in your browser.\nIf nothing happens, visit:\n%s\n", authURL)
	if err := open.Start(authURL); err != nil {
		logrus.WithError(err).Debug("could not launch browser")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := local.Exchange(ctx, res.code)
		if err != nil {
			return nil, fmt.Errorf("exchange code: %w", err)
		}
		return tok, nil
	}
}

// authorizeManual prints the auth URL and reads the code from in.
func (s *Store) authorizeManual(ctx context.Context, conf *oauth2.Config, state string, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	manual := *conf
	manual.RedirectURL = oobRedirectURL

	authURL := manual.AuthCodeURL(state, oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Go to the following link in your browser then type the authorization code:\n%s\n\n", authURL)
	fmt.Fprint(out, "Authorization code: ")

	// Reuse the caller's buffered reader so no piped input is lost.
	reader, ok := in.(*bufio.Reader)
	if !ok {
		reader = bufio.NewReader(in)
	}
	code, err := reader.ReadString('\n')
	if err != nil && code == "" {
		return nil, fmt.Errorf("read authorization code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("empty authorization code")
	}

	tok, err := manual.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return tok, nil
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
