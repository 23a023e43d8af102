package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/alleyne234/drivesync/internal/auth"
	"github.com/alleyne234/drivesync/internal/drive"
)

// ErrAborted reports that the user chose to quit instead of retrying a
// failed authentication.
var ErrAborted = errors.New("authentication aborted")

// ConnectFunc builds an authorized client, running the consent flow on
// in/out when needed.
type ConnectFunc func(ctx context.Context, store *auth.Store, in io.Reader, out io.Writer) (drive.Client, error)

// Authenticate keeps trying connect until it succeeds or the user gives
// up. After a failure the user can retry, delete a stale token first,
// or quit.
func Authenticate(ctx context.Context, store *auth.Store, in io.Reader, out io.Writer, connect ConnectFunc) (drive.Client, error) {
	reader, ok := in.(*bufio.Reader)
	if !ok {
		reader = bufio.NewReader(in)
	}
	for {
		client, err := connect(ctx, store, reader, out)
		if err == nil {
			color.New(color.FgGreen).Fprintln(out, "Authentication successful")
			return client, nil
		}
		logrus.WithError(err).Warn("authentication failed")

		if store.HasToken() {
			fmt.Fprint(out, "Authentication failed. Type 'del' to delete 'token.json' and retry or 'quit' to exit.\n")
		} else {
			fmt.Fprint(out, "Authentication failed. Press Enter to retry or 'quit' to exit.\n")
		}

		line, rerr := reader.ReadString('\n')
		if rerr != nil && line == "" {
			return nil, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "del":
			if derr := store.DeleteToken(); derr != nil {
				logrus.WithError(derr).Warn("could not delete token")
			}
		case "quit":
			return nil, ErrAborted
		}
	}
}
