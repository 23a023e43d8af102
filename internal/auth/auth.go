// Package auth manages the OAuth credential store: the client secret file,
// the cached token and the interactive consent flow used to obtain one.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
)

// Store reads and writes the OAuth files for one account.
type Store struct {
	CredentialsPath string
	TokenPath       string
}

// NewStore returns a Store over the given client secret and token files.
func NewStore(credentialsPath, tokenPath string) *Store {
	return &Store{CredentialsPath: credentialsPath, TokenPath: tokenPath}
}

// OAuthConfig parses the installed-app client secret file into an OAuth
// config requesting full Drive scope.
func (s *Store) OAuthConfig() (*oauth2.Config, error) {
	b, err := os.ReadFile(s.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	conf, err := google.ConfigFromJSON(b, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}
	return conf, nil
}

// LoadToken reads the cached token from disk.
func (s *Store) LoadToken() (*oauth2.Token, error) {
	f, err := os.Open(s.TokenPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}
	return tok, nil
}

// SaveToken writes the token to disk, readable only by the owner.
func (s *Store) SaveToken(tok *oauth2.Token) error {
	f, err := os.OpenFile(s.TokenPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	return nil
}

// DeleteToken removes the cached token so the next run re-consents.
func (s *Store) DeleteToken() error {
	err := os.Remove(s.TokenPath)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// HasToken reports whether a cached token file exists.
func (s *Store) HasToken() bool {
	_, err := os.Stat(s.TokenPath)
	return err == nil
}

// needsConsent reports whether tok cannot be used or refreshed and the
// interactive flow has to run again.
func needsConsent(tok *oauth2.Token) bool {
	if tok == nil {
		return true
	}
	return !tok.Valid() && tok.RefreshToken == ""
}

// TokenSource returns a source backed by the stored token, running the
// interactive consent flow first if no usable token exists. Refreshed
// tokens are written back to the store. in and out carry the prompts of
// the manual fallback flow.
func (s *Store) TokenSource(ctx context.Context, in io.Reader, out io.Writer) (oauth2.TokenSource, error) {
	conf, err := s.OAuthConfig()
	if err != nil {
		return nil, err
	}

	tok, err := s.LoadToken()
	if err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("stored token unreadable, requesting a new one")
	}
	if err != nil || needsConsent(tok) {
		tok, err = s.Authorize(ctx, conf, in, out)
		if err != nil {
			return nil, err
		}
		if err := s.SaveToken(tok); err != nil {
			return nil, err
		}
	}

	return &savingTokenSource{store: s, inner: conf.TokenSource(ctx, tok), last: tok}, nil
}

// savingTokenSource persists tokens whenever the wrapped source hands out
// a new one, so refreshes survive the process.
type savingTokenSource struct {
	mu    sync.Mutex
	store *Store
	inner oauth2.TokenSource
	last  *oauth2.Token
}

func (ts *savingTokenSource) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	tok, err := ts.inner.Token()
	if err != nil {
		return nil, err
	}
	if ts.last == nil || tok.AccessToken != ts.last.AccessToken || tok.RefreshToken != ts.last.RefreshToken {
		if err := ts.store.SaveToken(tok); err != nil {
			logrus.WithError(err).Warn("could not persist refreshed token")
		} else {
			logrus.Debug("saved refreshed token")
		}
		ts.last = tok
	}
	return tok, nil
}
