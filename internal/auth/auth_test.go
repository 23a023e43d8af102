package auth

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	drive "google.golang.org/api/drive/v3"
)

const testCredentials = `{
  "installed": {
    "client_id": "client-id",
    "client_secret": "client-secret",
    "auth_uri": "https://accounts.example/auth",
    "token_uri": "https://accounts.example/token",
    "redirect_uris": ["urn:ietf:wg:oauth:2.0:oob", "http://localhost"]
  }
}`

func tempStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	credPath := filepath.Join(dir, "credentials.json")
	require.NoError(t, os.WriteFile(credPath, []byte(testCredentials), 0600))
	return NewStore(credPath, filepath.Join(dir, "token.json"))
}

func TestSaveLoadToken(t *testing.T) {
	store := tempStore(t)

	tok := &oauth2.Token{
		AccessToken:  "access",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
	}
	require.NoError(t, store.SaveToken(tok))

	info, err := os.Stat(store.TokenPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := store.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, "access", got.AccessToken)
	assert.Equal(t, "Bearer", got.TokenType)
	assert.Equal(t, "refresh", got.RefreshToken)
	assert.WithinDuration(t, tok.Expiry, got.Expiry, time.Second)
}

func TestLoadTokenMissing(t *testing.T) {
	store := tempStore(t)

	_, err := store.LoadToken()
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteTokenIdempotent(t *testing.T) {
	store := tempStore(t)

	require.NoError(t, store.SaveToken(&oauth2.Token{AccessToken: "access"}))
	assert.True(t, store.HasToken())

	require.NoError(t, store.DeleteToken())
	assert.False(t, store.HasToken())

	require.NoError(t, store.DeleteToken())
}

func TestOAuthConfig(t *testing.T) {
	store := tempStore(t)

	conf, err := store.OAuthConfig()
	require.NoError(t, err)
	assert.Equal(t, "client-id", conf.ClientID)
	assert.Equal(t, []string{drive.DriveScope}, conf.Scopes)
}

func TestOAuthConfigMissingCredentials(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope.json"), "")

	_, err := store.OAuthConfig()
	require.Error(t, err)
}

func TestNeedsConsent(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name string
		tok  *oauth2.Token
		want bool
	}{
		{name: "nil token", tok: nil, want: true},
		{name: "empty token", tok: &oauth2.Token{}, want: true},
		{name: "expired without refresh", tok: &oauth2.Token{AccessToken: "a", Expiry: past}, want: true},
		{name: "expired with refresh", tok: &oauth2.Token{AccessToken: "a", RefreshToken: "r", Expiry: past}, want: false},
		{name: "valid", tok: &oauth2.Token{AccessToken: "a", Expiry: future}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, needsConsent(tt.tok))
		})
	}
}

type staticTokenSource struct {
	tok   *oauth2.Token
	calls int
}

func (s *staticTokenSource) Token() (*oauth2.Token, error) {
	s.calls++
	return s.tok, nil
}

func TestSavingTokenSourcePersistsRefresh(t *testing.T) {
	store := tempStore(t)

	old := &oauth2.Token{AccessToken: "old", RefreshToken: "refresh"}
	require.NoError(t, store.SaveToken(old))

	fresh := &oauth2.Token{
		AccessToken:  "new",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
	}
	inner := &staticTokenSource{tok: fresh}
	ts := &savingTokenSource{store: store, inner: inner, last: old}

	got, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "new", got.AccessToken)
	assert.Equal(t, 1, inner.calls)

	onDisk, err := store.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, "new", onDisk.AccessToken)
}

func TestTokenSourceReusesValidToken(t *testing.T) {
	store := tempStore(t)

	require.NoError(t, store.SaveToken(&oauth2.Token{
		AccessToken: "access",
		Expiry:      time.Now().Add(time.Hour),
	}))

	ts, err := store.TokenSource(context.Background(), strings.NewReader(""), io.Discard)
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "access", tok.AccessToken)
}

func TestAuthorizeManualEmptyCode(t *testing.T) {
	store := tempStore(t)
	conf, err := store.OAuthConfig()
	require.NoError(t, err)

	var out bytes.Buffer
	_, err = store.authorizeManual(context.Background(), conf, "state", strings.NewReader("\n"), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty authorization code")
	assert.Contains(t, out.String(), "https://accounts.example/auth")
}

func TestRandomState(t *testing.T) {
	a, err := randomState()
	require.NoError(t, err)
	b, err := randomState()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
