package git

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	cryptossh "golang.org/x/crypto/ssh"
)

func TestGetAuthNilManager(t *testing.T) {
	var am *AuthManager

	auth, err := am.GetAuth("https://github.com/user/repo")
	require.NoError(t, err)
	assert.Nil(t, auth)
}

func TestGetAuthLocalNeedsNone(t *testing.T) {
	am := NewAuthManager(AuthOptions{})

	auth, err := am.GetAuth("/srv/git/repo")
	require.NoError(t, err)
	assert.Nil(t, auth)
}

func TestGetAuthHTTPSAnonymous(t *testing.T) {
	keyring.MockInit()
	t.Setenv("GIT_TOKEN", "")
	t.Setenv("GIT_USERNAME", "")
	t.Setenv("GIT_PASSWORD", "")

	am := NewAuthManager(AuthOptions{})
	auth, err := am.GetAuth("https://git.example.com/team/repo")
	require.NoError(t, err)
	assert.Nil(t, auth)
}

func TestGetAuthHTTPSFromKeyring(t *testing.T) {
	keyring.MockInit()

	am := NewAuthManager(AuthOptions{})
	require.NoError(t, am.StoreToken("git.example.com", "s3cret"))

	auth, err := am.GetAuth("https://git.example.com/team/repo")
	require.NoError(t, err)
	require.IsType(t, &http.BasicAuth{}, auth)
	assert.Equal(t, "s3cret", auth.(*http.BasicAuth).Password)

	require.NoError(t, am.RemoveToken("git.example.com"))
	require.NoError(t, am.RemoveToken("git.example.com"), "removing twice is fine")
}

func TestAuthFromEnv(t *testing.T) {
	t.Setenv("GIT_EXAMPLE_COM_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "gh-token")
	t.Setenv("GIT_TOKEN", "")
	t.Setenv("GIT_USERNAME", "alice")
	t.Setenv("GIT_PASSWORD", "pw")

	github := authFromEnv("github.com")
	require.NotNil(t, github)
	assert.Equal(t, "gh-token", github.(*http.BasicAuth).Password)

	other := authFromEnv("git.example.com")
	require.NotNil(t, other)
	assert.Equal(t, "alice", other.(*http.BasicAuth).Username)

	t.Setenv("GIT_EXAMPLE_COM_TOKEN", "host-token")
	specific := authFromEnv("git.example.com")
	assert.Equal(t, "host-token", specific.(*http.BasicAuth).Password)
}

func TestHostKeyCallbackInsecure(t *testing.T) {
	am := NewAuthManager(AuthOptions{InsecureSkipHostKey: true})

	callback, err := am.hostKeyCallback()
	require.NoError(t, err)
	assert.NotNil(t, callback)
}

func TestHostKeyCallbackMissingFile(t *testing.T) {
	am := NewAuthManager(AuthOptions{KnownHostsFile: "/nonexistent/known_hosts"})

	_, err := am.hostKeyCallback()
	assert.Error(t, err)
}

func TestStorePassphrase(t *testing.T) {
	keyring.MockInit()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := cryptossh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)

	keyPath := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(block), 0600))

	am := NewAuthManager(AuthOptions{})
	require.NoError(t, am.StorePassphrase(keyPath, ""))

	stored, err := keyring.Get(keyringSSHService, "id_ed25519")
	require.NoError(t, err)
	assert.Equal(t, "", stored)

	err = am.StorePassphrase(filepath.Join(t.TempDir(), "missing"), "pw")
	require.Error(t, err)
}
