package git

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/zalando/go-keyring"
	cryptossh "golang.org/x/crypto/ssh"

	"gitnotifier/pkg/errors"
)

// Keyring services holding HTTPS tokens and SSH key passphrases
const (
	keyringTokenService = "gitnotifier"
	keyringSSHService   = "gitnotifier-ssh"
)

// AuthOptions configures how AuthManager authenticates go-git transports
type AuthOptions struct {
	// SSHKeyPath is tried before the agent and the default keys
	SSHKeyPath string
	// KnownHostsFile overrides the default known_hosts lookup
	KnownHostsFile string
	// InsecureSkipHostKey accepts any SSH host key
	InsecureSkipHostKey bool
}

// AuthManager resolves go-git authentication for remote URLs.
// HTTPS remotes without stored credentials are accessed anonymously.
type AuthManager struct {
	opts AuthOptions
}

// NewAuthManager creates a new authentication manager
func NewAuthManager(opts AuthOptions) *AuthManager {
	return &AuthManager{opts: opts}
}

// GetAuth returns the authentication method for a git URL, or nil when
// the remote needs none. A nil manager always returns nil.
func (am *AuthManager) GetAuth(gitURL string) (transport.AuthMethod, error) {
	if am == nil {
		return nil, nil
	}

	switch {
	case IsSSHURL(gitURL):
		return am.getSSHAuth(gitURL)
	case IsHTTPSURL(gitURL):
		return am.getHTTPSAuth(gitURL), nil
	default:
		return nil, nil
	}
}

// StorePassphrase saves the passphrase of an encrypted SSH key in the system keyring
func (am *AuthManager) StorePassphrase(keyPath, passphrase string) error {
	if _, err := ssh.NewPublicKeysFromFile("git", keyPath, passphrase); err != nil {
		return errors.Wrap(err, errors.ErrCodeMalformedConfig, "Passphrase does not unlock the SSH key").
			WithContext("key_path", keyPath)
	}
	if err := keyring.Set(keyringSSHService, filepath.Base(keyPath), passphrase); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "Failed to store passphrase in the system keyring").
			WithContext("key_path", keyPath)
	}
	return nil
}

// StoreToken saves an HTTPS access token for host in the system keyring
func (am *AuthManager) StoreToken(host, token string) error {
	if err := keyring.Set(keyringTokenService, host, token); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "Failed to store token in the system keyring").
			WithContext("host", host)
	}
	return nil
}

// RemoveToken deletes a stored HTTPS access token
func (am *AuthManager) RemoveToken(host string) error {
	err := keyring.Delete(keyringTokenService, host)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return errors.Wrap(err, errors.ErrCodeInternal, "Failed to remove token from the system keyring").
			WithContext("host", host)
	}
	return nil
}

func (am *AuthManager) getSSHAuth(gitURL string) (transport.AuthMethod, error) {
	host := extractHost(gitURL)

	if am.opts.SSHKeyPath != "" {
		auth, err := am.publicKeysFromFile(am.opts.SSHKeyPath)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeClone, "Failed to load configured SSH key").
				WithContext("key_path", am.opts.SSHKeyPath)
		}
		return auth, nil
	}

	if auth, err := ssh.NewSSHAgentAuth("git"); err == nil {
		if err := am.applyHostKeyCallback(&auth.HostKeyCallbackHelper); err != nil {
			return nil, err
		}
		return auth, nil
	}

	home, _ := os.UserHomeDir()
	for _, name := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
		keyPath := filepath.Join(home, ".ssh", name)
		if _, err := os.Stat(keyPath); err != nil {
			continue
		}
		if auth, err := am.publicKeysFromFile(keyPath); err == nil {
			return auth, nil
		}
	}

	return nil, errors.New(errors.ErrCodeClone, "No SSH authentication method available").
		WithContext("host", host).
		WithSuggestions(
			"Add your SSH key to the SSH agent with 'ssh-add'",
			"Set ssh.key_path in the configuration",
			"Use the git backend, which uses your git and ssh configuration",
		)
}

// publicKeysFromFile loads a key, retrying with a passphrase from the keyring
// when the key is encrypted
func (am *AuthManager) publicKeysFromFile(keyPath string) (*ssh.PublicKeys, error) {
	auth, err := ssh.NewPublicKeysFromFile("git", keyPath, "")
	if err != nil {
		passphrase, kerr := keyring.Get(keyringSSHService, filepath.Base(keyPath))
		if kerr != nil || passphrase == "" {
			return nil, err
		}
		auth, err = ssh.NewPublicKeysFromFile("git", keyPath, passphrase)
		if err != nil {
			return nil, err
		}
	}

	if err := am.applyHostKeyCallback(&auth.HostKeyCallbackHelper); err != nil {
		return nil, err
	}
	return auth, nil
}

func (am *AuthManager) applyHostKeyCallback(helper *ssh.HostKeyCallbackHelper) error {
	callback, err := am.hostKeyCallback()
	if err != nil {
		return err
	}
	helper.HostKeyCallback = callback
	return nil
}

func (am *AuthManager) hostKeyCallback() (cryptossh.HostKeyCallback, error) {
	if am.opts.InsecureSkipHostKey {
		return cryptossh.InsecureIgnoreHostKey(), nil
	}

	var files []string
	if am.opts.KnownHostsFile != "" {
		files = append(files, am.opts.KnownHostsFile)
	}
	callback, err := ssh.NewKnownHostsCallback(files...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeClone, "Failed to load SSH known hosts").
			WithSuggestions(
				"Connect once with ssh to record the host key",
				"Set ssh.known_hosts to an existing known_hosts file",
			)
	}
	return callback, nil
}

func (am *AuthManager) getHTTPSAuth(gitURL string) transport.AuthMethod {
	host := extractHost(gitURL)

	if token, err := keyring.Get(keyringTokenService, host); err == nil && token != "" {
		return &http.BasicAuth{Username: "token", Password: token}
	}

	return authFromEnv(host)
}

// authFromEnv checks host-specific and provider tokens, then GIT_USERNAME/GIT_PASSWORD
func authFromEnv(host string) transport.AuthMethod {
	hostUpper := strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(host))
	token := os.Getenv(hostUpper + "_TOKEN")

	if token == "" {
		switch {
		case strings.Contains(host, "github"):
			token = os.Getenv("GITHUB_TOKEN")
		case strings.Contains(host, "gitlab"):
			token = os.Getenv("GITLAB_TOKEN")
		case strings.Contains(host, "bitbucket"):
			token = os.Getenv("BITBUCKET_TOKEN")
		default:
			token = os.Getenv("GIT_TOKEN")
		}
	}

	if token != "" {
		return &http.BasicAuth{Username: "token", Password: token}
	}

	username := os.Getenv("GIT_USERNAME")
	password := os.Getenv("GIT_PASSWORD")
	if username != "" && password != "" {
		return &http.BasicAuth{Username: username, Password: password}
	}

	return nil
}
