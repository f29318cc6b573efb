// SPDX-License-Identifier: MPL-2.0

package gitprovider

import (
	"log/slog"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"golang.org/x/crypto/ssh"
)

type (
	// authenticator picks credentials per remote URL from an environment.
	authenticator struct {
		ssh  transport.AuthMethod
		http transport.AuthMethod
	}

	tokenSource struct {
		env      string
		username string
	}
)

var tokenSources = []tokenSource{
	{env: "GITLAB_TOKEN", username: "gitlab-ci-token"},
	{env: "GITHUB_TOKEN", username: "x-access-token"},
	{env: "GIT_TOKEN", username: "git"},
}

func newAuthenticator(env map[string]string) *authenticator {
	a := &authenticator{}
	if key := env["SSH_PRIVATE_KEY"]; key != "" {
		if !strings.HasSuffix(key, "\n") {
			key += "\n"
		}
		keys, err := gitssh.NewPublicKeys("git", []byte(key), "")
		if err != nil {
			slog.Warn("ignoring SSH_PRIVATE_KEY", "error", err)
		} else {
			// Matches GIT_SSH_COMMAND exported by the ssh agent.
			keys.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // host keys are not pinned for build mirrors
			a.ssh = keys
		}
	}
	for _, src := range tokenSources {
		if token := env[src.env]; token != "" {
			a.http = &http.BasicAuth{Username: src.username, Password: token}
			break
		}
	}
	return a
}

// For returns the credentials for url, nil for anonymous access.
func (a *authenticator) For(url string) transport.AuthMethod {
	ep, err := transport.NewEndpoint(url)
	if err != nil {
		return nil
	}
	switch ep.Protocol {
	case "ssh":
		if a.ssh != nil {
			return a.ssh
		}
	case "http", "https":
		if a.http != nil {
			return a.http
		}
	}
	return nil
}
