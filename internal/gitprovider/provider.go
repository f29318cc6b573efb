// SPDX-License-Identifier: MPL-2.0

package gitprovider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/kasbuild/kas/pkg/repos"
)

const originRemote = "origin"

var (
	errDirtyWorktree = errors.New("working copy has uncommitted changes")

	_ repos.Provider = (*Provider)(nil)
)

type (
	// Options configures a Provider.
	Options struct {
		// RepoRefDir holds reference clones named by repos.Repo.QualifiedName.
		RepoRefDir string
		// Environ supplies credentials (SSH_PRIVATE_KEY, GITLAB_TOKEN,
		// GITHUB_TOKEN, GIT_TOKEN).
		Environ map[string]string
	}

	// Provider fetches and checks out repositories with go-git.
	Provider struct {
		refDir string
		auth   *authenticator
	}
)

// New creates a Provider.
func New(opts Options) *Provider {
	return &Provider{refDir: opts.RepoRefDir, auth: newAuthenticator(opts.Environ)}
}

// Fetch clones the repository when its working copy is missing. An existing
// copy is only fetched when the refspec does not resolve locally.
func (p *Provider) Fetch(ctx context.Context, r *repos.Repo) error {
	if r.OperationsDisabled() {
		return nil
	}

	repo, err := git.PlainOpen(r.Path())
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return p.clone(ctx, r)
	}
	if err != nil {
		return &repos.ProviderError{Op: "open", Repo: r.Name(), Err: err}
	}

	if r.Refspec() == "" {
		return nil
	}
	if _, err := repo.ResolveRevision(plumbing.Revision(r.Refspec())); err == nil {
		return nil
	}

	slog.Info("fetching upstream", "repo", r.Name(), "refspec", r.Refspec())
	if err := p.fetch(ctx, repo, r.URL()); err != nil {
		return &repos.ProviderError{Op: "fetch", Repo: r.Name(), Err: err}
	}
	return nil
}

// Checkout moves the working copy to the commit named by the refspec,
// detached. Repos without a refspec and dirty working copies are left alone.
func (p *Provider) Checkout(_ context.Context, r *repos.Repo) error {
	if r.OperationsDisabled() || r.Refspec() == "" {
		return nil
	}

	repo, err := git.PlainOpen(r.Path())
	if err != nil {
		return &repos.ProviderError{Op: "checkout", Repo: r.Name(), Err: err}
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return &repos.ProviderError{Op: "checkout", Repo: r.Name(), Err: err}
	}

	dirty, err := hasTrackedChanges(worktree)
	if err != nil {
		return &repos.ProviderError{Op: "checkout", Repo: r.Name(), Err: err}
	}
	if dirty {
		slog.Warn("repo contains uncommitted changes, skipping checkout", "repo", r.Name(), "error", errDirtyWorktree)
		return nil
	}

	hash, err := resolveRefspec(repo, r.Refspec())
	if err != nil {
		return &repos.ProviderError{Op: "checkout", Repo: r.Name(), Err: err}
	}
	if head, err := repo.Head(); err == nil && head.Hash() == hash {
		return nil
	}

	slog.Info("checking out", "repo", r.Name(), "refspec", r.Refspec(), "commit", hash.String())
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: hash}); err != nil {
		return &repos.ProviderError{Op: "checkout", Repo: r.Name(), Err: err}
	}
	return nil
}

func (p *Provider) clone(ctx context.Context, r *repos.Repo) error {
	_, statErr := os.Stat(r.Path())
	preexisting := statErr == nil
	if err := os.MkdirAll(filepath.Dir(r.Path()), 0o755); err != nil {
		return &repos.ProviderError{Op: "clone", Repo: r.Name(), Err: err}
	}

	source := r.URL()
	reference := p.referencePath(r)
	if reference != "" {
		source = reference
	}

	slog.Info("cloning repository", "repo", r.Name(), "url", source)
	repo, err := git.PlainCloneContext(ctx, r.Path(), false, &git.CloneOptions{
		URL:  source,
		Auth: p.auth.For(source),
	})
	if err != nil {
		// A partial clone would make the next run skip the clone.
		if !preexisting {
			_ = os.RemoveAll(r.Path())
		}
		return &repos.ProviderError{Op: "clone", Repo: r.Name(), Err: err}
	}

	if reference == "" {
		return nil
	}
	if err := repointOrigin(repo, r.URL()); err != nil {
		return &repos.ProviderError{Op: "clone", Repo: r.Name(), Err: err}
	}
	if err := p.fetch(ctx, repo, r.URL()); err != nil {
		return &repos.ProviderError{Op: "fetch", Repo: r.Name(), Err: err}
	}
	return nil
}

func (p *Provider) fetch(ctx context.Context, repo *git.Repository, url string) error {
	err := repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: originRemote,
		Auth:       p.auth.For(url),
		Tags:       git.AllTags,
		Force:      true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return err
	}
	return nil
}

// referencePath returns the reference clone for r, "" when there is none.
func (p *Provider) referencePath(r *repos.Repo) string {
	if p.refDir == "" {
		return ""
	}
	path := filepath.Join(p.refDir, r.QualifiedName())
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func repointOrigin(repo *git.Repository, url string) error {
	if err := repo.DeleteRemote(originRemote); err != nil && !errors.Is(err, git.ErrRemoteNotFound) {
		return err
	}
	_, err := repo.CreateRemote(&config.RemoteConfig{Name: originRemote, URLs: []string{url}})
	return err
}

// resolveRefspec tries the refspec as given, then as a branch of origin,
// then as a tag (peeling annotated tags).
func resolveRefspec(repo *git.Repository, refspec string) (plumbing.Hash, error) {
	for _, rev := range []string{refspec, originRemote + "/" + refspec} {
		if hash, err := repo.ResolveRevision(plumbing.Revision(rev)); err == nil {
			return *hash, nil
		}
	}
	ref, err := repo.Reference(plumbing.NewTagReferenceName(refspec), true)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("refspec %q not found", refspec)
	}
	if tag, err := repo.TagObject(ref.Hash()); err == nil {
		return tag.Target, nil
	}
	return ref.Hash(), nil
}

// hasTrackedChanges reports modified, staged or deleted tracked files.
// Untracked files are ignored.
func hasTrackedChanges(worktree *git.Worktree) (bool, error) {
	status, err := worktree.Status()
	if err != nil {
		return false, err
	}
	for _, s := range status {
		if s.Worktree == git.Untracked && s.Staging == git.Untracked {
			continue
		}
		if s.Worktree != git.Unmodified || s.Staging != git.Unmodified {
			return true, nil
		}
	}
	return false, nil
}

// RepoRoot returns the top level of the git working copy containing dir,
// or "" when dir is not inside one.
func RepoRoot(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return ""
	}
	return worktree.Filesystem.Root()
}
