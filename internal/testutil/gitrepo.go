// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// fixtureSignature is used for every fixture commit and tag.
var fixtureSignature = object.Signature{
	Name:  "kas test",
	Email: "test@example.com",
	When:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
}

// InitRepo creates a non-bare git repository in dir.
// The test fails immediately on error.
func InitRepo(t testing.TB, dir string) *git.Repository {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repository in %s: %v", dir, err)
	}
	return repo
}

// CommitFile writes name (relative to the worktree root) with content,
// stages it and commits. It returns the new commit hash.
func CommitFile(t testing.TB, repo *git.Repository, name, content, message string) plumbing.Hash {
	t.Helper()
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	path := filepath.Join(worktree.Filesystem.Root(), name)
	MustMkdirAll(t, filepath.Dir(path), 0o755)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	if _, err := worktree.Add(name); err != nil {
		t.Fatalf("failed to stage %s: %v", name, err)
	}
	sig := fixtureSignature
	hash, err := worktree.Commit(message, &git.CommitOptions{Author: &sig, Committer: &sig})
	if err != nil {
		t.Fatalf("failed to commit %s: %v", name, err)
	}
	return hash
}

// TagCommit creates a lightweight tag, or an annotated one when message is
// not empty.
func TagCommit(t testing.TB, repo *git.Repository, name string, hash plumbing.Hash, message string) {
	t.Helper()
	var opts *git.CreateTagOptions
	if message != "" {
		sig := fixtureSignature
		opts = &git.CreateTagOptions{Tagger: &sig, Message: message}
	}
	if _, err := repo.CreateTag(name, hash, opts); err != nil {
		t.Fatalf("failed to create tag %s: %v", name, err)
	}
}

// CreateBranch points a new local branch at hash without checking it out.
func CreateBranch(t testing.TB, repo *git.Repository, name string, hash plumbing.Hash) {
	t.Helper()
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), hash)
	if err := repo.Storer.SetReference(ref); err != nil {
		t.Fatalf("failed to create branch %s: %v", name, err)
	}
}
