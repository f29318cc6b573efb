// SPDX-License-Identifier: MPL-2.0

package kasfile

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kasbuild/kas/pkg/types"
)

// ErrIncludeCycle is the sentinel error wrapped by IncludeCycleError.
var ErrIncludeCycle = errors.New("include cycle")

type (
	// Resolver merges a root fragment with everything it includes.
	Resolver struct {
		root string
	}

	// IncludeCycleError reports a fragment that includes itself, directly or
	// through other fragments. Chain starts and ends with that fragment.
	IncludeCycleError struct {
		Chain []string
	}

	// resolution is the state of a single Resolve pass.
	resolution struct {
		rootDir string
		known   map[string]string
		merged  map[string]any
		visited map[string]bool
		// stack holds the fragments being visited, outermost first.
		stack   []string
		missing []string
		seen    map[string]bool
	}
)

// Error implements the error interface.
func (e *IncludeCycleError) Error() string { return strings.Join(e.Chain, " -> ") }

// Unwrap returns ErrIncludeCycle for errors.Is() compatibility.
func (e *IncludeCycleError) Unwrap() error { return ErrIncludeCycle }

// NewResolver returns a Resolver rooted at the given configuration file.
// Relative roots are made absolute against the current directory.
func NewResolver(root string) *Resolver {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Resolver{root: root}
}

// Root returns the absolute path of the root fragment.
func (r *Resolver) Root() string { return r.root }

// Resolve loads the root fragment and its includes. known maps repository
// names to local paths. Includes into repositories that are not in known are
// skipped and their names returned as missing, in first-seen order; the
// returned configuration is the merge of everything that could be reached.
func (r *Resolver) Resolve(known map[string]string) (map[string]any, []string, error) {
	s := &resolution{
		rootDir: filepath.Dir(r.root),
		known:   known,
		merged:  map[string]any{},
		visited: map[string]bool{},
		seen:    map[string]bool{},
	}
	if err := s.visit(r.root); err != nil {
		return nil, nil, err
	}
	return s.merged, s.missing, nil
}

func (s *resolution) visit(path string) error {
	if s.visited[path] {
		return nil
	}
	s.stack = append(s.stack, path)

	doc, err := Load(path)
	if err != nil {
		return err
	}
	hdr, err := ParseHeader(path, doc)
	if err != nil {
		return err
	}

	for _, inc := range hdr.Includes {
		target, ok := s.locate(path, inc)
		if !ok {
			continue
		}
		if slices.Contains(s.stack, target) {
			return s.cycle(path, target)
		}
		if err := s.visit(target); err != nil {
			return err
		}
	}

	delete(doc, HeaderKey)
	Merge(s.merged, doc)

	s.stack = s.stack[:len(s.stack)-1]
	s.visited[path] = true
	return nil
}

// locate returns the file an include refers to. It reports false when the
// include lives in a repository that has no local path yet.
func (s *resolution) locate(includer string, inc Include) (string, bool) {
	if inc.Repo == "" {
		if filepath.IsAbs(inc.File) {
			return filepath.Clean(inc.File), true
		}
		return filepath.Join(filepath.Dir(includer), inc.File), true
	}

	repoPath, ok := s.known[inc.Repo]
	if !ok {
		if !s.seen[inc.Repo] {
			s.seen[inc.Repo] = true
			s.missing = append(s.missing, inc.Repo)
		}
		return "", false
	}
	return filepath.Join(repoPath, inc.File), true
}

// cycle builds the include chain from target back to itself through includer.
func (s *resolution) cycle(includer, target string) error {
	start := slices.Index(s.stack, target)
	chain := make([]string, 0, len(s.stack)-start+1)
	for _, p := range s.stack[start:] {
		chain = append(chain, s.display(p))
	}
	chain = append(chain, s.display(target))
	return &types.ConfigurationError{
		Key:    s.display(includer),
		Reason: "include cycle",
		Err:    &IncludeCycleError{Chain: chain},
	}
}

// display names a fragment relative to the root fragment's directory, or by
// its absolute path when it lives outside of it.
func (s *resolution) display(path string) string {
	rel, err := filepath.Rel(s.rootDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
