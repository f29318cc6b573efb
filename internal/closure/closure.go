// SPDX-License-Identifier: MPL-2.0

// Package closure computes the repository closure of a kas configuration:
// it alternates include resolution with fetch/checkout rounds until every
// include can be followed.
package closure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/kasbuild/kas/pkg/repos"
)

// ErrUnresolvableDependency is the sentinel error wrapped by UnresolvableDependencyError.
var ErrUnresolvableDependency = errors.New("unresolvable repository dependency")

type (
	// Resolver produces the best-effort merge for a set of known repositories.
	// *kasfile.Resolver implements it.
	Resolver interface {
		Resolve(known map[string]string) (cfg map[string]any, missing []string, err error)
	}

	// Target receives every intermediate merge and derives repository
	// descriptors from it. *execute.Context implements it.
	Target interface {
		SetConfig(cfg map[string]any)
		RepoMap() (map[string]*repos.Repo, error)
	}

	// Engine drives the fixed-point loop.
	Engine struct {
		Resolver Resolver
		Provider repos.Provider
	}

	// UnresolvableDependencyError reports the repositories that are still
	// needed when the loop stops making progress.
	UnresolvableDependencyError struct {
		Missing []string
	}
)

// Error implements the error interface.
func (e *UnresolvableDependencyError) Error() string {
	return fmt.Sprintf("cannot resolve included repositories: %s", strings.Join(e.Missing, ", "))
}

// Unwrap returns ErrUnresolvableDependency for errors.Is() compatibility.
func (e *UnresolvableDependencyError) Unwrap() error { return ErrUnresolvableDependency }

// Close resolves the configuration until no include is missing and returns
// the final merge. Every pass hands its merge to target, so target always
// holds the latest configuration, even when Close fails.
//
// Repositories named as missing are looked up in the repository map of the
// current merge, fetched and checked out. A name the map does not declare is
// never fetched, and reappears in the next pass; two identical missing sets
// in a row abort with UnresolvableDependencyError.
func (e *Engine) Close(ctx context.Context, target Target) (map[string]any, error) {
	known := map[string]string{}
	mentioned := map[string]bool{}
	var previous []string

	for pass := 1; ; pass++ {
		cfg, missing, err := e.Resolver.Resolve(known)
		if err != nil {
			return nil, err
		}
		target.SetConfig(cfg)

		if len(missing) == 0 {
			slog.Debug("configuration resolved", "passes", pass)
			return cfg, nil
		}
		slog.Debug("configuration incomplete", "pass", pass, "missing", missing)

		if sameSet(missing, previous) {
			return nil, &UnresolvableDependencyError{Missing: sortedCopy(missing)}
		}
		for _, name := range missing {
			mentioned[name] = true
		}
		// Each productive pass makes at least one more name known, so more
		// passes than names means the missing sets are cycling.
		if pass > len(mentioned)+1 {
			return nil, &UnresolvableDependencyError{Missing: sortedCopy(missing)}
		}
		previous = missing

		repoMap, err := target.RepoMap()
		if err != nil {
			return nil, err
		}
		var round []*repos.Repo
		for _, name := range missing {
			if r, ok := repoMap[name]; ok {
				round = append(round, r)
			}
		}
		if err := repos.FetchAll(ctx, e.Provider, round); err != nil {
			return nil, err
		}
		if err := repos.CheckoutAll(ctx, e.Provider, round); err != nil {
			return nil, err
		}

		known = repos.Paths(repoMap)
	}
}

func sameSet(a, b []string) bool {
	if b == nil || len(a) != len(b) {
		return false
	}
	return slices.Equal(sortedCopy(a), sortedCopy(b))
}

func sortedCopy(s []string) []string {
	out := slices.Clone(s)
	slices.Sort(out)
	return slices.Compact(out)
}
