// SPDX-License-Identifier: MPL-2.0

package repos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrProviderFailure is the sentinel error wrapped by ProviderError.
var ErrProviderFailure = errors.New("repository provider failure")

type (
	// Provider brings repositories onto disk. Both operations must be
	// idempotent and must be no-ops for repos with OperationsDisabled.
	Provider interface {
		// Fetch makes the repository's object data available locally,
		// cloning it when the working copy does not exist yet.
		Fetch(ctx context.Context, r *Repo) error
		// Checkout makes the working copy reflect the repository's refspec.
		Checkout(ctx context.Context, r *Repo) error
	}

	// ProviderError is returned by Provider implementations when a fetch or
	// checkout cannot complete.
	ProviderError struct {
		// Op is the failed operation ("fetch", "clone", "checkout").
		Op string
		// Repo is the logical repository name.
		Repo string
		// Err is the underlying cause.
		Err error
	}
)

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Repo, e.Err)
}

// Unwrap exposes ErrProviderFailure and the cause to errors.Is/As.
func (e *ProviderError) Unwrap() []error { return []error{ErrProviderFailure, e.Err} }

// FetchAll fetches every repository in order and stops at the first failure.
func FetchAll(ctx context.Context, p Provider, rs []*Repo) error {
	for _, r := range rs {
		slog.Debug("fetch repository", "repo", r.Name())
		if err := p.Fetch(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// CheckoutAll checks out every repository in order and stops at the first failure.
func CheckoutAll(ctx context.Context, p Provider, rs []*Repo) error {
	for _, r := range rs {
		slog.Debug("checkout repository", "repo", r.Name())
		if err := p.Checkout(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
