// Package records persists environment and sign-in history.
package records

import (
	"context"
	"errors"

	"smart-classroom/internal/models"
)

// Store is an append-only record sink
type Store interface {
	AppendEnvironment(ctx context.Context, record models.EnvironmentRecord) error
	AppendSignIn(ctx context.Context, record models.SignRecord) error
	ClearSignIns(ctx context.Context) error
}

// SignInLoader restores the sign-in display list at startup
type SignInLoader interface {
	LoadSignIns(ctx context.Context) ([]models.SignRecord, error)
}

// Multi fans every write out to all stores. Each store is attempted even
// when an earlier one fails; the failures are joined.
type Multi []Store

func (m Multi) AppendEnvironment(ctx context.Context, record models.EnvironmentRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.AppendEnvironment(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) AppendSignIn(ctx context.Context, record models.SignRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.AppendSignIn(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) ClearSignIns(ctx context.Context) error {
	var errs []error
	for _, s := range m {
		if err := s.ClearSignIns(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
