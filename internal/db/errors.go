package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/quotesapp/backend-quotes/internal/common"
)

// WrapError translates a pgx error into the API error taxonomy. A missing row
// becomes NOT_FOUND for the given entity, a context deadline while waiting on
// the pool becomes RESOURCE_EXHAUSTED, anything else is an opaque storage
// failure.
func WrapError(entity, id string, err error) error {
	if err == nil {
		return nil
	}
	if common.IsAppError(err) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return common.NewNotFoundError(entity, id)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return common.FromContextErr(err)
	}
	return common.NewStorageError(err)
}
