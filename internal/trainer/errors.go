package trainer

import (
	"context"
	"errors"
)

// canceledError marks a run stopped by its context between batches.
type canceledError struct{ cause error }

func (e canceledError) Error() string { return "run canceled: " + e.cause.Error() }

func (e canceledError) Unwrap() error { return e.cause }

// IsCanceled reports whether err means the run was interrupted.
func IsCanceled(err error) bool {
	var ce canceledError
	return errors.As(err, &ce) || errors.Is(err, context.Canceled)
}

func checkCanceled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return canceledError{cause: err}
	}
	return nil
}
