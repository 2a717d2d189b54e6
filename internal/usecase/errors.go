package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrFetchFailed marks transport-level failures from the live feed:
	// timeouts, connection errors and non-2xx responses.
	ErrFetchFailed = errors.New("feed fetch failed")
	// ErrTransformFailed marks malformed or incomplete source documents,
	// e.g. a game missing one of its sides or a non-numeric score.
	ErrTransformFailed = errors.New("transform failed")
	// ErrStoreFailed marks persistence failures; the poller logs these per
	// game and does not retry.
	ErrStoreFailed = errors.New("store failed")
)
