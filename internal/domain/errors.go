package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrExhausted          = errors.New("no eligible credential")
	ErrRemoteRejected     = errors.New("embedding request rejected")
	ErrRemoteUnavailable  = errors.New("embedding service unavailable")
	ErrRecordNotFound     = errors.New("record not found")
	ErrNoPendingOperation = errors.New("no pending operation")
	ErrUnauthorized       = errors.New("not authorized")
)

// QuotaRejectedError is returned by the embedding backend when the remote
// declined for quota reasons. RetryAfter is zero when the remote did not say
// when to retry.
type QuotaRejectedError struct {
	Scope      QuotaScope
	RetryAfter time.Duration
}

func (e *QuotaRejectedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("quota rejected (%s window, retry after %s)", e.Scope, e.RetryAfter)
	}
	return fmt.Sprintf("quota rejected (%s window)", e.Scope)
}

// IndexIncompleteError reports records excluded from a rebuilt index because
// their embeddings could not be resolved. The rebuild itself still succeeds;
// this is a degraded-coverage warning.
type IndexIncompleteError struct {
	Failed []RecordID
}

func (e *IndexIncompleteError) Error() string {
	return fmt.Sprintf("index incomplete: %d record(s) failed to embed", len(e.Failed))
}
