package tools

import (
	"context"
	"errors"

	"github.com/penshort/usermcp/internal/datastore"
	"github.com/penshort/usermcp/internal/model"
)

// Fixed envelope details for internal failures. The underlying error stays
// in the audit log.
const (
	detailUnavailable   = "data source unavailable"
	detailLoadFailure   = "data source failed to load"
	detailInvalidRecord = "invalid user record"
	detailCanceled      = "request canceled"
)

// Result is either a success payload or an error envelope, never both.
type Result struct {
	payload any
	failure *model.ErrorResponse
	cause   error
}

// OK wraps a success payload.
func OK(payload any) *Result {
	return &Result{payload: payload}
}

// Fail builds an error envelope result. Empty details are omitted.
func Fail(category, details string) *Result {
	return &Result{failure: model.NewErrorResponse(category, details)}
}

// failWith builds an error envelope for cause. Callers only see a fixed
// description of the error class; cause is kept for Cause.
func failWith(category string, cause error) *Result {
	r := Fail(category, publicDetails(cause))
	r.cause = cause
	return r
}

func publicDetails(err error) string {
	switch {
	case errors.Is(err, datastore.ErrDataUnavailable):
		return detailUnavailable
	case errors.Is(err, datastore.ErrDataLoadFailure):
		return detailLoadFailure
	case errors.Is(err, model.ErrInvalidEmail):
		return detailInvalidRecord
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return detailCanceled
	default:
		return ""
	}
}

// Cause returns the internal error behind a failure, if any.
func (r *Result) Cause() error {
	if r == nil {
		return nil
	}
	return r.cause
}

// Failure reports the envelope category and details when r is a failure.
func (r *Result) Failure() (category, details string, failed bool) {
	if r == nil || r.failure == nil {
		return "", "", false
	}
	return r.failure.Error, r.failure.DetailsOrEmpty(), true
}

// Payload returns the success payload, or nil for failures.
func (r *Result) Payload() any {
	if r == nil {
		return nil
	}
	return r.payload
}

// Envelope returns the value to serialize: the payload or the error envelope.
func (r *Result) Envelope() any {
	if r.failure != nil {
		return r.failure
	}
	return r.payload
}
