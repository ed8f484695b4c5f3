package export

import (
	"context"
	"errors"

	errorslib "github.com/goliatone/go-errors"
)

// ErrorKind is the closed set of error kinds surfaced as error_code (spec §7).
type ErrorKind string

const (
	KindValidation           ErrorKind = "validation_error"
	KindTemplateLimitExceeded ErrorKind = "template_limit_exceeded"
	KindBackpressure         ErrorKind = "backpressure"
	KindSourceUnavailable    ErrorKind = "source_unavailable"
	KindJobTimeout           ErrorKind = "job_timeout"
	KindArtifactInvalid      ErrorKind = "artifact_invalid"
	KindNotFound             ErrorKind = "not_found"
	KindExpired              ErrorKind = "expired"
	KindVariantMismatch      ErrorKind = "variant_mismatch"
	KindInternal             ErrorKind = "internal_error"
)

// HTTPStatus returns the fixed HTTP status for a kind, per the spec §7 table.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation, KindTemplateLimitExceeded, KindVariantMismatch:
		return 400
	case KindBackpressure:
		return 429
	case KindSourceUnavailable:
		return 503
	case KindJobTimeout:
		return 504
	case KindArtifactInvalid, KindInternal:
		return 500
	case KindNotFound, KindExpired:
		return 404
	default:
		return 500
	}
}

// ExportError wraps an error with its kind, the vocabulary every coordinator
// and handler in this package reasons about.
type ExportError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *ExportError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// NewError creates a new export error of the given kind.
func NewError(kind ErrorKind, msg string, err error) *ExportError {
	return &ExportError{Kind: kind, Msg: msg, Err: err}
}

// KindFromError maps any error to its ErrorKind, defaulting to internal.
func KindFromError(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var exportErr *ExportError
	if errors.As(err, &exportErr) {
		return exportErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindJobTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindJobTimeout
	}
	return KindInternal
}

// AsGoError projects an error onto a go-errors value, for callers that want
// category + text-code semantics alongside the closed ErrorKind.
func AsGoError(err error) *errorslib.Error {
	if err == nil {
		return nil
	}

	var ge *errorslib.Error
	if errors.As(err, &ge) {
		return ge
	}

	kind := KindFromError(err)
	msg := err.Error()
	var exportErr *ExportError
	if errors.As(err, &exportErr) && exportErr.Msg != "" {
		msg = exportErr.Msg
	}

	switch kind {
	case KindValidation, KindTemplateLimitExceeded, KindVariantMismatch:
		return errorslib.New(msg, errorslib.CategoryValidation).WithTextCode(string(kind))
	case KindNotFound, KindExpired:
		return errorslib.New(msg, errorslib.CategoryNotFound).WithTextCode(string(kind))
	case KindBackpressure, KindJobTimeout, KindSourceUnavailable, KindArtifactInvalid:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode(string(kind))
	default:
		return errorslib.New(msg, errorslib.CategoryInternal).WithTextCode(string(KindInternal))
	}
}
