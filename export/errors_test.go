package export

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorKind_HTTPStatusTable(t *testing.T) {
	cases := map[ErrorKind]int{
		KindValidation:            400,
		KindTemplateLimitExceeded: 400,
		KindVariantMismatch:       400,
		KindBackpressure:          429,
		KindSourceUnavailable:     503,
		KindJobTimeout:            504,
		KindArtifactInvalid:       500,
		KindInternal:              500,
		KindNotFound:              404,
		KindExpired:               404,
	}
	for kind, want := range cases {
		if got := kind.HTTPStatus(); got != want {
			t.Errorf("%s: expected status %d, got %d", kind, want, got)
		}
	}
}

func TestExportError_ErrorIncludesWrappedMessage(t *testing.T) {
	wrapped := errors.New("disk full")
	err := NewError(KindInternal, "write failed", wrapped)
	if err.Error() != "write failed: disk full" {
		t.Fatalf("unexpected error string: %q", err.Error())
	}
	if !errors.Is(err, wrapped) {
		t.Fatalf("expected Unwrap to expose the wrapped error")
	}
}

func TestKindFromError_UnwrapsExportError(t *testing.T) {
	err := NewError(KindNotFound, "missing", nil)
	wrapped := fmt.Errorf("context: %w", err)

	if got := KindFromError(err); got != KindNotFound {
		t.Fatalf("expected not_found, got %s", got)
	}
	if got := KindFromError(wrapped); got != KindNotFound {
		t.Fatalf("expected not_found through a wrapped error, got %s", got)
	}
}

func TestKindFromError_DeadlineAndCancelMapToJobTimeout(t *testing.T) {
	if got := KindFromError(context.DeadlineExceeded); got != KindJobTimeout {
		t.Fatalf("expected job_timeout for deadline exceeded, got %s", got)
	}
	if got := KindFromError(context.Canceled); got != KindJobTimeout {
		t.Fatalf("expected job_timeout for canceled, got %s", got)
	}
}

func TestKindFromError_UnknownErrorIsInternal(t *testing.T) {
	if got := KindFromError(errors.New("boom")); got != KindInternal {
		t.Fatalf("expected internal_error default, got %s", got)
	}
}

func TestKindFromError_NilIsEmpty(t *testing.T) {
	if got := KindFromError(nil); got != "" {
		t.Fatalf("expected empty kind for nil error, got %s", got)
	}
}

func TestAsGoError_ProjectsCategoryAndTextCode(t *testing.T) {
	err := NewError(KindValidation, "bad request", nil)
	ge := AsGoError(err)
	if ge == nil {
		t.Fatalf("expected non-nil go-errors projection")
	}
	if ge.TextCode != string(KindValidation) {
		t.Fatalf("expected text code %q, got %q", KindValidation, ge.TextCode)
	}
}
