package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnsupportedMediaType, status: http.StatusUnsupportedMediaType, publicMsg: "unsupported media type", detailsOK: true},
		{code: CodePayloadTooLarge, status: http.StatusRequestEntityTooLarge, publicMsg: "payload too large", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeUpstreamUnavailable, status: http.StatusServiceUnavailable, publicMsg: "storage service unavailable", retryable: true, detailsOK: true},
		{code: CodeUploadFailed, status: http.StatusInternalServerError, publicMsg: "media upload failed", retryable: true, detailsOK: true},
		{code: CodePersistenceFailed, status: http.StatusInternalServerError, publicMsg: "failed to save record", retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing title")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing title" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "title"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeUploadFailed, cause, "upload video")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeUploadFailed {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeForbidden, "no entry"))
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
	if !IsCode(err, CodeForbidden) {
		t.Fatalf("IsCode should match wrapped code")
	}
	if CodeOf(stdErrors.New("plain")) != CodeInternal {
		t.Fatalf("untyped errors should map to internal")
	}
}

func TestDumpIncludesMongoCommandError(t *testing.T) {
	cause := mongo.CommandError{Code: 121, Name: "DocumentValidationFailure", Message: "Document failed validation"}
	err := Wrap(CodePersistenceFailed, cause, "insert video")

	d := Dump(err)
	if d.Code != CodePersistenceFailed {
		t.Fatalf("expected persistence code, got %s", d.Code)
	}
	if d.MongoCode != 121 || d.MongoName != "DocumentValidationFailure" {
		t.Fatalf("unexpected mongo fields %+v", d)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %d", len(d.Chain))
	}
}
