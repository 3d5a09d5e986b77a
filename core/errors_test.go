package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestLaunchErrors_CarryTextCodes(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		textCode string
		category goerrors.Category
	}{
		{"unknown consumer", UnknownConsumerError("key-1"), ErrorUnknownConsumer, goerrors.CategoryAuth},
		{"unknown registration", UnknownRegistrationError("client-1"), ErrorUnknownRegistration, goerrors.CategoryAuth},
		{"invalid signature", InvalidSignatureError(nil), ErrorInvalidSignature, goerrors.CategoryAuth},
		{"invalid token", InvalidTokenError(errors.New("bad alg")), ErrorInvalidToken, goerrors.CategoryAuth},
		{"token expired", TokenExpiredError(nil), ErrorTokenExpired, goerrors.CategoryAuth},
		{"launch cancelled", LaunchCancelledError("listener said no"), ErrorLaunchCancelled, goerrors.CategoryConflict},
		{"persistence", PersistenceError(errors.New("disk full")), ErrorPersistenceFailed, goerrors.CategoryInternal},
		{"build", BuildError(errors.New("signing failed")), ErrorBuildFailed, goerrors.CategoryOperation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var richErr *goerrors.Error
			if !goerrors.As(tc.err, &richErr) {
				t.Fatalf("expected rich error, got %T", tc.err)
			}
			if richErr.TextCode != tc.textCode {
				t.Fatalf("expected text code %q, got %q", tc.textCode, richErr.TextCode)
			}
			if richErr.Category != tc.category {
				t.Fatalf("expected category %q, got %q", tc.category, richErr.Category)
			}
			if richErr.Code == 0 {
				t.Fatalf("expected HTTP status to be assigned")
			}
		})
	}
}

func TestMissingFieldError_NamesTheField(t *testing.T) {
	err := MissingFieldError("oauth_consumer_key")

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected rich error")
	}
	if richErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", richErr.Code)
	}
	if richErr.TextCode != ErrorMissingField {
		t.Fatalf("expected %q, got %q", ErrorMissingField, richErr.TextCode)
	}
	validation := richErr.AllValidationErrors()
	if len(validation) != 1 || validation[0].Field != "oauth_consumer_key" {
		t.Fatalf("expected field error for oauth_consumer_key, got %+v", validation)
	}
}

func TestHasTextCode(t *testing.T) {
	err := UnknownConsumerError("key-1")
	if !HasTextCode(err, ErrorUnknownConsumer) {
		t.Fatalf("expected matching text code")
	}
	if HasTextCode(err, ErrorInvalidToken) {
		t.Fatalf("expected mismatched text code to report false")
	}
	if HasTextCode(errors.New("plain"), ErrorUnknownConsumer) {
		t.Fatalf("expected plain error to report false")
	}
	if HasTextCode(nil, ErrorUnknownConsumer) {
		t.Fatalf("expected nil error to report false")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if !HasTextCode(wrapped, ErrorUnknownConsumer) {
		t.Fatalf("expected wrapped rich error to match")
	}
}

func TestDefaultErrorMapper_PassesRichErrorsThrough(t *testing.T) {
	original := InvalidSignatureError(nil)
	mapped := defaultErrorMapper(original)
	if mapped == nil || mapped.TextCode != ErrorInvalidSignature {
		t.Fatalf("expected rich error to keep its text code, got %+v", mapped)
	}
}

func TestDefaultErrorMapper_ClassifiesPlainErrors(t *testing.T) {
	cases := []struct {
		message  string
		textCode string
	}{
		{"launch signature did not match", ErrorInvalidSignature},
		{"token is expired", ErrorTokenExpired},
		{"token audience rejected", ErrorInvalidToken},
		{"launch cancelled by listener", ErrorLaunchCancelled},
		{"client_id is required", ErrorBadInput},
	}
	for _, tc := range cases {
		mapped := defaultErrorMapper(errors.New(tc.message))
		if mapped == nil {
			t.Fatalf("expected mapping for %q", tc.message)
		}
		if mapped.TextCode != tc.textCode {
			t.Fatalf("message %q: expected %q, got %q", tc.message, tc.textCode, mapped.TextCode)
		}
	}
}
