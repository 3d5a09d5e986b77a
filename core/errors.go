package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorUnknownConsumer     = "LTI_UNKNOWN_CONSUMER"
	ErrorUnknownRegistration = "LTI_UNKNOWN_REGISTRATION"
	ErrorInvalidSignature    = "LTI_INVALID_SIGNATURE"
	ErrorInvalidToken        = "LTI_INVALID_TOKEN"
	ErrorTokenExpired        = "LTI_TOKEN_EXPIRED"
	ErrorMissingField        = "LTI_MISSING_FIELD"
	ErrorLaunchCancelled     = "LTI_LAUNCH_CANCELLED"
	ErrorPersistenceFailed   = "LTI_PERSISTENCE_FAILED"
	ErrorBuildFailed         = "LTI_BUILD_FAILED"
	ErrorBadInput            = "LTI_BAD_INPUT"
	ErrorInternal            = "LTI_INTERNAL_ERROR"
)

func UnknownConsumerError(key string) *goerrors.Error {
	return newLTIError(
		"core: no consumer secret matches key "+strings.TrimSpace(key),
		goerrors.CategoryAuth,
		ErrorUnknownConsumer,
	)
}

func UnknownRegistrationError(clientID string) *goerrors.Error {
	return newLTIError(
		"core: no registration matches client id "+strings.TrimSpace(clientID),
		goerrors.CategoryAuth,
		ErrorUnknownRegistration,
	)
}

func InvalidSignatureError(cause error) *goerrors.Error {
	if cause == nil {
		return newLTIError("core: launch signature verification failed", goerrors.CategoryAuth, ErrorInvalidSignature)
	}
	return ensureLTIErrorEnvelope(
		goerrors.Wrap(cause, goerrors.CategoryAuth, "core: launch signature verification failed").
			WithTextCode(ErrorInvalidSignature),
	)
}

func InvalidTokenError(cause error) *goerrors.Error {
	if cause == nil {
		return newLTIError("core: launch token verification failed", goerrors.CategoryAuth, ErrorInvalidToken)
	}
	return ensureLTIErrorEnvelope(
		goerrors.Wrap(cause, goerrors.CategoryAuth, "core: launch token verification failed").
			WithTextCode(ErrorInvalidToken),
	)
}

func TokenExpiredError(cause error) *goerrors.Error {
	if cause == nil {
		return newLTIError("core: launch token is expired", goerrors.CategoryAuth, ErrorTokenExpired)
	}
	return ensureLTIErrorEnvelope(
		goerrors.Wrap(cause, goerrors.CategoryAuth, "core: launch token is expired").
			WithTextCode(ErrorTokenExpired),
	)
}

func MissingFieldError(field string) *goerrors.Error {
	field = strings.TrimSpace(field)
	return ensureLTIErrorEnvelope(
		goerrors.NewValidation("core: required request field is missing", goerrors.FieldError{
			Field:   field,
			Message: field + " is required",
		}).
			WithCode(http.StatusBadRequest).
			WithTextCode(ErrorMissingField),
	)
}

func LaunchCancelledError(message string) *goerrors.Error {
	message = strings.TrimSpace(message)
	if message == "" {
		message = "core: launch cancelled by attributes listener"
	}
	return newLTIError(message, goerrors.CategoryConflict, ErrorLaunchCancelled)
}

func PersistenceError(cause error) *goerrors.Error {
	if cause == nil {
		return newLTIError("core: user persistence failed", goerrors.CategoryInternal, ErrorPersistenceFailed)
	}
	return ensureLTIErrorEnvelope(
		goerrors.Wrap(cause, goerrors.CategoryInternal, "core: user persistence failed").
			WithTextCode(ErrorPersistenceFailed),
	)
}

func BuildError(cause error) *goerrors.Error {
	if cause == nil {
		return newLTIError("core: return message build failed", goerrors.CategoryOperation, ErrorBuildFailed)
	}
	return ensureLTIErrorEnvelope(
		goerrors.Wrap(cause, goerrors.CategoryOperation, "core: return message build failed").
			WithTextCode(ErrorBuildFailed),
	)
}

// HasTextCode reports whether err carries the given envelope text code.
func HasTextCode(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureLTIErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "consumer") && strings.Contains(msg, "unknown"):
		return newLTIError(err.Error(), goerrors.CategoryAuth, ErrorUnknownConsumer)
	case strings.Contains(msg, "registration") && (strings.Contains(msg, "unknown") || strings.Contains(msg, "missing")):
		return newLTIError(err.Error(), goerrors.CategoryAuth, ErrorUnknownRegistration)
	case strings.Contains(msg, "signature"):
		return newLTIError(err.Error(), goerrors.CategoryAuth, ErrorInvalidSignature)
	case strings.Contains(msg, "expired"):
		return newLTIError(err.Error(), goerrors.CategoryAuth, ErrorTokenExpired)
	case strings.Contains(msg, "token"):
		return newLTIError(err.Error(), goerrors.CategoryAuth, ErrorInvalidToken)
	case strings.Contains(msg, "cancel"):
		return newLTIError(err.Error(), goerrors.CategoryConflict, ErrorLaunchCancelled)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "missing"):
		return newLTIError(err.Error(), goerrors.CategoryBadInput, ErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureLTIErrorEnvelope(mapped)
}

func newLTIError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureLTIErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureLTIErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = ltiHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultLTITextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultLTITextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ErrorInvalidSignature
	case goerrors.CategoryNotFound:
		return ErrorUnknownConsumer
	case goerrors.CategoryConflict:
		return ErrorLaunchCancelled
	case goerrors.CategoryOperation:
		return ErrorBuildFailed
	default:
		return ErrorInternal
	}
}

func ltiHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
