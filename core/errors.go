package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	AuthErrorBadInput            = "AUTH_BAD_INPUT"
	AuthErrorConfig              = "AUTH_CONFIG_ERROR"
	AuthErrorCredentialsRequired = "AUTH_CREDENTIALS_REQUIRED"
	AuthErrorStateInvalid        = "AUTH_STATE_INVALID"
	AuthErrorStateMismatch       = "AUTH_STATE_MISMATCH"
	AuthErrorDecryptionFailed    = "AUTH_DECRYPTION_FAILED"
	AuthErrorMalformedCiphertext = "AUTH_MALFORMED_CIPHERTEXT"
	AuthErrorUpstreamRejected    = "AUTH_UPSTREAM_REJECTED"
	AuthErrorUpstreamUnavailable = "AUTH_UPSTREAM_UNAVAILABLE"
	AuthErrorAccountNotFound     = "AUTH_ACCOUNT_NOT_FOUND"
	AuthErrorInternal            = "AUTH_INTERNAL_ERROR"
)

var (
	ErrConfig              = errors.New("core: configuration error")
	ErrCredentialsRequired = errors.New("core: account has no client credentials configured")
	ErrInvalidState        = errors.New("core: oauth state not recognized")
	ErrStateMismatch       = errors.New("core: oauth state mismatch")
	ErrDecryptionFailed    = errors.New("core: stored ciphertext unreadable with current key")
	ErrMalformedCiphertext = errors.New("core: malformed ciphertext")
)

func authErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureAuthErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrTenantNotFound):
		return newAuthError(err.Error(), goerrors.CategoryNotFound, AuthErrorAccountNotFound)
	case errors.Is(err, ErrCredentialsRequired):
		return newAuthError(err.Error(), goerrors.CategoryConflict, AuthErrorCredentialsRequired)
	case errors.Is(err, ErrStateMismatch):
		return newAuthError(err.Error(), goerrors.CategoryAuth, AuthErrorStateMismatch)
	case errors.Is(err, ErrInvalidState):
		return newAuthError(err.Error(), goerrors.CategoryAuth, AuthErrorStateInvalid)
	case errors.Is(err, ErrMalformedCiphertext):
		return newAuthError(err.Error(), goerrors.CategoryInternal, AuthErrorMalformedCiphertext)
	case errors.Is(err, ErrDecryptionFailed):
		return newAuthError(err.Error(), goerrors.CategoryInternal, AuthErrorDecryptionFailed)
	case errors.Is(err, ErrConfig):
		return newAuthError(err.Error(), goerrors.CategoryOperation, AuthErrorConfig)
	}

	var exchangeErr *ExchangeError
	if errors.As(err, &exchangeErr) {
		if exchangeErr.Rejected() {
			return newAuthError(exchangeErr.Error(), goerrors.CategoryAuth, AuthErrorUpstreamRejected)
		}
		return newAuthError(exchangeErr.Error(), goerrors.CategoryExternal, AuthErrorUpstreamUnavailable)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "not found"):
		return newAuthError(err.Error(), goerrors.CategoryNotFound, AuthErrorAccountNotFound)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newAuthError(err.Error(), goerrors.CategoryBadInput, AuthErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureAuthErrorEnvelope(mapped)
}

func newAuthError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureAuthErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureAuthErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = authHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultAuthTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultAuthTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return AuthErrorBadInput
	case goerrors.CategoryNotFound:
		return AuthErrorAccountNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return AuthErrorStateInvalid
	case goerrors.CategoryConflict:
		return AuthErrorCredentialsRequired
	case goerrors.CategoryExternal:
		return AuthErrorUpstreamUnavailable
	case goerrors.CategoryOperation:
		return AuthErrorConfig
	default:
		return AuthErrorInternal
	}
}

func authHTTPStatus(category goerrors.Category) int {
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
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
