package domain

import (
	"errors"
	"fmt"
)

// ErrKind is used to map domain errors to HTTP status codes consistently.
type ErrKind string

const (
	KindValidation     ErrKind = "validation"     // 400
	KindAuth           ErrKind = "auth"           // 401
	KindForbidden      ErrKind = "forbidden"      // 403
	KindNotFound       ErrKind = "not_found"      // 404
	KindConflict       ErrKind = "conflict"       // 409
	KindRateLimited    ErrKind = "rate_limited"   // 429
	KindInfrastructure ErrKind = "infrastructure" // 503
	KindInternal       ErrKind = "internal"       // 500
)

// Error is a structured domain error.
// - Kind: high-level category for HTTP mapping
// - Code: stable machine code (do not change casually)
// - Message: safe summary for clients (avoid leaking sensitive details)
// - Meta: optional details (field, reason, etc.)
// - Cause: wrapped internal error for logging/diagnostics
type Error struct {
	Kind    ErrKind
	Code    string
	Message string
	Meta    map[string]string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind ErrKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind ErrKind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

func WithMeta(err *Error, meta map[string]string) *Error {
	err.Meta = meta
	return err
}

func Is(err error, code string) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Reason returns the "reason" meta field of a domain error, if set.
// Used by tests and the HTTP edge to distinguish invalid_grant sub-cases.
func Reason(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Meta["reason"]
	}
	return ""
}

// ----------------------
// Validation errors (400)
// ----------------------

func ErrInvalidJSON(cause error) *Error {
	return Wrap(KindValidation, "invalid_json", "invalid JSON body", cause)
}

func ErrMissingField(field string) *Error {
	return WithMeta(New(KindValidation, "missing_field", "missing required field"), map[string]string{
		"field": field,
	})
}

func ErrInvalidField(field, reason string) *Error {
	return WithMeta(New(KindValidation, "invalid_field", "invalid field"), map[string]string{
		"field":  field,
		"reason": reason,
	})
}

func ErrWeakPassword(reason string) *Error {
	return WithMeta(New(KindValidation, "weak_password", "password does not meet requirements"), map[string]string{
		"reason": reason,
	})
}

// ----------------------
// Auth errors (401)
// ----------------------

// IMPORTANT: use this for login failures to avoid user enumeration.
// Unknown identifier and wrong password must be indistinguishable.
func ErrInvalidCredentials() *Error {
	return New(KindAuth, "invalid_credentials", "invalid credentials")
}

func ErrTokenMissing() *Error {
	return New(KindAuth, "token_missing", "no token provided")
}

func ErrTokenInvalid() *Error {
	return New(KindAuth, "token_invalid", "invalid token")
}

func ErrTokenExpired() *Error {
	return New(KindAuth, "token_expired", "token is expired")
}

// ErrTokenClaimsMismatch covers issuer/audience mismatches: the signature is
// fine but the token was minted for someone else.
func ErrTokenClaimsMismatch() *Error {
	return New(KindAuth, "token_claims_mismatch", "token issuer or audience mismatch")
}

func ErrRefreshTokenInvalid() *Error {
	return New(KindAuth, "refresh_token_invalid", "invalid refresh token")
}

func ErrRefreshTokenExpired() *Error {
	return New(KindAuth, "refresh_token_expired", "refresh token is expired")
}

func ErrRefreshTokenRevoked() *Error {
	return New(KindAuth, "refresh_token_revoked", "refresh token is revoked")
}

// ----------------------
// Forbidden (403)
// ----------------------

func ErrEmailNotVerified() *Error {
	return New(KindForbidden, "email_not_verified", "email not verified")
}

// ----------------------
// Not Found (404)
// ----------------------

func ErrUserNotFound() *Error {
	return New(KindNotFound, "user_not_found", "user not found")
}

// ----------------------
// Conflict (409)
// ----------------------

func ErrEmailTaken() *Error {
	return New(KindConflict, "email_taken", "email already registered")
}

func ErrUsernameTaken() *Error {
	return New(KindConflict, "username_taken", "username already registered")
}

// ----------------------
// OAuth errors
// ----------------------

// ErrOAuthInvalidRequest: missing parameter or wrong response/grant type.
func ErrOAuthInvalidRequest(reason string) *Error {
	return WithMeta(New(KindValidation, "invalid_request", "invalid request"), map[string]string{
		"reason": reason,
	})
}

// ErrUnknownClient: client_id does not resolve. Returned before any redirect.
func ErrUnknownClient() *Error {
	return New(KindValidation, "unknown_client", "unknown client")
}

// ErrBadRedirect: redirect_uri not in the client's whitelist.
// MUST never result in a redirect to the offending URI.
func ErrBadRedirect() *Error {
	return New(KindValidation, "invalid_redirect_uri", "redirect_uri is not registered for this client")
}

// ErrInvalidClient: wrong client secret. Message stays generic.
func ErrInvalidClient() *Error {
	return New(KindAuth, "invalid_client", "invalid client credentials")
}

// ErrInvalidGrant: code unknown, already used, expired, redirect mismatch or
// user gone. The human message is uniform; the machine reason rides in Meta.
func ErrInvalidGrant(reason string) *Error {
	return WithMeta(New(KindValidation, "invalid_grant", "invalid grant"), map[string]string{
		"reason": reason,
	})
}

const (
	GrantReasonUnknownCode      = "unknown code"
	GrantReasonAlreadyUsed      = "already used"
	GrantReasonExpired          = "expired"
	GrantReasonRedirectMismatch = "redirect mismatch"
	GrantReasonUserGone         = "user gone"
)

// ----------------------
// Rate limit (429)
// ----------------------

func ErrRateLimited(scope string) *Error {
	return WithMeta(New(KindRateLimited, "rate_limited", "too many requests"), map[string]string{
		"scope": scope,
	})
}

// ----------------------
// Infrastructure / internal (5xx)
// ----------------------

func ErrDBUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "db_unavailable", "database unavailable", cause)
}

func ErrRedisUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "redis_unavailable", "cache unavailable", cause)
}

func ErrRabbitUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "rabbit_unavailable", "message broker unavailable", cause)
}

func ErrHashFailed(cause error) *Error {
	return Wrap(KindInternal, "hash_failed", "password hashing failed", cause)
}

func ErrTokenSignFailed(cause error) *Error {
	return Wrap(KindInternal, "token_sign_failed", "token signing failed", cause)
}

func ErrRandomFailed(cause error) *Error {
	return Wrap(KindInternal, "random_failed", "random generation failed", cause)
}

func ErrInternal(cause error) *Error {
	return Wrap(KindInternal, "internal_error", "internal error", cause)
}
