package auth

import (
	"encoding/json"
	"errors"
	"net/http"
)

// OAuth 2.0 error codes from RFC 6749 returned in JSON error bodies.
const (
	errInvalidRequest          = "invalid_request"
	errInvalidClient           = "invalid_client"
	errInvalidGrant            = "invalid_grant"
	errUnsupportedGrantType    = "unsupported_grant_type"
	errUnsupportedResponseType = "unsupported_response_type"
	errInvalidClientMetadata   = "invalid_client_metadata"
	errInvalidRedirectURI      = "invalid_redirect_uri"
)

// Sentinel errors for token verification.
var (
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token expired")

	// ErrPermissionDenied is returned by RequireScope when the request
	// context lacks the required scope. Tool handlers convert it to a
	// user-visible result rather than a protocol error.
	ErrPermissionDenied = errors.New("permission denied")
)

// writeJSONError writes an RFC 6749 style JSON error response.
func writeJSONError(w http.ResponseWriter, status int, errCode, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errCode,
		"error_description": description,
	})
}
