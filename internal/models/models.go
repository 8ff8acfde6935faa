// Package models defines types shared across internal packages.
package models

import "time"

// OAuthClient represents a dynamically registered OAuth client (RFC 7591).
// Clients are immutable after registration: there are no update or delete
// operations. The JSON tags define the on-disk registry format as well as
// the registration response body.
type OAuthClient struct {
	ClientID                string    `json:"client_id"`
	ClientSecret            string    `json:"client_secret,omitempty"`
	ClientName              string    `json:"client_name,omitempty"`
	RedirectURIs            []string  `json:"redirect_uris"`
	GrantTypes              []string  `json:"grant_types"`
	ResponseTypes           []string  `json:"response_types"`
	TokenEndpointAuthMethod string    `json:"token_endpoint_auth_method"`
	Scope                   string    `json:"scope"`
	IsPublicClient          bool      `json:"is_public_client"`
	CreatedAt               time.Time `json:"created_at"`
}

// AuthCode represents a pending authorization code. Codes are single-use:
// Used flips to true on the first successful exchange and the record is
// never redeemable again.
type AuthCode struct {
	Code                string
	ClientID            string
	RedirectURI         string
	Scope               string
	CodeChallenge       string
	CodeChallengeMethod string
	ExpiresAt           time.Time
	Used                bool
}

// AccessToken holds the server-side metadata for an issued JWT, keyed by
// the raw token string. The JWT itself is self-contained; this record
// exists to pair the token with its refresh token identifier.
type AccessToken struct {
	Token        string
	ClientID     string
	Scope        string
	ExpiresAt    time.Time
	RefreshToken string
}

// RefreshToken represents a redeemable refresh token identifier. Refresh
// tokens are opaque (not JWTs) and rotated on every redemption.
type RefreshToken struct {
	Token     string
	ClientID  string
	Scope     string
	ExpiresAt time.Time
}
