package auth

import (
	"encoding/json"
	"net/http"
)

// ProtectedResourceMetadata is the RFC 9728 response.
type ProtectedResourceMetadata struct {
	Resource               string   `json:"resource"`
	AuthorizationServers   []string `json:"authorization_servers"`
	ScopesSupported        []string `json:"scopes_supported,omitempty"`
	BearerMethodsSupported []string `json:"bearer_methods_supported"`
	JWKSURI                string   `json:"jwks_uri,omitempty"`
}

// ServerMetadata is the RFC 8414 response.
type ServerMetadata struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	RegistrationEndpoint              string   `json:"registration_endpoint,omitempty"`
	JWKSURI                           string   `json:"jwks_uri,omitempty"`
	ScopesSupported                   []string `json:"scopes_supported,omitempty"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported,omitempty"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported,omitempty"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported,omitempty"`
	PKCERequired                      bool     `json:"pkce_required"`
}

func writeMetadata(w http.ResponseWriter, r *http.Request, v any) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_ = json.NewEncoder(w).Encode(v)
}

// HandleProtectedResourceMetadata returns the
// /.well-known/oauth-protected-resource handler.
func HandleProtectedResourceMetadata(serverURL string, scopes []string, issuer *TokenIssuer) http.HandlerFunc {
	meta := ProtectedResourceMetadata{
		Resource:               serverURL + "/mcp",
		AuthorizationServers:   []string{serverURL},
		ScopesSupported:        scopes,
		BearerMethodsSupported: []string{"header"},
	}
	if issuer.UsesRSA() {
		meta.JWKSURI = serverURL + "/.well-known/jwks.json"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeMetadata(w, r, meta)
	}
}

// HandleServerMetadata returns the /.well-known/oauth-authorization-server handler.
func HandleServerMetadata(serverURL string, scopes []string, issuer *TokenIssuer) http.HandlerFunc {
	meta := ServerMetadata{
		Issuer:                            serverURL,
		AuthorizationEndpoint:             serverURL + "/oauth/authorize",
		TokenEndpoint:                     serverURL + "/oauth/token",
		RegistrationEndpoint:              serverURL + "/oauth/register",
		ScopesSupported:                   scopes,
		ResponseTypesSupported:            []string{"code"},
		GrantTypesSupported:               []string{"authorization_code", "refresh_token"},
		CodeChallengeMethodsSupported:     []string{"S256"},
		TokenEndpointAuthMethodsSupported: []string{"none", "client_secret_post"},
		PKCERequired:                      true,
	}
	if issuer.UsesRSA() {
		meta.JWKSURI = serverURL + "/.well-known/jwks.json"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeMetadata(w, r, meta)
	}
}

// HandleJWKS returns the /.well-known/jwks.json handler. HMAC deployments
// serve an empty key set because the signing secret is not publishable.
func HandleJWKS(issuer *TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeMetadata(w, r, issuer.JWKS())
	}
}
