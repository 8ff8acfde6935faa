package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// apiKeyScopes are granted to callers authenticated with the service API
// key. The key represents the deployment operator, so it carries every
// scope.
var apiKeyScopes = []string{"intervals:read", "intervals:write", "intervals:admin"}

// Middleware returns HTTP middleware implementing dual-mode
// authentication: a Bearer JWT is tried first, then the X-API-Key header.
// When no service API key is configured, unauthenticated requests pass
// with full privileges; this mode exists for local development and is
// logged loudly.
//
// Unauthorized responses carry a WWW-Authenticate header pointing at the
// protected resource metadata URL (RFC 9728 Section 5.1).
func Middleware(issuer *TokenIssuer, serviceAPIKey, serverURL string, logger *slog.Logger) func(http.Handler) http.Handler {
	metadataURL := serverURL + "/.well-known/oauth-protected-resource"
	wwwAuth := fmt.Sprintf(`Bearer resource_metadata="%s"`, metadataURL)
	wwwAuthInvalid := fmt.Sprintf(`Bearer error="invalid_token", resource_metadata="%s"`, metadataURL)

	var keyDigest [32]byte
	if serviceAPIKey != "" {
		keyDigest = sha256.Sum256([]byte(serviceAPIKey))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			// OAuth Bearer token.
			if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
				tokenString := strings.TrimPrefix(authHeader, "Bearer ")

				claims, err := issuer.Verify(tokenString)
				if err == nil {
					ac := &Context{
						Type:     TypeOAuth,
						UserID:   claims.Subject,
						ClientID: claims.ClientID,
						Scopes:   claims.Scopes(),
					}
					if !ac.HasScope("intervals:read") {
						logger.Warn("bearer token lacks required scope",
							slog.String("client_id", claims.ClientID),
							slog.String("scope", claims.Scope),
							slog.String("ip", ip),
						)
						w.Header().Set("WWW-Authenticate", wwwAuthInvalid)
						writeJSONError(w, http.StatusForbidden, "insufficient_scope",
							"token does not grant intervals:read")
						return
					}

					logger.Debug("authenticated via OAuth",
						slog.String("client_id", claims.ClientID),
						slog.String("ip", ip),
					)
					next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), ac)))
					return
				}

				logger.Debug("bearer token rejected",
					slog.String("error", err.Error()),
					slog.String("ip", ip),
				)
				// Fall through to API key authentication.
			}

			if serviceAPIKey == "" {
				logger.Warn("request allowed without authentication, MCP_API_KEY is not set",
					slog.String("path", r.URL.Path),
					slog.String("ip", ip),
				)
				ac := &Context{
					Type:     TypeAPIKey,
					UserID:   "api_key_user",
					ClientID: "api_key_client",
					Scopes:   apiKeyScopes,
				}
				next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), ac)))
				return
			}

			if presented := r.Header.Get("X-API-Key"); presented != "" {
				presentedDigest := sha256.Sum256([]byte(presented))
				if subtle.ConstantTimeCompare(presentedDigest[:], keyDigest[:]) == 1 {
					ac := &Context{
						Type:     TypeAPIKey,
						UserID:   "api_key_user",
						ClientID: "api_key_client",
						Scopes:   apiKeyScopes,
					}
					next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), ac)))
					return
				}
			}

			logger.Debug("authentication failed",
				slog.String("path", r.URL.Path),
				slog.String("ip", ip),
			)
			w.Header().Set("WWW-Authenticate", wwwAuth)
			writeJSONError(w, http.StatusUnauthorized, "invalid_token",
				"authentication required: provide a Bearer token or X-API-Key header")
		})
	}
}
