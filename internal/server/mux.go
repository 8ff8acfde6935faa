// Package server provides HTTP server construction for the MCP server.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/intervalsmcp/intervals-mcp-server/internal/auth"
	"github.com/intervalsmcp/intervals-mcp-server/internal/config"
)

// MuxConfig holds dependencies for building the HTTP mux.
type MuxConfig struct {
	Config     *config.Config
	Store      *auth.Store
	Issuer     *auth.TokenIssuer
	MCPHandler http.Handler
	Logger     *slog.Logger
	Version    string
}

// NewMux builds the HTTP mux with OAuth discovery, registration,
// authorization, token, health, and MCP endpoints. The MCP endpoint is
// protected by the dual-mode authentication middleware.
func NewMux(cfg MuxConfig) *http.ServeMux {
	serverURL := cfg.Config.BaseURL
	scopes := cfg.Config.Scopes()

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/oauth-protected-resource", auth.HandleProtectedResourceMetadata(serverURL, scopes, cfg.Issuer))
	mux.HandleFunc("/.well-known/oauth-authorization-server", auth.HandleServerMetadata(serverURL, scopes, cfg.Issuer))
	mux.HandleFunc("/.well-known/jwks.json", auth.HandleJWKS(cfg.Issuer))
	mux.HandleFunc("/oauth/register", auth.HandleRegistration(cfg.Store, cfg.Logger))
	mux.HandleFunc("/oauth/authorize", auth.HandleAuthorize(cfg.Store, cfg.Logger))
	mux.HandleFunc("/oauth/token", auth.HandleToken(cfg.Store, cfg.Issuer, cfg.Logger))
	mux.HandleFunc("/health", handleHealth(cfg.Version))
	mux.HandleFunc("/config", handleConfigInfo(cfg.Config))

	authMiddleware := auth.Middleware(cfg.Issuer, cfg.Config.MCPAPIKey, serverURL, cfg.Logger)
	mux.Handle("/mcp", authMiddleware(cfg.MCPHandler))

	return mux
}

func handleHealth(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":        "healthy",
			"service":       "intervals-mcp-server",
			"version":       version,
			"oauth_enabled": true,
		})
	}
}

// handleConfigInfo reports non-sensitive configuration for debugging
// client setups. Secrets are reported as booleans only.
func handleConfigInfo(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"base_url":           cfg.BaseURL,
			"environment":        cfg.Environment,
			"jwt_algorithm":      cfg.JWTAlgorithm,
			"oauth_scopes":       cfg.Scopes(),
			"athlete_configured": cfg.AthleteID != "",
			"api_key_configured": cfg.IntervalsAPIKey != "",
			"mcp_auth_required":  cfg.MCPAPIKey != "",
		})
	}
}
