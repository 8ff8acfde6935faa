package server

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intervalsmcp/intervals-mcp-server/internal/auth"
	"github.com/intervalsmcp/intervals-mcp-server/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMux(t *testing.T, mcpAPIKey string) *http.ServeMux {
	t.Helper()

	cfg := &config.Config{
		BaseURL:      "https://mcp.example.com",
		AthleteID:    "i12345",
		JWTSecretKey: "test-secret-key-of-sufficient-length",
		JWTAlgorithm: "HS256",
		Audience:     "intervals-mcp-server",
		Scope:        "intervals:read intervals:write",
		MCPAPIKey:    mcpAPIKey,
		Environment:  "development",
	}

	issuer, err := auth.NewTokenIssuer(cfg.JWTAlgorithm, cfg.JWTSecretKey, cfg.BaseURL, cfg.Audience)
	require.NoError(t, err)

	store := auth.NewStore("", testLogger())
	t.Cleanup(store.Stop)

	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("mcp ok"))
	})

	return NewMux(MuxConfig{
		Config:     cfg,
		Store:      store,
		Issuer:     issuer,
		MCPHandler: mcpHandler,
		Logger:     testLogger(),
		Version:    "test",
	})
}

func TestMux_Health(t *testing.T) {
	mux := testMux(t, "")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "intervals-mcp-server", body["service"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, true, body["oauth_enabled"])
}

func TestMux_ConfigEndpoint(t *testing.T) {
	mux := testMux(t, "some-key")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/config", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["mcp_auth_required"])
	assert.Equal(t, true, body["athlete_configured"])
	assert.NotContains(t, rec.Body.String(), "some-key", "secrets must not leak")
}

func TestMux_Discovery(t *testing.T) {
	mux := testMux(t, "")

	for _, path := range []string{
		"/.well-known/oauth-protected-resource",
		"/.well-known/oauth-authorization-server",
		"/.well-known/jwks.json",
	} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"), path)
	}
}

func TestMux_MCPRequiresAuth(t *testing.T) {
	mux := testMux(t, "service-key")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("X-API-Key", "service-key")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "mcp ok", rec.Body.String())
}

func TestMux_MCPOpenWithoutConfiguredKey(t *testing.T) {
	mux := testMux(t, "")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestMux_FullOAuthFlow exercises register, authorize, token exchange,
// and an authenticated MCP call end to end through the mux.
func TestMux_FullOAuthFlow(t *testing.T) {
	mux := testMux(t, "service-key")

	// Dynamic client registration.
	regBody := `{"client_name":"Flow Test","redirect_uris":["http://localhost:9999/cb"],"token_endpoint_auth_method":"none"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/oauth/register", strings.NewReader(regBody)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var reg struct {
		ClientID string `json:"client_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))

	// Authorization with PKCE.
	const verifier = "end-to-end-test-verifier-0123456789"
	h := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(h[:])

	q := url.Values{}
	q.Set("client_id", reg.ClientID)
	q.Set("redirect_uri", "http://localhost:9999/cb")
	q.Set("response_type", "code")
	q.Set("code_challenge", challenge)
	q.Set("code_challenge_method", "S256")
	q.Set("state", "abc123")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/authorize?"+q.Encode(), nil))
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	code := loc.Query().Get("code")
	require.NotEmpty(t, code)
	require.Equal(t, "abc123", loc.Query().Get("state"))

	// Token exchange.
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", "http://localhost:9999/cb")
	form.Set("client_id", reg.ClientID)
	form.Set("code_verifier", verifier)

	req := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, int64(86400), tok.ExpiresIn)

	// Authenticated MCP call with the issued token.
	req = httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "mcp ok", rec.Body.String())
}
