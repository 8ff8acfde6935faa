package auth

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/intervalsmcp/intervals-mcp-server/internal/models"
)

// tokenResponse is the successful token endpoint response.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope"`
}

// tokenRequest carries the token endpoint parameters, accepted either as
// form data or a JSON body.
type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	CodeVerifier string `json:"code_verifier"`
	RefreshToken string `json:"refresh_token"`
}

func parseTokenRequest(r *http.Request) (*tokenRequest, bool) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req tokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, false
		}
		return &req, true
	}

	if err := r.ParseForm(); err != nil {
		return nil, false
	}
	return &tokenRequest{
		GrantType:    r.PostFormValue("grant_type"),
		Code:         r.PostFormValue("code"),
		RedirectURI:  r.PostFormValue("redirect_uri"),
		ClientID:     r.PostFormValue("client_id"),
		ClientSecret: r.PostFormValue("client_secret"),
		CodeVerifier: r.PostFormValue("code_verifier"),
		RefreshToken: r.PostFormValue("refresh_token"),
	}, true
}

// HandleToken returns the /oauth/token handler supporting the
// authorization_code and refresh_token grants.
func HandleToken(store *Store, issuer *TokenIssuer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		req, ok := parseTokenRequest(r)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, errInvalidRequest, "malformed token request")
			return
		}

		switch req.GrantType {
		case "authorization_code":
			handleAuthorizationCodeGrant(w, store, issuer, logger, req)
		case "refresh_token":
			handleRefreshTokenGrant(w, store, issuer, logger, req)
		default:
			writeJSONError(w, http.StatusBadRequest, errUnsupportedGrantType,
				"grant_type must be authorization_code or refresh_token")
		}
	}
}

func handleAuthorizationCodeGrant(w http.ResponseWriter, store *Store, issuer *TokenIssuer, logger *slog.Logger, req *tokenRequest) {
	ac := store.GetCode(req.Code)
	if ac == nil || ac.Used || time.Now().After(ac.ExpiresAt) {
		writeJSONError(w, http.StatusBadRequest, errInvalidGrant,
			"authorization code is invalid or expired")
		return
	}

	if req.ClientID != ac.ClientID {
		writeJSONError(w, http.StatusBadRequest, errInvalidClient, "client_id mismatch")
		return
	}
	client := store.GetClient(req.ClientID)
	if client == nil {
		writeJSONError(w, http.StatusBadRequest, errInvalidClient, "unknown client_id")
		return
	}

	if req.RedirectURI != ac.RedirectURI {
		writeJSONError(w, http.StatusBadRequest, errInvalidGrant, "redirect_uri mismatch")
		return
	}

	if client.IsPublicClient {
		if !VerifyPKCE(req.CodeVerifier, ac.CodeChallenge, ac.CodeChallengeMethod) {
			writeJSONError(w, http.StatusBadRequest, errInvalidGrant, "PKCE verification failed")
			return
		}
	} else {
		if subtle.ConstantTimeCompare([]byte(req.ClientSecret), []byte(client.ClientSecret)) != 1 {
			writeJSONError(w, http.StatusBadRequest, errInvalidClient, "invalid client_secret")
			return
		}
		// Confidential clients may still send PKCE; verify when present.
		if ac.CodeChallenge != "" && !VerifyPKCE(req.CodeVerifier, ac.CodeChallenge, ac.CodeChallengeMethod) {
			writeJSONError(w, http.StatusBadRequest, errInvalidGrant, "PKCE verification failed")
			return
		}
	}

	// Consume only after every check has passed, so racing exchanges of
	// the same code produce at most one token.
	if !store.ConsumeCode(req.Code) {
		writeJSONError(w, http.StatusBadRequest, errInvalidGrant,
			"authorization code is invalid or expired")
		return
	}

	scope := ac.Scope
	if scope == "" {
		scope = defaultScope
	}

	issueTokens(w, store, issuer, logger, client.ClientID, scope)
}

func handleRefreshTokenGrant(w http.ResponseWriter, store *Store, issuer *TokenIssuer, logger *slog.Logger, req *tokenRequest) {
	rt := store.ConsumeRefreshToken(req.RefreshToken)
	if rt == nil {
		writeJSONError(w, http.StatusBadRequest, errInvalidGrant,
			"refresh token is invalid or expired")
		return
	}

	if req.ClientID != rt.ClientID {
		writeJSONError(w, http.StatusBadRequest, errInvalidClient, "client_id mismatch")
		return
	}
	client := store.GetClient(req.ClientID)
	if client == nil {
		writeJSONError(w, http.StatusBadRequest, errInvalidClient, "unknown client_id")
		return
	}
	if !client.IsPublicClient {
		if subtle.ConstantTimeCompare([]byte(req.ClientSecret), []byte(client.ClientSecret)) != 1 {
			writeJSONError(w, http.StatusBadRequest, errInvalidClient, "invalid client_secret")
			return
		}
	}

	issueTokens(w, store, issuer, logger, rt.ClientID, rt.Scope)
}

func issueTokens(w http.ResponseWriter, store *Store, issuer *TokenIssuer, logger *slog.Logger, clientID, scope string) {
	accessToken, err := issuer.Issue(clientID, scope)
	if err != nil {
		logger.Error("failed to sign access token", slog.String("error", err.Error()))
		writeJSONError(w, http.StatusInternalServerError, "server_error", "failed to issue token")
		return
	}

	now := time.Now()
	refreshToken := RandomToken(refreshTokenBytes)

	store.SaveToken(&models.AccessToken{
		Token:        accessToken,
		ClientID:     clientID,
		Scope:        scope,
		ExpiresAt:    now.Add(issuer.Expiry()),
		RefreshToken: refreshToken,
	})
	store.SaveRefreshToken(&models.RefreshToken{
		Token:     refreshToken,
		ClientID:  clientID,
		Scope:     scope,
		ExpiresAt: now.Add(refreshExpiry),
	})

	logger.Info("issued access token",
		slog.String("client_id", clientID),
		slog.String("scope", scope),
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(issuer.Expiry().Seconds()),
		RefreshToken: refreshToken,
		Scope:        scope,
	})
}
