package auth

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/intervalsmcp/intervals-mcp-server/internal/models"
)

// HandleAuthorize returns the /oauth/authorize handler. Authorization is
// auto-approved: the server fronts a single athlete's data, so there is
// no per-user consent to gather. Request validation errors are returned
// as 400 JSON bodies rather than redirected, because the redirect_uri is
// not trusted until it has been validated.
func HandleAuthorize(store *Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		q := r.URL.Query()
		clientID := q.Get("client_id")
		redirectURI := q.Get("redirect_uri")
		responseType := q.Get("response_type")
		scope := q.Get("scope")
		state := q.Get("state")
		codeChallenge := q.Get("code_challenge")
		codeChallengeMethod := q.Get("code_challenge_method")

		client := store.GetClient(clientID)
		if client == nil {
			writeJSONError(w, http.StatusBadRequest, errInvalidClient, "unknown client_id")
			return
		}

		if !slices.Contains(client.RedirectURIs, redirectURI) {
			writeJSONError(w, http.StatusBadRequest, errInvalidRedirectURI,
				"redirect_uri does not match any registered URI")
			return
		}

		if responseType != "code" {
			writeJSONError(w, http.StatusBadRequest, errUnsupportedResponseType,
				"only the authorization code flow is supported")
			return
		}

		if codeChallengeMethod == "" {
			codeChallengeMethod = PKCEMethodS256
		}
		if codeChallengeMethod != PKCEMethodS256 && codeChallengeMethod != PKCEMethodPlain {
			writeJSONError(w, http.StatusBadRequest, errInvalidRequest,
				"code_challenge_method must be S256 or plain")
			return
		}
		if client.IsPublicClient && codeChallenge == "" {
			writeJSONError(w, http.StatusBadRequest, errInvalidRequest,
				"PKCE code_challenge is required for public clients")
			return
		}

		if scope == "" {
			scope = client.Scope
		}

		// The URI must parse before any code is issued against it.
		target, err := url.Parse(redirectURI)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, errInvalidRedirectURI, "redirect_uri is not a valid URL")
			return
		}

		code := RandomToken(authCodeBytes)
		store.SaveCode(&models.AuthCode{
			Code:                code,
			ClientID:            clientID,
			RedirectURI:         redirectURI,
			Scope:               scope,
			CodeChallenge:       codeChallenge,
			CodeChallengeMethod: codeChallengeMethod,
			ExpiresAt:           time.Now().Add(codeExpiry),
		})

		logger.Info("issued authorization code",
			slog.String("client_id", clientID),
			slog.String("scope", scope),
		)

		params := target.Query()
		params.Set("code", code)
		if state != "" {
			params.Set("state", state)
		}
		target.RawQuery = params.Encode()

		http.Redirect(w, r, target.String(), http.StatusFound)
	}
}
