package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/intervalsmcp/intervals-mcp-server/internal/models"
)

const (
	defaultClientName = "MCP Client"
	defaultScope      = "intervals:read intervals:write"

	// clientSecretBytes is the number of random bytes in a generated
	// confidential client secret.
	clientSecretBytes = 32
)

// registrationRequest is the DCR POST body (RFC 7591).
type registrationRequest struct {
	ClientName              string   `json:"client_name,omitempty"`
	RedirectURIs            []string `json:"redirect_uris"`
	GrantTypes              []string `json:"grant_types,omitempty"`
	ResponseTypes           []string `json:"response_types,omitempty"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method,omitempty"`
	Scope                   string   `json:"scope,omitempty"`
	ClientSecret            string   `json:"client_secret,omitempty"`
}

// registrationResponse is the DCR response. ClientSecret is present only
// for confidential clients and is the sole time the secret is revealed.
type registrationResponse struct {
	ClientID                string   `json:"client_id"`
	ClientSecret            string   `json:"client_secret,omitempty"`
	ClientName              string   `json:"client_name"`
	RedirectURIs            []string `json:"redirect_uris"`
	GrantTypes              []string `json:"grant_types"`
	ResponseTypes           []string `json:"response_types"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
	Scope                   string   `json:"scope"`
}

// validRedirectURI accepts https URIs and loopback http URIs for local
// development clients.
func validRedirectURI(uri string) bool {
	if strings.HasPrefix(uri, "https://") {
		return true
	}
	return strings.HasPrefix(uri, "http://localhost") || strings.HasPrefix(uri, "http://127.0.0.1")
}

// HandleRegistration returns the /oauth/register handler implementing
// dynamic client registration.
func HandleRegistration(store *Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req registrationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, errInvalidClientMetadata, "invalid request body")
			return
		}

		if len(req.RedirectURIs) == 0 {
			writeJSONError(w, http.StatusBadRequest, errInvalidClientMetadata, "redirect_uris is required")
			return
		}
		for _, uri := range req.RedirectURIs {
			if !validRedirectURI(uri) {
				writeJSONError(w, http.StatusBadRequest, errInvalidRedirectURI,
					"redirect_uris must use https or http://localhost")
				return
			}
		}

		clientName := req.ClientName
		if clientName == "" {
			clientName = defaultClientName
		}
		grantTypes := req.GrantTypes
		if len(grantTypes) == 0 {
			grantTypes = []string{"authorization_code"}
		}
		responseTypes := req.ResponseTypes
		if len(responseTypes) == 0 {
			responseTypes = []string{"code"}
		}
		scope := req.Scope
		if scope == "" {
			scope = defaultScope
		}

		// A client is public when it declares token_endpoint_auth_method
		// "none" or registers without any secret material. Public clients
		// must use PKCE instead of a secret.
		isPublic := req.TokenEndpointAuthMethod == "none" ||
			(req.TokenEndpointAuthMethod == "" && req.ClientSecret == "")

		authMethod := req.TokenEndpointAuthMethod
		if authMethod == "" {
			if isPublic {
				authMethod = "none"
			} else {
				authMethod = "client_secret_post"
			}
		}

		client := &models.OAuthClient{
			ClientID:                "intervals_mcp_" + uuid.NewString(),
			ClientName:              clientName,
			RedirectURIs:            req.RedirectURIs,
			GrantTypes:              grantTypes,
			ResponseTypes:           responseTypes,
			TokenEndpointAuthMethod: authMethod,
			Scope:                   scope,
			IsPublicClient:          isPublic,
			CreatedAt:               time.Now().UTC(),
		}
		if !isPublic {
			// Always server-generated, never taken from the request.
			client.ClientSecret = RandomToken(clientSecretBytes)
		}

		store.RegisterClient(client)

		logger.Info("registered OAuth client",
			slog.String("client_id", client.ClientID),
			slog.String("client_name", client.ClientName),
			slog.Bool("public", client.IsPublicClient),
		)

		resp := registrationResponse{
			ClientID:                client.ClientID,
			ClientSecret:            client.ClientSecret,
			ClientName:              client.ClientName,
			RedirectURIs:            client.RedirectURIs,
			GrantTypes:              client.GrantTypes,
			ResponseTypes:           client.ResponseTypes,
			TokenEndpointAuthMethod: client.TokenEndpointAuthMethod,
			Scope:                   client.Scope,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(resp)
	}
}
