// Package auth implements OAuth 2.1 authorization for the MCP server.
// It acts as both the authorization server and resource server. Client
// registrations persist to a flat JSON file; codes and tokens are
// in-memory only and invalidated on restart.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/intervalsmcp/intervals-mcp-server/internal/models"
)

const (
	// codeExpiry is the authorization code TTL.
	codeExpiry = 10 * time.Minute

	// tokenExpiry is the access token TTL.
	tokenExpiry = 24 * time.Hour

	// refreshExpiry is the refresh token TTL.
	refreshExpiry = 30 * 24 * time.Hour

	// cleanupInterval controls how often expired entries are reaped.
	cleanupInterval = 5 * time.Minute

	// authCodeBytes is the number of random bytes in an authorization
	// code (base64url-encoded to ~1.33x this length).
	authCodeBytes = 32

	// refreshTokenBytes is the number of random bytes in a refresh token.
	refreshTokenBytes = 32
)

// Store holds all OAuth state: the client registry, pending authorization
// codes, and issued token metadata. All access goes through the mutex.
type Store struct {
	mu      sync.RWMutex
	clients map[string]*models.OAuthClient
	codes   map[string]*models.AuthCode
	tokens  map[string]*models.AccessToken
	refresh map[string]*models.RefreshToken

	clientsFile string
	logger      *slog.Logger
	stopGC      chan struct{}
}

// NewStore creates an OAuth store, loading any previously registered
// clients from clientsFile. A missing or unreadable file degrades to an
// empty registry with a warning; it never fails startup. A background
// goroutine reaps expired codes and tokens; call Stop to terminate it.
func NewStore(clientsFile string, logger *slog.Logger) *Store {
	s := &Store{
		clients:     make(map[string]*models.OAuthClient),
		codes:       make(map[string]*models.AuthCode),
		tokens:      make(map[string]*models.AccessToken),
		refresh:     make(map[string]*models.RefreshToken),
		clientsFile: clientsFile,
		logger:      logger,
		stopGC:      make(chan struct{}),
	}
	s.loadClients()
	go s.gcLoop()
	return s
}

// Stop terminates the background cleanup goroutine.
func (s *Store) Stop() {
	close(s.stopGC)
}

func (s *Store) gcLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopGC:
			return
		}
	}
}

// cleanup removes expired codes and tokens. Used codes are kept until
// their expiry passes so replay attempts within the TTL still resolve to
// a used record.
func (s *Store) cleanup() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ac := range s.codes {
		if now.After(ac.ExpiresAt) {
			delete(s.codes, k)
		}
	}
	for k, at := range s.tokens {
		if now.After(at.ExpiresAt) {
			delete(s.tokens, k)
		}
	}
	for k, rt := range s.refresh {
		if now.After(rt.ExpiresAt) {
			delete(s.refresh, k)
		}
	}
}

// loadClients reads the client registry file. Errors are logged, not
// returned: a corrupt or missing file must never crash the process.
func (s *Store) loadClients() {
	if s.clientsFile == "" {
		return
	}

	data, err := os.ReadFile(s.clientsFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to load OAuth clients, starting with empty registry",
				slog.String("file", s.clientsFile),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	var clients map[string]*models.OAuthClient
	if err := json.Unmarshal(data, &clients); err != nil {
		s.logger.Warn("failed to parse OAuth clients file, starting with empty registry",
			slog.String("file", s.clientsFile),
			slog.String("error", err.Error()),
		)
		return
	}

	s.mu.Lock()
	s.clients = clients
	s.mu.Unlock()

	s.logger.Info("loaded OAuth clients from storage",
		slog.Int("count", len(clients)),
		slog.String("file", s.clientsFile),
	)
}

// saveClientsLocked writes the full registry to disk as a wholesale
// atomic overwrite (temp file + rename). Caller must hold the mutex.
func (s *Store) saveClientsLocked() error {
	if s.clientsFile == "" {
		return nil
	}

	data, err := json.MarshalIndent(s.clients, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling clients: %w", err)
	}

	dir := filepath.Dir(s.clientsFile)
	tmp, err := os.CreateTemp(dir, ".oauth_clients-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing clients: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.clientsFile); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing clients file: %w", err)
	}
	return nil
}

// RegisterClient stores a new client and persists the registry. A
// persistence failure is logged and the in-memory registration kept, so
// existing flows keep working until restart.
func (s *Store) RegisterClient(c *models.OAuthClient) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clients[c.ClientID] = c
	if err := s.saveClientsLocked(); err != nil {
		s.logger.Error("failed to persist OAuth clients",
			slog.String("file", s.clientsFile),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Info("saved OAuth clients to storage", slog.Int("count", len(s.clients)))
}

// GetClient returns the client record for a given client_id, or nil.
func (s *Store) GetClient(clientID string) *models.OAuthClient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients[clientID]
}

// SaveCode stores an authorization code.
func (s *Store) SaveCode(ac *models.AuthCode) {
	s.mu.Lock()
	s.codes[ac.Code] = ac
	s.mu.Unlock()
}

// GetCode returns the stored authorization code record, or nil. The
// record is not consumed; callers validate it and then call ConsumeCode
// once every check has passed.
func (s *Store) GetCode(code string) *models.AuthCode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ac, ok := s.codes[code]
	if !ok {
		return nil
	}
	cp := *ac
	return &cp
}

// ConsumeCode atomically marks a code as used. It returns false when the
// code is unknown, expired, or already used, enforcing single redemption
// even under concurrent exchanges.
func (s *Store) ConsumeCode(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ac, ok := s.codes[code]
	if !ok || ac.Used || time.Now().After(ac.ExpiresAt) {
		return false
	}
	ac.Used = true
	return true
}

// SaveToken records the metadata for an issued access token.
func (s *Store) SaveToken(at *models.AccessToken) {
	s.mu.Lock()
	s.tokens[at.Token] = at
	s.mu.Unlock()
}

// GetToken returns the metadata for a raw access token string, or nil.
func (s *Store) GetToken(token string) *models.AccessToken {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[token]
}

// SaveRefreshToken records a redeemable refresh token.
func (s *Store) SaveRefreshToken(rt *models.RefreshToken) {
	s.mu.Lock()
	s.refresh[rt.Token] = rt
	s.mu.Unlock()
}

// ConsumeRefreshToken retrieves and deletes a refresh token (rotation:
// every redemption invalidates the presented token). Returns nil when
// the token is unknown or expired.
func (s *Store) ConsumeRefreshToken(token string) *models.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.refresh[token]
	if !ok {
		return nil
	}
	delete(s.refresh, token)

	if time.Now().After(rt.ExpiresAt) {
		return nil
	}
	return rt
}

// RandomToken generates a cryptographically random URL-safe string from
// byteLen bytes of entropy.
func RandomToken(byteLen int) string {
	b := make([]byte, byteLen)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
