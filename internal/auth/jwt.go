package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the JWT claims carried by issued access tokens.
type Claims struct {
	ClientID string `json:"client_id"`
	Scope    string `json:"scope"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies JWT access tokens. HMAC algorithms sign
// with the configured secret; RSA algorithms sign with a keypair
// generated at startup, which means RS tokens do not survive restarts.
type TokenIssuer struct {
	method   jwt.SigningMethod
	secret   []byte
	rsaKey   *rsa.PrivateKey
	keyID    string
	issuer   string
	audience string
	expiry   time.Duration
}

// NewTokenIssuer builds an issuer for the given algorithm. Supported
// algorithms are HS256/HS384/HS512 and RS256/RS384/RS512.
func NewTokenIssuer(algorithm, secret, issuer, audience string) (*TokenIssuer, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unsupported JWT algorithm %q", algorithm)
	}

	ti := &TokenIssuer{
		method:   method,
		issuer:   issuer,
		audience: audience,
		expiry:   tokenExpiry,
	}

	switch method.(type) {
	case *jwt.SigningMethodHMAC:
		ti.secret = []byte(secret)
	case *jwt.SigningMethodRSA:
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, fmt.Errorf("generating RSA key: %w", err)
		}
		ti.rsaKey = key
		ti.keyID = uuid.NewString()
	default:
		return nil, fmt.Errorf("unsupported JWT algorithm %q", algorithm)
	}
	return ti, nil
}

// Expiry returns the access token lifetime.
func (ti *TokenIssuer) Expiry() time.Duration {
	return ti.expiry
}

// UsesRSA reports whether tokens are signed with an RSA key, in which
// case the public key is published via JWKS.
func (ti *TokenIssuer) UsesRSA() bool {
	return ti.rsaKey != nil
}

// Issue mints a signed access token for the given client and scope.
func (ti *TokenIssuer) Issue(clientID, scope string) (string, error) {
	now := time.Now()
	claims := Claims{
		ClientID: clientID,
		Scope:    scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			Issuer:    ti.issuer,
			Audience:  jwt.ClaimStrings{ti.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.expiry)),
		},
	}

	token := jwt.NewWithClaims(ti.method, claims)
	if ti.keyID != "" {
		token.Header["kid"] = ti.keyID
	}

	var signed string
	var err error
	if ti.rsaKey != nil {
		signed, err = token.SignedString(ti.rsaKey)
	} else {
		signed, err = token.SignedString(ti.secret)
	}
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string, checking the signature,
// algorithm, and expiry. The audience claim is not validated: MCP
// clients commonly present tokens whose audience does not match the
// resource identifier exactly.
func (ti *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != ti.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		if ti.rsaKey != nil {
			return &ti.rsaKey.PublicKey, nil
		}
		return ti.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidSignature, err.Error())
	}
	return claims, nil
}

// Scopes splits the token's space-delimited scope claim.
func (c *Claims) Scopes() []string {
	return strings.Fields(c.Scope)
}

// jwk is a single JSON Web Key in a JWKS document.
type jwk struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// jwks is the JWKS document served at /.well-known/jwks.json.
type jwks struct {
	Keys []jwk `json:"keys"`
}

// JWKS returns the public key set. HMAC issuers have no publishable key
// material, so they return an empty set.
func (ti *TokenIssuer) JWKS() jwks {
	if ti.rsaKey == nil {
		return jwks{Keys: []jwk{}}
	}

	pub := &ti.rsaKey.PublicKey
	return jwks{Keys: []jwk{{
		Kty: "RSA",
		Use: "sig",
		Kid: ti.keyID,
		Alg: ti.method.Alg(),
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}}}
}
