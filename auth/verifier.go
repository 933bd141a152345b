package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"example/chessdebrief/app/logger"
)

const clockSkew = 30 * time.Second

// Supabase signs browser sessions with role "anon" before sign-in.
const anonRole = "anon"

var (
	ErrMissingSubject = errors.New("token has no subject")
	ErrAnonymous      = errors.New("anonymous session token")
)

// sessionClaims is the access token payload issued by the identity provider.
type sessionClaims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	Scope        string         `json:"scope"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// Verifier checks access tokens against the provider's published signing keys.
type Verifier struct {
	keys   keyfunc.Keyfunc
	parser *jwt.Parser
}

// NewVerifier builds a verifier for tokens minted by issuer for audience.
// Keys are fetched from jwksURL, or from the issuer's
// /.well-known/jwks.json when jwksURL is empty.
func NewVerifier(issuer, audience, jwksURL string) (*Verifier, error) {
	issuer = strings.TrimSuffix(strings.TrimSpace(issuer), "/")
	switch {
	case issuer == "":
		return nil, errors.New("auth: issuer is required")
	case audience == "":
		return nil, errors.New("auth: audience is required")
	}
	if jwksURL == "" {
		jwksURL = issuer + "/.well-known/jwks.json"
	}

	keys, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("auth: load signing keys from %s: %w", jwksURL, err)
	}

	return &Verifier{
		keys: keys,
		parser: jwt.NewParser(
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithLeeway(clockSkew),
			jwt.WithExpirationRequired(),
			jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "ES256"}),
		),
	}, nil
}

// Verify validates tokenString and returns the caller it identifies.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	var sc sessionClaims
	if _, err := v.parser.ParseWithClaims(tokenString, &sc, v.keys.Keyfunc); err != nil {
		return nil, err
	}
	if sc.Subject == "" {
		return nil, ErrMissingSubject
	}
	if sc.Role == anonRole {
		return nil, ErrAnonymous
	}
	return sc.toClaims(), nil
}

func (sc *sessionClaims) toClaims() *Claims {
	c := &Claims{
		Subject:     sc.Subject,
		Email:       strings.TrimSpace(sc.Email),
		Role:        sc.Role,
		Issuer:      sc.Issuer,
		Audience:    sc.Audience,
		Scope:       sc.Scope,
		DisplayName: metaString(sc.UserMetadata, "full_name", "name", "preferred_username"),
	}
	if c.Email == "" {
		c.Email = metaString(sc.UserMetadata, "email")
	}
	if sc.ExpiresAt != nil {
		c.ExpiresAt = sc.ExpiresAt.UTC()
	}
	return c
}

// metaString returns the first non-blank string among keys.
func metaString(meta map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := meta[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// AuthDisabled reports whether AUTH_DISABLED=true is set outside Lambda.
func AuthDisabled() bool {
	if !strings.EqualFold(os.Getenv("AUTH_DISABLED"), "true") {
		return false
	}
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		logger.Warn().Msg("AUTH_DISABLED ignored inside Lambda")
		return false
	}
	return true
}
