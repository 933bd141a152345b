// Package auth verifies bearer tokens issued by the identity provider and
// carries the resulting identity through request contexts.
package auth

import (
	"context"
	"time"
)

// Claims is the verified identity of the caller.
type Claims struct {
	Subject     string
	Email       string
	DisplayName string
	Role        string
	Issuer      string
	Audience    []string
	ExpiresAt   time.Time
	Scope       string
}

type claimsCtxKey struct{}

// WithClaims returns a child of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey{}, claims)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, _ := ctx.Value(claimsCtxKey{}).(*Claims)
	return c, c != nil
}

// UserID is the subject of the verified caller, or "" for none.
func UserID(ctx context.Context) string {
	if c, ok := ClaimsFromContext(ctx); ok {
		return c.Subject
	}
	return ""
}
