// Package auth validates bearer tokens minted by the external identity
// provider and exposes the resulting session through the request context.
// No sign-in flow lives here.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"sofilmy/internal/domain"
)

type sessionKey struct{}

// WithSession returns a context carrying the session.
func WithSession(ctx context.Context, session domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFrom extracts the session placed by the middleware.
func SessionFrom(ctx context.Context) (domain.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(domain.Session)
	return session, ok
}

type sessionClaims struct {
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens against the shared secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(strings.TrimSpace(secret))}
}

func (v *Verifier) Enabled() bool {
	return len(v.secret) > 0
}

// Parse validates the token and maps its claims onto a session. Any
// signature, expiry, or claim problem comes back as ErrUnauthorized; a
// missing shared secret is a configuration error instead.
func (v *Verifier) Parse(tokenString string) (domain.Session, error) {
	if !v.Enabled() {
		return domain.Session{}, fmt.Errorf("%w: auth secret not configured", domain.ErrMissingCredential)
	}
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return domain.Session{}, fmt.Errorf("%w: missing token", domain.ErrUnauthorized)
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: %s", domain.ErrUnauthorized, err.Error())
	}
	if claims.Subject == "" {
		return domain.Session{}, fmt.Errorf("%w: token has no subject", domain.ErrUnauthorized)
	}

	displayName := claims.DisplayName
	if displayName == "" {
		displayName = claims.Subject
	}
	return domain.Session{UserID: claims.Subject, DisplayName: displayName}, nil
}

// TokenFromRequest pulls the bearer token from the Authorization header,
// falling back to the access_token query parameter for websocket upgrades
// where custom headers are awkward.
func TokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}

// Authenticate resolves the request's session, if any.
func (v *Verifier) Authenticate(r *http.Request) (domain.Session, error) {
	return v.Parse(TokenFromRequest(r))
}
