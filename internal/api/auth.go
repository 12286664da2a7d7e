package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errNoIdentity   = errors.New("token carries no email or sub claim")
)

// Authenticator verifies HS256 bearer tokens and extracts the caller's
// identity. It never issues tokens.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Identity returns the email claim of a valid token, or sub when email is
// absent.
func (a *Authenticator) Identity(tokenStr string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	if email, _ := claims["email"].(string); strings.TrimSpace(email) != "" {
		return strings.TrimSpace(email), nil
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(sub) == "" {
		return "", errNoIdentity
	}
	return strings.TrimSpace(sub), nil
}

type userKey struct{}

// UserFrom returns the identity stored by Middleware.
func UserFrom(ctx context.Context) string {
	u, _ := ctx.Value(userKey{}).(string)
	return u
}

func withUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// Middleware rejects requests without an Authorization header with 401 and
// requests with an unverifiable token with 403.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := strings.TrimSpace(r.Header.Get("Authorization"))
		if h == "" {
			writeMessage(w, http.StatusUnauthorized, "Access token required")
			return
		}
		tok, ok := strings.CutPrefix(h, "Bearer ")
		if !ok {
			writeMessage(w, http.StatusForbidden, "Invalid or expired token")
			return
		}
		user, err := a.Identity(strings.TrimSpace(tok))
		if err != nil {
			writeMessage(w, http.StatusForbidden, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}
