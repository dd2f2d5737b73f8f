package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mcg25035/RiceCall-sub002/internal/apperr"
	"github.com/mcg25035/RiceCall-sub002/internal/validation"
	"github.com/rs/zerolog"
)

type contextKey string

const identityKey contextKey = "identity"

const partAuth = "TokenAuth"

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID string
	Name   string
}

// Claims are the JWT claims RiceCall clients present. The subject is the user id.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier checks HS256 tokens issued with a shared secret.
type TokenVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Issue signs a token for userID. It is used by the issue-token command and by tests;
// production tokens come from the account service.
func (v *TokenVerifier) Issue(userID, name string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Verify parses token and returns the identity it carries.
func (v *TokenVerifier) Verify(token string) (Identity, error) {
	var claims Claims
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Identity{}, err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, errors.New("token has no subject")
	}
	if !validation.IsID(claims.Subject) {
		return Identity{}, errors.New("token subject is not a valid user id")
	}
	return Identity{UserID: claims.Subject, Name: claims.Name}, nil
}

// TokenAuth is a middleware that mandates a valid bearer token on every request except
// the health check. The token is read from the Authorization header, or from the token
// query parameter for websocket clients that cannot set headers.
func TokenAuth(next http.Handler, verifier *TokenVerifier, log zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// whitelisted endpoints
		if r.URL.Path == "/up" {
			next.ServeHTTP(w, r)
			return
		}

		token := tokenFromRequest(r)
		if token == "" {
			writeAuthError(w, "authentication required")
			return
		}
		identity, err := verifier.Verify(token)
		if err != nil {
			log.Info().Err(err).Str("remote", r.RemoteAddr).Str("path", r.URL.Path).Msg("auth error")
			writeAuthError(w, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="ricecall"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(apperr.Unauthenticated(partAuth, "%s", message))
}

// GetIdentity is used in endpoint handlers to retrieve the caller of the request.
func GetIdentity(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

// GetUserID returns the authenticated user id of r, or "" when there is none.
func GetUserID(r *http.Request) string {
	identity, _ := GetIdentity(r.Context())
	return identity.UserID
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}
