package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/cemleme/GRB-contracts/observability/logging"
)

type AuthConfig struct {
	Enabled    bool
	HMACSecret string
	Issuer     string
	Audience   string
	ScopeClaim string
	// OptionalPaths skip authentication entirely, e.g. health checks.
	OptionalPaths []string
	ClockSkew     time.Duration
}

type contextKey string

const (
	ContextKeySubject contextKey = "spaced.subject"
	ContextKeyScopes  contextKey = "spaced.scopes"
)

// Principal is the authenticated caller attached to a request context.
type Principal struct {
	Subject string
	Scopes  []string
}

// HasScope reports whether the principal carries scope.
func (p Principal) HasScope(scope string) bool {
	return hasScopes(p.Scopes, []string{scope})
}

// PrincipalFrom returns the principal stored by the authenticator.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	subject, ok := ctx.Value(ContextKeySubject).(string)
	if !ok {
		return Principal{}, false
	}
	scopes, _ := ctx.Value(ContextKeyScopes).([]string)
	return Principal{Subject: subject, Scopes: scopes}, true
}

// WithPrincipal attaches p to ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = context.WithValue(ctx, ContextKeySubject, p.Subject)
	return context.WithValue(ctx, ContextKeyScopes, p.Scopes)
}

type Authenticator struct {
	cfg    AuthConfig
	logger *slog.Logger
	secret []byte
}

func NewAuthenticator(cfg AuthConfig, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ScopeClaim == "" {
		cfg.ScopeClaim = "scope"
	}
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = 2 * time.Minute
	}
	return &Authenticator{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "auth")),
		secret: []byte(strings.TrimSpace(cfg.HMACSecret)),
	}
}

// Enabled reports whether tokens are enforced.
func (a *Authenticator) Enabled() bool { return a != nil && a.cfg.Enabled }

func (a *Authenticator) Middleware(requiredScopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.cfg.Enabled || a.isOptional(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			tokenString := extractBearer(r.Header.Get("Authorization"))
			if tokenString == "" {
				tokenString = strings.TrimSpace(r.URL.Query().Get("access_token"))
			}
			if tokenString == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			principal, err := a.Verify(tokenString)
			if err != nil {
				a.logger.Warn("token rejected",
					slog.String("path", r.URL.Path),
					logging.MaskField("token", tokenString),
					slog.Any("error", err))
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if len(requiredScopes) > 0 && !hasScopes(principal.Scopes, requiredScopes) {
				http.Error(w, "insufficient scope", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// Verify parses and validates a token.
func (a *Authenticator) Verify(tokenString string) (Principal, error) {
	claims, err := a.parseToken(tokenString)
	if err != nil {
		return Principal{}, err
	}
	if err := validateClaims(claims, a.cfg.Issuer, a.cfg.Audience); err != nil {
		return Principal{}, err
	}
	subject, _ := claims["sub"].(string)
	if strings.TrimSpace(subject) == "" {
		return Principal{}, errors.New("subject missing")
	}
	return Principal{Subject: subject, Scopes: extractScopes(claims, a.cfg.ScopeClaim)}, nil
}

func (a *Authenticator) isOptional(path string) bool {
	for _, prefix := range a.cfg.OptionalPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (a *Authenticator) parseToken(tokenString string) (jwt.MapClaims, error) {
	if len(a.secret) == 0 {
		return nil, errors.New("auth secret not configured")
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithLeeway(a.cfg.ClockSkew))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token invalid")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("claims not map")
	}
	return claims, nil
}

func validateClaims(claims jwt.MapClaims, issuer, audience string) error {
	if issuer != "" {
		if value, ok := claims["iss"].(string); !ok || value != issuer {
			return errors.New("issuer mismatch")
		}
	}
	if audience != "" {
		aud, err := claims.GetAudience()
		if err != nil {
			return err
		}
		matched := false
		for _, entry := range aud {
			if entry == audience {
				matched = true
				break
			}
		}
		if !matched {
			return errors.New("audience mismatch")
		}
	}
	return nil
}

func extractScopes(claims jwt.MapClaims, scopeClaim string) []string {
	raw, ok := claims[scopeClaim]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case string:
		return strings.Fields(v)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, entry := range v {
			if s, ok := entry.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func hasScopes(scopes []string, required []string) bool {
	set := make(map[string]struct{}, len(scopes))
	for _, scope := range scopes {
		set[scope] = struct{}{}
	}
	for _, req := range required {
		if _, ok := set[req]; !ok {
			return false
		}
	}
	return true
}

func extractBearer(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
