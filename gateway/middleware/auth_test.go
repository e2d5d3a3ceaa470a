package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestAuthenticatorAttachesPrincipal(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: testSecret, Issuer: "spaced"}, nil)
	var got Principal
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = PrincipalFrom(r.Context())
	}))

	token := signToken(t, jwt.MapClaims{
		"sub":   "0x00000000000000000000000000000000000000aa",
		"iss":   "spaced",
		"scope": "game:play game:admin",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodPost, "/rpc", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "0x00000000000000000000000000000000000000aa", got.Subject)
	require.True(t, got.HasScope("game:admin"))
}

func TestAuthenticatorRejects(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: testSecret, Issuer: "spaced"}, nil)
	handler := auth.Middleware("game:admin")(okHandler())

	cases := map[string]struct {
		header string
		code   int
	}{
		"missing":      {"", http.StatusUnauthorized},
		"garbage":      {"Bearer not-a-token", http.StatusUnauthorized},
		"wrong issuer": {"Bearer " + signToken(t, jwt.MapClaims{"sub": "x", "iss": "other", "scope": "game:admin"}), http.StatusUnauthorized},
		"expired":      {"Bearer " + signToken(t, jwt.MapClaims{"sub": "x", "iss": "spaced", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
		"scope":        {"Bearer " + signToken(t, jwt.MapClaims{"sub": "x", "iss": "spaced", "scope": "game:play"}), http.StatusForbidden},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/rpc", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)
			require.Equal(t, tc.code, res.Code)
		})
	}
}

func TestAuthenticatorDisabledAndOptional(t *testing.T) {
	disabled := NewAuthenticator(AuthConfig{}, nil)
	res := httptest.NewRecorder()
	disabled.Middleware()(okHandler()).ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/rpc", nil))
	require.Equal(t, http.StatusOK, res.Code)
	require.False(t, disabled.Enabled())

	optional := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: testSecret, OptionalPaths: []string{"/healthz"}}, nil)
	res = httptest.NewRecorder()
	optional.Middleware()(okHandler()).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, res.Code)
}
