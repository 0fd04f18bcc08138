package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAuthenticatorScopesAndSubject(t *testing.T) {
	cfg := AuthConfig{Enabled: true, HMACSecret: "secret", Issuer: "eusko"}
	auth := NewAuthenticator(cfg, nil)
	now := time.Unix(1_700_000_000, 0)
	auth.SetNowFunc(func() time.Time { return now })

	var gotSubject string
	var gotOperator bool
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject, _ = Subject(r.Context())
		gotOperator = HasScope(r.Context(), "operator")
		w.WriteHeader(http.StatusOK)
	}))

	token, err := IssueToken(cfg, "eus1volunteer", []string{"volunteer", "operator"}, time.Hour, now)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, "/api/volunteering", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "eus1volunteer", gotSubject)
	require.True(t, gotOperator)

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/volunteering", nil))
	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.Equal(t, "Bearer", res.Header().Get("WWW-Authenticate"))
	require.JSONEq(t, `{"message":"missing bearer token"}`, res.Body.String())
}

func TestAuthenticatorChallenges(t *testing.T) {
	cfg := AuthConfig{Enabled: true, HMACSecret: "secret", ScopeClaim: "perms"}
	auth := NewAuthenticator(cfg, nil)
	handler := auth.Middleware("volunteering:operator")(okHandler())

	token, err := IssueToken(cfg, "x", []string{"volunteer"}, time.Hour, time.Now())
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusForbidden, res.Code)
	require.Equal(t, `Bearer error="insufficient_scope", scope="volunteering:operator"`, res.Header().Get("WWW-Authenticate"))

	subject, scopes, err := auth.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "x", subject)
	require.Equal(t, []string{"volunteer"}, scopes)

	_, _, err = NewAuthenticator(AuthConfig{Enabled: true}, nil).Verify(token)
	require.ErrorIs(t, err, ErrNoSecret)
}

func TestScopesFromClaimShapes(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, scopesFrom(" a  b "))
	require.Equal(t, []string{"a", "c"}, scopesFrom([]interface{}{"a", 7, "", "c"}))
	require.Nil(t, scopesFrom(42))
	require.Equal(t, "c", missingScope([]string{"a", "b"}, []string{"a", "c"}))
	require.Empty(t, missingScope(nil, nil))
}

func TestAuthenticatorRejects(t *testing.T) {
	cfg := AuthConfig{Enabled: true, HMACSecret: "secret", Issuer: "eusko"}
	auth := NewAuthenticator(cfg, nil)
	now := time.Unix(1_700_000_000, 0)
	auth.SetNowFunc(func() time.Time { return now })
	handler := auth.Middleware("operator")(okHandler())

	send := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		return res.Code
	}

	require.Equal(t, http.StatusUnauthorized, send(""))
	require.Equal(t, http.StatusUnauthorized, send("not-a-jwt"))

	wrongSecret, err := IssueToken(AuthConfig{HMACSecret: "other", Issuer: "eusko"}, "x", []string{"operator"}, time.Hour, now)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, send(wrongSecret))

	wrongIssuer, err := IssueToken(AuthConfig{HMACSecret: "secret", Issuer: "elsewhere"}, "x", []string{"operator"}, time.Hour, now)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, send(wrongIssuer))

	expired, err := IssueToken(cfg, "x", []string{"operator"}, time.Minute, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, send(expired))

	noScope, err := IssueToken(cfg, "x", []string{"volunteer"}, time.Hour, now)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, send(noScope))

	good, err := IssueToken(cfg, "x", []string{"operator"}, time.Hour, now)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, send(good))
}

func TestDisabledAuthenticatorPassesThrough(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{}, nil)
	require.False(t, auth.Enabled())
	res := httptest.NewRecorder()
	auth.Middleware("operator")(okHandler()).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, res.Code)
}

func TestCORSEchoesAllowedOrigin(t *testing.T) {
	handler := CORS(CORSConfig{AllowedOrigins: []string{"https://app.eusko.example"}})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.eusko.example")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusNoContent, res.Code)
	require.Equal(t, "https://app.eusko.example", res.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	require.Empty(t, res.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDReusesInboundHeader(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	require.Equal(t, seen, res.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "abc", seen)
}
