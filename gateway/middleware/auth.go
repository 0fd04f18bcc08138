package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken      = errors.New("missing bearer token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrInsufficientScope = errors.New("insufficient scope")
	ErrNoSecret          = errors.New("auth secret not configured")
)

// AuthConfig configures HS256/384/512 bearer token validation.
type AuthConfig struct {
	Enabled    bool
	HMACSecret string
	Issuer     string
	Audience   string
	// ScopeClaim names the claim holding a space separated string or a list
	// of scopes. Defaults to "scope".
	ScopeClaim string
	ClockSkew  time.Duration
}

type contextKey string

const (
	ContextKeySubject contextKey = "gateway.subject"
	ContextKeyScopes  contextKey = "gateway.scopes"

	defaultScopeClaim = "scope"
	defaultClockSkew  = 2 * time.Minute
)

// Subject returns the authenticated token subject, if any.
func Subject(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(ContextKeySubject).(string)
	return sub, ok && sub != ""
}

// Scopes returns the scopes granted to the authenticated caller.
func Scopes(ctx context.Context) []string {
	scopes, _ := ctx.Value(ContextKeyScopes).([]string)
	return scopes
}

// HasScope reports whether the authenticated caller holds scope.
func HasScope(ctx context.Context, scope string) bool {
	return missingScope(Scopes(ctx), []string{scope}) == ""
}

// Authenticator validates bearer tokens and stores the subject and scopes on
// the request context.
type Authenticator struct {
	cfg    AuthConfig
	logger *slog.Logger
	secret []byte
	parser *jwt.Parser
	nowFn  func() time.Time
}

func NewAuthenticator(cfg AuthConfig, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ScopeClaim == "" {
		cfg.ScopeClaim = defaultScopeClaim
	}
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = defaultClockSkew
	}
	a := &Authenticator{
		cfg:    cfg,
		logger: logger,
		secret: []byte(strings.TrimSpace(cfg.HMACSecret)),
		nowFn:  time.Now,
	}
	a.parser = a.newParser()
	return a
}

func (a *Authenticator) newParser() *jwt.Parser {
	opts := []jwt.ParserOption{
		jwt.WithLeeway(a.cfg.ClockSkew),
		jwt.WithTimeFunc(func() time.Time { return a.nowFn() }),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{
			jwt.SigningMethodHS256.Alg(),
			jwt.SigningMethodHS384.Alg(),
			jwt.SigningMethodHS512.Alg(),
		}),
	}
	if a.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.cfg.Issuer))
	}
	if a.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(a.cfg.Audience))
	}
	return jwt.NewParser(opts...)
}

// SetNowFunc overrides the clock used for expiry checks.
func (a *Authenticator) SetNowFunc(now func() time.Time) {
	if now != nil {
		a.nowFn = now
	}
}

// Enabled reports whether requests are authenticated at all.
func (a *Authenticator) Enabled() bool { return a != nil && a.cfg.Enabled }

// Middleware rejects requests without a valid token holding every scope in
// required. A disabled authenticator lets everything through.
func (a *Authenticator) Middleware(required ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !a.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r.Header.Get("Authorization"))
			if raw == "" {
				a.deny(w, http.StatusUnauthorized, ErrMissingToken, "")
				return
			}
			subject, scopes, err := a.Verify(raw)
			if err != nil {
				a.logger.Warn("token validation failed", "path", r.URL.Path, "error", err)
				a.deny(w, http.StatusUnauthorized, ErrInvalidToken, "")
				return
			}
			if scope := missingScope(scopes, required); scope != "" {
				a.deny(w, http.StatusForbidden, ErrInsufficientScope, scope)
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeySubject, subject)
			ctx = context.WithValue(ctx, ContextKeyScopes, scopes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Verify checks the signature and registered claims of raw and returns its
// subject and scopes.
func (a *Authenticator) Verify(raw string) (string, []string, error) {
	if len(a.secret) == 0 {
		return "", nil, ErrNoSecret
	}
	claims := jwt.MapClaims{}
	if _, err := a.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}); err != nil {
		return "", nil, err
	}
	subject, _ := claims.GetSubject()
	return subject, scopesFrom(claims[a.cfg.ScopeClaim]), nil
}

// deny writes a JSON error with an RFC 6750 challenge.
func (a *Authenticator) deny(w http.ResponseWriter, status int, err error, scope string) {
	challenge := `Bearer error="invalid_token"`
	switch {
	case errors.Is(err, ErrMissingToken):
		challenge = "Bearer"
	case errors.Is(err, ErrInsufficientScope):
		challenge = fmt.Sprintf(`Bearer error="insufficient_scope", scope=%q`, scope)
	}
	w.Header().Set("WWW-Authenticate", challenge)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": err.Error()})
}

// IssueToken signs an HS256 token for subject. Operators use it to mint
// credentials for the volunteering service.
func IssueToken(cfg AuthConfig, subject string, scopes []string, ttl time.Duration, now time.Time) (string, error) {
	secret := strings.TrimSpace(cfg.HMACSecret)
	if secret == "" {
		return "", ErrNoSecret
	}
	claim := cfg.ScopeClaim
	if claim == "" {
		claim = defaultScopeClaim
	}
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
		claim: strings.Join(scopes, " "),
	}
	if cfg.Issuer != "" {
		claims["iss"] = cfg.Issuer
	}
	if cfg.Audience != "" {
		claims["aud"] = cfg.Audience
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func scopesFrom(raw interface{}) []string {
	switch v := raw.(type) {
	case string:
		return strings.Fields(v)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, entry := range v {
			if s, ok := entry.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// missingScope returns the first required scope not granted, or "".
func missingScope(granted, required []string) string {
	for _, want := range required {
		found := false
		for _, have := range granted {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return want
		}
	}
	return ""
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
