package admin

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/alishahabi1/patient-appointment-booking/libs/auth"
)

const CookieName = "admin_session"

// SessionTTL is the fixed lifetime of an admin session credential.
const SessionTTL = 8 * time.Hour

// Sessions gates the admin surface behind a single shared secret. A
// successful login issues a signed bearer token as a cookie; there is no
// server-side session store, the token alone proves authentication.
type Sessions struct {
	signingSecret string
	passwordHash  string // bcrypt hash, preferred
	password      string // plaintext fallback for dev setups
	secureCookie  bool
}

func NewSessions(signingSecret, passwordHash, password string, secureCookie bool) *Sessions {
	return &Sessions{
		signingSecret: signingSecret,
		passwordHash:  passwordHash,
		password:      password,
		secureCookie:  secureCookie,
	}
}

// VerifyPassword checks a login attempt against the configured admin secret.
// With neither a hash nor a plaintext password configured every attempt fails.
func (s *Sessions) VerifyPassword(candidate string) bool {
	if s.passwordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(candidate)) == nil
	}
	if s.password != "" {
		return subtle.ConstantTimeCompare([]byte(s.password), []byte(candidate)) == 1
	}
	return false
}

// IssueCookie signs a fresh session token valid for SessionTTL.
func (s *Sessions) IssueCookie() (*http.Cookie, error) {
	now := time.Now()
	token, err := auth.Sign(auth.Claims{
		Sub: "admin",
		Jti: uuid.NewString(),
		Iat: now.Unix(),
		Exp: now.Add(SessionTTL).Unix(),
	}, s.signingSecret)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// ClearedCookie expires the session cookie immediately.
func (s *Sessions) ClearedCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

// Authenticated reports whether the request carries a valid, unexpired
// session cookie.
func (s *Sessions) Authenticated(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	claims, err := auth.Verify(cookie.Value, s.signingSecret)
	if err != nil {
		return false
	}
	return claims.Sub == "admin"
}
