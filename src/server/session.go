package server

import (
	"fmt"
	"net/http"
	"time"

	app "csvgate/src/app"
	cfg "csvgate/src/configuration"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const sessionContextKey = "session"

type (
	// SessionClaims is the payload of the session cookie. CognitoToken holds the
	// identity token exactly as the provider issued it.
	SessionClaims struct {
		jwt.RegisteredClaims
		CognitoToken string `json:"CognitoToken"`
	}

	// SessionManager issues and reads the signed session cookie.
	SessionManager struct {
		cookieName string
		domain     string
		secure     bool
		secret     []byte
		ttl        time.Duration
		now        func() time.Time
	}
)

func NewSessionManager(config cfg.SessionProperties) *SessionManager {
	return &SessionManager{
		cookieName: config.CookieName,
		domain:     config.Domain,
		secure:     config.Secure,
		secret:     []byte(config.Secret),
		ttl:        config.TTL,
		now:        time.Now,
	}
}

// Issue sets a session cookie for subject. The cookie never outlives notAfter
// when it is set.
func (s *SessionManager) Issue(c *gin.Context, subject, token string, notAfter time.Time) error {
	now := s.now()
	expires := now.Add(s.ttl)
	if !notAfter.IsZero() && notAfter.Before(expires) {
		expires = notAfter
	}

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		CognitoToken: token,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("can not sign session: %w", err)
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookieName, signed, int(expires.Sub(now).Seconds()), "/", s.domain, s.secure, true)
	return nil
}

// Clear expires the session cookie whether or not one was sent.
func (s *SessionManager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookieName, "", -1, "/", s.domain, s.secure, true)
}

// Parse validates a cookie value and returns the session it carries.
func (s *SessionManager) Parse(raw string) (*app.Session, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid session: %w", err)
	}
	return &app.Session{
		Subject: claims.Subject,
		Token:   claims.CognitoToken,
		Expires: claims.ExpiresAt.Time,
	}, nil
}

// LoadSession attaches the cookie's session to the request. A missing or
// invalid cookie leaves the request anonymous.
func (s *SessionManager) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(s.cookieName)
		if err == nil && raw != "" {
			session, err := s.Parse(raw)
			if err != nil {
				logger(c).Debugf("ignoring session cookie: %v", err)
			} else {
				c.Set(sessionContextKey, session)
				c.Set(loggerContextKey, logger(c).WithField("subject", session.Subject))
			}
		}
		c.Next()
	}
}

// RequireSession rejects requests without an authenticated session.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentSession(c).Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "error", "error": "no session"})
			return
		}
		c.Next()
	}
}

func currentSession(c *gin.Context) *app.Session {
	value, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	session, _ := value.(*app.Session)
	return session
}

// bearer is the token forwarded to the gateway, empty without a session.
func bearer(c *gin.Context) string {
	session := currentSession(c)
	if !session.Authenticated() {
		return ""
	}
	return session.Token
}
