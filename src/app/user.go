package app

import "time"

type (
	// LoginRequest is the body of POST /users/login.
	LoginRequest struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	// SignupRequest is the body of POST /users. Its fields are validated by the
	// user pool, not locally.
	SignupRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
		Name     string `json:"name"`
	}

	ConfirmRequest struct {
		Username         string `json:"username"`
		ConfirmationCode string `json:"confirmationCode"`
	}

	// Session is the identity carried by the signed session cookie.
	Session struct {
		// Subject is the username the session was issued to.
		Subject string
		// Token is the identity token forwarded as the Authorization value.
		Token   string
		Expires time.Time
	}

	// User is the profile read from a verified identity token.
	User struct {
		Username      string `json:"username"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		EmailVerified bool   `json:"emailVerified"`
	}
)

// Authenticated reports whether the session can authorize gateway calls.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}
