package server

import (
	"context"
	"net/http"

	app "csvgate/src/app"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

type (
	// Authenticator is the identity provider facade behind /users.
	Authenticator interface {
		Login(ctx context.Context, username, password string) (*oauth2.Token, error)
		Signup(ctx context.Context, request app.SignupRequest) (string, error)
		Confirm(ctx context.Context, request app.ConfirmRequest) error
	}

	Verifier interface {
		Verify(ctx context.Context, rawIDToken string) (*app.Identity, error)
	}

	AuthHandler struct {
		identity Authenticator
		verifier Verifier
		sessions *SessionManager
	}
)

func NewAuthHandler(identity Authenticator, verifier Verifier, sessions *SessionManager) *AuthHandler {
	return &AuthHandler{
		identity: identity,
		verifier: verifier,
		sessions: sessions,
	}
}

func GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (a *AuthHandler) Login(c *gin.Context) {
	var request app.LoginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}

	token, err := a.identity.Login(c.Request.Context(), request.Username, request.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := a.sessions.Issue(c, request.Username, app.IDToken(token), token.Expiry); err != nil {
		problem(c, err)
		return
	}
	logger(c).WithField("subject", request.Username).Info("session issued")
	c.Status(http.StatusNoContent)
}

func (a *AuthHandler) Logout(c *gin.Context) {
	a.sessions.Clear(c)
	c.Status(http.StatusNoContent)
}

func (a *AuthHandler) Signup(c *gin.Context) {
	var request app.SignupRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}

	description, err := a.identity.Signup(c.Request.Context(), request)
	if err != nil {
		respondError(c, err)
		return
	}
	c.String(http.StatusOK, description)
}

func (a *AuthHandler) Confirm(c *gin.Context) {
	var request app.ConfirmRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}

	if err := a.identity.Confirm(c.Request.Context(), request); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Account returns the profile of the session's identity token.
func (a *AuthHandler) Account(c *gin.Context) {
	identity, err := a.verifier.Verify(c.Request.Context(), bearer(c))
	if err != nil {
		if app.KindOf(err) == app.AuthenticationFailed {
			c.IndentedJSON(http.StatusUnauthorized, gin.H{"message": "error", "error": app.MessageOf(err)})
			return
		}
		problem(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": identity.User})
}
