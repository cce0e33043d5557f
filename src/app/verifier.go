package app

import (
	"context"

	cfg "csvgate/src/configuration"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Identity is what a verified identity token says about its holder.
type Identity struct {
	Subject string
	User
}

// IDTokenVerifier checks user pool identity tokens against the pool's JWKS.
type IDTokenVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewIDTokenVerifier fetches signing keys lazily from the issuer's jwks.json,
// so construction does not touch the network.
func NewIDTokenVerifier(ctx context.Context, auth cfg.AuthProperties) *IDTokenVerifier {
	issuer := auth.Issuer()
	keySet := oidc.NewRemoteKeySet(ctx, issuer+"/.well-known/jwks.json")
	return NewIDTokenVerifierWithKeySet(issuer, auth.AppClientID, keySet)
}

func NewIDTokenVerifierWithKeySet(issuer, clientID string, keySet oidc.KeySet) *IDTokenVerifier {
	return &IDTokenVerifier{
		verifier: oidc.NewVerifier(issuer, keySet, &oidc.Config{ClientID: clientID}),
	}
}

func (v *IDTokenVerifier) Verify(ctx context.Context, rawIDToken string) (*Identity, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, newErr(AuthenticationFailed, "invalid identity token", err)
	}

	var claims struct {
		Username      string `json:"cognito:username"`
		Email         string `json:"email"`
		Name          string `json:"given_name"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, serviceErr("can not parse identity token claims", err)
	}
	return &Identity{
		Subject: idToken.Subject,
		User: User{
			Username:      claims.Username,
			Email:         claims.Email,
			Name:          claims.Name,
			EmailVerified: claims.EmailVerified,
		},
	}, nil
}
