package app

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	cfg "csvgate/src/configuration"

	cognitosrp "github.com/alexrudd/cognito-srp/v4"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"golang.org/x/oauth2"
)

// CognitoAPI is the part of the Cognito user pool API the authenticator calls.
type CognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	RespondToAuthChallenge(ctx context.Context, params *cip.RespondToAuthChallengeInput, optFns ...func(*cip.Options)) (*cip.RespondToAuthChallengeOutput, error)
	SignUp(ctx context.Context, params *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, params *cip.ConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error)
}

// CognitoClient logs users in over SRP and manages signup against a user pool.
type CognitoClient struct {
	api          CognitoAPI
	userPoolID   string
	clientID     string
	clientSecret string
	now          func() time.Time
}

const idTokenExtra = "id_token"

// NewCognitoClient builds the SDK client from explicit settings. Static credentials
// are used when an access key is configured, the default chain otherwise.
func NewCognitoClient(ctx context.Context, auth cfg.AuthProperties) (*CognitoClient, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(auth.Region)}
	if auth.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			auth.AccessKeyID,
			auth.AccessSecretKey,
			"",
		)))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("can not load aws config: %w", err)
	}

	api := cip.NewFromConfig(awsConfig, func(o *cip.Options) {
		if auth.Endpoint != "" {
			o.BaseEndpoint = aws.String(auth.Endpoint)
		}
	})
	return NewCognitoClientWithAPI(api, auth), nil
}

func NewCognitoClientWithAPI(api CognitoAPI, auth cfg.AuthProperties) *CognitoClient {
	return &CognitoClient{
		api:          api,
		userPoolID:   auth.UserPoolID,
		clientID:     auth.AppClientID,
		clientSecret: auth.AppClientSecret,
		now:          time.Now,
	}
}

// Login runs the USER_SRP_AUTH flow and returns the issued tokens. The identity
// token travels as the "id_token" extra, see IDToken.
func (c *CognitoClient) Login(ctx context.Context, username, password string) (*oauth2.Token, error) {
	var secret *string
	if c.clientSecret != "" {
		secret = aws.String(c.clientSecret)
	}
	srp, err := cognitosrp.NewCognitoSRP(username, password, c.userPoolID, c.clientID, secret)
	if err != nil {
		return nil, serviceErr("can not prepare srp", err)
	}

	initiated, err := c.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeUserSrpAuth,
		ClientId:       aws.String(c.clientID),
		AuthParameters: srp.GetAuthParams(),
	})
	if err != nil {
		return nil, loginErr("initiate auth", err)
	}
	if initiated.ChallengeName != types.ChallengeNameTypePasswordVerifier {
		return nil, newErr(AuthenticationFailed,
			fmt.Sprintf("unexpected challenge %q", initiated.ChallengeName), nil)
	}

	responses, err := srp.PasswordVerifierChallenge(initiated.ChallengeParameters, c.now())
	if err != nil {
		return nil, serviceErr("can not answer password verifier", err)
	}

	answered, err := c.api.RespondToAuthChallenge(ctx, &cip.RespondToAuthChallengeInput{
		ChallengeName:      types.ChallengeNameTypePasswordVerifier,
		ClientId:           aws.String(c.clientID),
		ChallengeResponses: responses,
		Session:            initiated.Session,
	})
	if err != nil {
		return nil, loginErr("respond to auth challenge", err)
	}

	result := answered.AuthenticationResult
	if result == nil || aws.ToString(result.IdToken) == "" {
		return nil, newErr(AuthenticationFailed,
			fmt.Sprintf("challenge required: %s", answered.ChallengeName), nil)
	}
	return toOAuth2Token(result, c.now()), nil
}

// Signup creates a pending account and describes where the confirmation code went.
func (c *CognitoClient) Signup(ctx context.Context, request SignupRequest) (string, error) {
	out, err := c.api.SignUp(ctx, &cip.SignUpInput{
		ClientId:   aws.String(c.clientID),
		Username:   aws.String(request.Username),
		Password:   aws.String(request.Password),
		SecretHash: c.secretHash(request.Username),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(request.Email)},
			{Name: aws.String("given_name"), Value: aws.String(request.Name)},
		},
	})
	if err != nil {
		var invalidPassword *types.InvalidPasswordException
		if errors.As(err, &invalidPassword) {
			return "", newErr(InvalidPassword, invalidPassword.ErrorMessage(), err)
		}
		return "", serviceErr("sign up", err)
	}

	details := out.CodeDeliveryDetails
	if details == nil {
		return "User created, no confirmation code was sent", nil
	}
	return fmt.Sprintf("Confirmation Code sent to %s via %s",
		aws.ToString(details.Destination), details.DeliveryMedium), nil
}

// Confirm activates a pending account with its one-time code.
func (c *CognitoClient) Confirm(ctx context.Context, request ConfirmRequest) error {
	_, err := c.api.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         aws.String(c.clientID),
		Username:         aws.String(request.Username),
		ConfirmationCode: aws.String(request.ConfirmationCode),
		SecretHash:       c.secretHash(request.Username),
	})
	if err != nil {
		return serviceErr("confirm sign up", err)
	}
	return nil
}

// IDToken returns the identity token carried by a login result.
func IDToken(token *oauth2.Token) string {
	if token == nil {
		return ""
	}
	idToken, _ := token.Extra(idTokenExtra).(string)
	return idToken
}

func (c *CognitoClient) secretHash(username string) *string {
	if c.clientSecret == "" {
		return nil
	}
	mac := hmac.New(sha256.New, []byte(c.clientSecret))
	mac.Write([]byte(username + c.clientID))
	return aws.String(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

func toOAuth2Token(result *types.AuthenticationResultType, now time.Time) *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  aws.ToString(result.AccessToken),
		RefreshToken: aws.ToString(result.RefreshToken),
		TokenType:    aws.ToString(result.TokenType),
	}
	if result.ExpiresIn > 0 {
		token.Expiry = now.Add(time.Duration(result.ExpiresIn) * time.Second)
	}
	return token.WithExtra(map[string]interface{}{
		idTokenExtra: aws.ToString(result.IdToken),
	})
}

func loginErr(stage string, err error) error {
	var notAuthorized *types.NotAuthorizedException
	if errors.As(err, &notAuthorized) {
		return newErr(AuthenticationFailed, notAuthorized.ErrorMessage(), err)
	}
	var userNotFound *types.UserNotFoundException
	if errors.As(err, &userNotFound) {
		return newErr(AuthenticationFailed, userNotFound.ErrorMessage(), err)
	}
	return serviceErr(stage, err)
}
