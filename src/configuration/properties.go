package configuration

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type (
	Properties struct {
		LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

		Auth    AuthProperties       `envPrefix:"AUTH_"`
		Session SessionProperties    `envPrefix:"SESSION_"`
		Gateway GatewayProperties    `envPrefix:"GATEWAY_"`
		S3      S3Properties         `envPrefix:"S3_"`
		Server  HttpServerProperties `envPrefix:"HTTP_"`
	}

	// AuthProperties configures the Cognito user pool client.
	AuthProperties struct {
		Region          string `env:"REGION" envDefault:"us-east-1"`
		UserPoolID      string `env:"USER_POOL_ID"`
		AppClientID     string `env:"APP_CLIENT_ID"`
		AppClientSecret string `env:"APP_CLIENT_SECRET"`
		AccessKeyID     string `env:"ACCESS_KEY_ID"`
		AccessSecretKey string `env:"ACCESS_SECRET_KEY"`
		// Endpoint and IssuerURL override the Cognito endpoints, e.g. for a local emulator.
		Endpoint  string `env:"ENDPOINT"`
		IssuerURL string `env:"ISSUER_URL"`
	}

	SessionProperties struct {
		CookieName string        `env:"COOKIE_NAME" envDefault:"csvgate_session"`
		Secret     string        `env:"SECRET"`
		TTL        time.Duration `env:"TTL" envDefault:"1h"`
		Secure     bool          `env:"SECURE" envDefault:"false"`
		Domain     string        `env:"DOMAIN"`
	}

	GatewayProperties struct {
		URL            string        `env:"URL" envDefault:"https://pcmxlikega.execute-api.us-east-1.amazonaws.com/release/files"`
		Timeout        time.Duration `env:"TIMEOUT" envDefault:"0s"`
		UploadEncoding string        `env:"UPLOAD_ENCODING" envDefault:"multipart"`
	}

	HttpServerProperties struct {
		Name           string        `env:"NAME" envDefault:"csvgate"`
		Port           string        `env:"PORT" envDefault:"8088"`
		ReadTimeout    time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
		AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
		Pprof          bool          `env:"PPROF" envDefault:"false"`
	}

	// S3Properties is only read by the reference gateway.
	S3Properties struct {
		Host      string `env:"HOST" envDefault:"localhost:9000"`
		AccessKey string `env:"ACCESS_KEY"`
		SecretKey string `env:"SECRET_KEY"`
		Bucket    string `env:"BUCKET" envDefault:"files"`
		UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
	}
)

const (
	UploadMultipart = "multipart"
	UploadJSON      = "json"
)

// ReadProperties parses the environment into a Properties tree.
func ReadProperties() (*Properties, error) {
	config := &Properties{}

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("read config error: %w", err)
	}
	return config, nil
}

// Validate checks the settings the BFF cannot start without.
func (p *Properties) Validate() error {
	if p.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if p.Auth.UserPoolID == "" || p.Auth.AppClientID == "" {
		return fmt.Errorf("AUTH_USER_POOL_ID and AUTH_APP_CLIENT_ID are required")
	}
	switch p.Gateway.UploadEncoding {
	case UploadMultipart, UploadJSON:
	default:
		return fmt.Errorf("unknown GATEWAY_UPLOAD_ENCODING %q", p.Gateway.UploadEncoding)
	}
	return nil
}

// Issuer is the OIDC issuer of the configured user pool.
func (a AuthProperties) Issuer() string {
	if a.IssuerURL != "" {
		return a.IssuerURL
	}
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", a.Region, a.UserPoolID)
}

// ValidateGateway checks the settings the reference gateway cannot start without.
func (p *Properties) ValidateGateway() error {
	if p.Auth.AppClientID == "" {
		return fmt.Errorf("AUTH_APP_CLIENT_ID is required")
	}
	if p.Auth.UserPoolID == "" && p.Auth.IssuerURL == "" {
		return fmt.Errorf("AUTH_USER_POOL_ID or AUTH_ISSUER_URL is required")
	}
	if p.S3.Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required")
	}
	return nil
}
