package governance

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

const (
	EnvFQDN        = "FQDN"
	EnvAccessToken = "ACCESS_TOKEN"
	EnvIGABaseURL  = "IGA_BASE_URL"
	EnvIDMBaseURL  = "IDM_BASE_URL"
)

// EnvTokenSource reads the access token from the environment variable on each Token call.
// The value is either the raw token or a JSON object with the "access_token" field.
func EnvTokenSource(name string) oauth2.TokenSource {
	return envTokenSource{name: name}
}

type envTokenSource struct {
	name string
}

func (s envTokenSource) Token() (*oauth2.Token, error) {
	value := os.Getenv(s.name) //nolint:forbidigo
	if strings.TrimSpace(value) == "" {
		return nil, fmt.Errorf(`environment variable "%s" is not set`, s.name)
	}
	token, err := ParseToken(value)
	if err != nil {
		return nil, fmt.Errorf(`environment variable "%s" %w`, s.name, err)
	}
	return token, nil
}

// ParseToken parses the raw access token or a JSON object with the "access_token" field.
func ParseToken(value string) (*oauth2.Token, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("is empty")
	}

	if !strings.HasPrefix(value, "{") {
		return &oauth2.Token{AccessToken: value}, nil
	}

	if !gjson.Valid(value) {
		return nil, errors.New("contains invalid JSON")
	}
	token := &oauth2.Token{
		AccessToken: gjson.Get(value, "access_token").String(),
		TokenType:   gjson.Get(value, "token_type").String(),
	}
	if token.AccessToken == "" {
		return nil, errors.New(`does not contain "access_token" field`)
	}
	return token, nil
}

// NewAPIFromEnv creates API configured by the FQDN, IGA_BASE_URL and IDM_BASE_URL environment variables.
// The access token is read from the ACCESS_TOKEN variable each time a request is sent.
// Additional options take precedence.
func NewAPIFromEnv(opts ...APIOption) (*API, error) {
	host := os.Getenv(EnvFQDN) //nolint:forbidigo
	if host == "" {
		return nil, fmt.Errorf(`environment variable "%s" is not set`, EnvFQDN)
	}

	var envOpts []APIOption
	envOpts = append(envOpts, WithTokenSource(EnvTokenSource(EnvAccessToken)))
	if v := os.Getenv(EnvIGABaseURL); v != "" { //nolint:forbidigo
		envOpts = append(envOpts, WithIGABaseURL(v))
	}
	if v := os.Getenv(EnvIDMBaseURL); v != "" { //nolint:forbidigo
		envOpts = append(envOpts, WithIDMBaseURL(v))
	}

	return NewAPI(host, append(envOpts, opts...)...), nil
}

// LoadEnvFiles loads variables from the .env files, missing files are ignored.
// Variables already present in the environment are not overwritten.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf(`cannot load env file "%s": %w`, file, err)
		}
	}
	return nil
}
