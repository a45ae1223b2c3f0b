package governance

import (
	"fmt"

	"github.com/forgerock/iga-go-client/pkg/request"
)

// RequestOption modifies a single request definition.
type RequestOption func(c *requestConfig)

type requestConfig struct {
	accessToken string
}

// WithAccessToken overrides the access token for one request.
func WithAccessToken(token string) RequestOption {
	return func(c *requestConfig) {
		c.accessToken = token
	}
}

// newRequest creates request, sets base URL, common headers and default error type.
func (a *API) newRequest(s ServiceType, opts []RequestOption) request.HTTPRequest {
	cfg := requestConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := request.
		NewHTTPRequest(a.sender).
		WithBaseURL(a.baseURLForService(s)).
		WithError(&Error{}).
		AndHeader(HeaderAcceptAPIVersion, AcceptAPIVersion)

	// The sender resolves the token only if the header is not set
	if cfg.accessToken != "" {
		r = r.AndHeader("Authorization", "Bearer "+cfg.accessToken)
	}
	return r
}

func (a *API) baseURLForService(s ServiceType) string {
	switch s {
	case IGAAPI:
		return a.igaBaseURL
	case IDMAPI:
		return a.idmBaseURL
	default:
		panic(fmt.Errorf(`unexpected service "%s"`, s))
	}
}
