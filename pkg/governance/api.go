// Package governance contains request definitions for the identity governance
// request form assignments and for the IDM UI locale overrides.
//
// Requests can be sent by any HTTP client that implements the request.Sender interface,
// the client.Client is used by default, see the NewAPI function.
// Each request carries a bearer token resolved from the configured oauth2.TokenSource
// at the time the request is sent.
package governance

import (
	"strings"

	"golang.org/x/oauth2"

	"github.com/forgerock/iga-go-client/pkg/client"
	"github.com/forgerock/iga-go-client/pkg/client/trace"
	"github.com/forgerock/iga-go-client/pkg/request"
)

type ServiceType string

const (
	IGAAPI = ServiceType("iga")
	IDMAPI = ServiceType("idm")
)

const (
	igaBasePath = "/iga"
	idmBasePath = "/openidm"
)

// API contains request definitions for the IGA and IDM APIs of one tenant.
// The value is immutable and safe for concurrent use.
type API struct {
	sender     request.Sender
	igaBaseURL string
	idmBaseURL string
}

// NewAPI creates API for the tenant host, the "https://" prefix is added if it is missing.
func NewAPI(host string, opts ...APIOption) *API {
	cfg := newAPIConfig(opts)

	host = strings.TrimRight(host, "/")
	if !strings.HasPrefix(host, "https://") && !strings.HasPrefix(host, "http://") {
		host = "https://" + host
	}

	var c client.Client
	if cfg.client != nil {
		c = *cfg.client
	} else {
		c = client.New()
	}
	if cfg.logger != nil {
		c = c.AndTrace(trace.ZapTracer(cfg.logger))
	}
	if cfg.tracerProvider != nil || cfg.meterProvider != nil {
		c = c.WithTelemetry(cfg.tracerProvider, cfg.meterProvider)
	}

	tokens := cfg.tokenSource
	if cfg.token != "" {
		tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.token})
	}

	api := &API{
		sender:     newSender(c, tokens),
		igaBaseURL: host + igaBasePath,
		idmBaseURL: host + idmBasePath,
	}
	if cfg.igaBaseURL != "" {
		api.igaBaseURL = cfg.igaBaseURL
	}
	if cfg.idmBaseURL != "" {
		api.idmBaseURL = cfg.idmBaseURL
	}
	return api
}

func (a *API) Client() request.Sender {
	return a.sender
}

// IGABaseURL returns base URL of the governance API, for example "https://tenant.example.com/iga".
func (a *API) IGABaseURL() string {
	return a.igaBaseURL
}

// IDMBaseURL returns base URL of the IDM API, for example "https://tenant.example.com/openidm".
func (a *API) IDMBaseURL() string {
	return a.idmBaseURL
}
