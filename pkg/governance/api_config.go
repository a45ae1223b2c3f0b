package governance

import (
	otelMetric "go.opentelemetry.io/otel/metric"
	otelTrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/forgerock/iga-go-client/pkg/client"
)

type apiConfig struct {
	client         *client.Client
	token          string
	tokenSource    oauth2.TokenSource
	igaBaseURL     string
	idmBaseURL     string
	logger         *zap.Logger
	tracerProvider otelTrace.TracerProvider
	meterProvider  otelMetric.MeterProvider
}

type APIOption func(c *apiConfig)

func newAPIConfig(opts []APIOption) apiConfig {
	cfg := apiConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func WithClient(cl *client.Client) APIOption {
	return func(c *apiConfig) {
		c.client = cl
	}
}

// WithToken sets a static access token, it takes precedence over WithTokenSource.
func WithToken(token string) APIOption {
	return func(c *apiConfig) {
		c.token = token
	}
}

// WithTokenSource sets the source of access tokens.
// The source is called each time a request without the "Authorization" header is sent,
// wrap it by oauth2.ReuseTokenSource to cache tokens until they expire.
func WithTokenSource(v oauth2.TokenSource) APIOption {
	return func(c *apiConfig) {
		c.tokenSource = v
	}
}

// WithIGABaseURL overrides the default "https://{host}/iga" base URL.
func WithIGABaseURL(v string) APIOption {
	return func(c *apiConfig) {
		c.igaBaseURL = v
	}
}

// WithIDMBaseURL overrides the default "https://{host}/openidm" base URL.
func WithIDMBaseURL(v string) APIOption {
	return func(c *apiConfig) {
		c.idmBaseURL = v
	}
}

// WithLogger enables structured logging of HTTP requests.
func WithLogger(v *zap.Logger) APIOption {
	return func(c *apiConfig) {
		c.logger = v
	}
}

func WithTracerProvider(v otelTrace.TracerProvider) APIOption {
	return func(c *apiConfig) {
		c.tracerProvider = v
	}
}

func WithMeterProvider(v otelMetric.MeterProvider) APIOption {
	return func(c *apiConfig) {
		c.meterProvider = v
	}
}
