package governance

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	otelTrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"

	"github.com/forgerock/iga-go-client/pkg/client"
	"github.com/forgerock/iga-go-client/pkg/request"
)

// sender wraps the client.Client, it sets the transaction ID and the bearer token to each request.
type sender struct {
	client client.Client
	tokens oauth2.TokenSource
}

func newSender(c client.Client, tokens oauth2.TokenSource) sender {
	return sender{client: c, tokens: tokens}
}

func (s sender) Send(ctx context.Context, reqDef request.HTTPRequest) (*http.Response, any, error) {
	if reqDef.RequestHeader().Get(HeaderTransactionID) == "" {
		reqDef = reqDef.AndHeader(HeaderTransactionID, uuid.NewString())
	}

	if s.tokens != nil && reqDef.RequestHeader().Get("Authorization") == "" {
		token, err := s.token()
		if err != nil {
			return nil, nil, fmt.Errorf("cannot resolve access token: %w", err)
		}
		reqDef = reqDef.AndHeader("Authorization", token.Type()+" "+token.AccessToken)
	}

	return s.client.Send(ctx, reqDef)
}

// Tracer is used by the request.APIRequest to create the parent span.
func (s sender) Tracer() otelTrace.Tracer {
	return s.client.Tracer()
}

func (s sender) token() (*oauth2.Token, error) {
	token, err := s.tokens.Token()
	if err != nil {
		return nil, err
	}
	if token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("token is empty")
	}
	return token, nil
}
