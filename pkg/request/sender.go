package request

import (
	"context"
	"net/http"
)

// Sender represents an HTTP client, the client.Client is a default implementation using the standard net/http package.
type Sender interface {
	// Send method sends defined request and returns response.
	// Type of the return value "result" must be the same as type of the HTTPRequest.ResultDef(), otherwise panic will occur.
	Send(ctx context.Context, request HTTPRequest) (rawResponse *http.Response, result any, err error)
}

// Sendable is HTTPRequest or APIRequest.
type Sendable interface {
	SendOrErr(ctx context.Context) error
}

// ReqDefinitionError can be used as the Sendable interface.
// The error is returned when the request is sent,
// so the caller checks it in one place.
type ReqDefinitionError struct {
	error
}

func NewReqDefinitionError(err error) Sendable {
	return ReqDefinitionError{error: err}
}

func (v ReqDefinitionError) SendOrErr(_ context.Context) error {
	return v
}

func (v ReqDefinitionError) Unwrap() error {
	return v.error
}
