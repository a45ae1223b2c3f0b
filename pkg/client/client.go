// Package client provides a default implementation of the request.Sender interface.
//
// Client is based on the standard net/http package and contains retry and tracing/telemetry support.
// Requests are defined by the immutable request.HTTPRequest, see the request package.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	otelMetric "go.opentelemetry.io/otel/metric"
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/forgerock/iga-go-client/pkg/client/counter"
	"github.com/forgerock/iga-go-client/pkg/client/decode"
	"github.com/forgerock/iga-go-client/pkg/client/trace"
	"github.com/forgerock/iga-go-client/pkg/client/trace/otel"
	"github.com/forgerock/iga-go-client/pkg/request"
)

const (
	UserAgent             = "iga-go-client"
	retryAttemptContextKey = ctxKey("retryAttempt")
)

type ctxKey string

// Client is a default and configurable implementation of the request.Sender interface by Go native http.Client.
// It supports retry and tracing/telemetry.
type Client struct {
	transport      http.RoundTripper
	baseURL        *url.URL
	header         http.Header
	retry          RetryConfig
	tracer         otelTrace.Tracer
	traceFactories []trace.Factory
}

// ContextRetryAttempt returns the retry attempt of the HTTP request, the first attempt is 0.
// The value is available in the context of the *http.Request passed to the transport.
func ContextRetryAttempt(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(retryAttemptContextKey).(int)
	return v, ok
}

// New creates new HTTP Client.
func New() Client {
	c := Client{transport: DefaultTransport(), header: make(http.Header), retry: DefaultRetry()}
	c.header.Set("User-Agent", UserAgent)
	c.header.Set("Accept-Encoding", "gzip, br")
	return c
}

// WithBaseURL returns a clone of the Client with base url set.
func (c Client) WithBaseURL(baseURLStr string) Client {
	baseURL, err := url.Parse(baseURLStr)
	if err != nil {
		panic(fmt.Errorf(`base url "%s" is not valid: %w`, baseURLStr, err))
	}
	c.baseURL = baseURL
	return c
}

// WithUserAgent returns a clone of the Client with user agent set.
func (c Client) WithUserAgent(v string) Client {
	return c.WithHeader("User-Agent", v)
}

// WithHeader returns a clone of the Client with common header set.
func (c Client) WithHeader(key, value string) Client {
	c.header = c.header.Clone()
	c.header.Set(key, value)
	return c
}

// WithHeaders returns a clone of the Client with common headers set.
func (c Client) WithHeaders(headers map[string]string) Client {
	c.header = c.header.Clone()
	for k, v := range headers {
		c.header.Set(k, v)
	}
	return c
}

// WithTransport returns a clone of the Client with a HTTP transport set.
func (c Client) WithTransport(transport http.RoundTripper) Client {
	if transport == nil {
		panic(fmt.Errorf("transport cannot be nil"))
	}
	c.transport = transport
	return c
}

// WithRetry returns a clone of the Client with retry config set.
func (c Client) WithRetry(retry RetryConfig) Client {
	c.retry = retry
	return c
}

// AndTrace returns a clone of the Client with Trace hooks added.
// The last registered hooks are called first.
func (c Client) AndTrace(fn trace.Factory) Client {
	c.traceFactories = append(c.traceFactories[:len(c.traceFactories):len(c.traceFactories)], fn)
	return c
}

// WithTelemetry returns a clone of the Client with OpenTelemetry tracing and metrics.
// Spans of APIRequests use the same tracer as the HTTP requests.
func (c Client) WithTelemetry(tracerProvider otelTrace.TracerProvider, meterProvider otelMetric.MeterProvider, opts ...otel.Option) Client {
	if tracerProvider != nil {
		c.tracer = tracerProvider.Tracer(otel.TraceAppName)
	}
	return c.AndTrace(otel.NewTrace(tracerProvider, meterProvider, opts...))
}

// Tracer returns the OpenTelemetry tracer, if the telemetry is enabled, otherwise nil.
func (c Client) Tracer() otelTrace.Tracer {
	return c.tracer
}

// Send method sends HTTP request and returns HTTP response, it implements the request.Sender interface.
func (c Client) Send(ctx context.Context, reqDef request.HTTPRequest) (res *http.Response, result any, err error) {
	// Method cannot be called on an empty value
	if c.transport == nil {
		panic(fmt.Errorf("client value is not initialized"))
	}

	// If method or url is not set, panic occurs. So we get these values first.
	method := reqDef.Method()
	reqURL := reqDef.URL()

	// Init trace
	var clientTrace *trace.ClientTrace
	for i := len(c.traceFactories) - 1; i >= 0; i-- {
		var t *trace.ClientTrace
		ctx, t = c.traceFactories[i](ctx, reqDef)
		if t != nil {
			t.Compose(clientTrace)
			clientTrace = t
		}
	}
	if clientTrace != nil {
		ctx = httptrace.WithClientTrace(ctx, &clientTrace.ClientTrace)
	}

	// Trace request processed
	if clientTrace != nil && clientTrace.RequestProcessed != nil {
		defer func() {
			clientTrace.RequestProcessed(result, err)
		}()
	}

	// Convert to absolute url
	if c.baseURL != nil && !reqURL.IsAbs() {
		reqURL, err = c.baseURL.Parse(reqURL.String())
		if err != nil {
			return nil, nil, err
		}
	}

	// Replace path parameters
	reqURLStr := reqURL.String()
	for k, v := range reqDef.PathParams() {
		reqURLStr = strings.ReplaceAll(reqURLStr, url.PathEscape("{"+k+"}"), url.PathEscape(v))
	}
	reqURL, err = url.Parse(reqURLStr)
	if err != nil {
		return nil, nil, err
	}

	// Set query parameters
	if params := reqDef.QueryParams(); len(params) > 0 {
		query := reqURL.Query()
		for k, values := range params {
			query[k] = values
		}
		reqURL.RawQuery = query.Encode()
	}

	// Create request
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return nil, nil, err
	}

	// Global headers
	for k, values := range c.header {
		for _, v := range values {
			req.Header.Set(k, v)
		}
	}

	// Request headers
	for k, values := range reqDef.RequestHeader() {
		req.Header.Del(k) // clear global values
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	// Body
	if reqDef.RequestBody() != nil {
		// GetBody factory is used for requests when a redirect/retry requires reading the body more than once.
		req.GetBody = func() (io.ReadCloser, error) {
			body, err := requestBody(reqDef)
			if err != nil {
				return nil, fmt.Errorf(`request %s "%s": cannot prepare request body: %w`, req.Method, req.URL.String(), err)
			}
			return body, nil
		}
		req.Body, err = req.GetBody()
		if err != nil {
			return nil, nil, err
		}
	}

	// Setup native client
	nativeClient := http.Client{
		Timeout:   c.retry.TotalRequestTimeout,
		Transport: roundTripper{retry: c.retry, trace: clientTrace, wrapped: c.transport}, // wrapped transport for trace/retry
	}

	// Send request
	startedAt := time.Now()
	res, err = nativeClient.Do(req)

	// Handle send error
	if err != nil {
		return nil, nil, handleSendError(startedAt, c.retry.TotalRequestTimeout, req, err)
	}

	// Process body
	if clientTrace != nil && clientTrace.BodyParseStart != nil {
		clientTrace.BodyParseStart(res)
	}
	r, e, unexpectedErr := handleResponseBody(res, reqDef.ResultDef(), reqDef.ErrorDef())
	if clientTrace != nil && clientTrace.BodyParseDone != nil {
		clientTrace.BodyParseDone(res, r, e, unexpectedErr)
	}
	if unexpectedErr == nil {
		// No unexpected error, set result/error result
		result, err = r, e
	} else {
		// Unexpected error
		err = fmt.Errorf(`cannot process request %s "%s": %w`, req.Method, req.URL.String(), unexpectedErr)
	}

	// Generic HTTP error
	if err == nil && res.StatusCode > 399 {
		return res, nil, fmt.Errorf(`request %s "%s" failed: %d %s`, req.Method, req.URL.String(), res.StatusCode, http.StatusText(res.StatusCode))
	}

	return res, result, err
}

func handleResponseBody(r *http.Response, resultDef any, errDef error) (result any, err error, unexpectedErr error) {
	defer r.Body.Close()

	if r.StatusCode == http.StatusNoContent {
		return nil, nil, nil
	}

	// Process content encoding
	body, decodeErr := decode.Decode(r.Body, r.Header.Get("Content-Encoding"))
	if decodeErr != nil {
		return nil, nil, fmt.Errorf("cannot decode response: %w", decodeErr)
	}

	// Map error
	if r.StatusCode > 399 {
		if errDef != nil && isJSONContentType(r.Header.Get("Content-Type")) {
			// Map JSON response to defined error
			if err := json.NewDecoder(body).Decode(errDef); err != nil && !errors.Is(err, io.EOF) {
				return nil, nil, fmt.Errorf(`cannot decode JSON error: %w`, err)
			}
			// Set HTTP request
			if v, ok := errDef.(errorWithRequest); ok {
				v.SetRequest(r.Request)
			}
			// Set HTTP response
			if v, ok := errDef.(errorWithResponse); ok {
				v.SetResponse(r)
			}
			return nil, errDef, nil
		}
		return nil, nil, nil
	}

	// Map result
	switch v := resultDef.(type) {
	case nil:
		return nil, nil, nil
	case *[]byte:
		// Load response body as []byte
		bodyBytes, err := io.ReadAll(body)
		if err != nil {
			return nil, nil, fmt.Errorf(`cannot read response body: %w`, err)
		}
		*v = bodyBytes
		return v, nil, nil
	case *string:
		// Load response body as string
		bodyBytes, err := io.ReadAll(body)
		if err != nil {
			return nil, nil, fmt.Errorf(`cannot read response body: %w`, err)
		}
		*v = string(bodyBytes)
		return v, nil, nil
	case io.WriteCloser:
		// Stream response to io.WriteCloser
		if _, err := io.Copy(v, body); err != nil {
			return nil, nil, fmt.Errorf(`cannot read response body: %w`, err)
		}
		if err := v.Close(); err != nil {
			return nil, nil, fmt.Errorf(`cannot read response body: %w`, err)
		}
		return v, nil, nil
	case io.Writer:
		// Stream response to io.Writer
		if _, err := io.Copy(v, body); err != nil {
			return nil, nil, fmt.Errorf(`cannot read response body: %w`, err)
		}
		return v, nil, nil
	}

	if isJSONContentType(r.Header.Get("Content-Type")) {
		// Map JSON response to defined result, empty body is not an error
		if err := json.NewDecoder(body).Decode(resultDef); err != nil && !errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf(`cannot decode JSON result: %w`, err)
		}
		return resultDef, nil, nil
	}

	return nil, nil, nil
}

func handleSendError(startedAt time.Time, clientTimeout time.Duration, req *http.Request, err error) error {
	// Timeout
	var netErr net.Error
	if deadline, ok := req.Context().Deadline(); ok && errors.Is(err, context.DeadlineExceeded) {
		err = urlError(req, fmt.Errorf("timeout after %s: %w", deadline.Sub(startedAt), context.DeadlineExceeded))
	} else if errors.Is(err, context.Canceled) {
		err = urlError(req, fmt.Errorf("canceled after %s: %w", time.Since(startedAt), context.Canceled))
	} else if errors.As(err, &netErr) && netErr.Timeout() {
		if strings.Contains(err.Error(), "Client.Timeout exceeded") {
			err = urlError(req, fmt.Errorf("timeout after %s", clientTimeout))
		} else {
			err = urlError(req, fmt.Errorf("timeout after %s", time.Since(startedAt)))
		}
	}

	// Url error
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = fmt.Errorf(`request %s "%s" failed: %w`, strings.ToUpper(urlErr.Op), urlErr.URL, urlErr.Err)
	}

	return err
}

// roundTripper wraps a http.RoundTripper and adds trace and retry functionality.
type roundTripper struct {
	trace   *trace.ClientTrace
	retry   RetryConfig
	wrapped http.RoundTripper
}

func (rt roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	state := rt.retry.NewBackoff()
	attempt := 0
	for {
		attemptReq := req.WithContext(context.WithValue(req.Context(), retryAttemptContextKey, attempt))

		// Trace request start
		if rt.trace != nil && rt.trace.HTTPRequestStart != nil {
			rt.trace.HTTPRequestStart(attemptReq)
		}

		// Count sent bytes
		var reqBody *counter.ReadCloser
		if attemptReq.Body != nil && attemptReq.Body != http.NoBody {
			reqBody = counter.NewReadCloser(attemptReq.Body, nil)
			attemptReq.Body = reqBody
		}

		// Send
		res, err := rt.wrapped.RoundTrip(attemptReq)

		// Trace response headers
		if rt.trace != nil && rt.trace.HTTPResponse != nil {
			rt.trace.HTTPResponse(res, err)
		}

		// Trace request done, when the response body is closed
		var sent int64
		if reqBody != nil {
			sent = reqBody.Bytes()
		}
		if res == nil {
			if rt.trace != nil && rt.trace.HTTPRequestDone != nil {
				rt.trace.HTTPRequestDone(nil, sent, 0, err)
			}
		} else {
			body := res.Body
			if body == nil {
				body = http.NoBody
			}
			res.Body = counter.NewReadCloser(body, func(received int64, err error) {
				if rt.trace != nil && rt.trace.HTTPRequestDone != nil {
					rt.trace.HTTPRequestDone(res, sent, received, err)
				}
			})
		}

		// Check if we should retry
		if rt.retry.Condition == nil || !rt.retry.Condition(res, err) || !retryAllowed(attemptReq, err) || attempt >= rt.retry.Count {
			// No retry
			return res, err
		}

		// Get next delay
		delay := state.NextBackOff()
		if delay == backoff.Stop {
			// Stop
			return res, err
		}

		// Discard the response
		if res != nil {
			_, _ = io.Copy(io.Discard, res.Body)
			_ = res.Body.Close()
		}

		// Trace retry
		attempt++
		if rt.trace != nil && rt.trace.RetryDelay != nil {
			rt.trace.RetryDelay(attempt, delay)
		}

		// Rewind body before retry
		if req.GetBody != nil {
			req.Body, err = req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("cannot rewind body: %w", err)
			}
		}

		// Wait
		timer := time.NewTimer(delay)
		select {
		case <-req.Context().Done():
			// context is canceled
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
			// time elapsed, retry
		}
	}
}

type errorWithRequest interface {
	error
	SetRequest(request *http.Request)
}

type errorWithResponse interface {
	error
	SetResponse(response *http.Response)
}

func urlError(req *http.Request, err error) *url.Error {
	return &url.Error{Op: req.Method, URL: req.URL.String(), Err: err}
}
