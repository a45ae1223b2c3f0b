package client_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/forgerock/iga-go-client/pkg/client"
	. "github.com/forgerock/iga-go-client/pkg/request"
)

type testStruct struct {
	Foo string `json:"foo"`
}

type testError struct {
	ErrorMsg string `json:"error"`
	request  *http.Request
	response *http.Response
}

func (e *testError) Error() string {
	return e.ErrorMsg
}

func (e *testError) SetRequest(request *http.Request) {
	e.request = request
}

func (e *testError) SetResponse(response *http.Response) {
	e.response = response
}

type testWriteCloser struct {
	io.Writer
}

func (v testWriteCloser) Close() error {
	_, err := v.Write([]byte("<CLOSE>"))
	return err
}

func TestNew(t *testing.T) {
	t.Parallel()
	c := New()
	assert.NotNil(t, c)
	assert.Nil(t, c.Tracer())
}

func TestRequest(t *testing.T) {
	t.Parallel()

	// Mocked response
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", `https://example.com`, httpmock.NewStringResponder(200, "test"))

	ctx := context.Background()
	c := New().WithTransport(transport).WithRetry(TestingRetry())
	_, _, err := NewHTTPRequest(c).WithGet("https://example.com").Send(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, transport.GetCallCountInfo()["GET https://example.com"])
}

func TestBytesResult(t *testing.T) {
	t.Parallel()

	// Mocked response
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://example.com", httpmock.NewJsonResponderOrPanic(200, map[string]any{"foo": "bar"}))

	ctx := context.Background()
	c := New().WithTransport(transport).WithRetry(TestingRetry())
	var resultDef []byte
	_, result, err := NewHTTPRequest(c).WithGet("https://example.com").WithResult(&resultDef).Send(ctx)
	assert.NoError(t, err)
	assert.Same(t, &resultDef, result)
	assert.Equal(t, []byte(`{"foo":"bar"}`), resultDef)
}

func TestWriterResult(t *testing.T) {
	t.Parallel()

	// Mocked response
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://example.com", httpmock.NewJsonResponderOrPanic(200, map[string]any{"foo": "bar"}))

	ctx := context.Background()
	c := New().WithTransport(transport).WithRetry(TestingRetry())
	var out strings.Builder
	_, _, err := NewHTTPRequest(c).WithGet("https://example.com").WithResult(io.Writer(&out)).Send(ctx)
	assert.NoError(t, err)
	assert.Equal(t, `{"foo":"bar"}`, out.String())
}

func TestWriteCloserResult(t *testing.T) {
	t.Parallel()

	// Mocked response
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://example.com", httpmock.NewJsonResponderOrPanic(200, map[string]any{"foo": "bar"}))

	ctx := context.Background()
	c := New().WithTransport(transport).WithRetry(TestingRetry())
	var out strings.Builder
	_, _, err := NewHTTPRequest(c).WithGet("https://example.com").WithResult(testWriteCloser{Writer: &out}).Send(ctx)
	assert.NoError(t, err)
	assert.Equal(t, `{"foo":"bar"}<CLOSE>`, out.String())
}

func TestJsonMapResult(t *testing.T) {
	t.Parallel()

	// Mocked response
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", `https://example.com`, httpmock.NewJsonResponderOrPanic(200, map[string]any{"foo": "bar"}))

	ctx := context.Background()
	c := New().WithTransport(transport).WithRetry(TestingRetry())
	resultDef := make(map[string]any)
	_, result, err := NewHTTPRequest(c).WithGet("https://example.com").WithResult(&resultDef).Send(ctx)
	assert.NoError(t, err)
	assert.Same(t, &resultDef, result)
	assert.Equal(t, &map[string]any{"foo": "bar"}, result)
}

func TestJsonStructResult(t *testing.T) {
	t.Parallel()

	// Mocked response, content type with a charset parameter
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", `https://example.com`, func(request *http.Request) (*http.Response, error) {
		res := httpmock.NewStringResponse(200, `{"foo":"bar"}`)
		res.Header.Set("Content-Type", "application/json;charset=utf-8")
		return res, nil
	})

	ctx := context.Background()
	c := New().WithTransport(transport).WithRetry(TestingRetry())
	resultDef := &testStruct{}
	_, result, err := NewHTTPRequest(c).WithGet("https://example.com").WithResult(resultDef).Send(ctx)
	assert.NoError(t, err)
	assert.Same(t, resultDef, result)
	assert.Equal(t, &testStruct{Foo: "bar"}, result)
}

func TestJsonEmptyBodyResult(t *testing.T) {
	t.Parallel()

	// Mocked response
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("PUT", `https://example.com`, func(request *http.Request) (*http.Response, error) {
		res := httpmock.NewStringResponse(200, "")
		res.Header.Set("Content-Type", "application/json")
		return res, nil
	})

	ctx := context.Background()
	c := New().WithTransport(transport).WithRetry(TestingRetry())
	resultDef := &testStruct{}
	_, _, err := NewHTTPRequest(c).WithPut("https://example.com").WithResult(resultDef).Send(ctx)
	assert.NoError(t, err)
	assert.Equal(t, &testStruct{}, resultDef)
}

func TestCompressedResult(t *testing.T) {
	t.Parallel()

	var gzipBody bytes.Buffer
	gzipWriter := gzip.NewWriter(&gzipBody)
	_, err := gzipWriter.Write([]byte(`{"foo":"gzip"}`))
	require.NoError(t, err)
	require.NoError(t, gzipWriter.Close())

	var brBody bytes.Buffer
	brWriter := brotli.NewWriter(&brBody)
	_, err = brWriter.Write([]byte(`{"foo":"br"}`))
	require.NoError(t, err)
	require.NoError(t, brWriter.Close())

	// Mocked response
	transport := httpmock.NewMockTransport()
	responder := func(encoding string, body []byte) httpmock.Responder {
		return func(request *http.Request) (*http.Response, error) {
			assert.Equal(t, "gzip, br", request.Header.Get("Accept-Encoding"))
			res := httpmock.NewBytesResponse(200, body)
			res.Header.Set("Content-Type", "application/json")
			res.Header.Set("Content-Encoding", encoding)
			return res, nil
		}
	}
	transport.RegisterResponder("GET", `https://example.com/gzip`, responder("gzip", gzipBody.Bytes()))
	transport.RegisterResponder("GET", `https://example.com/br`, responder("br", brBody.Bytes()))

	ctx := context.Background()
	c := New().WithTransport(transport).WithRetry(TestingRetry())

	result1 := &testStruct{}
	require.NoError(t, NewHTTPRequest(c).WithGet("https://example.com/gzip").WithResult(result1).SendOrErr(ctx))
	assert.Equal(t, "gzip", result1.Foo)

	result2 := &testStruct{}
	require.NoError(t, NewHTTPRequest(c).WithGet("https://example.com/br").WithResult(result2).SendOrErr(ctx))
	assert.Equal(t, "br", result2.Foo)
}

func TestJsonErrorResult(t *testing.T) {
	t.Parallel()

	// Mocked response
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", `https://example.com`, httpmock.NewJsonResponderOrPanic(400, map[string]any{"error": "error message"}))

	ctx := context.Background()
	c := New().WithTransport(transport).WithRetry(TestingRetry())
	errDef := &testError{}
	_, _, err := NewHTTPRequest(c).WithGet("https://example.com").WithError(errDef).Send(ctx)
	assert.Error(t, err)
	assert.Same(t, errDef, err)
	assert.Equal(t, "error message", err.Error())
	assert.Equal(t, http.StatusBadRequest, errDef.response.StatusCode)
	assert.Equal(t, 1, transport.GetCallCountInfo()["GET https://example.com"])
}

func TestNonJsonErrorResult(t *testing.T) {
	t.Parallel()

	// Mocked response
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", `https://example.com/foo`, httpmock.NewStringResponder(401, "<html>Unauthorized</html>"))

	ctx := context.Background()
	c := New().WithTransport(transport).WithRetry(TestingRetry())
	response, _, err := NewHTTPRequest(c).WithGet("https://example.com/foo").WithError(&testError{}).Send(ctx)
	assert.Error(t, err)
	assert.Equal(t, `request GET "https://example.com/foo" failed: 401 Unauthorized`, err.Error())
	assert.Equal(t, http.StatusUnauthorized, response.StatusCode())
}

func TestWithBaseUrl(t *testing.T) {
	t.Parallel()

	// Mocked response
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://example.com/baz", httpmock.NewStringResponder(200, "test"))

	ctx := context.Background()
	c := New().WithTransport(transport).WithRetry(TestingRetry()).WithBaseURL("https://example.com")
	_, _, err := NewHTTPRequest(c).WithGet("baz").Send(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, transport.GetCallCountInfo()["GET https://example.com/baz"])
}

func TestPathAndQueryParams(t *testing.T) {
	t.Parallel()

	// Mocked response
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", `https://example.com/config/uilocale/fr`, func(request *http.Request) (*http.Response, error) {
		assert.Equal(t, `formId eq "abc"`, request.URL.Query().Get("_queryFilter"))
		assert.Equal(t, "1", request.URL.Query().Get("existing"))
		return httpmock.NewStringResponse(200, "test"), nil
	})

	ctx := context.Background()
	c := New().WithTransport(transport).WithRetry(TestingRetry())
	err := NewHTTPRequest(c).
		WithBaseURL("https://example.com").
		WithGet("config/uilocale/{locale}?existing=1").
		AndPathParam("locale", "fr").
		AndQueryParam("_queryFilter", `formId eq "abc"`).
		SendOrErr(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestRequestContext(t *testing.T) {
	t.Parallel()

	type ctxKey string

	// Mocked response
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", `https://example.com`, func(request *http.Request) (*http.Response, error) {
		// Request context should be used by HTTP request
		assert.Equal(t, "testValue", request.Context().Value(ctxKey("testKey")))
		return httpmock.NewStringResponse(200, "test"), nil
	})
	ctx := context.WithValue(context.Background(), ctxKey("testKey"), "testValue")
	c := New().WithTransport(transport).WithRetry(TestingRetry())
	_, _, err := NewHTTPRequest(c).WithGet("https://example.com").Send(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, transport.GetCallCountInfo()["GET https://example.com"])
}

func TestDefaultHeaders(t *testing.T) {
	t.Parallel()

	// Mocked response
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://example.com", func(request *http.Request) (*http.Response, error) {
		assert.Equal(t, http.Header{
			"User-Agent":      []string{"iga-go-client"},
			"Accept-Encoding": []string{"gzip, br"},
		}, request.Header)
		return httpmock.NewStringResponse(200, "test"), nil
	})

	ctx := context.Background()
	c := New().WithTransport(transport).WithRetry(TestingRetry())
	_, _, err := NewHTTPRequest(c).WithGet("https://example.com").Send(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, transport.GetCallCountInfo()["GET https://example.com"])
}

func TestWithHeaders(t *testing.T) {
	t.Parallel()

	// Mocked response
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", `https://example.com`, func(request *http.Request) (*http.Response, error) {
		assert.Equal(t, http.Header{
			"User-Agent":      []string{"my-user-agent"},
			"Accept-Encoding": []string{"gzip, br"},
			"My-Header":       []string{"my-value"},
			"Other-Header":    []string{"request-value"},
		}, request.Header)
		return httpmock.NewStringResponse(200, "test"), nil
	})

	ctx := context.Background()
	base := New().WithTransport(transport).WithRetry(TestingRetry())
	c := base.
		WithUserAgent("my-user-agent").
		WithHeader("my-header", "my-value").
		WithHeaders(map[string]string{"other-header": "client-value"})
	_, _, err := NewHTTPRequest(c).WithGet("https://example.com").AndHeader("Other-Header", "request-value").Send(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, transport.GetCallCountInfo()["GET https://example.com"])

	// The original client is not modified
	transport.RegisterResponder("GET", `https://example.com/base`, func(request *http.Request) (*http.Response, error) {
		assert.Equal(t, "iga-go-client", request.Header.Get("User-Agent"))
		assert.Empty(t, request.Header.Get("My-Header"))
		return httpmock.NewStringResponse(200, "test"), nil
	})
	assert.NoError(t, NewHTTPRequest(base).WithGet("https://example.com/base").SendOrErr(ctx))
}

func TestJSONBody(t *testing.T) {
	t.Parallel()

	// Mocked response
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("POST", `https://example.com`, func(request *http.Request) (*http.Response, error) {
		body, err := io.ReadAll(request.Body)
		assert.NoError(t, err)
		assert.Equal(t, `{"foo":"bar"}`, string(body))
		assert.Equal(t, "application/json", request.Header.Get("Content-Type"))
		return httpmock.NewStringResponse(200, "test"), nil
	})

	ctx := context.Background()
	c := New().WithTransport(transport).WithRetry(TestingRetry())
	err := NewHTTPRequest(c).WithPost("https://example.com").WithJSONBody(&testStruct{Foo: "bar"}).SendOrErr(ctx)
	assert.NoError(t, err)
}

func TestUnsupportedBody(t *testing.T) {
	t.Parallel()

	transport := httpmock.NewMockTransport()
	c := New().WithTransport(transport).WithRetry(TestingRetry())
	err := NewHTTPRequest(c).WithPost("https://example.com").WithBody(&testStruct{Foo: "bar"}).SendOrErr(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported body type "*client_test.testStruct"`)
	assert.Equal(t, 0, transport.GetTotalCallCount())
}
