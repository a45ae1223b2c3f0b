package trace_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/forgerock/iga-go-client/pkg/client"
	"github.com/forgerock/iga-go-client/pkg/client/trace"
	"github.com/forgerock/iga-go-client/pkg/request"
)

func TestZapTracer(t *testing.T) {
	t.Parallel()

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", `https://example.com/ok`, httpmock.ResponderFromMultipleResponses([]*http.Response{
		{StatusCode: http.StatusServiceUnavailable},
		httpmock.NewStringResponse(http.StatusOK, "OK"),
	}))
	transport.RegisterResponder("GET", `https://example.com/missing`, httpmock.NewStringResponder(http.StatusNotFound, "Not Found"))

	core, logs := observer.New(zapcore.DebugLevel)
	c := client.New().
		WithTransport(transport).
		WithRetry(client.TestingRetry()).
		AndTrace(trace.ZapTracer(zap.New(core)))

	ctx := context.Background()
	require.NoError(t, request.NewHTTPRequest(c).WithGet("https://example.com/ok").SendOrErr(ctx))
	assert.Error(t, request.NewHTTPRequest(c).WithGet("https://example.com/missing").SendOrErr(ctx))

	var messages []string
	for _, entry := range logs.All() {
		messages = append(messages, entry.Level.String()+" "+entry.Message)
	}
	assert.Equal(t, []string{
		"debug http request started",
		"debug http request done",
		"warn http request retry",
		"debug http request started",
		"debug http request done",
		"debug request processed",
		"debug http request started",
		"debug http request done",
		"info request failed",
	}, messages)

	retry := logs.FilterMessage("http request retry").All()
	require.Len(t, retry, 1)
	assert.Equal(t, int64(1), retry[0].ContextMap()["retry.attempt"])
	assert.Equal(t, int64(http.StatusServiceUnavailable), retry[0].ContextMap()["http.status_code"])
	assert.Equal(t, "https://example.com/ok", retry[0].ContextMap()["http.url"])

	failed := logs.FilterMessage("request failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, int64(http.StatusNotFound), failed[0].ContextMap()["http.status_code"])
}

func TestZapTracer_FailedBeforeSend(t *testing.T) {
	t.Parallel()

	transport := httpmock.NewMockTransport()
	core, logs := observer.New(zapcore.DebugLevel)
	c := client.New().
		WithTransport(transport).
		WithRetry(client.TestingRetry()).
		AndTrace(trace.ZapTracer(zap.New(core)))

	err := request.NewHTTPRequest(c).WithPost("https://example.com").WithBody(map[string]any{"foo": "bar"}).SendOrErr(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, transport.GetTotalCallCount())

	assert.Empty(t, logs.FilterMessage("http request started").All())
	failed := logs.FilterMessage("request failed").All()
	require.Len(t, failed, 1)
	duration, ok := failed[0].ContextMap()["duration"].(time.Duration)
	require.True(t, ok)
	assert.Less(t, duration, time.Minute)
}
