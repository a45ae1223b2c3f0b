package trace_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/forgerock/iga-go-client/pkg/client"
	"github.com/forgerock/iga-go-client/pkg/client/trace"
	"github.com/forgerock/iga-go-client/pkg/request"
)

func TestDumpTracer(t *testing.T) {
	t.Parallel()

	// Mocked response
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", `https://example.com`, httpmock.ResponderFromMultipleResponses([]*http.Response{
		{StatusCode: http.StatusServiceUnavailable},
		{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("OK"))},
	}))

	// Logs for trace testing
	var logs strings.Builder

	// Create client
	ctx := context.Background()
	c := client.New().
		WithTransport(transport).
		WithRetry(client.TestingRetry()).
		AndTrace(trace.DumpTracer(&logs))

	// Test
	str := ""
	_, result, err := request.NewHTTPRequest(c).WithGet("https://example.com").WithResult(&str).Send(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "OK", *result.(*string))

	out := logs.String()
	assert.Equal(t, 2, strings.Count(out, ">>>>>> HTTP DUMP\n"))
	assert.Equal(t, 2, strings.Count(out, "<<<<<< HTTP DUMP END\n"))
	assert.Contains(t, out, "User-Agent: iga-go-client")
	assert.Contains(t, out, "503 Service Unavailable")
	assert.Contains(t, out, ">>>>>> HTTP RETRY | ATTEMPT: 1 | DELAY: 1ms |  GET / 503 | ERROR: <nil>\n")
	assert.Contains(t, out, "------\nOK\n<<<<<< HTTP DUMP END\n")
	assert.Contains(t, out, ">>>>>> HTTP REQUEST PROCESSED |  GET / 200 | ERROR: <nil>")
}
