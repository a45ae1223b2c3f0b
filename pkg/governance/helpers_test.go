package governance_test

import (
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/jarcoal/httpmock"

	"github.com/forgerock/iga-go-client/pkg/client"
	"github.com/forgerock/iga-go-client/pkg/governance"
)

const (
	testHost               = "tenant.example.com"
	testToken              = "my-token"
	formAssignmentsPattern = `=~^https://tenant\.example\.com/iga/governance/requestFormAssignments`
)

func newMockedAPI(t *testing.T, opts ...governance.APIOption) (*governance.API, *httpmock.MockTransport) {
	t.Helper()
	c, transport := client.NewMockedClient()
	opts = append([]governance.APIOption{governance.WithClient(&c), governance.WithToken(testToken)}, opts...)
	return governance.NewAPI(testHost, opts...), transport
}

type recordedRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   string
}

// recorder stores all received requests.
type recorder struct {
	lock     sync.Mutex
	requests []recordedRequest
}

func (r *recorder) Responder(status int, body any) httpmock.Responder {
	return r.ResponderFunc(func(_ *http.Request) (int, any) {
		return status, body
	})
}

func (r *recorder) ResponderFunc(fn func(req *http.Request) (int, any)) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		var body []byte
		if req.Body != nil {
			var err error
			if body, err = io.ReadAll(req.Body); err != nil {
				return nil, err
			}
		}

		r.lock.Lock()
		r.requests = append(r.requests, recordedRequest{
			Method: req.Method,
			URL:    req.URL.String(),
			Header: req.Header.Clone(),
			Body:   string(body),
		})
		r.lock.Unlock()

		status, resBody := fn(req)
		res, err := httpmock.NewJsonResponse(status, resBody)
		if err != nil {
			return nil, err
		}
		res.Request = req
		return res, nil
	}
}

func (r *recorder) All() []recordedRequest {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]recordedRequest(nil), r.requests...)
}
