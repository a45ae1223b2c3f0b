package governance_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/keboola/go-utils/pkg/orderedmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgerock/iga-go-client/pkg/governance"
)

const uiLocaleEnURL = "https://tenant.example.com/openidm/config/uilocale/en"

func TestAddOverridesRequest(t *testing.T) {
	t.Parallel()

	api, transport := newMockedAPI(t)
	rec := &recorder{}
	transport.RegisterResponder(http.MethodPut, uiLocaleEnURL, rec.Responder(http.StatusOK, map[string]any{"_id": "uilocale/en", "greeting": "hi"}))

	overrides := orderedmap.FromPairs([]orderedmap.Pair{{Key: "greeting", Value: "hi"}})
	result, err := api.AddOverridesRequest("en", overrides).Send(context.Background())
	require.NoError(t, err)
	value, found := result.Get("greeting")
	assert.True(t, found)
	assert.Equal(t, "hi", value)

	requests := rec.All()
	require.Len(t, requests, 1)
	req := requests[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, uiLocaleEnURL, req.URL)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "Bearer my-token", req.Header.Get("Authorization"))
	assert.Equal(t, "resource=1.0", req.Header.Get("Accept-API-Version"))
	assert.JSONEq(t, `{"greeting":"hi"}`, req.Body)
}

func TestAddOverridesRequest_KeysOrder(t *testing.T) {
	t.Parallel()

	api, transport := newMockedAPI(t)
	var body string
	transport.RegisterResponder(http.MethodPut, uiLocaleEnURL, func(req *http.Request) (*http.Response, error) {
		// Echo the body
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		body = string(b)
		res := httpmock.NewStringResponse(http.StatusOK, body)
		res.Header.Set("Content-Type", "application/json")
		res.Request = req
		return res, nil
	})

	overrides := orderedmap.FromPairs([]orderedmap.Pair{
		{Key: "zebra", Value: "z"},
		{Key: "apple", Value: "a"},
		{Key: "mango", Value: "m"},
	})
	result, err := api.AddOverridesRequest("en", overrides).Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"zebra", "apple", "mango"}, result.Keys())
	assert.Less(t, strings.Index(body, `"zebra"`), strings.Index(body, `"apple"`))
	assert.Less(t, strings.Index(body, `"apple"`), strings.Index(body, `"mango"`))
}

func TestGetOverridesRequest(t *testing.T) {
	t.Parallel()

	api, transport := newMockedAPI(t)
	transport.RegisterResponder(http.MethodGet, uiLocaleEnURL, func(req *http.Request) (*http.Response, error) {
		res := httpmock.NewStringResponse(http.StatusOK, `{"second":"2","first":"1"}`)
		res.Header.Set("Content-Type", "application/json")
		res.Request = req
		return res, nil
	})

	result, err := api.GetOverridesRequest("en").Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first"}, result.Keys())
}

func TestDeleteOverridesRequest(t *testing.T) {
	t.Parallel()

	api, transport := newMockedAPI(t)
	rec := &recorder{}
	transport.RegisterResponder(http.MethodDelete, uiLocaleEnURL, rec.Responder(http.StatusOK, map[string]any{"_id": "uilocale/en"}))

	require.NoError(t, api.DeleteOverridesRequest("en", true).SendOrErr(context.Background()))
	requests := rec.All()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodDelete, requests[0].Method)
	assert.Equal(t, uiLocaleEnURL, requests[0].URL)
	assert.Equal(t, "Bearer my-token", requests[0].Header.Get("Authorization"))
}

func TestDeleteOverridesRequest_ErrorStatus(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusBadRequest} {
		api, transport := newMockedAPI(t)
		rec := &recorder{}
		transport.RegisterResponder(http.MethodDelete, uiLocaleEnURL, rec.Responder(status, map[string]any{
			"code":    status,
			"reason":  http.StatusText(status),
			"message": "cannot delete",
		}))

		// Status code is ignored
		assert.NoError(t, api.DeleteOverridesRequest("en", false).SendOrErr(context.Background()))

		// Status code is reported
		err := api.DeleteOverridesRequest("en", true).SendOrErr(context.Background())
		require.Error(t, err)
		var apiErr *governance.Error
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, status, apiErr.StatusCode())
		assert.Len(t, rec.All(), 2)
	}
}

func TestDeleteOverridesRequest_NetworkError(t *testing.T) {
	t.Parallel()

	api, transport := newMockedAPI(t)
	transport.RegisterResponder(http.MethodDelete, uiLocaleEnURL, httpmock.NewErrorResponder(errors.New("connection refused")))

	err := api.DeleteOverridesRequest("en", false).SendOrErr(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
