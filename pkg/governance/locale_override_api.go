package governance

// The file contains request definitions for the translation overrides stored in the IDM config.

import (
	"context"
	"net/http"

	"github.com/keboola/go-utils/pkg/orderedmap"

	"github.com/forgerock/iga-go-client/pkg/request"
)

// GetOverridesRequest loads translation overrides of the locale, the keys order is preserved.
func (a *API) GetOverridesRequest(locale string, opts ...RequestOption) request.APIRequest[*orderedmap.OrderedMap] {
	result := orderedmap.New()
	req := a.newRequest(IDMAPI, opts).
		WithResult(result).
		WithMethod(http.MethodGet).
		WithURL(IDMUILocaleConfig).
		AndPathParam("locale", locale)
	return request.NewAPIRequest(result, req)
}

// AddOverridesRequest replaces translation overrides of the locale.
func (a *API) AddOverridesRequest(locale string, overrides *orderedmap.OrderedMap, opts ...RequestOption) request.APIRequest[*orderedmap.OrderedMap] {
	result := orderedmap.New()
	req := a.newRequest(IDMAPI, opts).
		WithResult(result).
		WithMethod(http.MethodPut).
		WithURL(IDMUILocaleConfig).
		AndPathParam("locale", locale).
		WithJSONBody(overrides)
	return request.NewAPIRequest(result, req)
}

// DeleteOverridesRequest deletes translation overrides of the locale.
// If failOnStatusCode is false, an error response is ignored, but a network error is still returned.
func (a *API) DeleteOverridesRequest(locale string, failOnStatusCode bool, opts ...RequestOption) request.APIRequest[request.NoResult] {
	req := a.newRequest(IDMAPI, opts).
		WithMethod(http.MethodDelete).
		WithURL(IDMUILocaleConfig).
		AndPathParam("locale", locale)
	if !failOnStatusCode {
		req = req.WithOnError(func(_ context.Context, response request.HTTPResponse, err error) error {
			if response.IsError() {
				return nil
			}
			return err
		})
	}
	return request.NewAPIRequest(request.NoResult{}, req)
}
