package otel

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	"github.com/forgerock/iga-go-client/pkg/request"
)

const (
	maskedAttrValue = "****"
)

type attributes struct {
	config config
	// pathParams values are masked in URLs, if redacted
	pathParams map[string]string
	// definitionPath is the URL path with placeholders
	definitionPath string
	// definition attributes for span and metrics
	definition []attribute.KeyValue
	// definitionExtra attributes for span only
	definitionExtra []attribute.KeyValue
	// httpPath is the path of the last HTTP request
	httpPath string
	// httpRequest attributes for span and metrics
	httpRequest []attribute.KeyValue
	// httpRequestExtra attributes for span only
	httpRequestExtra []attribute.KeyValue
	// httpResponse attributes for span and metrics
	httpResponse []attribute.KeyValue
	// httpResponseExtra attributes for span only
	httpResponseExtra []attribute.KeyValue
	// httpResponseError attributes for metrics
	httpResponseError []attribute.KeyValue
}

func newAttributes(cfg config, reqDef request.HTTPRequest) *attributes {
	out := &attributes{config: cfg, pathParams: reqDef.PathParams()}
	reqURL := reqDef.URL()
	out.definitionPath = mustURLPathUnescape(reqURL.EscapedPath())

	var resultType string
	if v := reflect.TypeOf(reqDef.ResultDef()); v != nil {
		resultType = v.String()
	}

	// Definition base
	out.definition = []attribute.KeyValue{
		attribute.String("definition.method", reqDef.Method()),
		attribute.String("definition.result.type", resultType),
		attribute.String("definition.url.full", mustURLPathUnescape(out.redactURL(reqURL))),
		attribute.String("definition.url.path", out.definitionPath),
		attribute.String("definition.url.host.full", reqURL.Host),
	}
	if dotPos := strings.IndexByte(reqURL.Host, '.'); dotPos > 0 {
		out.definition = append(out.definition,
			// Host prefix, e.g. "openam-tenant"
			attribute.String("definition.url.host.prefix", reqURL.Host[:dotPos]),
			// Host suffix, e.g. "forgeblocks.com"
			attribute.String("definition.url.host.suffix", strings.TrimLeft(reqURL.Host[dotPos:], ".")),
		)
	}

	// Definition params
	var extra []attribute.KeyValue
	for k, v := range reqDef.RequestHeader() {
		value := strings.Join(v, ";")
		if cfg.isRedactedHeader(k) {
			value = maskedAttrValue
		}
		extra = append(extra, attribute.String("definition.header."+k, value))
	}
	for k, v := range reqDef.QueryParams() {
		value := strings.Join(v, ";")
		if cfg.isRedactedQueryParam(k) {
			value = maskedAttrValue
		}
		extra = append(extra, attribute.String("definition.params.query."+k, value))
	}
	for k, v := range reqDef.PathParams() {
		value := cast.ToString(v)
		if cfg.isRedactedPathParam(k) {
			value = maskedAttrValue
		}
		extra = append(extra, attribute.String("definition.params.path."+k, value))
	}
	sortAttrs(extra)
	out.definitionExtra = extra

	return out
}

func (v *attributes) SetFromRequest(req *http.Request) {
	if req == nil {
		v.httpRequest = nil
		v.httpRequestExtra = nil
		return
	}

	// Base
	v.httpPath = mustURLPathUnescape(v.redactPath(req.URL.EscapedPath()))
	v.httpRequest = []attribute.KeyValue{
		semconv.HTTPMethodKey.String(req.Method),
		semconv.HTTPURLKey.String(v.redactURL(req.URL)),
		semconv.NetPeerNameKey.String(req.URL.Hostname()),
	}
	if ua := req.UserAgent(); ua != "" {
		v.httpRequest = append(v.httpRequest, semconv.HTTPUserAgentKey.String(ua))
	}

	// Extra
	var attrs []attribute.KeyValue
	for key, values := range req.Header {
		key = strings.ToLower(key)
		value := strings.Join(values, ";")
		if key == "user-agent" {
			// Skip, it is already present
			continue
		}
		if v.config.isRedactedHeader(key) {
			value = maskedAttrValue
		}
		attrs = append(attrs, attribute.String("http.header."+key, value))
	}
	sortAttrs(attrs)
	v.httpRequestExtra = attrs
}

func (v *attributes) SetFromResponse(res *http.Response, err error) {
	if res == nil {
		v.httpResponse = nil
		v.httpResponseExtra = nil
	} else {
		// Base
		v.httpResponse = []attribute.KeyValue{semconv.HTTPStatusCodeKey.Int(res.StatusCode)}

		// Extra
		var attrs []attribute.KeyValue
		for key, values := range res.Header {
			key = strings.ToLower(key)
			value := strings.Join(values, ";")
			if v.config.isRedactedHeader(key) {
				value = maskedAttrValue
			}
			attrs = append(attrs, attribute.String("http.response.header."+key, value))
		}
		sortAttrs(attrs)
		v.httpResponseExtra = attrs
	}

	// Error
	var netErr net.Error
	errors.As(err, &netErr)
	v.httpResponseError = []attribute.KeyValue{
		attribute.Bool("http.response.isSuccess", isSuccess(res, err)),
		attribute.Bool("http.response.isRedirection", isRedirection(res)),
		attribute.Bool("http.response.error.has", err != nil),
		attribute.Bool("http.response.error.net", netErr != nil),
		attribute.Bool("http.response.error.timeout", netErr != nil && netErr.Timeout()),
		attribute.Bool("http.response.error.cancelled", errors.Is(err, context.Canceled)),
		attribute.Bool("http.response.error.deadline_exceeded", errors.Is(err, context.DeadlineExceeded)),
	}
}

// redactURL masks values of the redacted path and query parameters, user info is removed.
func (v *attributes) redactURL(u *url.URL) string {
	clone := *u
	clone.User = nil
	clone.RawQuery = ""
	out := clone.Scheme + "://" + clone.Host + v.redactPath(clone.EscapedPath())
	if clone.Scheme == "" {
		out = v.redactPath(clone.EscapedPath())
	}

	query := u.Query()
	if len(query) > 0 {
		keys := make([]string, 0, len(query))
		for k := range query {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var parts []string
		for _, k := range keys {
			for _, value := range query[k] {
				if v.config.isRedactedQueryParam(k) {
					parts = append(parts, url.QueryEscape(k)+"="+maskedAttrValue)
				} else {
					parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(value))
				}
			}
		}
		out += "?" + strings.Join(parts, "&")
	}
	return out
}

func (v *attributes) redactPath(path string) string {
	for k, value := range v.pathParams {
		if value != "" && v.config.isRedactedPathParam(k) {
			path = strings.ReplaceAll(path, url.PathEscape(value), maskedAttrValue)
		}
	}
	return path
}

func sortAttrs(attrs []attribute.KeyValue) {
	sort.SliceStable(attrs, func(i, j int) bool {
		return attrs[i].Key < attrs[j].Key
	})
}

func mustURLPathUnescape(in string) string {
	out, err := url.PathUnescape(in)
	if err != nil {
		return in
	}
	return out
}
