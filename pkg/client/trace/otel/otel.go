// Package otel provides OpenTelemetry tracing and metrics for HTTP client requests.
//
// The package provides 2 levels of telemetry:
//
// 1. Low-level telemetry:
//   - Span and metrics for every sent HTTP request, including redirects and retries.
//   - Span name is "http.request", child spans track parts of the request:
//     "http.dns", "http.getconn", "http.connect", "http.tls", "http.headers", "http.send", "http.receive".
//   - Metrics names start with "iga.go.http." (httpMeterPrefix const).
//
// 2. High-level telemetry:
//   - Span and metrics for each "logical" HTTP request sent by the client.
//   - Main span "iga.go.client.request" wraps all redirects and retries together.
//   - Span "http.request.body.parse" tracks response receiving and parsing (as a stream).
//   - Span "iga.go.client.retry.delay" tracks delay before retry.
//   - Metrics names start with "iga.go.client." (clientMeterPrefix const).
//
// Sensitive headers, path and query parameters are masked, see the Option functions.
package otel

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/httptrace"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelMetric "go.opentelemetry.io/otel/metric"
	metricNoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	otelTrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/forgerock/iga-go-client/pkg/client/trace"
	"github.com/forgerock/iga-go-client/pkg/request"
)

const (
	TraceAppName     = "github.com/forgerock/iga-go-client"
	attrResourceName = attribute.Key("resource.name")
	// Low-level tracing, for each redirect and retry.
	httpSpanPrefix             = "http."
	httpRequestSpanName        = httpSpanPrefix + "request"
	httpDNSSpanName            = httpSpanPrefix + "dns"
	httpGetConnSpanName        = httpSpanPrefix + "getconn"
	httpConnectSpanName        = httpSpanPrefix + "connect"
	httpTLSHandshakeSpanName   = httpSpanPrefix + "tls"
	httpHeadersSpanName        = httpSpanPrefix + "headers"
	httpSendSpanName           = httpSpanPrefix + "send"
	httpReceiveSpanName        = httpSpanPrefix + "receive"
	attrDNSAddresses           = attribute.Key("http.dns.addrs")
	attrRemoteAddr             = attribute.Key("http.remote")
	attrLocalAddr              = attribute.Key("http.local")
	attrConnectionReused       = attribute.Key("http.conn.reused")
	attrConnectionWasIdle      = attribute.Key("http.conn.wasidle")
	attrConnectionIdleTime     = attribute.Key("http.conn.idletime")
	attrConnectionStartNetwork = attribute.Key("http.conn.start.network")
	attrConnectionDoneNetwork  = attribute.Key("http.conn.done.network")
	attrConnectionDoneAddr     = attribute.Key("http.conn.done.addr")
	attrWroteBytes             = attribute.Key("http.wrote_bytes")
	attrReadBytes              = attribute.Key("http.read_bytes")
	// High-level tracing.
	clientSpanPrefix         = "iga.go.client."
	clientRequestSpanName    = clientSpanPrefix + "request"
	clientBodyParseSpanName  = httpSpanPrefix + "request.body.parse"
	clientRetryDelaySpanName = clientSpanPrefix + "retry.delay"
	// Extra attributes for DataDog.
	attrSpanKind            = attribute.Key("span.kind")
	attrSpanKindValueClient = "client"
	attrSpanType            = attribute.Key("span.type")
	attrSpanTypeValueHTTP   = "http"
)

// NewTrace creates the trace.Factory, it can be registered by the client.Client AndTrace method.
// Nil providers are replaced by no-op implementations.
func NewTrace(tracerProvider otelTrace.TracerProvider, meterProvider otelMetric.MeterProvider, opts ...Option) trace.Factory {
	cfg := newConfig(opts)
	if tracerProvider == nil {
		tracerProvider = noop.NewTracerProvider()
	}
	if meterProvider == nil {
		meterProvider = metricNoop.NewMeterProvider()
	}
	tracer := tracerProvider.Tracer(TraceAppName)
	meters := newMeters(meterProvider.Meter(TraceAppName))

	return func(ctx context.Context, reqDef request.HTTPRequest) (context.Context, *trace.ClientTrace) {
		t := &requestTrace{cfg: cfg, tracer: tracer, meters: meters, attrs: newAttributes(cfg, reqDef)}
		ctx = t.start(ctx)
		return ctx, t.hooks()
	}
}

// requestTrace holds state of one logical request, it may contain multiple HTTP requests (redirects, retries).
type requestTrace struct {
	cfg    config
	tracer otelTrace.Tracer
	meters *allMeters
	attrs  *attributes

	rootCtx   context.Context
	rootSpan  otelTrace.Span
	startTime time.Time

	httpCtx        context.Context
	httpSpan       otelTrace.Span
	httpStartTime  time.Time
	receiveSpan    otelTrace.Span
	retryDelaySpan otelTrace.Span
	bodyParseSpan  otelTrace.Span
	bodyParseTime  time.Time
	bodyParseAttrs []attribute.KeyValue
	readBytes      int64
	dnsSpan        otelTrace.Span
	getConnSpan    otelTrace.Span
	connectSpan    otelTrace.Span
	tlsSpan        otelTrace.Span
	headersSpan    otelTrace.Span
	sendSpan       otelTrace.Span
}

func (t *requestTrace) start(ctx context.Context) context.Context {
	t.startTime = time.Now()
	t.meters.client.inFlight.Add(ctx, 1, otelMetric.WithAttributes(t.attrs.definition...))
	t.rootCtx, t.rootSpan = t.tracer.Start(
		ctx,
		clientRequestSpanName,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		otelTrace.WithAttributes(
			attrResourceName.String(t.attrs.definitionPath),
			attrSpanKind.String(attrSpanKindValueClient),
			attrSpanType.String(attrSpanTypeValueHTTP),
		),
		otelTrace.WithAttributes(t.attrs.definition...),
		otelTrace.WithAttributes(t.attrs.definitionExtra...),
	)
	// Low-level spans have the root span as parent, until the first HTTP request starts
	t.httpCtx = t.rootCtx
	return t.rootCtx
}

func (t *requestTrace) hooks() *trace.ClientTrace {
	tc := &trace.ClientTrace{}

	// High-level hooks
	tc.HTTPRequestStart = t.httpRequestStart
	tc.GotFirstResponseByte = t.gotFirstResponseByte
	tc.HTTPResponse = t.httpResponse
	tc.HTTPRequestDone = t.httpRequestDone
	tc.BodyParseStart = t.bodyParseStart
	tc.BodyParseDone = t.bodyParseDone
	tc.RetryDelay = t.retryDelay
	tc.RequestProcessed = t.requestProcessed

	// Low-level httptrace hooks.
	// "otelhttptrace" pkg from the opentelemetry-contrib module does not end spans in all cases.
	tc.DNSStart = t.dnsStart
	tc.DNSDone = t.dnsDone
	tc.GetConn = t.getConn
	tc.GotConn = t.gotConn
	tc.ConnectStart = t.connectStart
	tc.ConnectDone = t.connectDone
	tc.TLSHandshakeStart = t.tlsHandshakeStart
	tc.TLSHandshakeDone = t.tlsHandshakeDone
	tc.WroteHeaderField = t.wroteHeaderField
	tc.WroteHeaders = t.wroteHeaders
	tc.WroteRequest = t.wroteRequest
	return tc
}

func (t *requestTrace) httpRequestStart(req *http.Request) {
	t.readBytes = 0
	t.endSpan(&t.retryDelaySpan, nil)

	t.httpCtx, t.httpSpan = t.tracer.Start(
		t.rootCtx,
		httpRequestSpanName,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		otelTrace.WithAttributes(
			attrSpanKind.String(attrSpanKindValueClient),
			attrSpanType.String(attrSpanTypeValueHTTP),
		),
	)

	// Inject trace headers
	if t.cfg.propagators != nil {
		t.cfg.propagators.Inject(t.httpCtx, propagation.HeaderCarrier(req.Header))
	}

	t.httpStartTime = time.Now()
	t.attrs.SetFromRequest(req)
	t.meters.http.inFlight.Add(t.rootCtx, 1, otelMetric.WithAttributes(t.attrs.httpRequest...))
	t.httpSpan.SetAttributes(attrResourceName.String(t.attrs.httpPath))
	t.httpSpan.SetAttributes(t.attrs.httpRequest...)
	t.httpSpan.SetAttributes(t.attrs.httpRequestExtra...)
}

func (t *requestTrace) gotFirstResponseByte() {
	_, t.receiveSpan = t.tracer.Start(t.httpCtx, httpReceiveSpanName, otelTrace.WithSpanKind(otelTrace.SpanKindClient))
}

func (t *requestTrace) httpResponse(res *http.Response, err error) {
	t.attrs.SetFromResponse(res, err)
	if t.httpSpan != nil {
		t.httpSpan.SetAttributes(t.attrs.httpResponse...)
		t.httpSpan.SetAttributes(t.attrs.httpResponseExtra...)
	}
}

func (t *requestTrace) httpRequestDone(res *http.Response, sent, received int64, err error) {
	t.readBytes = received
	elapsedTime := float64(time.Since(t.httpStartTime)) / float64(time.Millisecond)

	// Metrics, in flight attributes must be same as in the httpRequestStart
	t.meters.http.inFlight.Add(t.rootCtx, -1, otelMetric.WithAttributes(t.attrs.httpRequest...))
	attrs := otelMetric.WithAttributes(append(append([]attribute.KeyValue{}, t.attrs.httpRequest...), t.attrs.httpResponse...)...)
	t.meters.http.duration.Record(t.rootCtx, elapsedTime, attrs)
	t.meters.http.requestContentLength.Add(t.rootCtx, sent, attrs)
	t.meters.http.responseContentLength.Add(t.rootCtx, received, attrs)

	// Tracing
	if t.httpSpan != nil {
		t.httpSpan.SetAttributes(attrWroteBytes.Int64(sent), attrReadBytes.Int64(received))
		switch {
		case err != nil:
			t.httpSpan.RecordError(err)
			t.httpSpan.SetStatus(codes.Error, err.Error())
		case res != nil && res.StatusCode >= http.StatusBadRequest:
			httpErr := fmt.Errorf(`HTTP status code: %d %s`, res.StatusCode, http.StatusText(res.StatusCode))
			t.httpSpan.RecordError(httpErr)
			t.httpSpan.SetStatus(codes.Error, httpErr.Error())
		}
	}
	if t.receiveSpan != nil {
		t.receiveSpan.SetAttributes(attrReadBytes.Int64(received))
	}

	// If body parsing is in progress, the request span is ended by the bodyParseDone
	if t.bodyParseSpan == nil {
		t.endSpan(&t.receiveSpan, err)
		t.endSpan(&t.httpSpan, nil)
	}
}

func (t *requestTrace) bodyParseStart(_ *http.Response) {
	t.bodyParseTime = time.Now()
	t.bodyParseAttrs = append(append([]attribute.KeyValue{}, t.attrs.definition...), t.attrs.httpResponse...)
	t.meters.parse.inFlight.Add(t.rootCtx, 1, otelMetric.WithAttributes(t.bodyParseAttrs...))
	_, t.bodyParseSpan = t.tracer.Start(
		t.httpCtx,
		clientBodyParseSpanName,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		otelTrace.WithAttributes(t.attrs.httpRequest...),
		otelTrace.WithAttributes(t.attrs.httpResponse...),
	)
}

func (t *requestTrace) bodyParseDone(_ *http.Response, _ any, _ error, parseError error) {
	elapsedTime := float64(time.Since(t.bodyParseTime)) / float64(time.Millisecond)
	t.meters.parse.inFlight.Add(t.rootCtx, -1, otelMetric.WithAttributes(t.bodyParseAttrs...))
	t.meters.parse.duration.Record(t.rootCtx, elapsedTime, otelMetric.WithAttributes(t.bodyParseAttrs...))
	if t.bodyParseSpan != nil {
		t.bodyParseSpan.SetAttributes(attrReadBytes.Int64(t.readBytes))
	}
	t.endSpan(&t.bodyParseSpan, parseError)
	t.endSpan(&t.receiveSpan, nil)
	t.endSpan(&t.httpSpan, nil)
}

func (t *requestTrace) retryDelay(attempt int, delay time.Duration) {
	// The span is ended by the next httpRequestStart or by the requestProcessed, if an error occurred.
	_, t.retryDelaySpan = t.tracer.Start(
		t.rootCtx,
		clientRetryDelaySpanName,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		otelTrace.WithAttributes(t.attrs.httpRequest...),
		otelTrace.WithAttributes(t.attrs.httpResponse...),
		otelTrace.WithAttributes(
			attribute.Int("api.request.retry.attempt", attempt),
			attribute.Int64("api.request.retry.delay_ms", delay.Milliseconds()),
			attribute.String("api.request.retry.delay_string", delay.String()),
		),
	)
}

func (t *requestTrace) requestProcessed(_ any, err error) {
	elapsedTime := float64(time.Since(t.startTime)) / float64(time.Millisecond)

	// Metrics, in flight attributes must be same as in the start
	t.meters.client.inFlight.Add(t.rootCtx, -1, otelMetric.WithAttributes(t.attrs.definition...))
	meterAttrs := append(append(append([]attribute.KeyValue{}, t.attrs.definition...), t.attrs.httpResponse...), t.attrs.httpResponseError...)
	t.meters.client.duration.Record(t.rootCtx, elapsedTime, otelMetric.WithAttributes(meterAttrs...))

	// Tracing
	t.endSpan(&t.retryDelaySpan, nil)
	t.endSpan(&t.httpSpan, err)
	if t.rootSpan != nil {
		t.rootSpan.SetAttributes(t.attrs.httpResponse...)
		t.rootSpan.SetAttributes(t.attrs.httpResponseExtra...)
		if err == nil {
			t.rootSpan.End()
		} else {
			t.rootSpan.RecordError(err)
			t.rootSpan.SetStatus(codes.Error, err.Error())
			t.rootSpan.End(otelTrace.WithStackTrace(true))
		}
		t.rootSpan = nil
	}
}

func (t *requestTrace) dnsStart(info httptrace.DNSStartInfo) {
	t.startSpan(&t.dnsSpan, httpDNSSpanName, semconv.NetHostNameKey.String(info.Host))
}

func (t *requestTrace) dnsDone(info httptrace.DNSDoneInfo) {
	if t.dnsSpan != nil {
		var addrs []string
		for _, netAddr := range info.Addrs {
			addrs = append(addrs, netAddr.String())
		}
		t.dnsSpan.SetAttributes(attrDNSAddresses.String(strings.Join(addrs, ";")))
	}
	t.endSpan(&t.dnsSpan, info.Err)
}

func (t *requestTrace) getConn(host string) {
	t.startSpan(&t.getConnSpan, httpGetConnSpanName, semconv.NetHostNameKey.String(host))
}

func (t *requestTrace) gotConn(info httptrace.GotConnInfo) {
	if t.getConnSpan != nil {
		if info.Conn != nil {
			t.getConnSpan.SetAttributes(
				attrRemoteAddr.String(info.Conn.RemoteAddr().String()),
				attrLocalAddr.String(info.Conn.LocalAddr().String()),
			)
		}
		t.getConnSpan.SetAttributes(attrConnectionReused.Bool(info.Reused), attrConnectionWasIdle.Bool(info.WasIdle))
		if info.WasIdle {
			t.getConnSpan.SetAttributes(attrConnectionIdleTime.String(info.IdleTime.String()))
		}
	}
	t.endSpan(&t.getConnSpan, nil)
}

func (t *requestTrace) connectStart(network, addr string) {
	t.startSpan(&t.connectSpan, httpConnectSpanName, attrRemoteAddr.String(addr), attrConnectionStartNetwork.String(network))
}

func (t *requestTrace) connectDone(network, addr string, err error) {
	if t.connectSpan != nil {
		t.connectSpan.SetAttributes(attrConnectionDoneAddr.String(addr), attrConnectionDoneNetwork.String(network))
	}
	t.endSpan(&t.connectSpan, err)
}

// tlsHandshakeStart is not reported if the http2.Transport is used directly, without upgrade from http.Transport.
func (t *requestTrace) tlsHandshakeStart() {
	t.startSpan(&t.tlsSpan, httpTLSHandshakeSpanName)
}

func (t *requestTrace) tlsHandshakeDone(_ tls.ConnectionState, err error) {
	t.endSpan(&t.tlsSpan, err)
}

func (t *requestTrace) wroteHeaderField(_ string, _ []string) {
	// Start headers span at first header
	if t.headersSpan == nil {
		t.startSpan(&t.headersSpan, httpHeadersSpanName)
	}
}

func (t *requestTrace) wroteHeaders() {
	t.endSpan(&t.headersSpan, nil)
	t.startSpan(&t.sendSpan, httpSendSpanName)
}

func (t *requestTrace) wroteRequest(info httptrace.WroteRequestInfo) {
	t.endSpan(&t.sendSpan, info.Err)
}

func (t *requestTrace) startSpan(span *otelTrace.Span, name string, attrs ...attribute.KeyValue) {
	_, *span = t.tracer.Start(t.httpCtx, name, otelTrace.WithSpanKind(otelTrace.SpanKindClient), otelTrace.WithAttributes(attrs...))
}

func (t *requestTrace) endSpan(span *otelTrace.Span, err error) {
	if *span == nil {
		return
	}
	if err != nil {
		(*span).RecordError(err)
		(*span).SetStatus(codes.Error, err.Error())
	}
	(*span).End()
	*span = nil
}
