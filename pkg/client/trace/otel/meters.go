package otel

import otelMetric "go.opentelemetry.io/otel/metric"

const (
	clientMeterPrefix = "iga.go.client."
	httpMeterPrefix   = "iga.go.http."
)

type allMeters struct {
	client clientMeters
	http   httpMeters
	parse  parseMeters
}

type clientMeters struct {
	inFlight otelMetric.Int64UpDownCounter
	duration otelMetric.Float64Histogram
}

type httpMeters struct {
	inFlight              otelMetric.Int64UpDownCounter
	duration              otelMetric.Float64Histogram
	requestContentLength  otelMetric.Int64Counter
	responseContentLength otelMetric.Int64Counter
}

type parseMeters struct {
	inFlight otelMetric.Int64UpDownCounter
	duration otelMetric.Float64Histogram
}

func newMeters(meter otelMetric.Meter) *allMeters {
	return &allMeters{
		client: clientMeters{
			inFlight: upDownCounter(meter, clientMeterPrefix+"request.in_flight", "HTTP client: in flight requests."),
			duration: histogram(meter, clientMeterPrefix+"request.duration", "HTTP client: requests duration.", "ms"),
		},
		http: httpMeters{
			inFlight:              upDownCounter(meter, httpMeterPrefix+"request.in_flight", "HTTP request: in flight requests."),
			duration:              histogram(meter, httpMeterPrefix+"request.duration", "HTTP request: response received duration (without parsing).", "ms"),
			requestContentLength:  counter(meter, httpMeterPrefix+"request.content_length", "HTTP request: sent body bytes.", "By"),
			responseContentLength: counter(meter, httpMeterPrefix+"response.content_length", "HTTP request: received body bytes.", "By"),
		},
		parse: parseMeters{
			inFlight: upDownCounter(meter, clientMeterPrefix+"request.parse.in_flight", "HTTP client: in flight request parsing."),
			duration: histogram(meter, clientMeterPrefix+"request.parse.duration", "HTTP client: request parse duration.", "ms"),
		},
	}
}

func upDownCounter(meter otelMetric.Meter, name, desc string) otelMetric.Int64UpDownCounter {
	return mustInstrument(meter.Int64UpDownCounter(name, otelMetric.WithDescription(desc)))
}

func counter(meter otelMetric.Meter, name, desc string, unit string) otelMetric.Int64Counter {
	return mustInstrument(meter.Int64Counter(name, otelMetric.WithDescription(desc), otelMetric.WithUnit(unit)))
}

func histogram(meter otelMetric.Meter, name, desc string, unit string) otelMetric.Float64Histogram {
	return mustInstrument(meter.Float64Histogram(name, otelMetric.WithDescription(desc), otelMetric.WithUnit(unit)))
}

func mustInstrument[T any](instrument T, err error) T {
	if err != nil {
		panic(err)
	}
	return instrument
}
