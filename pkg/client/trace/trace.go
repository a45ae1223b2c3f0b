// Package trace extends the httptrace.ClientTrace and adds additional HTTPRequest hooks.
// A custom ClientTrace definition can be registered in the client.Client by the AndTrace method.
package trace

import (
	"context"
	"net/http"
	"net/http/httptrace"
	"reflect"
	"time"

	"github.com/forgerock/iga-go-client/pkg/request"
)

// Factory creates ClientTrace hooks for a request.
type Factory func(ctx context.Context, request request.HTTPRequest) (context.Context, *ClientTrace)

// ClientTrace is a set of hooks to run at various stages of an outgoing HTTPRequest.
type ClientTrace struct {
	httptrace.ClientTrace // native, low level trace
	// HTTPRequestStart is called when the request begins. It includes redirects and retries.
	HTTPRequestStart func(request *http.Request)
	// HTTPResponse is called when the response headers are received or the request failed.
	HTTPResponse func(response *http.Response, err error)
	// HTTPRequestDone is called when the response body is closed or the request failed.
	// Sent and received body bytes are counted.
	HTTPRequestDone func(response *http.Response, sent, received int64, err error)
	// RetryDelay is called before retry delay.
	RetryDelay func(attempt int, delay time.Duration)
	// BodyParseStart is called before the response body is parsed.
	BodyParseStart func(response *http.Response)
	// BodyParseDone is called after the response body is parsed.
	// The err is the mapped error result, the parseError is an unexpected error during parsing.
	BodyParseDone func(response *http.Response, result any, err error, parseError error)
	// RequestProcessed is called when Client.Send method is done.
	RequestProcessed func(result any, err error)
}

// Compose modifies t such that it respects the previously-registered hooks in old.
// The old hook is called first.
// Copy of httptrace.compose.
func (t *ClientTrace) Compose(old *ClientTrace) {
	if old == nil {
		return
	}
	t.ClientTrace = composeNative(t.ClientTrace, old.ClientTrace)
	compose(reflect.ValueOf(t).Elem(), reflect.ValueOf(old).Elem())
}

func composeNative(t, old httptrace.ClientTrace) httptrace.ClientTrace {
	compose(reflect.ValueOf(&t).Elem(), reflect.ValueOf(&old).Elem())
	return t
}

func compose(tv, ov reflect.Value) {
	structType := tv.Type()
	for i := 0; i < structType.NumField(); i++ {
		tf := tv.Field(i)
		hookType := tf.Type()
		if hookType.Kind() != reflect.Func {
			continue
		}
		of := ov.Field(i)
		if of.IsNil() {
			continue
		}
		if tf.IsNil() {
			tf.Set(of)
			continue
		}

		// Make a copy of tf for tf to call. (Otherwise it
		// creates a recursive call cycle and stack overflows)
		tfCopy := reflect.ValueOf(tf.Interface())

		// We need to call both tf and of in some order.
		newFunc := reflect.MakeFunc(hookType, func(args []reflect.Value) []reflect.Value {
			of.Call(args)
			return tfCopy.Call(args)
		})
		tv.Field(i).Set(newFunc)
	}
}
