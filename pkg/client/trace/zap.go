package trace

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/forgerock/iga-go-client/pkg/request"
)

// ZapTracer logs each logical request and its retries to the zap logger.
// Request headers are never logged, they may contain the access token.
func ZapTracer(logger *zap.Logger) Factory {
	return func(ctx context.Context, reqDef request.HTTPRequest) (context.Context, *ClientTrace) {
		log := logger.With(
			zap.String("http.method", reqDef.Method()),
			zap.String("http.url", reqDef.URL().String()),
		)

		startTime := time.Now()
		var statusCode int
		t := &ClientTrace{}
		t.HTTPRequestStart = func(_ *http.Request) {
			log.Debug("http request started")
		}
		t.HTTPRequestDone = func(res *http.Response, sent, received int64, err error) {
			if res != nil {
				statusCode = res.StatusCode
			}
			fields := []zap.Field{
				zap.Int("http.status_code", statusCode),
				zap.Int64("http.sent_bytes", sent),
				zap.Int64("http.received_bytes", received),
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			}
			log.Debug("http request done", fields...)
		}
		t.RetryDelay = func(attempt int, delay time.Duration) {
			log.Warn("http request retry",
				zap.Int("retry.attempt", attempt),
				zap.Duration("retry.delay", delay),
				zap.Int("http.status_code", statusCode),
			)
		}
		t.RequestProcessed = func(_ any, err error) {
			fields := []zap.Field{
				zap.Int("http.status_code", statusCode),
				zap.Duration("duration", time.Since(startTime)),
			}
			if err != nil {
				log.Info("request failed", append(fields, zap.Error(err))...)
				return
			}
			log.Debug("request processed", fields...)
		}
		return ctx, t
	}
}
