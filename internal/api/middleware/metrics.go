package middleware

import (
	"net/http"
	"sync/atomic"
)

// MetricsCollector counts requests, error responses and rejected requests.
type MetricsCollector struct {
	requestCount *atomic.Int64
	errorCount   *atomic.Int64
	limitedCount *atomic.Int64
}

func NewMetricsCollector(requestCount, errorCount, limitedCount *atomic.Int64) *MetricsCollector {
	return &MetricsCollector{
		requestCount: requestCount,
		errorCount:   errorCount,
		limitedCount: limitedCount,
	}
}

// Middleware counts every request; 4xx and 5xx responses also count as
// errors and 429s as rate limited.
func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mc.requestCount.Add(1)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		if rw.statusCode >= 400 {
			mc.errorCount.Add(1)
		}
		if rw.statusCode == http.StatusTooManyRequests {
			mc.limitedCount.Add(1)
		}
	})
}
