package httpx

import (
	"context"
	"log"
	"net/http"
	"time"
)

// statusRecorder remembers the status and size of a response so the access
// log and the recovery middleware can inspect them.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	bytes   int64
	written bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.written {
		return
	}
	sr.status = code
	sr.written = true
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.WriteHeader(http.StatusOK)
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += int64(n)
	return n, err
}

// AccessLogMiddleware logs one line per request once the handler returns.
// Authenticated requests also carry user_id.
func AccessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		fields := &logFields{}

		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), logFieldsKey, fields)))

		log.Printf("access method=%s path=%s status=%d bytes=%d duration_ms=%d request_id=%s user_id=%d",
			r.Method, r.URL.Path, rec.status, rec.bytes,
			time.Since(start).Milliseconds(), RequestIDFrom(r), fields.userID)
	})
}
