// Package middlewareinternal provides HTTP middleware for the collector
// endpoint's query API.
//
// It includes middleware for logging HTTP requests and responses, and for
// compressing response bodies using gzip compression.
package middlewareinternal

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"compress/gzip"

	"go.uber.org/zap"
)

// statusRecorder captures the status code and body size a handler produced.
// The status starts at 200 because handlers that never call WriteHeader get
// that from net/http.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	size, err := sr.ResponseWriter.Write(b)
	sr.bytes += size
	return size, err
}

func (sr *statusRecorder) WriteHeader(statusCode int) {
	sr.ResponseWriter.WriteHeader(statusCode)
	sr.status = statusCode
}

// LoggingMiddleware creates a middleware that logs HTTP requests and responses.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {

	return func(next http.Handler) http.Handler {
		logFn := func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			recorder := &statusRecorder{
				ResponseWriter: w,
				status:         http.StatusOK,
			}
			uri := r.RequestURI
			method := r.Method

			next.ServeHTTP(recorder, r)
			duration := time.Since(start)

			logger.Infow("Request served",
				"uri", uri,
				"method", method,
				"status", recorder.status,
				"duration", duration,
				"size", recorder.bytes,
			)

		}
		return http.HandlerFunc(logFn)
	}
}

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	},
}

type gzipResponseWriter struct {
	http.ResponseWriter
	compressor io.Writer
}

func (w gzipResponseWriter) Write(b []byte) (int, error) {
	return w.compressor.Write(b)
}

// GzipMiddleware creates a middleware that compresses response bodies using gzip.
func GzipMiddleware(next http.Handler) http.Handler {

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Encoding", "gzip")
		gzw := gzipWriterPool.Get().(*gzip.Writer)
		gzw.Reset(w)
		defer func() {
			gzw.Close()
			gzipWriterPool.Put(gzw)
		}()
		next.ServeHTTP(gzipResponseWriter{ResponseWriter: w, compressor: gzw}, r)
	})
}
