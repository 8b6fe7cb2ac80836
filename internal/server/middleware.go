package server

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/billy398/auction-dashboard/internal/otel"
)

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// withRequestLogging logs each request and emits an http.request event.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		dur := time.Since(start)

		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "dur", dur)

		level := otel.LevelInfo
		if rec.status >= 500 {
			level = otel.LevelError
		} else if rec.status >= 400 {
			level = otel.LevelWarn
		}
		s.events.Emit(otel.Event{
			Kind:   otel.KindHTTPRequest,
			Level:  level,
			Comp:   "server",
			Status: rec.status,
			URL:    r.Method + " " + r.URL.RequestURI(),
			Dur:    dur,
		})
	})
}
