package middleware

import (
	"net/http"
	"time"

	"github.com/craigwongva/pz-access/pkg/logging"
	"github.com/go-chi/chi"
	chi_middleware "github.com/go-chi/chi/middleware"
	log "github.com/sirupsen/logrus"
)

const (
	LogFieldRemoteAddr = "remote_address"
	LogFieldRequestID  = "request_id"
	LogFieldDuration   = "duration"
	LogFieldBytes      = "bytes_written"
)

// RequestLogFields returns the fields identifying a request in log entries.
func RequestLogFields(r *http.Request) log.Fields {
	fields := log.Fields{
		logging.LogFieldMethod: r.Method,
		logging.LogFieldURL:    r.URL.String(),
		LogFieldRemoteAddr:     r.RemoteAddr,
	}
	if requestID := chi_middleware.GetReqID(r.Context()); len(requestID) > 0 {
		fields[LogFieldRequestID] = requestID
	}
	if id := chi.URLParam(r, "id"); len(id) > 0 {
		fields[logging.LogFieldDeploymentGroup] = id
	}
	return fields
}

// RequestLogger logs every request once it has been served.
func RequestLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chi_middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			fields := RequestLogFields(r)
			fields[logging.LogFieldStatusCode] = ww.Status()
			fields[LogFieldDuration] = time.Since(start).String()
			fields[LogFieldBytes] = ww.BytesWritten()

			logger := log.WithFields(fields)
			if ww.Status() >= http.StatusInternalServerError {
				logger.Warnf("%s %s", r.Method, r.URL.Path)
			} else {
				logger.Debugf("%s %s", r.Method, r.URL.Path)
			}
		}
		return http.HandlerFunc(fn)
	}
}
