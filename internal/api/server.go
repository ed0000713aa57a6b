// Package api serves the computed quantities over HTTP:
// GET /api/v2/{quantity}/{calculation|sidemenu|plot} plus a status
// endpoint and the Prometheus metrics.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/ciefunctions/internal/colorimetry"
	"github.com/banshee-data/ciefunctions/internal/httputil"
	"github.com/banshee-data/ciefunctions/internal/monitoring"
	"github.com/banshee-data/ciefunctions/internal/plotpage"
	"github.com/banshee-data/ciefunctions/internal/sidemenu"
	"github.com/banshee-data/ciefunctions/internal/timeutil"
)

// Version is the API version reported by the status endpoint.
const Version = "v2"

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Options configures a Server. The zero value is usable.
type Options struct {
	// Clock drives the status uptime; nil means the wall clock.
	Clock timeutil.Clock
	// Plot configures the echarts pages of the plot route.
	Plot plotpage.Options
	// MathJax overrides the MathJax script of the side menu.
	MathJax string
}

type Server struct {
	engine  *colorimetry.Engine
	uptime  *timeutil.Uptime
	plot    plotpage.Options
	mathJax string
}

func NewServer(engine *colorimetry.Engine, o Options) *Server {
	return &Server{
		engine:  engine,
		uptime:  timeutil.StartUptime(o.Clock),
		plot:    o.Plot,
		mathJax: o.MathJax,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware tags each request with an X-Request-Id, then logs
// status, method, path, query and duration and counts the response by
// matched route.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		monitoring.HTTPRequests.WithLabelValues(route, strconv.Itoa(lrw.statusCode)).Inc()
		monitoring.Logf(
			"[%s] %s %s%s%s %vms id=%s",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6, id,
		)
	})
}

// getOnly rejects every method but GET before routing.
func getOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httputil.MethodNotAllowed(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/{quantity}/{route}", s.handleQuantity)
	mux.HandleFunc("/api/v2/status", s.handleStatus)
	mux.HandleFunc("/api/v1", s.handleV1)
	mux.HandleFunc("/api/v1/", s.handleV1)
	mux.Handle("/metrics", monitoring.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httputil.NotFound(w)
	})
	return mux
}

// Handler is the complete HTTP handler: logging, the GET check and the
// routes of ServeMux.
func (s *Server) Handler() http.Handler {
	return Wrap(s.ServeMux())
}

// Wrap applies the access log and the GET check to a mux that may carry
// routes besides those of ServeMux.
func Wrap(mux http.Handler) http.Handler {
	return LoggingMiddleware(getOnly(mux))
}

func (s *Server) handleQuantity(w http.ResponseWriter, r *http.Request) {
	q, err := colorimetry.ParseQuantity(r.PathValue("quantity"))
	if err != nil {
		httputil.NotFound(w)
		return
	}

	route := r.PathValue("route")
	switch route {
	case "calculation", "sidemenu", "plot":
	default:
		writeError(w, &Error{
			Status:  http.StatusNotFound,
			Title:   "NOT FOUND",
			Message: "Invalid value (" + route + ") for route.",
			Suggestion: "Please ensure that the value of your route is supported. " +
				"The supported endpoints are: 'calculation', 'sidemenu' or 'plot'.",
		})
		return
	}

	p, err := ParseParams(q, r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	switch route {
	case "calculation":
		res, err := s.engine.Compute(q, p)
		if err != nil {
			writeError(w, err)
			return
		}
		httputil.WriteRaw(w, http.StatusOK, "application/json", httputil.CachePrivate, res.JSON)
	case "sidemenu":
		m, err := sidemenu.Build(s.engine, q, p)
		if err != nil {
			writeError(w, err)
			return
		}
		m.MathJax = s.mathJax
		page, err := m.HTML()
		if err != nil {
			writeError(w, err)
			return
		}
		httputil.WriteRaw(w, http.StatusOK, "text/html; charset=utf-8", httputil.CachePrivate, page)
	case "plot":
		page, err := plotpage.Render(s.engine, q, p, s.plot)
		if err != nil {
			writeError(w, err)
			return
		}
		httputil.WriteRaw(w, http.StatusOK, "text/html; charset=utf-8", httputil.CachePrivate, page)
	}
}

// statusResponse is the body of GET /api/v2/status.
type statusResponse struct {
	Status  int    `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", httputil.CacheNoStore)
	httputil.WriteJSON(w, http.StatusOK, statusResponse{
		Status:  http.StatusOK,
		Uptime:  strconv.FormatFloat(s.uptime.Elapsed().Seconds(), 'f', -1, 64) + "s",
		Version: Version,
	})
}

func (s *Server) handleV1(w http.ResponseWriter, r *http.Request) {
	writeError(w, &Error{
		Status:     http.StatusNotImplemented,
		Title:      "NOT SUPPORTED",
		Message:    "API v1 is not supported anymore.",
		Suggestion: "Please use the newest version of the API available (" + Version + ").",
	})
}
