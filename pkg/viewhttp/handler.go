// Package viewhttp exposes dispatch pipelines as chi handlers.
package viewhttp

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-viewkit/pkg/dispatch"
)

// RequestIDHeader carries the id assigned to every dispatched request.
const RequestIDHeader = "X-Request-Id"

// ActionFunc runs a controller action and returns its result: a map, a
// struct, a *view.Model, a dispatch.Responder, nil or false.
type ActionFunc func(r *http.Request) (any, error)

// Option configures a Handler.
type Option func(*Handler)

// WithLogger routes request logs to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// Handler adapts controller actions to http.HandlerFunc.
type Handler struct {
	pipeline *dispatch.Pipeline
	logger   zerolog.Logger
}

// New returns a Handler dispatching through pipeline.
func New(pipeline *dispatch.Pipeline, options ...Option) *Handler {
	h := &Handler{
		pipeline: pipeline,
		logger:   zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Action returns a handler that runs fn and renders its result for
// controller. The action name is taken from the "action" URL parameter,
// then from action, then defaults to "index".
func (h *Handler) Action(controller any, action string, fn ActionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)
		logger := h.logger.With().Str("request_id", requestID).Logger()

		name := chi.URLParam(r, "action")
		if name == "" {
			name = action
		}

		var result any
		if fn != nil {
			var err error
			result, err = fn(r)
			if err != nil {
				h.fail(w, logger, err)
				return
			}
		}

		resp, err := h.pipeline.Run(r.Context(), dispatch.Request{
			Controller: controller,
			Action:     name,
			Result:     result,
		})
		if err != nil {
			h.fail(w, logger, err)
			return
		}

		if resp.Responder != nil {
			resp.Responder.ServeHTTP(w, r)
			return
		}

		contentType := resp.ContentType
		if contentType == "" {
			contentType = "text/html"
		}
		w.Header().Set("Content-Type", contentType+"; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := io.WriteString(w, resp.Body); err != nil {
			logger.Debug().Err(err).Msg("write response")
		}

		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("action", name).
			Dur("duration", time.Since(start)).
			Msg("view rendered")
	}
}

func (h *Handler) fail(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status := StatusCode(err)
	logger.Error().Err(err).Int("status", status).Msg("dispatch failed")
	http.Error(w, http.StatusText(status), status)
}

// StatusCode returns the status carried by err or one of the errors it
// wraps, 500 otherwise.
func StatusCode(err error) int {
	var coded interface{ StatusCode() int }
	if errors.As(err, &coded) {
		if status := coded.StatusCode(); status >= 400 && status <= 599 {
			return status
		}
	}
	return http.StatusInternalServerError
}

// Route binds a method and pattern to a controller action.
type Route struct {
	Method     string
	Pattern    string
	Controller any
	Action     string
	Fn         ActionFunc
}

// Routes mounts every route on r.
func (h *Handler) Routes(r chi.Router, routes ...Route) {
	for _, route := range routes {
		method := route.Method
		if method == "" {
			method = http.MethodGet
		}
		r.Method(method, route.Pattern, h.Action(route.Controller, route.Action, route.Fn))
	}
}

// NewRouter returns a chi router carrying the usual middleware stack and
// the given routes.
func (h *Handler) NewRouter(routes ...Route) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	h.Routes(r, routes...)
	return r
}
