// Copyright The Notary Project Authors.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server serves signature inspection over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/notaryproject/sigscope/config"
	"github.com/notaryproject/sigscope/inspect"
	"github.com/notaryproject/sigscope/internal/metrics"
	"github.com/notaryproject/sigscope/oid"
	"github.com/notaryproject/sigscope/pdfsig"
	"github.com/notaryproject/sigscope/render"
)

// Routes served by the server.
const (
	RouteInspect = "/v1/inspect"
	RouteMetrics = "/metrics"
	RouteHealth  = "/healthz"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Server is the HTTP inspection service.
type Server struct {
	http.Server

	builder   *inspect.Builder
	registry  *oid.Registry
	metrics   *metrics.Metrics
	logger    logrus.FieldLogger
	maxUpload int64
}

// Option configures a Server.
type Option func(*Server)

// WithRegistry sets the registry used to name object identifiers in
// responses.
func WithRegistry(registry *oid.Registry) Option {
	return func(s *Server) {
		s.registry = registry
	}
}

// WithMetrics records request metrics and serves them on /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the request logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a server inspecting uploads with builder.
func New(cfg config.ServerConfig, builder *inspect.Builder, opts ...Option) *Server {
	s := &Server{
		builder:   builder,
		maxUpload: cfg.MaxUploadSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.builder == nil {
		s.builder = inspect.NewBuilder()
	}
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}
	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router(),
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
	return s
}

func (s *Server) router() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.instrument)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Infof("Failed Request: (%d:%s) for %s:'%s'", http.StatusNotFound, http.StatusText(http.StatusNotFound), r.Method, r.URL.String())
		writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})

	router.HandleFunc(RouteInspect, s.handleInspect).Methods(http.MethodPost)
	router.HandleFunc(RouteHealth, handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		router.Handle(RouteMetrics, s.metrics.Handler()).Methods(http.MethodGet)
	}
	return router
}

// Run serves on the configured address until ctx is done, then shuts the
// server down.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Listening on %s", s.Addr)
		errCh <- s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	format := render.FormatJSON
	if name := r.URL.Query().Get("format"); name != "" {
		f, err := render.ParseFormat(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		format = f
	}
	values, _ := strconv.ParseBool(r.URL.Query().Get("values"))

	body := r.Body
	if s.maxUpload > 0 {
		body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body: "+err.Error())
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "request body is empty")
		return
	}

	signatures, err := signaturesOf(r.Header.Get("Content-Type"), data)
	if err != nil {
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}
	report := s.builder.Build(r.Context(), signatures)

	var buf bytes.Buffer
	if err := render.Render(&buf, report, format, render.Options{Registry: s.registry, Values: values}); err != nil {
		s.logger.WithError(err).Error("Failed to render report")
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.WithError(err).Debug("Failed to write response")
	}
}

// envelopeMediaTypes are the upload media types decoded as a CMS envelope
// unless the body turns out to be a PDF document.
var envelopeMediaTypes = map[string]bool{
	"":                            true,
	"application/octet-stream":    true,
	"application/pkcs7-signature": true,
	"application/pkcs7-mime":      true,
	"application/cms":             true,
}

// signaturesOf interprets an upload as a PDF document or as a single
// encoded CMS envelope.
func signaturesOf(contentType string, data []byte) ([]inspect.Signature, error) {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch {
	case mediaType == "application/pdf":
		return pdfsig.Extract(data)
	case !envelopeMediaTypes[mediaType]:
		return nil, fmt.Errorf("unsupported media type %q", mediaType)
	case pdfsig.IsPDF(data):
		return pdfsig.Extract(data)
	}
	return []inspect.Signature{{Contents: data}}, nil
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Debug("Failed to write response")
	}
}
