// Package transport exposes the ingestion endpoint and the ledger read model
// over HTTP.
package transport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-tally/core"
)

// Service is the application surface the HTTP layer needs.
type Service interface {
	IngestEvent(ctx context.Context, req core.IngestRequest) (core.IngestResult, error)
	GetLedger(ctx context.Context) (core.Ledger, error)
}

type Handler struct {
	service         Service
	signatureHeader string
	maxBodyBytes    int64
	logger          core.Logger
}

type HandlerOption func(*Handler)

func WithSignatureHeader(name string) HandlerOption {
	return func(h *Handler) {
		if name != "" {
			h.signatureHeader = name
		}
	}
}

func WithMaxBodyBytes(limit int64) HandlerOption {
	return func(h *Handler) {
		if limit > 0 {
			h.maxBodyBytes = limit
		}
	}
}

func WithLogger(logger core.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewHandler(service Service, options ...HandlerOption) *Handler {
	h := &Handler{
		service:         service,
		signatureHeader: core.DefaultSignatureHeader,
		maxBodyBytes:    defaultMaxBodyBytes,
		logger:          glog.Nop(),
	}
	for _, option := range options {
		if option != nil {
			option(h)
		}
	}
	return h
}

const defaultMaxBodyBytes = 1 << 20

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handler.healthz)
	r.Post("/webhooks/payments", handler.ingest)
	r.Get("/ledger", handler.ledger)

	return r
}
