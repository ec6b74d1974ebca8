package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/m-aksenov/tinymon/internal/config"
	internalerrors "github.com/m-aksenov/tinymon/internal/errors"
	middlewareinternal "github.com/m-aksenov/tinymon/internal/middleware"
	"github.com/m-aksenov/tinymon/internal/service"
)

func Router(
	logger *zap.SugaredLogger,
	config *config.ServerConfig,
	envelopeService *service.EnvelopeService,
) chi.Router {
	router := chi.NewRouter()
	router.Use(middlewareinternal.LoggingMiddleware(logger))
	router.Use(middlewareinternal.GzipMiddleware)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(15 * time.Second))
	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		PingStorageHandler(w, r, envelopeService, logger)
	})
	router.Get("/hosts", func(w http.ResponseWriter, r *http.Request) {
		ListHostsHandler(w, r, envelopeService, logger)
	})
	router.Get("/hosts/{host}/envelopes", func(w http.ResponseWriter, r *http.Request) {
		ListEnvelopesHandler(w, r, envelopeService, logger, config)
	})
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		SummaryHandler(w, r, envelopeService, logger)
	})
	return router
}

// PingStorageHandler reports whether the storage backend is reachable.
func PingStorageHandler(w http.ResponseWriter, r *http.Request, envelopeService *service.EnvelopeService, logger *zap.SugaredLogger) {
	err := envelopeService.Ping(r.Context())
	if err != nil {
		logger.Errorw("Storage ping failed", "error", err)
		http.Error(w, "Failed to connect to storage: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ListHostsHandler returns every host the endpoint has heard from, with its
// sequence counters.
func ListHostsHandler(w http.ResponseWriter, r *http.Request, envelopeService *service.EnvelopeService, logger *zap.SugaredLogger) {
	summaries, err := envelopeService.Summaries(r.Context())
	if err != nil {
		logger.Errorw("Listing hosts failed", "error", err)
		http.Error(w, "Failed to list hosts: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summaries, logger)
}

// ListEnvelopesHandler returns the most recent envelopes of one host, newest
// first. The limit query parameter defaults to the configured retention.
func ListEnvelopesHandler(
	w http.ResponseWriter,
	r *http.Request,
	envelopeService *service.EnvelopeService,
	logger *zap.SugaredLogger,
	config *config.ServerConfig,
) {
	host := chi.URLParam(r, "host")
	if host == "" {
		http.Error(w, "Host not found ", http.StatusNotFound)
		return
	}

	limit, err := parseLimit(r, config.Retention)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	envelopes, err := envelopeService.ListEnvelopes(r.Context(), host, limit)
	if err != nil {
		if errors.Is(err, internalerrors.ErrHostNotFound) {
			http.Error(w, "Host not found ", http.StatusNotFound)
			return
		}
		logger.Errorw("Listing envelopes failed", "host", host, "error", err)
		http.Error(w, "Failed to list envelopes: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, envelopes, logger)
}

// SummaryHandler renders a plain text overview of all known hosts.
func SummaryHandler(w http.ResponseWriter, r *http.Request, envelopeService *service.EnvelopeService, logger *zap.SugaredLogger) {
	summaries, err := envelopeService.Summaries(r.Context())
	if err != nil {
		logger.Errorw("Listing hosts failed", "error", err)
		http.Error(w, "Failed to list hosts: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var result string
	for _, s := range summaries {
		result += fmt.Sprintf("%s: tick %d, %d envelopes, %d gaps, last seen %s\n",
			s.Host, s.LastTick, s.Envelopes, s.Gaps, s.LastSeen.Format(time.RFC3339))
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, result)
}
