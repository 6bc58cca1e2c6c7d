package geolib

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const requestTimeout = time.Minute

type httpHandler struct {
	geo *Geolocator
}

func (h httpHandler) handleGetStats(w http.ResponseWriter, req *http.Request) {
	response := struct {
		Results []*UsageStats `json:"results"`
	}{
		Results: h.geo.UsageStats(),
	}

	h.encodeJSON(w, http.StatusOK, response)
}

func (h httpHandler) encodeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	encoder := json.NewEncoder(w)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	encoder.SetEscapeHTML(false)
	encoder.Encode(data) // nolint: errcheck
}

func (h httpHandler) sendError(w http.ResponseWriter, err error, message string, statusCode int) {
	e := &httpError{
		message:    message,
		statusCode: statusCode,
		err:        err,
	}

	h.encodeJSON(w, e.StatusCode(), e)
}

func (h httpHandler) sendValidationErrors(w http.ResponseWriter, errs ...error) {
	messages := make([]string, 0, len(errs))

	for _, v := range errs {
		messages = append(messages, v.Error())
	}

	response := struct {
		Errors []string `json:"errors"`
	}{
		Errors: messages,
	}

	h.encodeJSON(w, http.StatusUnprocessableEntity, response)
}

// sendGeolocatorError maps errors of Geolocator to HTTP responses.
func (h httpHandler) sendGeolocatorError(w http.ResponseWriter, err error) {
	switch {
	case IsValidationError(err), errors.Is(err, ErrNoData):
		h.sendValidationErrors(w, err)
	case errors.Is(err, ErrNotFound):
		h.sendError(w, err, "Geolocation is not found", http.StatusNotFound)
	case errors.Is(err, ErrProvider):
		h.sendError(w, err, "Cannot fetch geolocation data", http.StatusBadGateway)
	case errors.Is(err, ErrPersistence):
		h.sendError(w, err, "Cannot save geolocation data", http.StatusInternalServerError)
	case errors.Is(err, ErrCache):
		h.sendError(w, err, "Cannot evict cached geolocation", http.StatusInternalServerError)
	case errors.Is(err, ErrGeolocatorShutdown):
		h.sendError(w, err, "Service is shutting down", http.StatusServiceUnavailable)
	default:
		h.sendError(w, err, "Cannot process geolocation", 0)
	}
}

// requestFromQuery extracts identifiers from query parameters. Both
// nested data[attributes][...] and plain forms are accepted.
func requestFromQuery(req *http.Request) Request {
	query := req.URL.Query()
	get := func(name string) string {
		if value := strings.TrimSpace(query.Get("data[attributes][" + name + "]")); value != "" {
			return value
		}

		return strings.TrimSpace(query.Get(name))
	}

	return Request{
		IPAddress: get("ip_address"),
		URL:       get("url"),
	}
}

func NewHTTPHandler(geo *Geolocator) http.Handler {
	handler := httpHandler{
		geo: geo,
	}
	router := chi.NewRouter()

	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(requestTimeout))
	router.Use(middleware.Recoverer)

	router.NotFound(func(w http.ResponseWriter, req *http.Request) {
		handler.sendError(w, nil, "Unknown path", http.StatusNotFound)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		handler.sendError(w, nil, "This HTTP method is not allowed", http.StatusMethodNotAllowed)
	})

	router.Route("/geolocations", func(r chi.Router) {
		r.Post("/", handler.handleCreate)
		r.Post("/batch", handler.handleBatch)
		r.Get("/provide", handler.handleProvide)
		r.Delete("/destroy", handler.handleDestroy)
	})
	router.Get("/stats", handler.handleGetStats)

	return router
}
