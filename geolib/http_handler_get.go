package geolib

import "net/http"

func (h httpHandler) handleProvide(w http.ResponseWriter, req *http.Request) {
	record, outcome, err := h.geo.Provide(req.Context(), requestFromQuery(req))
	if err != nil {
		h.sendGeolocatorError(w, err)

		return
	}

	statusCode := http.StatusOK
	if outcome == OutcomeCreated {
		statusCode = http.StatusCreated
	}

	h.encodeJSON(w, statusCode, record)
}

func (h httpHandler) handleDestroy(w http.ResponseWriter, req *http.Request) {
	if err := h.geo.Delete(req.Context(), requestFromQuery(req)); err != nil {
		h.sendGeolocatorError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
