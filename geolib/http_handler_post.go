package geolib

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/qri-io/jsonschema"
)

var handlePostRequestJSONSchema = mustParseJSONSchema(`{
    "type": "object",
    "required": [
        "data"
    ],
    "properties": {
        "data": {
            "type": "object",
            "required": [
                "attributes"
            ],
            "properties": {
                "attributes": {
                    "type": "object",
                    "additionalProperties": false,
                    "properties": {
                        "ip_address": {
                            "type": ["string", "null"]
                        },
                        "url": {
                            "type": ["string", "null"]
                        }
                    }
                }
            }
        }
    }
}`)

var handleBatchRequestJSONSchema = mustParseJSONSchema(`{
    "type": "object",
    "required": [
        "data"
    ],
    "properties": {
        "data": {
            "type": "array",
            "minItems": 1,
            "maxItems": 100,
            "items": {
                "type": "object",
                "required": [
                    "attributes"
                ],
                "properties": {
                    "attributes": {
                        "type": "object",
                        "additionalProperties": false,
                        "properties": {
                            "ip_address": {
                                "type": ["string", "null"]
                            },
                            "url": {
                                "type": ["string", "null"]
                            }
                        }
                    }
                }
            }
        }
    }
}`)

type requestEnvelope struct {
	Attributes Request `json:"attributes"`
}

type handlePostRequest struct {
	Data requestEnvelope `json:"data"`
}

type handleBatchRequest struct {
	Data []requestEnvelope `json:"data"`
}

type handleBatchResult struct {
	Request Request `json:"request"`
	Status  string  `json:"status"`
	Record  *Record `json:"record,omitempty"`
	Error   string  `json:"error,omitempty"`
}

func (h httpHandler) handleCreate(w http.ResponseWriter, req *http.Request) {
	parsedRequest := &handlePostRequest{}
	if !h.readJSON(w, req, handlePostRequestJSONSchema, parsedRequest) {
		return
	}

	record, err := h.geo.Submit(req.Context(), parsedRequest.Data.Attributes)
	if err != nil {
		h.sendGeolocatorError(w, err)

		return
	}

	h.encodeJSON(w, http.StatusCreated, record)
}

func (h httpHandler) handleBatch(w http.ResponseWriter, req *http.Request) {
	parsedRequest := &handleBatchRequest{}
	if !h.readJSON(w, req, handleBatchRequestJSONSchema, parsedRequest) {
		return
	}

	reqs := make([]Request, 0, len(parsedRequest.Data))

	for _, v := range parsedRequest.Data {
		reqs = append(reqs, v.Attributes)
	}

	results, err := h.geo.ProvideAll(req.Context(), reqs)
	if err != nil {
		h.sendGeolocatorError(w, err)

		return
	}

	response := struct {
		Results []handleBatchResult `json:"results"`
	}{
		Results: make([]handleBatchResult, 0, len(results)),
	}

	for _, v := range results {
		result := handleBatchResult{
			Request: v.Request,
			Status:  v.Outcome.String(),
			Record:  v.Record,
		}

		if v.Err != nil {
			result.Error = v.Err.Error()
		}

		response.Results = append(response.Results, result)
	}

	h.encodeJSON(w, http.StatusOK, response)
}

func (h httpHandler) readJSON(w http.ResponseWriter,
	req *http.Request,
	schema *jsonschema.Schema,
	target interface{}) bool {
	if !strings.Contains(req.Header.Get("Content-Type"), "application/json") {
		h.sendError(w, nil, "Incorrect content type", http.StatusUnsupportedMediaType)

		return false
	}

	bodyBytes, err := io.ReadAll(req.Body)

	req.Body.Close()

	if err != nil {
		h.sendError(w, err, "Cannot read request body", http.StatusBadRequest)

		return false
	}

	errs, err := schema.ValidateBytes(req.Context(), bodyBytes)
	if err != nil {
		h.sendError(w, err, "Cannot validate body", http.StatusBadRequest)

		return false
	}

	if len(errs) > 0 {
		h.sendError(w, errs[0], "Invalid request body", http.StatusBadRequest)

		return false
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		h.sendError(w, err, "Cannot parse request JSON", http.StatusBadRequest)

		return false
	}

	return true
}

func mustParseJSONSchema(data string) *jsonschema.Schema {
	rv := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(data), rv); err != nil {
		panic(err)
	}

	return rv
}
