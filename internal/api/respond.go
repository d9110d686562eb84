package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/cvilledata/crimedash/internal/analysis"
	"github.com/cvilledata/crimedash/internal/dataset"
	"github.com/cvilledata/crimedash/internal/logging"
)

// Response is the envelope for every API reply.
type Response struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata describes the response itself.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// APIError is a machine-readable error code plus a message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	codeInvalidParameter = "INVALID_PARAMETER"
	codeUnknownAggregate = "UNKNOWN_AGGREGATE"
	codeDataUnavailable  = "DATA_UNAVAILABLE"
	codeInternal         = "INTERNAL_ERROR"
)

func respondJSON(w http.ResponseWriter, r *http.Request, status int, resp *Response) {
	resp.Metadata = Metadata{Timestamp: time.Now().UTC(), RequestID: logging.RequestIDFromContext(r.Context())}
	data, err := json.Marshal(resp)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("write response")
	}
}

func respondOK(w http.ResponseWriter, r *http.Request, data interface{}) {
	respondJSON(w, r, http.StatusOK, &Response{Status: "success", Data: data})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, &Response{Status: "error", Error: &APIError{Code: code, Message: message}})
}

// respondFailure maps an error to a status code. A failed dataset load is
// 503: the request was fine, the data is not.
func respondFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, dataset.ErrDataLoad):
		logging.Ctx(r.Context()).Error().Err(err).Msg("dataset unavailable")
		respondError(w, r, http.StatusServiceUnavailable, codeDataUnavailable, err.Error())
	case errors.Is(err, analysis.ErrUnknownAggregate):
		respondError(w, r, http.StatusBadRequest, codeUnknownAggregate, err.Error())
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		respondError(w, r, http.StatusInternalServerError, codeInternal, "internal error")
	}
}
