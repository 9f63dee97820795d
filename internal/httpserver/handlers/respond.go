package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"haat/internal/apperr"
)

const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, v interface{}) {
	respondStatus(w, http.StatusOK, v)
}

func respondStatus(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

type errorBody struct {
	Code    apperr.Kind `json:"code"`
	Message string      `json:"message"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindUnauthorized, apperr.KindInvalidToken, apperr.KindTokenExpired, apperr.KindRevokedOrInvalid:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindConflict, apperr.KindInvalidTransition, apperr.KindInsufficientStock:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// ErrorWriter renders errors as {"error":{"code","message"}}. Internal errors
// are logged with the request id and reported with a generic message.
func ErrorWriter(lg *zap.SugaredLogger) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		kind := apperr.KindOf(err)
		status := StatusFor(kind)
		msg := apperr.MessageOf(err)
		if status == http.StatusInternalServerError {
			lg.Errorw("request failed", "method", r.Method, "path", r.URL.Path,
				"request_id", middleware.GetReqID(r.Context()), "error", err)
			kind, msg = apperr.KindInternal, "internal server error"
		}
		respondStatus(w, status, map[string]any{"error": errorBody{Code: kind, Message: msg}})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body required")
		}
		return apperr.Validation("malformed JSON body: %v", err)
	}
	return nil
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}
