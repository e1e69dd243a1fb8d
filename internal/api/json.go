package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"strayfinder/internal/apperr"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return apperr.NewValidation(apperr.InvalidContentType, "expected application/json")
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.NewValidation(apperr.InvalidJSON, "malformed request body")
	}
	return nil
}

// statusAndCode maps the internal error taxonomy to the wire {code,status}
// pair documented in spec.md §4.8 and §7.
func statusAndCode(err error) (int, string) {
	ve, ok := err.(*apperr.ValidationError)
	if !ok {
		return http.StatusInternalServerError, "internalError"
	}
	switch ve.Cat {
	case apperr.UnknownMap:
		return http.StatusNotFound, "mapNotFound"
	case apperr.UnknownToken:
		return http.StatusUnauthorized, "unknownToken"
	case apperr.InvalidToken:
		return http.StatusUnauthorized, "invalidToken"
	case apperr.InvalidMethod:
		return http.StatusMethodNotAllowed, "invalidMethod"
	default:
		return http.StatusBadRequest, "invalidArgument"
	}
}

func writeAPIError(w http.ResponseWriter, err error) {
	status, code := statusAndCode(err)
	writeJSON(w, status, errorBody{Code: code, Message: err.Error()})
}
