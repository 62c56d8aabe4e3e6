package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Anveeka07/TaskManager/internal/domain"
)

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends an error message in the {"message": ...} envelope clients expect.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation, domain.KindInvalidID:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError answers with the classified message, or with fallback for internal
// failures whose cause is logged but never sent to the client.
func (r *Router) respondError(w http.ResponseWriter, req *http.Request, err error, fallback string) {
	var de *domain.Error
	if errors.As(err, &de) && de.Kind != domain.KindInternal {
		writeError(w, statusForKind(de.Kind), de.Message)
		return
	}
	r.logger.ErrorContext(req.Context(), fallback, "error", err, "path", req.URL.Path)
	writeError(w, http.StatusInternalServerError, fallback)
}

// decodeJSON reads a size-limited body holding exactly one JSON value into dst.
// An empty body leaves dst untouched.
func (r *Router) decodeJSON(w http.ResponseWriter, req *http.Request, dst any) bool {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxBodyBytes)
	dec := json.NewDecoder(req.Body)
	err := dec.Decode(dst)
	if errors.Is(err, io.EOF) {
		return true
	}
	if err == nil {
		if extra := dec.Decode(&json.RawMessage{}); !errors.Is(extra, io.EOF) {
			err = errTrailingData
			if extra != nil {
				err = extra
			}
		}
	}
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return false
	}
	writeError(w, http.StatusBadRequest, "Invalid JSON body")
	return false
}

var errTrailingData = errors.New("trailing data after JSON body")
