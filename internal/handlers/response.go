package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/artgallery/server/internal/models"
)

const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, models.ErrorResponse{Error: message})
}

func respondInvalid(w http.ResponseWriter, fields []models.FieldError) {
	respondJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request.", Fields: fields})
}

// decodeJSON reads a JSON body into dst; an empty body leaves dst untouched
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// decodeAndValidate decodes and validates a request body, writing the 400 itself on failure
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(r, dst); err != nil {
		respondError(w, http.StatusBadRequest, "Request body must be valid JSON.")
		return false
	}
	if fields := models.ValidateRequest(dst); len(fields) > 0 {
		respondInvalid(w, fields)
		return false
	}
	return true
}

// statusFor maps gallery errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrArtworkNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrFetchInProgress):
		return http.StatusConflict
	case errors.Is(err, models.ErrNotUserSubmission):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrInvalidSortKey), errors.Is(err, models.ErrInvalidTheme):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
