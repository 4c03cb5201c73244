package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"restaurant-pos/internal/domain"
)

// WriteJSON sends v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteProblem sends a simplified RFC 7807 problem document.
func WriteProblem(w http.ResponseWriter, code int, typ, detail string, extra map[string]any) {
	resp := map[string]any{
		"type":   typ,
		"title":  http.StatusText(code),
		"status": code,
		"detail": detail,
	}
	for k, v := range extra {
		resp[k] = v
	}
	WriteJSON(w, code, resp)
}

func AtoiDefault(s string, d int) int {
	if s == "" {
		return d
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return n
}

// StatusFor maps a domain error code onto an HTTP status.
func StatusFor(kind string) int {
	switch kind {
	case "":
		return http.StatusInternalServerError
	case "not_found":
		return http.StatusNotFound
	case "conflict", "duplicate_request":
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

// WriteError renders err as a problem document typed by its domain code.
func WriteError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	code := StatusFor(kind)
	if kind == "" {
		WriteProblem(w, code, "internal_error", "internal error", nil)
		return
	}
	var extra map[string]any
	var mismatch *domain.SplitMismatchError
	if errors.As(err, &mismatch) {
		extra = map[string]any{"remaining": mismatch.Remaining}
	}
	WriteProblem(w, code, kind, err.Error(), extra)
}
