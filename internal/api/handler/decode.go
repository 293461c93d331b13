// Package handler provides HTTP handlers for the StarShield warranty API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/starshield/warranty/internal/api/response"
)

// decodeJSON decodes the request body into dst, rejecting fields dst does
// not declare. On failure it writes the problem response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err == nil {
		return true
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		response.TooLarge(w, r, maxErr.Limit)
		return false
	}

	if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		response.BadRequest(w, r, "unknown field "+field, nil)
		return false
	}

	response.BadRequest(w, r, "invalid JSON body", nil)
	return false
}
