// Package response writes JSON bodies and RFC 7807 problems for the API
// handlers.
package response

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/starshield/warranty/internal/api/middleware"
	"github.com/starshield/warranty/internal/api/models"
)

// JSON writes v with status.
func JSON(w http.ResponseWriter, _ *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// Created writes v with 201 and, when location is set, a Location header.
func Created(w http.ResponseWriter, r *http.Request, location string, v any) {
	if location != "" {
		w.Header().Set("Location", location)
	}
	JSON(w, r, http.StatusCreated, v)
}

// NoContent writes 204.
func NoContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// Problem writes p with the request path as its instance.
func Problem(w http.ResponseWriter, r *http.Request, p *models.Problem) {
	p.WithInstance(r.URL.Path).Write(w)
}

func requestID(r *http.Request) string {
	return middleware.GetRequestID(r.Context())
}

// BadRequest writes a 400 validation problem.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string, errors []models.FieldError) {
	Problem(w, r, models.NewBadRequest(requestID(r), detail, errors))
}

// ValidationFailed writes a 400 listing every rejected field.
func ValidationFailed(w http.ResponseWriter, r *http.Request, err *models.ValidationError) {
	BadRequest(w, r, "request validation failed", err.Errors)
}

// BusinessRule writes a 400 carrying the rule's code.
func BusinessRule(w http.ResponseWriter, r *http.Request, code, detail string) {
	Problem(w, r, models.NewBusinessRule(requestID(r), code, detail))
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, r *http.Request, code, detail string) {
	Problem(w, r, models.NewNotFound(requestID(r), detail).WithCode(code))
}

// TooLarge writes a 413 for a body over limit bytes.
func TooLarge(w http.ResponseWriter, r *http.Request, limit int64) {
	Problem(w, r, models.NewTooLarge(requestID(r), "request body exceeds "+strconv.FormatInt(limit, 10)+" bytes"))
}

// InternalError writes a 500.
func InternalError(w http.ResponseWriter, r *http.Request, code, detail string) {
	Problem(w, r, models.NewInternalError(requestID(r), detail).WithCode(code))
}

// Unavailable writes a 503. A positive retryAfter is sent as Retry-After,
// rounded up to whole seconds.
func Unavailable(w http.ResponseWriter, r *http.Request, code, detail string, retryAfter time.Duration) {
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
	}
	Problem(w, r, models.NewServiceUnavailable(requestID(r), detail).WithCode(code))
}
