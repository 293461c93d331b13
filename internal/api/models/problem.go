package models

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC 7807 problem document, served as
// application/problem+json for every error response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	// Code identifies the rejected business rule, e.g. CLAIM_QUOTA_EXCEEDED.
	Code    string       `json:"code,omitempty"`
	TraceID string       `json:"traceId"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Problem type URIs.
const (
	ProblemTypeValidation       = "https://api.usestarshield.com/problems/validation-error"
	ProblemTypeNotFound         = "https://api.usestarshield.com/problems/not-found"
	ProblemTypeBusinessRule     = "https://api.usestarshield.com/problems/business-rule"
	ProblemTypeTooManyRequests  = "https://api.usestarshield.com/problems/too-many-requests"
	ProblemTypeTooLarge         = "https://api.usestarshield.com/problems/payload-too-large"
	ProblemTypeUnsupportedMedia = "https://api.usestarshield.com/problems/unsupported-media-type"
	ProblemTypeInternal         = "https://api.usestarshield.com/problems/internal-error"
	ProblemTypeUnavailable      = "https://api.usestarshield.com/problems/service-unavailable"
	ProblemTypeTLSRequired      = "https://api.usestarshield.com/problems/tls-required"
)

// Problem codes for business rule failures.
const (
	CodeDuplicateDevice    = "DUPLICATE_DEVICE"
	CodeMissingIdentifier  = "MISSING_IDENTIFIER"
	CodeDeviceNotFound     = "DEVICE_NOT_FOUND"
	CodeNoActiveWarranty   = "NO_ACTIVE_WARRANTY"
	CodeWarrantyExpired    = "WARRANTY_EXPIRED"
	CodeClaimQuotaExceeded = "CLAIM_QUOTA_EXCEEDED"
	CodeClaimNotFound      = "CLAIM_NOT_FOUND"
	CodeInvalidStatus      = "INVALID_STATUS"
	CodeProtocolCollision  = "PROTOCOL_COLLISION"
	CodeRegistrationFailed = "REGISTRATION_FAILED"
)

var problemTitles = map[string]string{
	ProblemTypeValidation:       "Validation error",
	ProblemTypeNotFound:         "Not found",
	ProblemTypeBusinessRule:     "Business rule violation",
	ProblemTypeTooManyRequests:  "Too many requests",
	ProblemTypeTooLarge:         "Payload too large",
	ProblemTypeUnsupportedMedia: "Unsupported media type",
	ProblemTypeInternal:         "Internal server error",
	ProblemTypeUnavailable:      "Service unavailable",
	ProblemTypeTLSRequired:      "TLS required",
}

// NewProblem builds a Problem. An empty title falls back to the one
// registered for problemType.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	if title == "" {
		title = problemTitles[problemType]
	}
	return &Problem{Type: problemType, Title: title, Status: status, TraceID: traceID}
}

func newDetailed(problemType string, status int, traceID, detail string) *Problem {
	return NewProblem(problemType, "", status, traceID).WithDetail(detail)
}

// WithDetail sets the occurrence-specific explanation.
func (p *Problem) WithDetail(detail string) *Problem {
	p.Detail = detail
	return p
}

// WithInstance sets the request path the problem occurred on.
func (p *Problem) WithInstance(instance string) *Problem {
	p.Instance = instance
	return p
}

// WithCode sets the business rule code.
func (p *Problem) WithCode(code string) *Problem {
	p.Code = code
	return p
}

// WithErrors attaches field errors.
func (p *Problem) WithErrors(errors []FieldError) *Problem {
	p.Errors = errors
	return p
}

// Write sends the problem with its status and the request ID header.
func (p *Problem) Write(w http.ResponseWriter) {
	body, err := json.Marshal(p)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		h.Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_, _ = w.Write(append(body, '\n'))
}

// NewBadRequest is a 400 listing the rejected fields.
func NewBadRequest(traceID, detail string, errors []FieldError) *Problem {
	return newDetailed(ProblemTypeValidation, http.StatusBadRequest, traceID, detail).WithErrors(errors)
}

// NewNotFound is a 404.
func NewNotFound(traceID, detail string) *Problem {
	return newDetailed(ProblemTypeNotFound, http.StatusNotFound, traceID, detail)
}

// NewBusinessRule is a 400 for a request that is well formed but breaks a
// warranty or claim rule.
func NewBusinessRule(traceID, code, detail string) *Problem {
	return newDetailed(ProblemTypeBusinessRule, http.StatusBadRequest, traceID, detail).WithCode(code)
}

// NewTooManyRequests is a 429.
func NewTooManyRequests(traceID, detail string) *Problem {
	return newDetailed(ProblemTypeTooManyRequests, http.StatusTooManyRequests, traceID, detail)
}

// NewTooLarge is a 413.
func NewTooLarge(traceID, detail string) *Problem {
	return newDetailed(ProblemTypeTooLarge, http.StatusRequestEntityTooLarge, traceID, detail)
}

// NewInternalError is a 500. The detail must not carry internal error text.
func NewInternalError(traceID, detail string) *Problem {
	return newDetailed(ProblemTypeInternal, http.StatusInternalServerError, traceID, detail)
}

// NewServiceUnavailable is a 503.
func NewServiceUnavailable(traceID, detail string) *Problem {
	return newDetailed(ProblemTypeUnavailable, http.StatusServiceUnavailable, traceID, detail)
}
