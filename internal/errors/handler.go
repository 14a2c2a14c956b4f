package errors

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5/middleware"
)

// Problem type URIs.
const (
	TypeValidation  = "/errors/validation"
	TypeNotFound    = "/errors/not-found"
	TypeRateLimit   = "/errors/rate-limit"
	TypeInternal    = "/errors/internal"
	TypeTimeout     = "/errors/timeout"
	TypeGridSource  = "/errors/grid-source"
	TypeUnparseable = "/errors/unparseable"
)

// ProblemDetails is an RFC 7807 problem document. Extensions are written
// as top-level members but never replace the standard ones.
type ProblemDetails struct {
	Type     string
	Title    string
	Status   int
	Detail   string
	Instance string

	Extensions map[string]any
}

func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(pd.Extensions)+5)
	for k, v := range pd.Extensions {
		doc[k] = v
	}
	doc["type"] = pd.Type
	doc["title"] = pd.Title
	doc["status"] = pd.Status
	if pd.Detail != "" {
		doc["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		doc["instance"] = pd.Instance
	}
	return json.Marshal(doc)
}

// NewProblemDetails titles the problem with the status text.
func NewProblemDetails(status int, problemType, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      http.StatusText(status),
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: map[string]any{},
	}
}

// WithExtension sets an extension member and returns pd.
func (pd *ProblemDetails) WithExtension(key string, value any) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// appErrorStatus maps AppError types to a response status and problem type.
// Types not listed are internal errors.
var appErrorStatus = map[ErrorType]struct {
	status int
	typ    string
}{
	ErrTypeNotFound:   {http.StatusNotFound, TypeNotFound},
	ErrTypeValidation: {http.StatusBadRequest, TypeValidation},
	ErrTypeNetwork:    {http.StatusBadGateway, TypeGridSource},
	ErrTypeParsing:    {http.StatusUnprocessableEntity, TypeUnparseable},
	ErrTypeStorage:    {http.StatusInternalServerError, TypeGridSource},
}

// ErrorHandler turns handler errors into problem responses and logs them.
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler returns an ErrorHandler. With includeStack, 5xx problems
// carry the goroutine stack.
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError writes err as a problem response. A nil err writes nothing.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	problem := h.ErrorToProblem(err, r)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
		if h.includeStack {
			problem.WithExtension("stack", stackTrace())
		}
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	h.write(w, r, problem)
}

// ErrorToProblem classifies err. Context expiry is a timeout, APIError and
// AppError carry their own classification, anything else is internal.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if Is(err, context.DeadlineExceeded) || Is(err, context.Canceled) {
		return NewProblemDetails(http.StatusGatewayTimeout, TypeTimeout,
			"The request took too long to process and was cancelled", r.URL.Path)
	}

	var apiErr *APIError
	if As(err, &apiErr) {
		problem := NewProblemDetails(apiErr.Status, apiErr.Type, apiErr.Message, r.URL.Path).
			WithExtension("error_code", string(apiErr.Code))
		if apiErr.Details != nil {
			problem.WithExtension("details", apiErr.Details)
		}
		return problem
	}

	var appErr *AppError
	if As(err, &appErr) {
		m, ok := appErrorStatus[appErr.Type]
		if !ok {
			m.status, m.typ = http.StatusInternalServerError, TypeInternal
		}
		return NewProblemDetails(m.status, m.typ, appErr.Message, r.URL.Path).
			WithExtension("error_type", string(appErr.Type))
	}

	return NewProblemDetails(http.StatusInternalServerError, TypeInternal,
		"An unexpected error occurred while processing your request", r.URL.Path)
}

// NotFound is the router's 404 handler.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, NewProblemDetails(http.StatusNotFound, TypeNotFound,
		"The requested resource was not found", r.URL.Path))
}

// MethodNotAllowed is the router's 405 handler.
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, NewProblemDetails(http.StatusMethodNotAllowed, TypeValidation,
		"Method "+r.Method+" is not allowed for this endpoint", r.URL.Path))
}

func (h *ErrorHandler) write(w http.ResponseWriter, r *http.Request, pd *ProblemDetails) {
	if id := middleware.GetReqID(r.Context()); id != "" {
		pd.WithExtension("trace_id", id)
	}
	body, err := json.Marshal(pd)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to encode problem", slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(pd.Status)
	_, _ = w.Write(body)
}

func stackTrace() string {
	buf := make([]byte, 8<<10)
	return string(buf[:runtime.Stack(buf, false)])
}
