package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "gridview/internal/errors"
	"gridview/internal/exporter"
	"gridview/internal/grid"
	"gridview/internal/services"
	"gridview/internal/sheet"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// UpdateCellRequest is the body of PUT /columns/{header}/cells/{offset}.
// Value may be empty but must be present.
type UpdateCellRequest struct {
	Value *string `json:"value" validate:"required"`
}

// Bind implements render.Binder.
func (u *UpdateCellRequest) Bind(r *http.Request) error {
	return validate.Struct(u)
}

// HeadersResponse lists the header map.
type HeadersResponse struct {
	Headers []sheet.Header `json:"headers"`
}

// CellsResponse lists walker cells.
type CellsResponse struct {
	Cells []sheet.Cell `json:"cells"`
}

// RowResponse is one physical row.
type RowResponse struct {
	Row   int      `json:"row"`
	Cells []string `json:"cells"`
}

// ValuesResponse is a column's data cells.
type ValuesResponse struct {
	Header string   `json:"header"`
	Values []string `json:"values"`
}

// AggregateResponse carries a column sum or average.
type AggregateResponse struct {
	Header string  `json:"header"`
	Value  float64 `json:"value"`
}

// CellResponse is a single cell addressed by header and offset.
type CellResponse struct {
	Header string `json:"header"`
	Offset int    `json:"offset"`
	Value  string `json:"value"`
}

// GridHandler serves the grid routes.
type GridHandler struct {
	service      GridServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewGridHandler creates a grid handler.
func NewGridHandler(service GridServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *GridHandler {
	return &GridHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "grid_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the grid routes, to be mounted under /api.
func (h *GridHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/headers", h.GetHeaders)
	r.Get("/cells", h.GetCells)
	r.Get("/rows/{row}", h.GetRow)
	r.Get("/export", h.Export)
	r.Post("/reload", h.Reload)

	r.Route("/columns/{header}", func(r chi.Router) {
		r.Get("/", h.GetValues)
		r.Get("/sum", h.GetSum)
		r.Get("/average", h.GetAverage)
		r.Get("/find", h.FindRow)
		r.Get("/cells/{offset}", h.GetCell)
		r.Put("/cells/{offset}", h.SetCell)
	})
	return r
}

// GetHeaders handles GET /headers.
func (h *GridHandler) GetHeaders(w http.ResponseWriter, r *http.Request) {
	headers := h.service.Headers()
	if headers == nil {
		headers = []sheet.Header{}
	}
	render.JSON(w, r, HeadersResponse{Headers: headers})
}

// GetCells handles GET /cells.
func (h *GridHandler) GetCells(w http.ResponseWriter, r *http.Request) {
	cells, err := h.service.Cells(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if cells == nil {
		cells = []sheet.Cell{}
	}
	render.JSON(w, r, CellsResponse{Cells: cells})
}

// GetRow handles GET /rows/{row}.
func (h *GridHandler) GetRow(w http.ResponseWriter, r *http.Request) {
	row, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil || row < 1 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("row", "row must be a positive integer"))
		return
	}

	cells, err := h.service.Row(r.Context(), row)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, RowResponse{Row: row, Cells: cells})
}

// Reload handles POST /reload.
func (h *GridHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reload(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	render.NoContent(w, r)
}

// GetValues handles GET /columns/{header}?ignore_totals=bool.
func (h *GridHandler) GetValues(w http.ResponseWriter, r *http.Request) {
	header := headerParam(r)

	ignoreTotals, ok := h.boolQuery(w, r, "ignore_totals")
	if !ok {
		return
	}

	values, err := h.service.Values(r.Context(), header, ignoreTotals)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if values == nil {
		values = []string{}
	}
	render.JSON(w, r, ValuesResponse{Header: header, Values: values})
}

// GetSum handles GET /columns/{header}/sum.
func (h *GridHandler) GetSum(w http.ResponseWriter, r *http.Request) {
	header := headerParam(r)
	sum, err := h.service.Sum(r.Context(), header)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, AggregateResponse{Header: header, Value: sum})
}

// GetAverage handles GET /columns/{header}/average.
func (h *GridHandler) GetAverage(w http.ResponseWriter, r *http.Request) {
	header := headerParam(r)
	avg, err := h.service.Average(r.Context(), header)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, AggregateResponse{Header: header, Value: avg})
}

// FindRow handles GET /columns/{header}/find?value=.
func (h *GridHandler) FindRow(w http.ResponseWriter, r *http.Request) {
	header := headerParam(r)
	if !r.URL.Query().Has("value") {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("value", "value query parameter is required"))
		return
	}

	row, err := h.service.FindRow(r.Context(), header, r.URL.Query().Get("value"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, RowResponse{Cells: row})
}

// GetCell handles GET /columns/{header}/cells/{offset}.
func (h *GridHandler) GetCell(w http.ResponseWriter, r *http.Request) {
	header := headerParam(r)
	offset, ok := h.offsetParam(w, r)
	if !ok {
		return
	}

	value, err := h.service.Get(r.Context(), header, offset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, CellResponse{Header: header, Offset: offset, Value: value})
}

// SetCell handles PUT /columns/{header}/cells/{offset}.
func (h *GridHandler) SetCell(w http.ResponseWriter, r *http.Request) {
	header := headerParam(r)
	offset, ok := h.offsetParam(w, r)
	if !ok {
		return
	}

	var req UpdateCellRequest
	if err := render.Bind(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	if err := h.service.Set(r.Context(), header, offset, *req.Value); err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, CellResponse{Header: header, Offset: offset, Value: *req.Value})
}

// Export handles GET /export?header=a&header=b&ignore_totals=bool&bom=bool
// and streams the columns as CSV.
func (h *GridHandler) Export(w http.ResponseWriter, r *http.Request) {
	headers := r.URL.Query()["header"]
	if len(headers) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("header", "at least one header query parameter is required"))
		return
	}
	ignoreTotals, ok := h.boolQuery(w, r, "ignore_totals")
	if !ok {
		return
	}
	bom, ok := h.boolQuery(w, r, "bom")
	if !ok {
		return
	}

	table, err := h.service.Export(r.Context(), headers, ignoreTotals)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="export.csv"`)
	w.WriteHeader(http.StatusOK)
	if err := exporter.Write(w, table, exporter.WriteOptions{Headers: headers, BOMPrefix: bom}); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to stream export", slog.String("error", err.Error()))
	}
}

func (h *GridHandler) boolQuery(w http.ResponseWriter, r *http.Request, name string) (bool, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(name, "must be a boolean"))
		return false, false
	}
	return v, true
}

func (h *GridHandler) offsetParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	offset, err := strconv.Atoi(chi.URLParam(r, "offset"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("offset", "offset must be an integer"))
		return 0, false
	}
	return offset, true
}

// fail maps service errors to API errors and writes the problem response.
func (h *GridHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case apierrors.Is(err, services.ErrHeaderNotFound):
		resource := "header"
		if header := headerParam(r); header != "" {
			resource += " " + strconv.Quote(header)
		}
		err = apierrors.NotFoundError(resource)
	case apierrors.Is(err, services.ErrRowNotFound):
		err = apierrors.NotFoundError("matching row")
	case apierrors.Is(err, grid.ErrOutOfRange):
		err = apierrors.ErrValidation("position", err.Error())
	}
	h.errorHandler.HandleError(w, r, err)
}

func headerParam(r *http.Request) string {
	raw := chi.URLParam(r, "header")
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
