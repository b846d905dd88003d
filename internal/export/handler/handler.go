package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"epistats/internal/export"
	"epistats/pkg/platform/httputil"
	"epistats/pkg/requestcontext"

	dErrors "epistats/pkg/domain-errors"
)

// Service defines the export operations the HTTP layer needs.
type Service interface {
	ExportAll(ctx context.Context, format string) (*export.Payload, error)
	ExportOne(ctx context.Context, format, country string, columns []string) (*export.Payload, error)
	ExportMany(ctx context.Context, format string, countries []string, columns []string) (*export.Payload, error)
}

// Handler wires export endpoints to the projector service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an export handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the export endpoints. Exports are read-only and public.
func (h *Handler) Register(r chi.Router) {
	r.Get("/export/{format}", h.HandleExportAll)
	r.Get("/export/{format}/{country}", h.HandleExportOne)
	r.Get("/export/{format}/{country}/{columns}", h.HandleExportOne)
	r.Post("/export-multiple/{format}", h.HandleExportMany)
}

// HandleExportAll handles GET /export/{format}.
func (h *Handler) HandleExportAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	payload, err := h.service.ExportAll(ctx, chi.URLParam(r, "format"))
	if err != nil {
		h.writeError(ctx, w, "export all failed", err)
		return
	}
	writePayload(w, payload)
}

// HandleExportOne handles GET /export/{format}/{country}[/{columns}] with
// columns as a comma-separated path segment.
func (h *Handler) HandleExportOne(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	format := chi.URLParam(r, "format")
	countryName := chi.URLParam(r, "country")

	var columns []string
	if raw := chi.URLParam(r, "columns"); raw != "" {
		columns = strings.Split(raw, ",")
	}

	payload, err := h.service.ExportOne(ctx, format, countryName, columns)
	if err != nil {
		h.writeError(ctx, w, "export one failed", err)
		return
	}
	writePayload(w, payload)
}

// ExportManyRequest is the body for POST /export-multiple/{format}.
type ExportManyRequest struct {
	Countries []string `json:"countries"`
	Columns   []string `json:"columns"`
}

// Validate implements httputil.Validatable.
func (r *ExportManyRequest) Validate() error {
	if len(r.Countries) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "no countries provided for export")
	}
	return nil
}

// HandleExportMany handles POST /export-multiple/{format}.
func (h *Handler) HandleExportMany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ExportManyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	payload, err := h.service.ExportMany(ctx, chi.URLParam(r, "format"), req.Countries, req.Columns)
	if err != nil {
		h.writeError(ctx, w, "export many failed", err)
		return
	}
	writePayload(w, payload)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

func writePayload(w http.ResponseWriter, payload *export.Payload) {
	w.Header().Set("Content-Type", payload.ContentType)
	if payload.Filename != "" {
		w.Header().Set("Content-Disposition", `attachment; filename=`+payload.Filename)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload.Body)
}
