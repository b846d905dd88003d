package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"epistats/internal/aggregate"
	"epistats/pkg/platform/httputil"
	"epistats/pkg/requestcontext"

	dErrors "epistats/pkg/domain-errors"
)

// Service defines the aggregate operations the HTTP layer needs.
type Service interface {
	Get(ctx context.Context, name string) (*aggregate.CountryAggregate, error)
	Insert(ctx context.Context, agg aggregate.CountryAggregate) error
	Update(ctx context.Context, agg aggregate.CountryAggregate) error
	Delete(ctx context.Context, name string) error
}

// ExportInvalidator drops cached export payloads after a mutation. The
// aggregate table feeds exports, so stale cache entries go with it.
type ExportInvalidator interface {
	InvalidateExports(ctx context.Context)
}

// Handler wires snapshot-totals endpoints to the aggregate service.
type Handler struct {
	service     Service
	invalidator ExportInvalidator
	logger      *slog.Logger
}

// New constructs an aggregate handler with its dependencies.
func New(service Service, invalidator ExportInvalidator, logger *slog.Logger) *Handler {
	return &Handler{
		service:     service,
		invalidator: invalidator,
		logger:      logger,
	}
}

// Register mounts the read-only aggregate endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/aggregate/{country}", h.HandleGet)
}

// RegisterProtected mounts the mutating endpoints; the router wraps the group
// with the auth middleware. The dateless DELETE /data/{country} legacy path
// also lands here - bulk deletes always target the flattened table.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/aggregate", h.HandleInsert)
	r.Put("/aggregate/{country}", h.HandleUpdate)
	r.Delete("/aggregate/{country}", h.HandleDelete)
	r.Delete("/data/{country}", h.HandleDelete)
}

// HandleGet handles GET /aggregate/{country}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	row, err := h.service.Get(ctx, chi.URLParam(r, "country"))
	if err != nil {
		h.writeError(ctx, w, "get aggregate failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAggregate(*row))
}

// HandleInsert handles POST /aggregate.
func (h *Handler) HandleInsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AggregateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if req.Country == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "country is required"))
		return
	}

	agg := req.Aggregate("")
	if err := h.service.Insert(ctx, agg); err != nil {
		h.writeError(ctx, w, "insert aggregate failed", err)
		return
	}

	h.invalidator.InvalidateExports(ctx)
	h.logger.InfoContext(ctx, "aggregate inserted", "request_id", requestID, "country", agg.CountryName)
	httputil.WriteJSON(w, http.StatusCreated, FromAggregate(agg))
}

// HandleUpdate handles PUT /aggregate/{country}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	countryName := chi.URLParam(r, "country")

	req, ok := httputil.DecodeAndPrepare[AggregateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	agg := req.Aggregate(countryName)
	if err := h.service.Update(ctx, agg); err != nil {
		h.writeError(ctx, w, "update aggregate failed", err)
		return
	}

	h.invalidator.InvalidateExports(ctx)
	h.logger.InfoContext(ctx, "aggregate updated", "request_id", requestID, "country", agg.CountryName)
	httputil.WriteJSON(w, http.StatusOK, FromAggregate(agg))
}

// HandleDelete handles DELETE /aggregate/{country} and the legacy
// DELETE /data/{country} (dateless bulk delete).
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	countryName := chi.URLParam(r, "country")

	if err := h.service.Delete(ctx, countryName); err != nil {
		h.writeError(ctx, w, "delete aggregate failed", err)
		return
	}

	h.invalidator.InvalidateExports(ctx)
	h.logger.InfoContext(ctx, "aggregate deleted",
		"request_id", requestcontext.RequestID(ctx),
		"country", countryName,
	)
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "data for country " + countryName + " deleted"})
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
