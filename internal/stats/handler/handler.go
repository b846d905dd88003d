package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"epistats/internal/stats"
	"epistats/pkg/platform/httputil"
	"epistats/pkg/requestcontext"

	dErrors "epistats/pkg/domain-errors"
)

// Service defines the statistic operations the HTTP layer needs.
type Service interface {
	Get(ctx context.Context, countryName string) ([]stats.DailyStatistic, error)
	GetByDate(ctx context.Context, countryName string, date time.Time) (*stats.DailyStatistic, error)
	ListDates(ctx context.Context, countryName string) ([]time.Time, error)
	Insert(ctx context.Context, countryName string, date time.Time, counts stats.Counts) (*stats.DailyStatistic, error)
	Upsert(ctx context.Context, countryName string, date time.Time, counts stats.Counts) (*stats.DailyStatistic, error)
	Delete(ctx context.Context, countryName string, date time.Time) error
}

// CountryLister backs GET /countries.
type CountryLister interface {
	List(ctx context.Context) ([]string, error)
}

// ExportInvalidator drops cached export payloads after a mutation. Daily rows
// feed exports in the per-date schema variant, so writes here stale the cache
// the same way aggregate writes do.
type ExportInvalidator interface {
	InvalidateExports(ctx context.Context)
}

// Handler wires daily statistic endpoints to the statistics service.
type Handler struct {
	service     Service
	countries   CountryLister
	invalidator ExportInvalidator
	logger      *slog.Logger
}

// New constructs a statistics handler with its dependencies.
func New(service Service, countries CountryLister, invalidator ExportInvalidator, logger *slog.Logger) *Handler {
	return &Handler{
		service:     service,
		countries:   countries,
		invalidator: invalidator,
		logger:      logger,
	}
}

// Register mounts the read-only statistic endpoints. GET /data/{country} is
// mounted by the router, which picks the schema variant serving it.
func (h *Handler) Register(r chi.Router) {
	r.Get("/countries", h.HandleListCountries)
	r.Get("/data/{country}/dates", h.HandleListDates)
	r.Get("/data/{country}/{date}", h.HandleGetByDate)
}

// RegisterProtected mounts the mutating endpoints; the router wraps the group
// with the auth middleware.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/data", h.HandleInsert)
	r.Put("/data/day/{country}", h.HandleUpsert)
	r.Delete("/data/{country}/{date}", h.HandleDelete)
}

// HandleListCountries handles GET /countries.
func (h *Handler) HandleListCountries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	names, err := h.countries.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list countries failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, names)
}

// HandleGet handles GET /data/{country}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	countryName := chi.URLParam(r, "country")

	rows, err := h.service.Get(ctx, countryName)
	if err != nil {
		h.writeError(ctx, w, "get statistics failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromStatistics(countryName, rows))
}

// HandleGetByDate handles GET /data/{country}/{date}.
func (h *Handler) HandleGetByDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	countryName := chi.URLParam(r, "country")
	date, ok := parseDateParam(w, chi.URLParam(r, "date"))
	if !ok {
		return
	}

	row, err := h.service.GetByDate(ctx, countryName, date)
	if err != nil {
		h.writeError(ctx, w, "get statistic by date failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromStatistic(countryName, *row))
}

// HandleListDates handles GET /data/{country}/dates.
func (h *Handler) HandleListDates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	countryName := chi.URLParam(r, "country")

	dates, err := h.service.ListDates(ctx, countryName)
	if err != nil {
		h.writeError(ctx, w, "list dates failed", err)
		return
	}
	resp := DatesResponse{Country: countryName, Dates: make([]string, 0, len(dates))}
	for _, d := range dates {
		resp.Dates = append(resp.Dates, d.Format(stats.DateFormat))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleInsert handles POST /data.
func (h *Handler) HandleInsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[InsertRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	row, err := h.service.Insert(ctx, req.Country, req.ParsedDate(), req.Counts())
	if err != nil {
		h.writeError(ctx, w, "insert statistic failed", err)
		return
	}

	h.invalidator.InvalidateExports(ctx)
	h.logger.InfoContext(ctx, "statistic inserted",
		"request_id", requestID,
		"country", req.Country,
		"date", req.Date,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromStatistic(req.Country, *row))
}

// HandleUpsert handles PUT /data/day/{country}.
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	countryName := chi.URLParam(r, "country")

	req, ok := httputil.DecodeAndPrepare[UpsertRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	row, err := h.service.Upsert(ctx, countryName, req.ParsedDate(), req.Counts())
	if err != nil {
		h.writeError(ctx, w, "upsert statistic failed", err)
		return
	}

	h.invalidator.InvalidateExports(ctx)
	h.logger.InfoContext(ctx, "statistic upserted",
		"request_id", requestID,
		"country", countryName,
		"date", req.Date,
	)
	httputil.WriteJSON(w, http.StatusOK, FromStatistic(countryName, *row))
}

// HandleDelete handles DELETE /data/{country}/{date}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	countryName := chi.URLParam(r, "country")
	date, ok := parseDateParam(w, chi.URLParam(r, "date"))
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, countryName, date); err != nil {
		h.writeError(ctx, w, "delete statistic failed", err)
		return
	}

	h.invalidator.InvalidateExports(ctx)
	h.logger.InfoContext(ctx, "statistic deleted",
		"request_id", requestcontext.RequestID(ctx),
		"country", countryName,
		"date", date.Format(stats.DateFormat),
	)
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{
		Message: "data for " + countryName + " on " + date.Format(stats.DateFormat) + " deleted",
	})
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

func parseDateParam(w http.ResponseWriter, raw string) (time.Time, bool) {
	date, err := time.Parse(stats.DateFormat, raw)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "date must be formatted as YYYY-MM-DD"))
		return time.Time{}, false
	}
	return date, true
}
