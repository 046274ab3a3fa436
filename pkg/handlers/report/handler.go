package report

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/ses4j/ebird-statistical-report/pkg/adapters"
	"github.com/ses4j/ebird-statistical-report/pkg/models/api"
	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
	"github.com/ses4j/ebird-statistical-report/pkg/services/names"
	"github.com/ses4j/ebird-statistical-report/pkg/services/region"
	"github.com/ses4j/ebird-statistical-report/pkg/services/report"
)

type Generator interface {
	Region(ctx context.Context, code string) (domain.Region, error)
	Tables(ctx context.Context, req report.Request) ([]domain.ReportSection, error)
}

type Handler struct {
	generator Generator
}

func NewHandler(generator Generator) *Handler {
	return &Handler{
		generator: generator,
	}
}

func (h *Handler) GetRegion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := chi.URLParam(r, "region")

	reg, err := h.generator.Region(ctx, code)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapRegionDomainToApi(reg))
}

// GetSections computes every section of the report. The optional as_of
// query parameter (YYYY-MM-DD) moves the cutoff.
func (h *Handler) GetSections(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := chi.URLParam(r, "region")

	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1 {
		writeJSON(ctx, w, http.StatusBadRequest, api.Error{Error: "year must be a positive integer"})
		return
	}

	req := report.Request{RegionCode: code, Year: year}
	if asOf := r.URL.Query().Get("as_of"); asOf != "" {
		req.AsOf, err = time.Parse("2006-01-02", asOf)
		if err != nil {
			writeJSON(ctx, w, http.StatusBadRequest, api.Error{Error: "as_of must be YYYY-MM-DD"})
			return
		}
	}

	reg, err := h.generator.Region(ctx, code)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	sections, err := h.generator.Tables(ctx, req)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	cutoff := req.AsOf
	if cutoff.IsZero() {
		cutoff = time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	writeJSON(ctx, w, http.StatusOK, api.SectionsResponse{
		Region:   adapters.MapRegionDomainToApi(reg),
		Year:     year,
		AsOf:     cutoff.Format("2006-01-02"),
		Sections: adapters.MapSectionsDomainToApi(sections),
	})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, region.ErrUnknownRegionCode):
		return http.StatusBadRequest
	case errors.Is(err, region.ErrRegionNotFound):
		return http.StatusNotFound
	case errors.Is(err, names.ErrUnresolved):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusOf(err)
	logger := zerolog.Ctx(ctx)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
	} else {
		logger.Warn().Err(err).Msg("request rejected")
	}
	writeJSON(ctx, w, status, api.Error{Error: err.Error()})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(ctx).Error().
			Err(err).
			Msg("failed to encode response")
	}
}
