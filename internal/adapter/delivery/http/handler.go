package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/scheduled-shortener/internal/entity"
	"github.com/vadimbarashkov/scheduled-shortener/internal/usecase"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

type urlUseCase interface {
	ShortenURL(ctx context.Context, in usecase.ShortenInput) (*entity.ShortURL, error)
	Redirect(ctx context.Context, shortCode string, now time.Time) (*usecase.Redirect, error)
	GetURL(ctx context.Context, shortCode string) (*entity.ShortURL, error)
	ModifyURL(ctx context.Context, shortCode string, changes entity.URLChanges) (*entity.ShortURL, error)
	ArchiveURL(ctx context.Context, shortCode string) (*entity.ShortURL, error)
	ListURLs(ctx context.Context, includeArchived bool) ([]entity.ShortURL, error)
	ClickStatsByDay(ctx context.Context, shortCode string) (*entity.ClickStats, error)
}

type urlHandler struct {
	useCase      urlUseCase
	validate     *validator.Validate
	customDomain string
	fallbackURL  string
	now          func() time.Time
}

func newURLHandler(useCase urlUseCase, validate *validator.Validate, opts Options) *urlHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &urlHandler{
		useCase:      useCase,
		validate:     validate,
		customDomain: strings.TrimRight(opts.CustomDomain, "/"),
		fallbackURL:  opts.FallbackURL,
		now:          time.Now,
	}
}

// shortURL builds the public URL of shortCode from the custom domain or,
// when none is configured, from the request host.
func (h *urlHandler) shortURL(r *http.Request, shortCode string) string {
	if h.customDomain != "" {
		if strings.Contains(h.customDomain, "://") {
			return h.customDomain + "/" + shortCode
		}
		return "https://" + h.customDomain + "/" + shortCode
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	return scheme + "://" + r.Host + "/" + shortCode
}

func (h *urlHandler) toURLResponse(r *http.Request, url *entity.ShortURL) urlResponse {
	return urlResponse{
		ShortCode:  url.ShortCode,
		ShortURL:   h.shortURL(r, url.ShortCode),
		URL:        url.TargetURL,
		Title:      url.Title,
		Clicks:     url.Clicks,
		IsArchived: url.IsArchived,
		Schedules:  toScheduleSchemas(url.Schedules),
		UpdatedAt:  url.UpdatedAt,
	}
}

// decodeAndValidate reads the JSON body into v. It writes the error response
// and returns false when the body is missing, malformed or invalid.
func (h *urlHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		render.Status(r, http.StatusBadRequest)

		if errors.Is(err, io.EOF) {
			render.JSON(w, r, emptyRequestBodyResponse)
			return false
		}

		render.JSON(w, r, invalidRequestBodyResponse)
		return false
	}

	if err := h.validate.Struct(v); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, validationErrorResponse(err))
		return false
	}

	return true
}

// renderError maps use case errors to responses. Unexpected errors are
// attached to the request log entry.
func (h *urlHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, entity.ErrURLNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, urlNotFoundResponse)
	case errors.Is(err, entity.ErrShortCodeExists):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, shortCodeExistsResponse)
	case errors.Is(err, entity.ErrVersionConflict):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, conflictResponse)
	case errors.Is(err, entity.ErrInvalidInput):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidInputResponse)
	default:
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
	}
}

func (h *urlHandler) shortenURL(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest

	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	url, err := h.useCase.ShortenURL(r.Context(), usecase.ShortenInput{
		URL:       req.URL,
		Title:     req.Title,
		Vanity:    req.Vanity,
		Schedules: toSchedules(req.Schedules),
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, h.toURLResponse(r, url))
}

func (h *urlHandler) listURLs(w http.ResponseWriter, r *http.Request) {
	includeArchived := false

	if v := r.URL.Query().Get("archived"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, invalidQueryResponse)
			return
		}
		includeArchived = parsed
	}

	urls, err := h.useCase.ListURLs(r.Context(), includeArchived)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	resp := listResponse{
		URLs:  make([]urlResponse, 0, len(urls)),
		Count: len(urls),
	}
	for i := range urls {
		resp.URLs = append(resp.URLs, h.toURLResponse(r, &urls[i]))
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

func (h *urlHandler) getURL(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	url, err := h.useCase.GetURL(r.Context(), shortCode)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, h.toURLResponse(r, url))
}

func (h *urlHandler) modifyURL(w http.ResponseWriter, r *http.Request) {
	var req updateRequest

	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	shortCode := chi.URLParam(r, "shortCode")

	url, err := h.useCase.ModifyURL(r.Context(), shortCode, entity.URLChanges{
		TargetURL: req.URL,
		Title:     req.Title,
		Schedules: toSchedules(req.Schedules),
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, h.toURLResponse(r, url))
}

func (h *urlHandler) archiveURL(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	url, err := h.useCase.ArchiveURL(r.Context(), shortCode)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, h.toURLResponse(r, url))
}

func (h *urlHandler) clickStats(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	stats, err := h.useCase.ClickStatsByDay(r.Context(), shortCode)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toClickStatsResponse(stats))
}

func (h *urlHandler) redirect(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	res, err := h.useCase.Redirect(r.Context(), shortCode, h.now())
	if err != nil {
		if errors.Is(err, entity.ErrURLNotFound) && h.fallbackURL != "" {
			http.Redirect(w, r, h.fallbackURL, http.StatusFound)
			return
		}

		h.renderError(w, r, err)
		return
	}

	if res.TrackingErr != nil {
		httplog.LogEntrySetField(r.Context(), "tracking_err", slog.AnyValue(res.TrackingErr))
	}

	http.Redirect(w, r, res.Target, http.StatusFound)
}
