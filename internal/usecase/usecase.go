package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/vadimbarashkov/scheduled-shortener/internal/entity"
)

const defaultMaxAttempts = 5

var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short code")

type urlStorage interface {
	GetByShortCode(ctx context.Context, shortCode string) (*entity.ShortURL, error)
	Exists(ctx context.Context, shortCode string) (bool, error)
	ListAll(ctx context.Context) ([]entity.ShortURL, error)
	Insert(ctx context.Context, u *entity.ShortURL) (*entity.ShortURL, error)
	Upsert(ctx context.Context, u *entity.ShortURL) (*entity.ShortURL, error)
	Update(ctx context.Context, shortCode string, changes entity.URLChanges) (*entity.ShortURL, error)
	Archive(ctx context.Context, shortCode string) (*entity.ShortURL, error)
	IncrementClicks(ctx context.Context, shortCode string) (*entity.ShortURL, error)
	RecordClick(ctx context.Context, shortCode string) error
	QueryClicksByShortCode(ctx context.Context, shortCode string) ([]entity.ClickEvent, error)
}

// ShortenInput describes a URL to shorten. An empty Vanity asks for a
// generated short code.
type ShortenInput struct {
	URL       string
	Title     string
	Vanity    string
	Schedules []entity.Schedule
}

// Redirect is the outcome of following a short code.
type Redirect struct {
	URL    *entity.ShortURL // URL is the record, with the click counted when that write succeeded.
	Target string           // Target is the URL active at the time of the click.

	// TrackingErr is set when the click event or the counter update failed.
	// The redirect itself is still valid.
	TrackingErr error
}

type URLUseCase struct {
	storage     urlStorage
	codes       CodeGenerator
	consistency entity.Consistency
	maxAttempts int
	logger      *slog.Logger
}

type Option func(*URLUseCase)

// WithConsistency must match the mode of the storage. In last-write-wins
// mode creation checks for an existing code and then upserts.
func WithConsistency(c entity.Consistency) Option {
	return func(uc *URLUseCase) {
		if c.Valid() {
			uc.consistency = c
		}
	}
}

// WithMaxAttempts bounds the number of generated codes tried per request.
func WithMaxAttempts(n int) Option {
	return func(uc *URLUseCase) {
		if n > 0 {
			uc.maxAttempts = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(uc *URLUseCase) {
		if logger != nil {
			uc.logger = logger
		}
	}
}

func NewURLUseCase(storage urlStorage, codes CodeGenerator, opts ...Option) *URLUseCase {
	uc := &URLUseCase{
		storage:     storage,
		codes:       codes,
		consistency: entity.ConsistencyOptimistic,
		maxAttempts: defaultMaxAttempts,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

func (uc *URLUseCase) ShortenURL(ctx context.Context, in ShortenInput) (*entity.ShortURL, error) {
	const op = "usecase.URLUseCase.ShortenURL"

	targetURL := strings.TrimSpace(in.URL)
	title := strings.TrimSpace(in.Title)
	vanity := strings.TrimSpace(in.Vanity)

	if vanity != "" {
		u, err := entity.NewShortURL(vanity, targetURL, title, in.Schedules)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		url, err := uc.create(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return url, nil
	}

	changes := entity.URLChanges{TargetURL: targetURL, Title: title, Schedules: in.Schedules}
	if err := changes.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := 0; i < uc.maxAttempts; i++ {
		shortCode, err := uc.codes.Generate(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		u, err := entity.NewShortURL(shortCode, targetURL, title, in.Schedules)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		url, err := uc.create(ctx, u)
		if err != nil {
			if errors.Is(err, entity.ErrShortCodeExists) {
				continue
			}

			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return url, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

func (uc *URLUseCase) create(ctx context.Context, u *entity.ShortURL) (*entity.ShortURL, error) {
	if uc.consistency == entity.ConsistencyOptimistic {
		return uc.storage.Insert(ctx, u)
	}

	exists, err := uc.storage.Exists(ctx, u.ShortCode)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, entity.ErrShortCodeExists
	}

	return uc.storage.Upsert(ctx, u)
}

// Redirect resolves shortCode to the URL active at now and tracks the click.
// The click event and the counter update are independent writes: a failure
// of either one is reported in Redirect.TrackingErr and logged, never
// returned as the error.
func (uc *URLUseCase) Redirect(ctx context.Context, shortCode string, now time.Time) (*Redirect, error) {
	const op = "usecase.URLUseCase.Redirect"

	url, err := uc.storage.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	res := &Redirect{
		URL:    url,
		Target: entity.ResolveActiveURL(url, now),
	}

	var trackErr *multierror.Error

	if err := uc.storage.RecordClick(ctx, shortCode); err != nil {
		trackErr = multierror.Append(trackErr, fmt.Errorf("record click event: %w", err))
	}

	updated, err := uc.storage.IncrementClicks(ctx, shortCode)
	if err != nil {
		trackErr = multierror.Append(trackErr, fmt.Errorf("increment clicks: %w", err))
	} else {
		res.URL = updated
	}

	if err := trackErr.ErrorOrNil(); err != nil {
		res.TrackingErr = fmt.Errorf("%s: %w: %w", op, entity.ErrClickTracking, err)

		uc.logger.WarnContext(ctx, "click tracking incomplete",
			slog.String("short_code", shortCode),
			slog.Any("err", err),
		)
	}

	return res, nil
}

func (uc *URLUseCase) GetURL(ctx context.Context, shortCode string) (*entity.ShortURL, error) {
	const op = "usecase.URLUseCase.GetURL"

	url, err := uc.storage.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url: %w", op, err)
	}

	return url, nil
}

func (uc *URLUseCase) ModifyURL(ctx context.Context, shortCode string, changes entity.URLChanges) (*entity.ShortURL, error) {
	const op = "usecase.URLUseCase.ModifyURL"

	changes.TargetURL = strings.TrimSpace(changes.TargetURL)
	changes.Title = strings.TrimSpace(changes.Title)

	url, err := uc.storage.Update(ctx, shortCode, changes)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to modify url: %w", op, err)
	}

	return url, nil
}

func (uc *URLUseCase) ArchiveURL(ctx context.Context, shortCode string) (*entity.ShortURL, error) {
	const op = "usecase.URLUseCase.ArchiveURL"

	url, err := uc.storage.Archive(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to archive url: %w", op, err)
	}

	return url, nil
}

// ListURLs returns the stored URLs. Archived ones are left out unless
// includeArchived is set.
func (uc *URLUseCase) ListURLs(ctx context.Context, includeArchived bool) ([]entity.ShortURL, error) {
	const op = "usecase.URLUseCase.ListURLs"

	urls, err := uc.storage.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list urls: %w", op, err)
	}

	if includeArchived {
		return urls, nil
	}

	active := make([]entity.ShortURL, 0, len(urls))
	for _, u := range urls {
		if !u.IsArchived {
			active = append(active, u)
		}
	}

	return active, nil
}

// ClickStatsByDay returns the per-day click counts of shortCode. Archived
// URLs keep their statistics.
func (uc *URLUseCase) ClickStatsByDay(ctx context.Context, shortCode string) (*entity.ClickStats, error) {
	const op = "usecase.URLUseCase.ClickStatsByDay"

	events, err := uc.storage.QueryClicksByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query clicks: %w", op, err)
	}

	return &entity.ClickStats{
		ShortCode: shortCode,
		Items:     entity.AggregateByDay(events),
	}, nil
}
