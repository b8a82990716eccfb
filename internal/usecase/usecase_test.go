package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/scheduled-shortener/internal/entity"
	"github.com/vadimbarashkov/scheduled-shortener/mocks/usecase"
)

type URLUseCaseTestSuite struct {
	suite.Suite
	ctx         context.Context
	errUnknown  error
	logger      *slog.Logger
	storageMock *usecase.MockUrlStorage
	codesMock   *usecase.MockCodeGenerator
	uc          *URLUseCase
}

func (suite *URLUseCaseTestSuite) SetupSuite() {
	suite.ctx = context.Background()
	suite.errUnknown = errors.New("unknown error")
	suite.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (suite *URLUseCaseTestSuite) SetupSubTest() {
	suite.storageMock = usecase.NewMockUrlStorage(suite.T())
	suite.codesMock = usecase.NewMockCodeGenerator(suite.T())
	suite.uc = NewURLUseCase(suite.storageMock, suite.codesMock, WithLogger(suite.logger))
}

func (suite *URLUseCaseTestSuite) TearDownSubTest() {
	suite.storageMock.AssertExpectations(suite.T())
	suite.codesMock.AssertExpectations(suite.T())
}

func shortURL(shortCode, targetURL string) *entity.ShortURL {
	return &entity.ShortURL{
		PartitionKey: entity.PartitionKeyFor(shortCode),
		ShortCode:    shortCode,
		TargetURL:    targetURL,
	}
}

func (suite *URLUseCaseTestSuite) TestShortenURL() {
	suite.Run("invalid url", func() {
		url, err := suite.uc.ShortenURL(suite.ctx, ShortenInput{URL: "example"})

		suite.ErrorIs(err, entity.ErrInvalidInput)
		suite.Nil(url)
	})

	suite.Run("invalid schedule", func() {
		start := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)

		url, err := suite.uc.ShortenURL(suite.ctx, ShortenInput{
			URL: "https://example.com",
			Schedules: []entity.Schedule{{
				Start:          start,
				End:            start.Add(-time.Hour),
				AlternativeURL: "https://example.com/alt",
			}},
		})

		suite.ErrorIs(err, entity.ErrInvalidInput)
		suite.Nil(url)
	})

	suite.Run("vanity exists", func() {
		suite.storageMock.
			On("Insert", suite.ctx, shortURL("my-link", "https://example.com")).
			Once().
			Return(nil, entity.ErrShortCodeExists)

		url, err := suite.uc.ShortenURL(suite.ctx, ShortenInput{URL: "https://example.com", Vanity: "my-link"})

		suite.ErrorIs(err, entity.ErrShortCodeExists)
		suite.Nil(url)
	})

	suite.Run("vanity success", func() {
		want := shortURL("my-link", "https://example.com")
		want.Title = "Example"

		suite.storageMock.
			On("Insert", suite.ctx, want).
			Once().
			Return(want, nil)

		url, err := suite.uc.ShortenURL(suite.ctx, ShortenInput{
			URL:    " https://example.com ",
			Title:  "Example",
			Vanity: " my-link ",
		})

		suite.NoError(err)
		suite.Equal(want, url)
	})

	suite.Run("short code generation error", func() {
		suite.codesMock.
			On("Generate", suite.ctx).
			Once().
			Return("", suite.errUnknown)

		url, err := suite.uc.ShortenURL(suite.ctx, ShortenInput{URL: "https://example.com"})

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("maximum retries error", func() {
		suite.codesMock.
			On("Generate", suite.ctx).
			Times(defaultMaxAttempts).
			Return("gx", nil)
		suite.storageMock.
			On("Insert", suite.ctx, mock.Anything).
			Times(defaultMaxAttempts).
			Return(nil, entity.ErrShortCodeExists)

		url, err := suite.uc.ShortenURL(suite.ctx, ShortenInput{URL: "https://example.com"})

		suite.ErrorIs(err, ErrMaxRetriesExceeded)
		suite.Nil(url)
	})

	suite.Run("unknown error", func() {
		suite.codesMock.
			On("Generate", suite.ctx).
			Once().
			Return("gx", nil)
		suite.storageMock.
			On("Insert", suite.ctx, shortURL("gx", "https://example.com")).
			Once().
			Return(nil, suite.errUnknown)

		url, err := suite.uc.ShortenURL(suite.ctx, ShortenInput{URL: "https://example.com"})

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("retries taken generated code", func() {
		suite.codesMock.On("Generate", suite.ctx).Once().Return("gx", nil)
		suite.codesMock.On("Generate", suite.ctx).Once().Return("gy", nil)
		suite.storageMock.
			On("Insert", suite.ctx, shortURL("gx", "https://example.com")).
			Once().
			Return(nil, entity.ErrShortCodeExists)
		suite.storageMock.
			On("Insert", suite.ctx, shortURL("gy", "https://example.com")).
			Once().
			Return(shortURL("gy", "https://example.com"), nil)

		url, err := suite.uc.ShortenURL(suite.ctx, ShortenInput{URL: "https://example.com"})

		suite.NoError(err)
		suite.Equal("gy", url.ShortCode)
	})

	suite.Run("last write wins checks existence", func() {
		uc := NewURLUseCase(suite.storageMock, suite.codesMock,
			WithConsistency(entity.ConsistencyLastWriteWins),
			WithLogger(suite.logger),
		)

		suite.storageMock.On("Exists", suite.ctx, "taken").Once().Return(true, nil)
		suite.storageMock.On("Exists", suite.ctx, "free").Once().Return(false, nil)
		suite.storageMock.
			On("Upsert", suite.ctx, shortURL("free", "https://example.com")).
			Once().
			Return(shortURL("free", "https://example.com"), nil)

		_, err := uc.ShortenURL(suite.ctx, ShortenInput{URL: "https://example.com", Vanity: "taken"})
		suite.ErrorIs(err, entity.ErrShortCodeExists)

		url, err := uc.ShortenURL(suite.ctx, ShortenInput{URL: "https://example.com", Vanity: "free"})
		suite.NoError(err)
		suite.Equal("free", url.ShortCode)
	})
}

func (suite *URLUseCaseTestSuite) TestRedirect() {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

	scheduled := func() *entity.ShortURL {
		u := shortURL("abc", "https://example.com")
		u.Schedules = []entity.Schedule{{
			Start:          now.Add(-time.Hour),
			End:            now.Add(time.Hour),
			AlternativeURL: "https://example.com/sale",
		}}
		return u
	}

	counted := func() *entity.ShortURL {
		u := scheduled()
		u.Clicks = 1
		return u
	}

	suite.Run("not found", func() {
		suite.storageMock.
			On("GetByShortCode", suite.ctx, "abc").
			Once().
			Return(nil, entity.ErrURLNotFound)

		res, err := suite.uc.Redirect(suite.ctx, "abc", now)

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(res)
	})

	suite.Run("success", func() {
		suite.storageMock.On("GetByShortCode", suite.ctx, "abc").Once().Return(scheduled(), nil)
		record := suite.storageMock.On("RecordClick", suite.ctx, "abc").Once().Return(nil)
		suite.storageMock.On("IncrementClicks", suite.ctx, "abc").Once().NotBefore(record).Return(counted(), nil)

		res, err := suite.uc.Redirect(suite.ctx, "abc", now)

		suite.NoError(err)
		suite.Equal("https://example.com/sale", res.Target)
		suite.Equal(int64(1), res.URL.Clicks)
		suite.NoError(res.TrackingErr)
	})

	suite.Run("default target outside schedule", func() {
		later := now.Add(2 * time.Hour)

		suite.storageMock.On("GetByShortCode", suite.ctx, "abc").Once().Return(scheduled(), nil)
		suite.storageMock.On("RecordClick", suite.ctx, "abc").Once().Return(nil)
		suite.storageMock.On("IncrementClicks", suite.ctx, "abc").Once().Return(counted(), nil)

		res, err := suite.uc.Redirect(suite.ctx, "abc", later)

		suite.NoError(err)
		suite.Equal("https://example.com", res.Target)
	})

	suite.Run("click event lost", func() {
		suite.storageMock.On("GetByShortCode", suite.ctx, "abc").Once().Return(scheduled(), nil)
		record := suite.storageMock.On("RecordClick", suite.ctx, "abc").Once().Return(suite.errUnknown)
		suite.storageMock.On("IncrementClicks", suite.ctx, "abc").Once().NotBefore(record).Return(counted(), nil)

		res, err := suite.uc.Redirect(suite.ctx, "abc", now)

		suite.NoError(err)
		suite.Equal("https://example.com/sale", res.Target)
		suite.Equal(int64(1), res.URL.Clicks)
		suite.ErrorIs(res.TrackingErr, entity.ErrClickTracking)
		suite.ErrorIs(res.TrackingErr, suite.errUnknown)
	})

	suite.Run("counter update lost", func() {
		suite.storageMock.On("GetByShortCode", suite.ctx, "abc").Once().Return(scheduled(), nil)
		record := suite.storageMock.On("RecordClick", suite.ctx, "abc").Once().Return(nil)
		suite.storageMock.On("IncrementClicks", suite.ctx, "abc").Once().NotBefore(record).Return(nil, entity.ErrVersionConflict)

		res, err := suite.uc.Redirect(suite.ctx, "abc", now)

		suite.NoError(err)
		suite.Equal("https://example.com/sale", res.Target)
		suite.Zero(res.URL.Clicks)
		suite.ErrorIs(res.TrackingErr, entity.ErrClickTracking)
		suite.ErrorIs(res.TrackingErr, entity.ErrVersionConflict)
	})

	suite.Run("both writes lost", func() {
		suite.storageMock.On("GetByShortCode", suite.ctx, "abc").Once().Return(scheduled(), nil)
		suite.storageMock.On("RecordClick", suite.ctx, "abc").Once().Return(suite.errUnknown)
		suite.storageMock.On("IncrementClicks", suite.ctx, "abc").Once().Return(nil, entity.ErrStoreUnavailable)

		res, err := suite.uc.Redirect(suite.ctx, "abc", now)

		suite.NoError(err)
		suite.Equal("https://example.com/sale", res.Target)
		suite.ErrorIs(res.TrackingErr, suite.errUnknown)
		suite.ErrorIs(res.TrackingErr, entity.ErrStoreUnavailable)
	})
}

func (suite *URLUseCaseTestSuite) TestGetURL() {
	suite.Run("not found", func() {
		suite.storageMock.On("GetByShortCode", suite.ctx, "abc").Once().Return(nil, entity.ErrURLNotFound)

		url, err := suite.uc.GetURL(suite.ctx, "abc")

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		suite.storageMock.On("GetByShortCode", suite.ctx, "abc").Once().Return(shortURL("abc", "https://example.com"), nil)

		url, err := suite.uc.GetURL(suite.ctx, "abc")

		suite.NoError(err)
		suite.Equal("https://example.com", url.TargetURL)
	})
}

func (suite *URLUseCaseTestSuite) TestModifyURL() {
	suite.Run("unknown error", func() {
		changes := entity.URLChanges{TargetURL: "https://new-example.com"}
		suite.storageMock.On("Update", suite.ctx, "abc", changes).Once().Return(nil, suite.errUnknown)

		url, err := suite.uc.ModifyURL(suite.ctx, "abc", changes)

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		changes := entity.URLChanges{TargetURL: "https://new-example.com", Title: "New"}
		suite.storageMock.
			On("Update", suite.ctx, "abc", changes).
			Once().
			Return(shortURL("abc", "https://new-example.com"), nil)

		url, err := suite.uc.ModifyURL(suite.ctx, "abc", entity.URLChanges{TargetURL: " https://new-example.com", Title: "New "})

		suite.NoError(err)
		suite.Equal("https://new-example.com", url.TargetURL)
	})
}

func (suite *URLUseCaseTestSuite) TestArchiveURL() {
	suite.Run("not found", func() {
		suite.storageMock.On("Archive", suite.ctx, "abc").Once().Return(nil, entity.ErrURLNotFound)

		url, err := suite.uc.ArchiveURL(suite.ctx, "abc")

		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		archived := shortURL("abc", "https://example.com")
		archived.IsArchived = true
		suite.storageMock.On("Archive", suite.ctx, "abc").Once().Return(archived, nil)

		url, err := suite.uc.ArchiveURL(suite.ctx, "abc")

		suite.NoError(err)
		suite.True(url.IsArchived)
	})
}

func (suite *URLUseCaseTestSuite) TestListURLs() {
	urls := []entity.ShortURL{
		*shortURL("abc", "https://example.com/abc"),
		{PartitionKey: "b", ShortCode: "bcd", TargetURL: "https://example.com/bcd", IsArchived: true},
	}

	suite.Run("unknown error", func() {
		suite.storageMock.On("ListAll", suite.ctx).Once().Return(nil, suite.errUnknown)

		got, err := suite.uc.ListURLs(suite.ctx, false)

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(got)
	})

	suite.Run("hides archived", func() {
		suite.storageMock.On("ListAll", suite.ctx).Once().Return(urls, nil)

		got, err := suite.uc.ListURLs(suite.ctx, false)

		suite.NoError(err)
		suite.Equal(urls[:1], got)
	})

	suite.Run("includes archived", func() {
		suite.storageMock.On("ListAll", suite.ctx).Once().Return(urls, nil)

		got, err := suite.uc.ListURLs(suite.ctx, true)

		suite.NoError(err)
		suite.Equal(urls, got)
	})
}

func (suite *URLUseCaseTestSuite) TestClickStatsByDay() {
	suite.Run("unknown error", func() {
		suite.storageMock.On("QueryClicksByShortCode", suite.ctx, "abc").Once().Return(nil, suite.errUnknown)

		stats, err := suite.uc.ClickStatsByDay(suite.ctx, "abc")

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(stats)
	})

	suite.Run("no clicks", func() {
		suite.storageMock.On("QueryClicksByShortCode", suite.ctx, "abc").Once().Return([]entity.ClickEvent{}, nil)

		stats, err := suite.uc.ClickStatsByDay(suite.ctx, "abc")

		suite.NoError(err)
		suite.Equal(&entity.ClickStats{ShortCode: "abc", Items: []entity.ClickDate{}}, stats)
	})

	suite.Run("success", func() {
		suite.storageMock.On("QueryClicksByShortCode", suite.ctx, "abc").Once().Return([]entity.ClickEvent{
			entity.NewClickEvent("abc", "1", time.Date(2020, time.December, 19, 10, 0, 0, 0, time.UTC)),
			entity.NewClickEvent("abc", "2", time.Date(2020, time.December, 3, 8, 0, 0, 0, time.UTC)),
		}, nil)

		stats, err := suite.uc.ClickStatsByDay(suite.ctx, "abc")

		suite.NoError(err)
		suite.Equal([]entity.ClickDate{
			{Date: "2020-12-03", Count: 1},
			{Date: "2020-12-19", Count: 1},
		}, stats.Items)
	})
}

func TestURLUseCase(t *testing.T) {
	suite.Run(t, new(URLUseCaseTestSuite))
}
