package pager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-scraper/pkg/extract"
	"review-scraper/pkg/fetch"
	"review-scraper/pkg/models"
	"review-scraper/pkg/utils"
)

func TestBaseAppURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare app url", "https://apps.example.com/checkout-blocks", "https://apps.example.com/checkout-blocks"},
		{"reviews suffix stripped", "https://apps.example.com/checkout-blocks/reviews", "https://apps.example.com/checkout-blocks"},
		{"reviews with query", "https://apps.example.com/checkout-blocks/reviews?page=3", "https://apps.example.com/checkout-blocks"},
		{"query only stripped", "https://apps.example.com/checkout-blocks?surface_detail=home", "https://apps.example.com/checkout-blocks"},
		{"handle starting with reviews", "https://apps.example.com/reviews-importer", "https://apps.example.com/reviews-importer"},
		{"reviews-importer feed", "https://apps.example.com/reviews-importer/reviews", "https://apps.example.com/reviews-importer"},
		{"reviews-importer feed with query", "https://apps.example.com/reviews-importer/reviews?page=2", "https://apps.example.com/reviews-importer"},
		{"trailing slash", "https://apps.example.com/checkout-blocks/reviews/", "https://apps.example.com/checkout-blocks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BaseAppURL(tt.input))
		})
	}
}

func TestPageURL(t *testing.T) {
	assert.Equal(t,
		"https://apps.example.com/checkout-blocks/reviews?sort_by=newest&page=7",
		PageURL("https://apps.example.com/checkout-blocks", 7))
}

// reviewPageHTML renders a review-feed page containing one minimal review
// node per supplied date string
func reviewPageHTML(dates ...string) string {
	var b []byte
	b = append(b, []byte("<html><body>")...)
	for i, date := range dates {
		b = append(b, []byte(fmt.Sprintf(`
<div data-merchant-review="1" class="lg:tw-grid lg:tw-grid-cols-4 lg:tw-gap-x-gutter--desktop">
  <div class="tw-flex tw-items-center tw-justify-between tw-mb-md">
    <div class="tw-text-body-xs tw-text-fg-tertiary">%s</div>
    <div class="tw-flex tw-relative tw-space-x-0.5 tw-w-[88px] tw-h-md" aria-label="5 out of 5 stars"></div>
  </div>
  <div data-truncate-content-copy="1"><p>Review body %d</p></div>
  <div class="tw-order-2 lg:tw-order-1 lg:tw-row-span-2 tw-mt-md md:tw-mt-0 tw-space-y-1 md:tw-space-y-2 tw-text-fg-tertiary tw-text-body-xs">
    <div class="tw-text-heading-xs tw-text-fg-primary tw-overflow-hidden tw-text-ellipsis tw-whitespace-nowrap">Shop %d</div>
    <div>Testland</div>
    <div>1 year using the app</div>
  </div>
</div>`, date, i, i))...)
	}
	b = append(b, []byte("</body></html>")...)
	return string(b)
}

const emptyPageHTML = `<html><body><p>No reviews yet.</p></body></html>`

// newTestPager wires a Pager against the given server with zero pacing delay
// and fast retries
func newTestPager(t *testing.T, server *httptest.Server) *Pager {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	policy := fetch.RetryPolicy{
		MaxRetries:   1,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     20 * time.Millisecond,
		RetryStatus: func(status int) bool {
			return status == http.StatusServiceUnavailable
		},
	}
	fetcher := fetch.NewFetcher(server.Client(), policy, "test-agent/1.0", log)
	storefront := extract.NewStorefrontPolicy()
	extractor := extract.NewExtractor(storefront, logrus.NewEntry(log))
	return NewPager(fetcher, extractor, storefront, 0, 0, logrus.NewEntry(log))
}

func mustWindow(t *testing.T, start, end string) models.DateWindow {
	t.Helper()
	parse := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return d
	}
	window, err := models.NewDateWindow(parse(start), parse(end))
	require.NoError(t, err)
	return window
}

func TestFetchReviews_StopsBelowWindow(t *testing.T) {
	// Page 1 carries an in-window review, page 2 a review older than the
	// window. Only the first record survives, and page 2 still counts as
	// fetched
	pages := map[string]string{
		"1": reviewPageHTML("June 1, 2024"),
		"2": reviewPageHTML("January 1, 2023"),
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(pages[r.URL.Query().Get("page")]))
	}))
	defer server.Close()

	pager := newTestPager(t, server)
	result := pager.FetchReviews(context.Background(), server.URL+"/some-app", "Some App", mustWindow(t, "2024-12-31", "2023-06-01"))

	assert.Equal(t, models.StopBelowWindow, result.Stop)
	assert.Equal(t, 2, result.Pages)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "June 1, 2024", result.Records[0].RawDate)
	assert.Equal(t, "Some App", result.Records[0].AppName)
	assert.NoError(t, result.Err)
}

func TestFetchReviews_TooOldEndsPageScan(t *testing.T) {
	// Newest-first page: once a review falls below the window, everything
	// after it on the page must be ignored even when it looks in-window
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(reviewPageHTML("June 1, 2024", "January 1, 2023", "July 1, 2024")))
	}))
	defer server.Close()

	pager := newTestPager(t, server)
	result := pager.FetchReviews(context.Background(), server.URL+"/some-app", "Some App", mustWindow(t, "2024-12-31", "2023-06-01"))

	assert.Equal(t, models.StopBelowWindow, result.Stop)
	assert.Equal(t, 1, result.Pages)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "June 1, 2024", result.Records[0].RawDate)
}

func TestFetchReviews_EmptyFirstPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(emptyPageHTML))
	}))
	defer server.Close()

	pager := newTestPager(t, server)
	result := pager.FetchReviews(context.Background(), server.URL+"/quiet-app", "Quiet App", mustWindow(t, "2024-12-31", "2023-06-01"))

	assert.Equal(t, models.StopNoMoreReviews, result.Stop)
	assert.Equal(t, 1, result.Pages)
	assert.Empty(t, result.Records)
}

func TestFetchReviews_FeedExhausted(t *testing.T) {
	// Reviews on pages 1 and 2, then an empty page 3
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			w.Write([]byte(reviewPageHTML("June 1, 2024")))
		case "2":
			w.Write([]byte(reviewPageHTML("May 1, 2024")))
		default:
			w.Write([]byte(emptyPageHTML))
		}
	}))
	defer server.Close()

	pager := newTestPager(t, server)
	result := pager.FetchReviews(context.Background(), server.URL+"/some-app", "Some App", mustWindow(t, "2024-12-31", "2023-06-01"))

	assert.Equal(t, models.StopNoMoreReviews, result.Stop)
	assert.Equal(t, 3, result.Pages)
	assert.Len(t, result.Records, 2)
}

func TestFetchReviews_AllNewerThanWindowContinues(t *testing.T) {
	// Page 1 is entirely newer than the window, so pagination must press on
	// to page 2 where the window begins
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			w.Write([]byte(reviewPageHTML("March 1, 2025", "February 1, 2025")))
		case "2":
			w.Write([]byte(reviewPageHTML("June 1, 2024")))
		default:
			w.Write([]byte(emptyPageHTML))
		}
	}))
	defer server.Close()

	pager := newTestPager(t, server)
	result := pager.FetchReviews(context.Background(), server.URL+"/some-app", "Some App", mustWindow(t, "2024-12-31", "2023-06-01"))

	assert.Equal(t, models.StopNoMoreReviews, result.Stop)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "June 1, 2024", result.Records[0].RawDate)
}

func TestFetchReviews_IrrelevantLaterPageStops(t *testing.T) {
	// A page past the first whose reviews are all unplaceable contributes
	// nothing to the window and must end pagination rather than loop
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			w.Write([]byte(reviewPageHTML("June 1, 2024")))
		default:
			w.Write([]byte(reviewPageHTML("sometime last week")))
		}
	}))
	defer server.Close()

	pager := newTestPager(t, server)
	result := pager.FetchReviews(context.Background(), server.URL+"/some-app", "Some App", mustWindow(t, "2024-12-31", "2023-06-01"))

	assert.Equal(t, models.StopNoMoreReviews, result.Stop)
	assert.Equal(t, 2, result.Pages)
	assert.Len(t, result.Records, 1)
}

func TestFetchReviews_UnparseableDateSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			w.Write([]byte(reviewPageHTML("June 1, 2024", "not a date", "May 1, 2024")))
		default:
			w.Write([]byte(emptyPageHTML))
		}
	}))
	defer server.Close()

	pager := newTestPager(t, server)
	result := pager.FetchReviews(context.Background(), server.URL+"/some-app", "Some App", mustWindow(t, "2024-12-31", "2023-06-01"))

	assert.Equal(t, models.StopNoMoreReviews, result.Stop)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "June 1, 2024", result.Records[0].RawDate)
	assert.Equal(t, "May 1, 2024", result.Records[1].RawDate)
}

func TestFetchReviews_FetchFailureKeepsPriorRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			w.Write([]byte(reviewPageHTML("June 1, 2024")))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer server.Close()

	pager := newTestPager(t, server)
	result := pager.FetchReviews(context.Background(), server.URL+"/some-app", "Some App", mustWindow(t, "2024-12-31", "2023-06-01"))

	assert.Equal(t, models.StopFetchFailed, result.Stop)
	assert.Equal(t, 2, result.Pages)
	assert.Len(t, result.Records, 1)
	require.Error(t, result.Err)
	assert.True(t, errors.Is(result.Err, utils.ErrRetryFailed), "expected retry exhaustion, got %v", result.Err)
}

func TestFetchReviews_CancelledBeforeFirstPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(reviewPageHTML("June 1, 2024")))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pager := newTestPager(t, server)
	result := pager.FetchReviews(ctx, server.URL+"/some-app", "Some App", mustWindow(t, "2024-12-31", "2023-06-01"))

	assert.Equal(t, models.StopCancelled, result.Stop)
	assert.Equal(t, 0, result.Pages)
	assert.Empty(t, result.Records)
}
