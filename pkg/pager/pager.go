package pager

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"review-scraper/pkg/extract"
	"review-scraper/pkg/fetch"
	"review-scraper/pkg/models"
	"review-scraper/pkg/utils"
)

// BaseAppURL strips an app URL down to the base used for page construction:
// no trailing /reviews, no query string. /reviews only counts as the feed
// suffix at a path-segment boundary, so handles like "reviews-importer"
// survive intact
func BaseAppURL(appURL string) string {
	base := appURL
	if idx := strings.Index(base, "?"); idx >= 0 {
		base = base[:idx]
	}
	base = strings.TrimSuffix(base, "/")
	return strings.TrimSuffix(base, "/reviews")
}

// PageURL builds the URL of one review-feed page. The shape is a bit-exact
// contract with the remote site
func PageURL(baseURL string, page int) string {
	return fmt.Sprintf("%s/reviews?sort_by=newest&page=%d", baseURL, page)
}

// Result is what paging one app produced
type Result struct {
	Records []models.ReviewRecord // Retained records in discovery (newest-first) order
	Stop    models.StopReason
	Pages   int   // Pages fetched, including the one that triggered the stop
	Err     error // Terminal fetch error when Stop == StopFetchFailed
}

// Pager walks one app's review feed page by page, newest-first, retaining
// records inside the date window and stopping deterministically once the feed
// is exhausted or has moved past the window
type Pager struct {
	fetcher   *fetch.Fetcher
	extractor *extract.Extractor
	nodes     extract.NodePolicy

	// Randomized pacing delay applied between consecutive page fetches
	minDelay time.Duration
	maxDelay time.Duration

	log *logrus.Entry
}

// NewPager creates a Pager
func NewPager(fetcher *fetch.Fetcher, extractor *extract.Extractor, nodes extract.NodePolicy, minDelay, maxDelay time.Duration, log *logrus.Entry) *Pager {
	return &Pager{
		fetcher:   fetcher,
		extractor: extractor,
		nodes:     nodes,
		minDelay:  minDelay,
		maxDelay:  maxDelay,
		log:       log,
	}
}

// FetchReviews pages through appURL's review feed and returns every record
// inside the window, in discovery order. Terminal stops keep whatever was
// already collected. Cancellation is honored at page boundaries only;
// in-flight requests are not preempted beyond what the HTTP client does
func (p *Pager) FetchReviews(ctx context.Context, appURL, appName string, window models.DateWindow) Result {
	base := BaseAppURL(appURL)
	appLog := p.log.WithField("app", appName)

	var records []models.ReviewRecord

	for page := 1; ; page++ {
		// Page boundary: bail out before starting another fetch
		select {
		case <-ctx.Done():
			appLog.Warnf("Cancelled at page boundary (page %d): %v", page, ctx.Err())
			return Result{Records: records, Stop: models.StopCancelled, Pages: page - 1}
		default:
		}

		pageLog := appLog.WithField("page", page)
		pageLog.Info("Fetching review page...")

		body, err := p.fetcher.Get(ctx, PageURL(base, page))
		if err != nil {
			pageLog.WithField("error_category", utils.CategorizeError(err)).
				Warnf("Review page fetch failed, stopping pagination: %v", err)
			return Result{Records: records, Stop: models.StopFetchFailed, Pages: page, Err: err}
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			err = fmt.Errorf("%w: HTML: %v", utils.ErrParsing, err)
			pageLog.Warnf("Review page not parseable, stopping pagination: %v", err)
			return Result{Records: records, Stop: models.StopFetchFailed, Pages: page, Err: err}
		}

		reviews := p.nodes.ReviewNodes(doc)
		pageLog.Debugf("Found %d reviews on page", reviews.Length())
		if reviews.Length() == 0 {
			pageLog.Info("No reviews on page, feed exhausted")
			return Result{Records: records, Stop: models.StopNoMoreReviews, Pages: page}
		}

		result := p.scanPage(reviews, appName, window, pageLog)
		pageLog.Debugf("Page yielded %d in-window records (newer=%t in_window=%t older=%t)",
			len(result.Records), result.ContainedNewer, result.ContainedInWindow, result.ContainedOlder)

		records = append(records, result.Records...)

		// A page past the first with nothing newer-than or inside the window
		// means the feed has nothing left for us; this also guards against
		// looping forever on a feed whose pages go stale
		if !result.ContainedNewer && !result.ContainedInWindow && page > 1 {
			pageLog.Info("Page had no relevant reviews, feed exhausted for this window")
			return Result{Records: records, Stop: models.StopNoMoreReviews, Pages: page}
		}

		if result.ContainedOlder {
			pageLog.Info("Reached reviews older than the window, stopping")
			return Result{Records: records, Stop: models.StopBelowWindow, Pages: page}
		}

		if err := p.pace(ctx); err != nil {
			appLog.Warnf("Cancelled during pacing delay after page %d: %v", page, err)
			return Result{Records: records, Stop: models.StopCancelled, Pages: page}
		}
	}
}

// scanPage classifies every review node on one page against the window.
// The feed is newest-first, so the first too-old review ends the scan: all
// remaining nodes are older still
func (p *Pager) scanPage(reviews *goquery.Selection, appName string, window models.DateWindow, pageLog *logrus.Entry) models.PageResult {
	var result models.PageResult

	reviews.EachWithBreak(func(_ int, review *goquery.Selection) bool {
		rec := p.extractor.Extract(appName, review)

		if rec.ParsedDate == nil {
			// Unplaceable: logged and skipped, and deliberately counts toward
			// neither the cutoff nor the page-relevance flags, so pagination
			// continues past it
			pageLog.WithField("raw_date", rec.RawDate).Warn("Could not parse review date, skipping record")
			return true
		}

		switch window.Classify(*rec.ParsedDate) {
		case models.DateTooNew:
			result.ContainedNewer = true
		case models.DateInWindow:
			result.Records = append(result.Records, rec)
			result.ContainedInWindow = true
		case models.DateTooOld:
			pageLog.WithField("raw_date", rec.RawDate).Info("Review older than window, stopping page scan")
			result.ContainedOlder = true
			return false
		}
		return true
	})

	return result
}

// pace sleeps a randomized delay between page fetches, respecting cancellation
func (p *Pager) pace(ctx context.Context) error {
	delay := p.minDelay
	if p.maxDelay > p.minDelay {
		delay += time.Duration(rand.Int63n(int64(p.maxDelay - p.minDelay)))
	}
	if delay <= 0 {
		return nil
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
