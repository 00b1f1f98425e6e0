package orchestrate

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"review-scraper/pkg/apps"
	"review-scraper/pkg/config"
	"review-scraper/pkg/extract"
	"review-scraper/pkg/fetch"
	"review-scraper/pkg/models"
	"review-scraper/pkg/pager"
	"review-scraper/pkg/utils"
)

// AppResult summarizes paging one app
type AppResult struct {
	App      models.AppRef
	Stop     models.StopReason
	Pages    int
	Records  int
	Duration time.Duration
	Err      error // Terminal per-app error, if any; never fatal to the run
}

// RunResult is the merged outcome of one run, handed to the export collaborator
type RunResult struct {
	RunID    string
	Locator  Locator
	Apps     []AppResult
	Records  []models.ReviewRecord // Enumeration order, then per-app discovery order
	Duration time.Duration
}

// FilePrefix returns the export filename prefix for this run, matching the
// historical naming scheme
func (r *RunResult) FilePrefix() string {
	if r.Locator.Kind == LocatorCollection {
		return "shopify_developer_reviews_" + r.Locator.Handle
	}
	name := strings.ToLower(strings.ReplaceAll(r.Locator.DisplayName, " ", "_"))
	return "shopify_single_app_reviews_" + name
}

// Coordinator owns the run-scoped resources (HTTP client, fetcher, pager,
// enumerator) and sequences the work for one input locator. Construction
// acquires the connection pool; Close releases it
type Coordinator struct {
	cfg        *config.AppConfig
	client     *http.Client
	fetcher    *fetch.Fetcher
	enumerator *apps.Enumerator
	pager      *pager.Pager
	robots     *fetch.RobotsChecker // nil unless respect_robots is set
	log        *logrus.Logger
}

// NewCoordinator wires up a Coordinator from validated configuration
func NewCoordinator(cfg *config.AppConfig, log *logrus.Logger) *Coordinator {
	client := fetch.NewClient(cfg.HTTPClientSettings, log)
	fetcher := fetch.NewFetcher(client, fetch.PolicyFromConfig(cfg), cfg.UserAgent, log)

	policy := extract.NewStorefrontPolicy()
	extractor := extract.NewExtractor(policy, log.WithField("component", "extractor"))

	c := &Coordinator{
		cfg:     cfg,
		client:  client,
		fetcher: fetcher,
		enumerator: apps.NewEnumerator(client, cfg.UserAgent, cfg.StorefrontBaseURL,
			log.WithField("component", "enumerator")),
		pager: pager.NewPager(fetcher, extractor, policy, cfg.MinPageDelay, cfg.MaxPageDelay,
			log.WithField("component", "pager")),
		log: log,
	}
	if cfg.RespectRobots {
		c.robots = fetch.NewRobotsChecker(fetcher, log.WithField("component", "robots"))
	}
	return c
}

// Run resolves the locator, sequences enumeration and per-app paging, and
// merges the results. Per-app failures degrade to empty or partial results;
// only an invalid locator is fatal. Cancellation is honored between apps and
// between pages
func (c *Coordinator) Run(ctx context.Context, rawLocator string, window models.DateWindow) (*RunResult, error) {
	loc, err := ResolveLocator(rawLocator, c.cfg.StorefrontBaseURL)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := &RunResult{RunID: uuid.NewString(), Locator: loc}
	runLog := c.log.WithFields(logrus.Fields{"run_id": result.RunID, "locator_kind": loc.Kind.String()})

	var refs []models.AppRef
	switch loc.Kind {
	case LocatorCollection:
		list, listErr := c.enumerator.ListApps(ctx, loc.URL)
		if listErr != nil {
			// Recoverable at run level: continue with zero work
			runLog.WithField("error_category", utils.CategorizeError(listErr)).
				Warnf("Developer page enumeration failed, run continues with 0 apps: %v", listErr)
		}
		refs = list
	case LocatorApp:
		refs = []models.AppRef{{Name: loc.DisplayName, URL: loc.URL}}
	}
	runLog.Infof("Scraping %d app(s)", len(refs))

	for _, ref := range refs {
		// App boundary: abandon remaining work on cancellation
		select {
		case <-ctx.Done():
			runLog.Warnf("Run cancelled, %d app(s) skipped: %v", len(refs)-len(result.Apps), ctx.Err())
			result.Duration = time.Since(start)
			return result, nil
		default:
		}

		appLog := runLog.WithField("app", ref.Name)
		if c.robots != nil && !c.appAllowed(ctx, ref) {
			appLog.Warn("Skipping app disallowed by robots.txt")
			result.Apps = append(result.Apps, AppResult{App: ref, Err: utils.ErrRobotsDisallowed})
			continue
		}

		appStart := time.Now()
		paged := c.pager.FetchReviews(ctx, ref.URL, ref.Name, window)
		result.Records = append(result.Records, paged.Records...)
		result.Apps = append(result.Apps, AppResult{
			App:      ref,
			Stop:     paged.Stop,
			Pages:    paged.Pages,
			Records:  len(paged.Records),
			Duration: time.Since(appStart),
			Err:      paged.Err,
		})
		appLog.Infof("Collected %d reviews over %d page(s), stop=%s", len(paged.Records), paged.Pages, paged.Stop)
	}

	result.Duration = time.Since(start)
	runLog.Infof("Run complete: %d app(s), %d review(s) in %s",
		len(result.Apps), len(result.Records), result.Duration.Round(time.Millisecond))
	return result, nil
}

// Close releases the run's outbound connection pool
func (c *Coordinator) Close() {
	c.client.CloseIdleConnections()
}

// appAllowed consults robots.txt for the app's first review page
func (c *Coordinator) appAllowed(ctx context.Context, ref models.AppRef) bool {
	target, err := url.Parse(pager.PageURL(pager.BaseAppURL(ref.URL), 1))
	if err != nil {
		return true
	}
	return c.robots.Allowed(ctx, target, c.cfg.UserAgent)
}
