package apps

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"review-scraper/pkg/models"
	"review-scraper/pkg/utils"
)

// appEntrySelector marks one app entry on a developer listing page
const appEntrySelector = "div.tw-text-body-sm.tw-font-link"

// Enumerator extracts the member apps from a developer's listing page.
// The listing is a single page; there is no pagination at this level, and a
// fetch failure here is fatal for the call but recoverable for the run, so
// the Enumerator deliberately uses a bare client with no retry
type Enumerator struct {
	client    *http.Client
	userAgent string
	baseURL   string // Storefront root used to absolutize relative app links
	log       *logrus.Entry
}

// NewEnumerator creates an Enumerator
func NewEnumerator(client *http.Client, userAgent, baseURL string, log *logrus.Entry) *Enumerator {
	return &Enumerator{
		client:    client,
		userAgent: userAgent,
		baseURL:   baseURL,
		log:       log,
	}
}

// ListApps fetches the developer page once and returns its apps in document
// order. Duplicates in the source listing are preserved. On failure the
// returned slice is empty and the error describes the cause; callers surface
// "found 0 apps" rather than aborting the run
func (e *Enumerator) ListApps(ctx context.Context, pageURL string) ([]models.AppRef, error) {
	pageLog := e.log.WithField("url", pageURL)
	pageLog.Info("Fetching developer page...")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrRequestCreation, err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		pageLog.Warnf("Developer page fetch failed: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		pageLog.Warnf("Developer page returned status %s", resp.Status)
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: status %d %s", utils.ErrServerHTTPError, resp.StatusCode, resp.Status)
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("%w: status %d %s", utils.ErrClientHTTPError, resp.StatusCode, resp.Status)
		}
		return nil, fmt.Errorf("%w: status %d %s", utils.ErrOtherHTTPError, resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrResponseBodyRead, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: HTML: %v", utils.ErrParsing, err)
	}

	var refs []models.AppRef
	doc.Find(appEntrySelector).Each(func(_ int, entry *goquery.Selection) {
		link := entry.Find("a").First()
		if link.Length() == 0 {
			return
		}
		href, exists := link.Attr("href")
		if !exists || href == "" {
			return
		}
		if !strings.HasPrefix(href, "http") {
			href = e.baseURL + href
		}
		refs = append(refs, models.AppRef{
			Name: strings.TrimSpace(link.Text()),
			URL:  href,
		})
	})

	pageLog.Infof("Found %d apps on developer page", len(refs))
	return refs, nil
}
