package fetch

import (
	"context"
	"net/url"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
)

// RobotsChecker fetches, parses, and caches robots.txt data per host.
// The scraper runs strictly sequentially, so the cache needs no locking
type RobotsChecker struct {
	fetcher *Fetcher
	cache   map[string]*robotstxt.RobotsData // hostname -> parsed data (or nil on failure)
	log     *logrus.Entry
}

// NewRobotsChecker creates a RobotsChecker
func NewRobotsChecker(fetcher *Fetcher, log *logrus.Entry) *RobotsChecker {
	return &RobotsChecker{
		fetcher: fetcher,
		cache:   make(map[string]*robotstxt.RobotsData),
		log:     log,
	}
}

// Allowed reports whether userAgent may fetch targetURL according to the
// host's robots.txt. Fetch or parse failures are treated as allowed, matching
// the usual crawler convention
func (rc *RobotsChecker) Allowed(ctx context.Context, targetURL *url.URL, userAgent string) bool {
	data := rc.robotsData(ctx, targetURL)
	if data == nil {
		return true
	}
	return data.TestAgent(targetURL.RequestURI(), userAgent)
}

// robotsData retrieves robots.txt data for the targetURL's host, using cache or fetching.
// Returns parsed data or nil on any error
func (rc *RobotsChecker) robotsData(ctx context.Context, targetURL *url.URL) *robotstxt.RobotsData {
	host := targetURL.Hostname()
	if data, found := rc.cache[host]; found {
		return data // Could be nil from an earlier failure
	}

	robotsURL := &url.URL{Scheme: targetURL.Scheme, Host: targetURL.Host, Path: "/robots.txt"}
	if robotsURL.Scheme != "http" && robotsURL.Scheme != "https" {
		robotsURL.Scheme = "https"
	}
	robotsLog := rc.log.WithFields(logrus.Fields{"host": host, "robots_url": robotsURL.String()})
	robotsLog.Info("Fetching robots.txt...") // Log only on cache miss

	body, err := rc.fetcher.Get(ctx, robotsURL.String())
	if err != nil {
		robotsLog.Warnf("Fetching robots.txt failed: %v", err)
		rc.cache[host] = nil // Cache failure
		return nil
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		robotsLog.Warnf("Error parsing robots.txt: %v", err)
		rc.cache[host] = nil
		return nil
	}

	robotsLog.Debug("Successfully fetched and parsed robots.txt")
	rc.cache[host] = data
	return data
}
