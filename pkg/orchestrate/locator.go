package orchestrate

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"review-scraper/pkg/utils"
)

// LocatorKind classifies the one input URL a run starts from
type LocatorKind int

const (
	LocatorCollection LocatorKind = iota // Developer listing page enumerating multiple apps
	LocatorApp                           // Single app's review feed
)

// String implements fmt.Stringer for logging
func (k LocatorKind) String() string {
	switch k {
	case LocatorCollection:
		return "collection"
	case LocatorApp:
		return "app"
	}
	return "unknown"
}

// Locator is the resolved form of the input URL
type Locator struct {
	Kind        LocatorKind
	URL         string // Fetch target: listing page URL, or canonical app base URL
	Handle      string // Developer handle, or app handle
	DisplayName string // Title-cased app name derived from the handle; "" for collections
}

var titleCaser = cases.Title(language.English)

// ResolveLocator validates the input URL and classifies it as a developer
// listing or a single app's review feed. Anything else is rejected before any
// fetch happens
func ResolveLocator(raw, baseURL string) (Locator, error) {
	parsed, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" {
		return Locator{}, fmt.Errorf("%w: %q is not an absolute URL", utils.ErrInvalidLocator, raw)
	}

	var segments []string
	for _, seg := range strings.Split(parsed.Path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}

	// Developer listing: any path containing a partners segment
	for _, seg := range segments {
		if seg == "partners" {
			handle := segments[len(segments)-1]
			if handle == "partners" {
				handle = "unknown_developer"
			}
			// Query and fragment are irrelevant to the listing page
			listing := *parsed
			listing.RawQuery = ""
			listing.Fragment = ""
			return Locator{
				Kind:   LocatorCollection,
				URL:    listing.String(),
				Handle: handle,
			}, nil
		}
	}

	// Single app: path ending in the reviews-feed suffix, with the app handle
	// immediately before it. Query parameters are stripped; the pager rebuilds
	// them per page
	if len(segments) > 0 && segments[len(segments)-1] == "reviews" {
		if len(segments) < 2 {
			return Locator{}, fmt.Errorf("%w: %q has no app handle before /reviews", utils.ErrInvalidLocator, raw)
		}
		handle := segments[len(segments)-2]
		return Locator{
			Kind:        LocatorApp,
			URL:         baseURL + "/" + handle,
			Handle:      handle,
			DisplayName: titleCaser.String(strings.ReplaceAll(handle, "-", " ")),
		}, nil
	}

	return Locator{}, fmt.Errorf(
		"%w: %q matches neither a developer listing (.../partners/<developer>) nor an app review feed (.../<app-handle>/reviews)",
		utils.ErrInvalidLocator, raw)
}
