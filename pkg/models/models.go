package models

import (
	"fmt"
	"time"

	"review-scraper/pkg/utils"
)

// AppRef identifies one app discovered on a developer listing page
type AppRef struct {
	Name string // Display name as shown in the listing
	URL  string // Absolute URL of the app's storefront page
}

// ReviewRecord holds one normalized review. Records are built once by the
// extractor and never mutated afterwards
type ReviewRecord struct {
	AppName      string
	ReviewText   string     // Sentinel "No review text" when the text container is absent
	ReviewerName string     // Sentinel "No reviewer name" when absent
	RawDate      string     // Date string exactly as displayed; this is what gets exported
	ParsedDate   *time.Time // nil when RawDate did not match the expected layout
	Location     string     // "N/A" when not found
	Tenure       string     // "N/A" when not found; "using the app" phrase already stripped
	Rating       string     // First token of the rating label; "" when absent or malformed
}

// PageResult captures what one feed page contributed, used by the pager to
// decide whether to continue
type PageResult struct {
	Records           []ReviewRecord
	ContainedNewer    bool // Page had at least one review newer than the window
	ContainedInWindow bool // Page had at least one review inside the window
	ContainedOlder    bool // Page had a review older than the window (feed is exhausted below it)
}

// DateClass is the position of a review date relative to a DateWindow
type DateClass int

const (
	DateTooNew DateClass = iota
	DateInWindow
	DateTooOld
)

// String implements fmt.Stringer for logging
func (c DateClass) String() string {
	switch c {
	case DateTooNew:
		return "too_new"
	case DateInWindow:
		return "in_window"
	case DateTooOld:
		return "too_old"
	}
	return "unknown"
}

// DateWindow is the closed range [End, Start] of publish dates to retain.
// Start is the newest boundary ("fetch from"), End the oldest ("fetch until").
// Both are normalized to midnight; review dates parse to midnight values, so
// day-granularity comparison is exact
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// NewDateWindow builds a validated window. An inverted window (Start before
// End) is rejected rather than silently matching nothing
func NewDateWindow(start, end time.Time) (DateWindow, error) {
	w := DateWindow{Start: truncateToDay(start), End: truncateToDay(end)}
	if w.Start.Before(w.End) {
		return DateWindow{}, fmt.Errorf("%w: start %s is before end %s",
			utils.ErrInvalidWindow, w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
	}
	return w, nil
}

// Classify places a review date relative to the window. Both bounds are inclusive
func (w DateWindow) Classify(d time.Time) DateClass {
	d = truncateToDay(d)
	switch {
	case d.After(w.Start):
		return DateTooNew
	case d.Before(w.End):
		return DateTooOld
	}
	return DateInWindow
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StopReason records why the pager ended pagination for one app
type StopReason string

const (
	StopReasonUnset   StopReason = ""                // Zero value = pagination still running
	StopNoMoreReviews StopReason = "no_more_reviews" // Feed exhausted (empty page, or page with nothing relevant past page 1)
	StopBelowWindow   StopReason = "below_window"    // Reached reviews older than the window
	StopFetchFailed   StopReason = "fetch_failed"    // Terminal fetch failure after retries
	StopCancelled     StopReason = "cancelled"       // Context cancelled at a page boundary
)

// String implements fmt.Stringer for logging
func (s StopReason) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// Terminal returns true if the reason represents a finished pagination
func (s StopReason) Terminal() bool {
	switch s {
	case StopNoMoreReviews, StopBelowWindow, StopFetchFailed, StopCancelled:
		return true
	}
	return false
}
