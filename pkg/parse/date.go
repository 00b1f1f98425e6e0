package parse

import (
	"fmt"
	"strings"
	"time"

	"review-scraper/pkg/utils"
)

// reviewDateLayout matches how the storefront renders publish dates, e.g. "June 1, 2024"
const reviewDateLayout = "January 2, 2006"

// editedMarker prefixes a review whose date shown is the edit date, e.g. "Edited June 1, 2024".
// The edit date supersedes the original publish date for filtering purposes
const editedMarker = "Edited"

// ReviewDate converts a storefront date string into a calendar date.
// Returns an error wrapping utils.ErrParsing when the string does not match
// the expected layout; callers must treat that as "cannot place in window",
// not as a fatal condition
func ReviewDate(raw string) (time.Time, error) {
	s := raw
	if idx := strings.Index(s, editedMarker); idx >= 0 {
		s = s[idx+len(editedMarker):]
	}
	s = strings.TrimSpace(s)

	t, err := time.Parse(reviewDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: review date %q: %v", utils.ErrParsing, raw, err)
	}
	return t, nil
}
