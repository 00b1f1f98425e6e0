package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Class lists identifying the storefront's review markup. The utility-class
// soup can't be written as CSS selectors (tokens like "lg:tw-grid" and
// "tw-w-[88px]" break the selector grammar), so matching is done on the
// class attribute's token set instead
const (
	reviewNodeClasses   = "lg:tw-grid lg:tw-grid-cols-4 lg:tw-gap-x-gutter--desktop"
	reviewerInfoClasses = "tw-order-2 lg:tw-order-1 lg:tw-row-span-2 tw-mt-md md:tw-mt-0 tw-space-y-1 md:tw-space-y-2 tw-text-fg-tertiary tw-text-body-xs"
	reviewerNameClasses = "tw-text-heading-xs tw-text-fg-primary tw-overflow-hidden tw-text-ellipsis tw-whitespace-nowrap"
	dateRatingClasses   = "tw-flex tw-items-center tw-justify-between tw-mb-md"
	reviewDateClasses   = "tw-text-body-xs tw-text-fg-tertiary"
	ratingClasses       = "tw-flex tw-relative tw-space-x-0.5 tw-w-[88px] tw-h-md"
)

// tenurePhrase tags the reviewer-info line holding "time using the app"
const tenurePhrase = "using the app"

// StorefrontPolicy implements FieldPolicy and NodePolicy for the marketplace's
// current review-page layout
type StorefrontPolicy struct{}

// NewStorefrontPolicy returns the policy for the current storefront layout
func NewStorefrontPolicy() *StorefrontPolicy {
	return &StorefrontPolicy{}
}

// ReviewNodes selects all review entries on a feed page, in document order
func (p *StorefrontPolicy) ReviewNodes(doc *goquery.Document) *goquery.Selection {
	want := strings.Fields(reviewNodeClasses)
	return doc.Find("div[data-merchant-review]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return hasClasses(s, want)
	})
}

// ReviewText extracts the review body
func (p *StorefrontPolicy) ReviewText(review *goquery.Selection) string {
	paragraph := review.Find("div[data-truncate-content-copy]").First().Find("p").First()
	if paragraph.Length() == 0 {
		return NoReviewText
	}
	return strings.TrimSpace(paragraph.Text())
}

// ReviewerName extracts the reviewer display name from the reviewer-info block
func (p *StorefrontPolicy) ReviewerName(review *goquery.Selection) string {
	name := findDivsByClasses(p.infoBlock(review), reviewerNameClasses).First()
	if name.Length() == 0 {
		return NoReviewerName
	}
	return strings.TrimSpace(name.Text())
}

// Location extracts the reviewer's location. The storefront carries no field
// label: the first non-empty sibling under the reviewer-info block that is
// neither the name line nor the tenure line is the location
func (p *StorefrontPolicy) Location(review *goquery.Selection) string {
	info := p.infoBlock(review)
	if info.Length() == 0 {
		return NoInfo
	}
	nameNode := nodeOf(findDivsByClasses(info, reviewerNameClasses).First())

	location := NoInfo
	info.ChildrenFiltered("div").EachWithBreak(func(_ int, child *goquery.Selection) bool {
		if nodeOf(child) == nameNode {
			return true
		}
		text := strings.TrimSpace(child.Text())
		if strings.Contains(text, tenurePhrase) || text == "" {
			return true
		}
		location = text
		return false // First qualifying sibling wins
	})
	return location
}

// Tenure extracts how long the reviewer has used the app, identified by the
// tenure phrase and stored with the phrase stripped
func (p *StorefrontPolicy) Tenure(review *goquery.Selection) string {
	info := p.infoBlock(review)
	if info.Length() == 0 {
		return NoInfo
	}
	nameNode := nodeOf(findDivsByClasses(info, reviewerNameClasses).First())

	tenure := NoInfo
	info.ChildrenFiltered("div").Each(func(_ int, child *goquery.Selection) {
		if nodeOf(child) == nameNode {
			return
		}
		text := strings.TrimSpace(child.Text())
		if strings.Contains(text, tenurePhrase) {
			tenure = strings.Replace(text, " "+tenurePhrase, "", 1)
		}
	})
	return tenure
}

// RawDate extracts the displayed date string from the date/rating container
func (p *StorefrontPolicy) RawDate(review *goquery.Selection) string {
	container := findDivsByClasses(review, dateRatingClasses).First()
	if container.Length() == 0 {
		return NoReviewDate
	}
	dateDiv := findDivsByClasses(container, reviewDateClasses).First()
	if dateDiv.Length() == 0 {
		return NoReviewDate
	}
	return strings.TrimSpace(dateDiv.Text())
}

// Rating extracts the numeric rating from the rating marker's accessible
// label, whose first whitespace-delimited token is the star count
func (p *StorefrontPolicy) Rating(review *goquery.Selection) (string, bool) {
	ratingDiv := findDivsByClasses(review, ratingClasses).First()
	if ratingDiv.Length() == 0 {
		return "", false
	}
	label, exists := ratingDiv.Attr("aria-label")
	if !exists {
		return "", false
	}
	tokens := strings.Fields(label)
	if len(tokens) == 0 {
		return "", false
	}
	return tokens[0], true
}

// infoBlock locates the reviewer-info container within one review node
func (p *StorefrontPolicy) infoBlock(review *goquery.Selection) *goquery.Selection {
	return findDivsByClasses(review, reviewerInfoClasses).First()
}

// findDivsByClasses returns descendant divs of root carrying every class token in want
func findDivsByClasses(root *goquery.Selection, want string) *goquery.Selection {
	wanted := strings.Fields(want)
	return root.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return hasClasses(s, wanted)
	})
}

// hasClasses reports whether the selection's class attribute contains every wanted token
func hasClasses(s *goquery.Selection, want []string) bool {
	attr, exists := s.Attr("class")
	if !exists {
		return false
	}
	have := make(map[string]bool)
	for _, class := range strings.Fields(attr) {
		have[class] = true
	}
	for _, class := range want {
		if !have[class] {
			return false
		}
	}
	return true
}

// nodeOf returns the selection's first underlying node, or nil when empty.
// Used for identity comparison between selections
func nodeOf(s *goquery.Selection) *html.Node {
	if s == nil || s.Length() == 0 {
		return nil
	}
	return s.Nodes[0]
}
