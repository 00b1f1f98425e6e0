package extract

import "github.com/PuerkitoBio/goquery"

// Sentinel values substituted when an expected field is structurally absent.
// These land in the exported output verbatim
const (
	NoReviewText   = "No review text"
	NoReviewerName = "No reviewer name"
	NoReviewDate   = "No review date"
	NoInfo         = "N/A"
)

// FieldPolicy isolates the storefront's presentation-coupled selection rules,
// one method per record field. The pager and extractor never touch markup
// classes directly, so a storefront layout change stays contained to one
// replaceable implementation.
//
// Every method must tolerate missing sub-nodes and degrade to the documented
// sentinel; none may panic on sparse markup
type FieldPolicy interface {
	ReviewText(review *goquery.Selection) string
	ReviewerName(review *goquery.Selection) string
	Location(review *goquery.Selection) string
	Tenure(review *goquery.Selection) string
	RawDate(review *goquery.Selection) string
	// Rating returns the numeric rating token and true, or "" and false when
	// the rating marker is absent or its label malformed
	Rating(review *goquery.Selection) (string, bool)
}

// NodePolicy selects the review nodes on one feed page, in document order
type NodePolicy interface {
	ReviewNodes(doc *goquery.Document) *goquery.Selection
}
