package extract

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"review-scraper/pkg/models"
	"review-scraper/pkg/parse"
)

// Extractor turns one review node into a ReviewRecord using a FieldPolicy.
// Missing sub-fields degrade to sentinels; an unparseable date leaves
// ParsedDate nil, with the raw string preserved for export
type Extractor struct {
	policy FieldPolicy
	log    *logrus.Entry
}

// NewExtractor creates an Extractor
func NewExtractor(policy FieldPolicy, log *logrus.Entry) *Extractor {
	return &Extractor{policy: policy, log: log}
}

// Extract builds the record for one review node, tagged with the app's name
func (e *Extractor) Extract(appName string, review *goquery.Selection) models.ReviewRecord {
	rec := models.ReviewRecord{
		AppName:      appName,
		ReviewText:   e.policy.ReviewText(review),
		ReviewerName: e.policy.ReviewerName(review),
		Location:     e.policy.Location(review),
		Tenure:       e.policy.Tenure(review),
		RawDate:      e.policy.RawDate(review),
	}

	if rating, ok := e.policy.Rating(review); ok {
		rec.Rating = rating
	}

	if date, err := parse.ReviewDate(rec.RawDate); err == nil {
		rec.ParsedDate = &date
	} else {
		e.log.WithField("raw_date", rec.RawDate).Debugf("Review date not parseable: %v", err)
	}

	return rec
}
