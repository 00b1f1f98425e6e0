package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"review-scraper/pkg/models"
)

// header is the column contract with downstream consumers of the export.
// "date" carries the raw displayed string, not the parsed value
var header = []string{"app_name", "review", "reviewer", "date", "location", "duration", "rating"}

// Writer serializes collected records to timestamped CSV files in one directory
type Writer struct {
	dir string
	log *logrus.Entry
}

// NewWriter creates a Writer targeting dir
func NewWriter(dir string, log *logrus.Entry) *Writer {
	return &Writer{dir: dir, log: log}
}

// Write serializes records to "<prefix>_<timestamp>.csv" under the writer's
// directory and returns the file path. An empty record set writes nothing and
// returns an empty path
func (w *Writer) Write(prefix string, records []models.ReviewRecord) (string, error) {
	if len(records) == 0 {
		w.log.Info("No records collected, skipping CSV export")
		return "", nil
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("%s_%s.csv", prefix, time.Now().Format("20060102_150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.AppName,
			rec.ReviewText,
			rec.ReviewerName,
			rec.RawDate,
			rec.Location,
			rec.Tenure,
			rec.Rating,
		}
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("write record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush export file: %w", err)
	}

	w.log.WithFields(logrus.Fields{"path": path, "records": len(records)}).Info("Wrote CSV export")
	return path, nil
}
