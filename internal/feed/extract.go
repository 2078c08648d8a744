package feed

import (
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"TruthTrader/internal/model"
)

// Placeholder values when the document is missing pieces. A placeholder ID is
// still a valid signal identifier as far as the gate is concerned.
const (
	NoTimestamp = "No timestamp found"
	NoText      = "No text found"
)

// extractLatest pulls the newest post out of the source HTML. Posts appear
// newest-first; only the first one is taken, older entries in the same
// document are intentionally ignored.
func extractLatest(r io.Reader) (*model.Signal, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	body := doc.Find("div.status__body").First()
	if body.Length() == 0 {
		return nil, ErrNoContent
	}

	sig := &model.Signal{
		ID:        NoTimestamp,
		Body:      NoText,
		FetchedAt: time.Now(),
	}

	// The timestamp lives in the second meta link of the status-info block
	// that precedes the post body inside the same status card.
	meta := body.Parent().Find("div.status-info__body").First()
	if meta.Length() == 0 {
		meta = doc.Find("div.status-info__body").First()
	}
	if meta.Length() > 0 {
		tags := meta.Find("a.status-info__meta-item")
		if tags.Length() > 1 {
			if ts := strings.TrimSpace(tags.Eq(1).Text()); ts != "" {
				sig.ID = ts
			}
		}
	}

	if content := body.Find("div.status__content").First(); content.Length() > 0 {
		if text := strings.TrimSpace(content.Text()); text != "" {
			sig.Body = text
		}
	}

	return sig, nil
}
