package news

import (
	"net/url"
	"strings"
	"time"
)

// Article is a single feed or search result collected during one run.
type Article struct {
	Title     string     `json:"title"`
	Summary   string     `json:"summary"`
	URL       string     `json:"url"`
	Source    string     `json:"source"`
	Category  string     `json:"category"`
	Published *time.Time `json:"published"`
	ImageURL  string     `json:"image_url"`
	Domain    string     `json:"domain"`
}

// Discourse is a social post or community thread used as background signal.
type Discourse struct {
	Author    string     `json:"author,omitempty"`
	Handle    string     `json:"handle,omitempty"`
	Source    string     `json:"source,omitempty"`
	Title     string     `json:"title,omitempty"`
	Text      string     `json:"text"`
	URL       string     `json:"url"`
	Published *time.Time `json:"published"`
}

// SummaryLimit caps article summaries in bytes.
const SummaryLimit = 500

// Domain returns the host of link without a leading "www." label.
func Domain(link string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}

// Within reports whether published falls inside the lookback window.
// Items without a timestamp are always inside.
func Within(published *time.Time, cutoff time.Time) bool {
	if published == nil {
		return true
	}
	return !published.Before(cutoff)
}

// FirstTime returns the first non-nil timestamp, in UTC.
func FirstTime(candidates ...*time.Time) *time.Time {
	for _, t := range candidates {
		if t != nil && !t.IsZero() {
			utc := t.UTC()
			return &utc
		}
	}
	return nil
}
