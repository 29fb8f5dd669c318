package images

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const (
	// pageHeadBytes bounds how much of an article page is scanned.
	pageHeadBytes = 20000
	userAgent     = "Mozilla/5.0 (compatible; AINewsRecap/1.0)"
)

// PageResolver looks up the social-preview image of an article page.
type PageResolver struct {
	client *http.Client
}

// NewPageResolver makes a resolver whose requests time out after timeout.
func NewPageResolver(timeout time.Duration) *PageResolver {
	return &PageResolver{client: &http.Client{Timeout: timeout}}
}

// NewPageResolverWithClient uses the given client (tests pass httptest clients).
func NewPageResolverWithClient(client *http.Client) *PageResolver {
	return &PageResolver{client: client}
}

// PageImage fetches the beginning of pageURL and returns its og:image, falling
// back to the preview image readability finds in the same bytes.
func (r *PageResolver) PageImage(ctx context.Context, pageURL string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build page request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("load page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	head, err := io.ReadAll(io.LimitReader(resp.Body, pageHeadBytes))
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}

	if img := ogImage(head); img != "" {
		return resolve(base, img), nil
	}

	article, err := readability.FromReader(bytes.NewReader(head), base)
	if err == nil && article.Image != "" {
		return resolve(base, article.Image), nil
	}
	return "", nil
}

// ogImage scans meta tags for og:image regardless of attribute order.
func ogImage(head []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(head))
	if err != nil {
		return ""
	}

	var found string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		key := s.AttrOr("property", s.AttrOr("name", ""))
		if !strings.EqualFold(strings.TrimSpace(key), "og:image") {
			return true
		}
		found = strings.TrimSpace(s.AttrOr("content", ""))
		return found == ""
	})
	return found
}

func resolve(base *url.URL, ref string) string {
	u, err := base.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return u.String()
}
