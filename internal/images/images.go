// Package images finds a representative picture for an article, first in the
// feed entry itself and then, within a per-run budget, on the linked page.
package images

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif"}

// blocked marks tracking pixels and placeholder assets.
var blocked = []string{"1x1", "pixel", "tracking", "spacer", "blank", "feedburner"}

// Validate returns url if it looks like a real image link, otherwise "".
func Validate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	for _, p := range blocked {
		if strings.Contains(lower, p) {
			return ""
		}
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	if s := strings.ToLower(u.Scheme); s != "http" && s != "https" {
		return ""
	}
	return raw
}

// FromItem extracts an image URL from feed metadata. Strategies run in order
// and the first non-empty candidate is returned unvalidated; callers pass it
// through Validate.
func FromItem(item *gofeed.Item) string {
	if item == nil {
		return ""
	}
	if u := fromMediaContent(item.Extensions); u != "" {
		return u
	}
	if u := fromThumbnail(item); u != "" {
		return u
	}
	if u := fromEnclosures(item.Enclosures); u != "" {
		return u
	}
	if u := firstInlineImage(item.Description); u != "" {
		return u
	}
	return firstInlineImage(item.Content)
}

func mediaEntries(exts ext.Extensions, name string) []ext.Extension {
	media, ok := exts["media"]
	if !ok {
		return nil
	}
	entries := append([]ext.Extension{}, media[name]...)
	for _, group := range media["group"] {
		entries = append(entries, group.Children[name]...)
	}
	return entries
}

func fromMediaContent(exts ext.Extensions) string {
	for _, m := range mediaEntries(exts, "content") {
		u := strings.TrimSpace(m.Attrs["url"])
		if u == "" {
			continue
		}
		if hasImageExtension(u) || m.Attrs["medium"] == "image" || strings.HasPrefix(m.Attrs["type"], "image/") {
			return u
		}
	}
	return ""
}

func fromThumbnail(item *gofeed.Item) string {
	for _, m := range mediaEntries(item.Extensions, "thumbnail") {
		if u := strings.TrimSpace(m.Attrs["url"]); u != "" {
			return u
		}
	}
	if item.Image != nil {
		return strings.TrimSpace(item.Image.URL)
	}
	return ""
}

func fromEnclosures(enclosures []*gofeed.Enclosure) string {
	for _, enc := range enclosures {
		if enc == nil {
			continue
		}
		if strings.HasPrefix(strings.ToLower(enc.Type), "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}

// firstInlineImage returns the src of the first <img> when it is absolute.
func firstInlineImage(body string) string {
	if !strings.Contains(strings.ToLower(body), "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	src, ok := doc.Find("img[src]").First().Attr("src")
	if !ok || !strings.HasPrefix(src, "http") {
		return ""
	}
	return src
}

func hasImageExtension(raw string) bool {
	p := strings.ToLower(raw)
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = strings.ToLower(u.Path)
	}
	suffix := path.Ext(p)
	for _, e := range imageExtensions {
		if suffix == e {
			return true
		}
	}
	return false
}
