package news

import "strings"

const titleKeyRunes = 80

// URLKey normalizes a link for duplicate detection.
func URLKey(link string) string {
	return strings.TrimRight(strings.TrimSpace(link), "/")
}

// TitleKey lowercases and trims a title, keeping its first 80 runes.
func TitleKey(title string) string {
	key := strings.TrimSpace(strings.ToLower(title))
	runes := []rune(key)
	if len(runes) > titleKeyRunes {
		key = string(runes[:titleKeyRunes])
	}
	return key
}

// Deduplicate keeps the first article for every URL key and every title key.
// Empty keys never match anything, so articles without a link are compared
// by title only. The input slice is not modified.
func Deduplicate(articles []Article) []Article {
	seenURLs := make(map[string]struct{}, len(articles))
	seenTitles := make(map[string]struct{}, len(articles))
	unique := make([]Article, 0, len(articles))

	for _, a := range articles {
		urlKey := URLKey(a.URL)
		titleKey := TitleKey(a.Title)

		if _, dup := seenURLs[urlKey]; urlKey != "" && dup {
			continue
		}
		if _, dup := seenTitles[titleKey]; titleKey != "" && dup {
			continue
		}

		if urlKey != "" {
			seenURLs[urlKey] = struct{}{}
		}
		// Untitled entries are kept apart by URL only.
		if titleKey != "" {
			seenTitles[titleKey] = struct{}{}
		}
		unique = append(unique, a)
	}

	return unique
}
