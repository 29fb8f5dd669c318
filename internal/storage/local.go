package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/feeds"

	"github.com/rggoldberg/Ai-News-recap/internal/news"
)

const filePrefix = "recap_"

// Local writes run artifacts into one directory, one file per calendar day.
// A later run on the same day overwrites the earlier file.
type Local struct {
	dir string
}

func NewLocal(dir string) *Local {
	if dir == "" {
		dir = "output"
	}
	return &Local{dir: dir}
}

func (l *Local) Dir() string { return l.dir }

// Path returns the artifact path for day with the given extension.
func (l *Local) Path(day time.Time, ext string) string {
	return filepath.Join(l.dir, filePrefix+day.Format("20060102")+ext)
}

// SaveHTML writes the digest and returns its path.
func (l *Local) SaveHTML(now time.Time, html string) (string, error) {
	return l.write(l.Path(now, ".html"), []byte(html))
}

// SaveAtom writes the curated articles as an Atom feed next to the digest.
func (l *Local) SaveAtom(now time.Time, articles []news.Article) (string, error) {
	feed := &feeds.Feed{
		Title:       "AI Recap // " + now.Format("January 02, 2006"),
		Link:        &feeds.Link{Href: "https://github.com/rggoldberg/Ai-News-recap"},
		Description: "Articles considered for this recap",
		Created:     now,
	}
	for _, a := range articles {
		created := now
		if a.Published != nil {
			created = *a.Published
		}
		item := &feeds.Item{
			Title:       a.Title,
			Link:        &feeds.Link{Href: a.URL},
			Author:      &feeds.Author{Name: a.Source},
			Description: a.Summary,
			Id:          a.URL,
			Created:     created,
		}
		if a.ImageURL != "" {
			item.Enclosure = &feeds.Enclosure{Url: a.ImageURL, Type: "image/*", Length: "0"}
		}
		feed.Items = append(feed.Items, item)
	}

	atom, err := feed.ToAtom()
	if err != nil {
		return "", fmt.Errorf("render atom: %w", err)
	}
	return l.write(l.Path(now, ".atom"), []byte(atom))
}

func (l *Local) write(path string, data []byte) (string, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
