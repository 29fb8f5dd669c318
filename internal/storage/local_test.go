package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rggoldberg/Ai-News-recap/internal/news"
)

func TestSaveHTML_CreatesDirAndOverwritesSameDay(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")
	l := NewLocal(dir)
	morning := time.Date(2026, 1, 9, 7, 0, 0, 0, time.UTC)

	path, err := l.SaveHTML(morning, "<p>first</p>")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "recap_20260109.html"), path)

	_, err = l.SaveHTML(morning.Add(5*time.Hour), "<p>second</p>")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<p>second</p>", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveAtom(t *testing.T) {
	l := NewLocal(t.TempDir())
	now := time.Date(2026, 1, 9, 7, 0, 0, 0, time.UTC)
	pub := now.Add(-time.Hour)

	path, err := l.SaveAtom(now, []news.Article{
		{Title: "GPT-5 Launches", URL: "https://example.com/gpt5", Source: "Wire", Summary: "big", Published: &pub, ImageURL: "https://img.example/a.png"},
		{Title: "Undated", URL: "https://example.com/u"},
	})
	require.NoError(t, err)
	assert.Equal(t, "recap_20260109.atom", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(data)
	assert.Contains(t, body, "<feed")
	assert.Contains(t, body, "GPT-5 Launches")
	assert.Contains(t, body, "https://example.com/u")
	assert.Contains(t, body, "AI Recap // January 09, 2026")
}

func TestNewLocal_DefaultDir(t *testing.T) {
	assert.Equal(t, "output", NewLocal("").Dir())
}
