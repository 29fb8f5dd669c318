package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestResponseText_JoinsTextParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{
			genai.Text("<html>"),
			genai.Blob{MIMEType: "image/png", Data: []byte{1}},
			genai.Text("</html>\n"),
		}},
	}}}
	assert.Equal(t, "<html></html>", responseText(resp))
}

func TestResponseText_Empty(t *testing.T) {
	assert.Empty(t, responseText(nil))
	assert.Empty(t, responseText(&genai.GenerateContentResponse{}))
	assert.Empty(t, responseText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}))
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", "", 0)
	assert.ErrorContains(t, err, "GEMINI_API_KEY")
}

func testClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := newClient(context.Background(), "test-key", "", 5*time.Second, option.WithEndpoint(url))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestGenerate_UnavailableIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	start := time.Now()
	_, err := testClient(t, srv.URL).Generate(context.Background(), "system", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "model overloaded")
	assert.Equal(t, int32(1), hits.Load())
	assert.Less(t, time.Since(start), time.Second)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
}

func TestGenerate_SendsSystemInstructionAndTokenCap(t *testing.T) {
	var (
		key  string
		path string
		body map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get("x-goog-api-key")
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"<html>recap</html>"}]}}]}`)
	}))
	defer srv.Close()

	out, err := testClient(t, srv.URL).Generate(context.Background(), "be an editor", "this week")
	require.NoError(t, err)
	assert.Equal(t, "<html>recap</html>", out)
	assert.Equal(t, "test-key", key)
	assert.Contains(t, path, DefaultModel+":generateContent")

	sys, ok := body["systemInstruction"].(map[string]any)
	require.True(t, ok, "system instruction missing: %v", body)
	parts := sys["parts"].([]any)
	require.Len(t, parts, 1)
	assert.Equal(t, "be an editor", parts[0].(map[string]any)["text"])

	cfg, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok, "generation config missing: %v", body)
	assert.EqualValues(t, maxOutputTokens, cfg["maxOutputTokens"])
}
