package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatBody struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string   `json:"role"`
		Content string   `json:"content"`
		Images  []string `json:"images"`
	} `json:"messages"`
	Stream *bool `json:"stream"`
}

func newServer(t *testing.T, reply string, seen *chatBody) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":   "test",
			"message": map[string]string{"role": "assistant", "content": reply},
			"done":    true,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient("localhost")
	assert.Error(t, err)

	_, err = NewClient("http://localhost:11434/api/chat")
	assert.NoError(t, err)
}

func TestSimpleQuerySendsImage(t *testing.T) {
	var seen chatBody
	srv := newServer(t, "a dog running on grass", &seen)

	c, err := NewClient(srv.URL + "/api/chat")
	require.NoError(t, err)

	img := base64.StdEncoding.EncodeToString([]byte("fake-jpeg"))
	got, err := c.SimpleQuery(context.Background(), "llava", "describe", img)
	require.NoError(t, err)
	assert.Equal(t, "a dog running on grass", got)

	assert.Equal(t, "llava", seen.Model)
	require.Len(t, seen.Messages, 1)
	assert.Equal(t, "describe", seen.Messages[0].Content)
	assert.Len(t, seen.Messages[0].Images, 1)
	require.NotNil(t, seen.Stream)
	assert.False(t, *seen.Stream)
}

func TestSimpleQueryBadBase64(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:1")
	require.NoError(t, err)

	_, err = c.SimpleQuery(context.Background(), "llava", "describe", "%%%")
	assert.Error(t, err)
}

func TestCompleteHasNoImages(t *testing.T) {
	var seen chatBody
	srv := newServer(t, "كلب يجري على العشب", &seen)

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	got, err := c.Complete(context.Background(), "qwen2.5", "translate")
	require.NoError(t, err)
	assert.Equal(t, "كلب يجري على العشب", got)
	require.Len(t, seen.Messages, 1)
	assert.Empty(t, seen.Messages[0].Images)
}

func TestEmptyReplyIsError(t *testing.T) {
	srv := newServer(t, "", nil)
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "qwen2.5", "translate")
	assert.Error(t, err)
}

func TestServerErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"nope\" not found"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "nope", "translate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestModelOptions(t *testing.T) {
	opts := modelOptions("openbmb/minicpm-v4.5")
	assert.Equal(t, 4096, opts["num_ctx"])

	opts = modelOptions("llava")
	_, ok := opts["num_ctx"]
	assert.False(t, ok)
}
