package website

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/amitsajwan/realestate-ai-sub013/internal/config"
	"github.com/amitsajwan/realestate-ai-sub013/internal/models"
	"github.com/amitsajwan/realestate-ai-sub013/internal/service/channel"
)

func newTestPublisher(baseURL string) *WebsitePublisher {
	return NewWebsitePublisher(config.WebsiteConfig{
		BaseURL:  baseURL,
		APIKey:   "cms-key",
		Language: "en",
	}, zap.NewNop())
}

func TestPublishCreatesListingPage(t *testing.T) {
	var gotKey string
	var gotBody WebsitePostRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/posts", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		gotKey = r.Header.Get("X-API-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(WebsitePostResponse{ID: "cms-42", URL: "https://example.com/listings/sea-view"})
	}))
	defer server.Close()

	p := newTestPublisher(server.URL)
	result, err := p.Publish(context.Background(), channel.Request{
		PostID:    "post-1",
		Title:     "Sea View Apartment in Bandra",
		Body:      "Wake up to the sea.",
		Language:  "en",
		MediaURLs: []string{"https://cdn.test/media/front.jpg"},
		Property:  &models.Property{ID: "prop-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "cms-key", gotKey)
	assert.Equal(t, "sea-view-apartment-in-bandra", gotBody.Slug)
	assert.Equal(t, "prop-1", gotBody.PropertyID)
	assert.Equal(t, []string{"https://cdn.test/media/front.jpg"}, gotBody.ImageURLs)

	assert.Equal(t, "cms-42", result.ExternalID)
	assert.Equal(t, "https://example.com/listings/sea-view", result.URL)
}

func TestUnpublish(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/posts/cms-42", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	p := newTestPublisher(server.URL)
	assert.NoError(t, p.Unpublish(context.Background(), "cms-42"))
}

func TestFetchMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/posts/cms-42/stats", r.URL.Path)
		w.Write([]byte(`{"views":300,"clicks":45}`))
	}))
	defer server.Close()

	p := newTestPublisher(server.URL)
	metrics, err := p.FetchMetrics(context.Background(), "cms-42")
	require.NoError(t, err)
	assert.Equal(t, int64(300), metrics.Impressions)
	assert.Equal(t, int64(45), metrics.Clicks)
}

func TestPublishServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	p := newTestPublisher(server.URL)
	_, err := p.Publish(context.Background(), channel.Request{Title: "t", Body: "b"})
	require.Error(t, err)
	assert.False(t, channel.IsPermanent(err))
}
