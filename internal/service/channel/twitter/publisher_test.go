package twitter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/amitsajwan/realestate-ai-sub013/internal/config"
	"github.com/amitsajwan/realestate-ai-sub013/internal/service/channel"
)

func newTestPublisher(apiBase string) *TwitterPublisher {
	return NewTwitterPublisher(config.TwitterConfig{
		APIBase:     apiBase,
		BearerToken: "bearer-1",
		Language:    "en",
	}, zap.NewNop())
}

func TestPublishTweet(t *testing.T) {
	var gotAuth string
	var gotBody TweetRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/tweets", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":"1790","text":"Charming 2BHK"}}`))
	}))
	defer server.Close()

	p := newTestPublisher(server.URL)
	result, err := p.Publish(context.Background(), channel.Request{PostID: "post-1", Body: "Charming 2BHK"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer bearer-1", gotAuth)
	assert.Equal(t, "Charming 2BHK", gotBody.Text)
	assert.Equal(t, "1790", result.ExternalID)
	assert.Equal(t, "https://twitter.com/i/web/status/1790", result.URL)
}

func TestPublishTruncatesLongBody(t *testing.T) {
	var gotBody TweetRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"data":{"id":"1791"}}`))
	}))
	defer server.Close()

	p := newTestPublisher(server.URL)
	_, err := p.Publish(context.Background(), channel.Request{Body: strings.Repeat("a", 400)})
	require.NoError(t, err)

	assert.Equal(t, maxTweetLength, utf8.RuneCountInString(gotBody.Text))
	assert.True(t, strings.HasSuffix(gotBody.Text, "…"))
}

func TestPublishRateLimitIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"title":"Too Many Requests"}`))
	}))
	defer server.Close()

	p := newTestPublisher(server.URL)
	_, err := p.Publish(context.Background(), channel.Request{Body: "hi"})
	require.Error(t, err)

	var cerr *channel.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, channel.KindTransient, cerr.Kind)
}

func TestUnpublish(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/2/tweets/1790", r.URL.Path)
		w.Write([]byte(`{"data":{"deleted":true}}`))
	}))
	defer server.Close()

	p := newTestPublisher(server.URL)
	assert.NoError(t, p.Unpublish(context.Background(), "1790"))
}

func TestUnpublishNotDeleted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"deleted":false}}`))
	}))
	defer server.Close()

	p := newTestPublisher(server.URL)
	assert.Error(t, p.Unpublish(context.Background(), "1790"))
}

func TestFetchMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/tweets/1790", r.URL.Path)
		assert.Equal(t, "public_metrics", r.URL.Query().Get("tweet.fields"))
		w.Write([]byte(`{"data":{"public_metrics":{"impression_count":500,"like_count":20,"retweet_count":5,"reply_count":3}}}`))
	}))
	defer server.Close()

	p := newTestPublisher(server.URL)
	metrics, err := p.FetchMetrics(context.Background(), "1790")
	require.NoError(t, err)

	assert.Equal(t, int64(500), metrics.Impressions)
	assert.Equal(t, int64(28), metrics.Engagement)
}
