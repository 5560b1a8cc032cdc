package generator

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
)

var testProperty = &models.Property{
	ID:        "prop-1",
	Title:     "Sea View Apartment",
	Address:   "12 Hill Road",
	City:      "Mumbai",
	Price:     250000,
	Currency:  "USD",
	Bedrooms:  2,
	Bathrooms: 2,
	AreaSqm:   88,
	Amenities: models.StringArray{"pool", "gym"},
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(config.GeneratorConfig{
		BaseURL:    baseURL,
		APIKey:     "sk-test",
		Model:      "gpt-4o-mini",
		Timeout:    "5s",
		StyleHints: "warm and upbeat",
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestGenerate(t *testing.T) {
	var gotAuth string
	var gotReq ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Wake up to the sea every morning.  "}}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	text, err := client.Generate(context.Background(), testProperty, "es")
	require.NoError(t, err)

	assert.Equal(t, "Wake up to the sea every morning.", text)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotReq.Model)

	require.Len(t, gotReq.Messages, 2)
	system := gotReq.Messages[0]
	assert.Equal(t, "system", system.Role)
	assert.Contains(t, system.Content, "Spanish")
	assert.Contains(t, system.Content, "warm and upbeat")

	user := gotReq.Messages[1]
	assert.Equal(t, "user", user.Role)
	assert.Contains(t, user.Content, "Sea View Apartment")
	assert.Contains(t, user.Content, "250000 USD")
	assert.Contains(t, user.Content, "pool, gym")
}

func TestGenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"model overloaded","type":"server_error"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Generate(context.Background(), testProperty, "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestGenerateHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Generate(context.Background(), testProperty, "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGenerateEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"   "}}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Generate(context.Background(), testProperty, "en")
	assert.Error(t, err)
}

func TestNewClientInvalidTimeout(t *testing.T) {
	_, err := NewClient(config.GeneratorConfig{Timeout: "whenever"}, zap.NewNop())
	assert.Error(t, err)
}
