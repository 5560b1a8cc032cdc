package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/amitsajwan/realestate-ai-sub013/internal/service"
	"github.com/amitsajwan/realestate-ai-sub013/internal/service/channel"
)

type stubPublisher struct {
	name     string
	language string
}

func (s *stubPublisher) Name() string     { return s.name }
func (s *stubPublisher) Language() string { return s.language }

func (s *stubPublisher) Publish(ctx context.Context, req channel.Request) (*channel.Result, error) {
	return &channel.Result{ExternalID: s.name + "-1"}, nil
}

func (s *stubPublisher) Unpublish(ctx context.Context, externalID string) error { return nil }

type stubMetricsPublisher struct {
	stubPublisher
}

func (s *stubMetricsPublisher) FetchMetrics(ctx context.Context, externalID string) (*channel.Metrics, error) {
	return &channel.Metrics{}, nil
}

type memMedia struct {
	uploads map[string][]byte
}

func (m *memMedia) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if m.uploads == nil {
		m.uploads = make(map[string][]byte)
	}
	m.uploads[key] = data
	return nil
}

func (m *memMedia) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (m *memMedia) Delete(ctx context.Context, key string) error { return nil }

func (m *memMedia) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.uploads[key]
	return ok, nil
}

func (m *memMedia) ResolveURL(key string) string { return "https://cdn.test/" + key }

// newTestServer wires only what the exercised routes need.
func newTestServer(t *testing.T) (*Server, *memMedia) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := channel.NewRegistry(zap.NewNop())
	require.NoError(t, registry.Register(&stubMetricsPublisher{stubPublisher{name: channel.Facebook, language: "en"}}))
	require.NoError(t, registry.Register(&stubPublisher{name: channel.Email, language: "es"}))

	media := &memMedia{}
	srv := &Server{
		Router:   gin.New(),
		Logger:   zap.NewNop(),
		Registry: registry,
		Media:    media,
	}
	srv.setupRoutes()
	return srv, media
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	srv.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestListChannels(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/channels", nil)
	srv.Router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Channels []struct {
			Name     string `json:"name"`
			Language string `json:"language"`
			Metrics  bool   `json:"metrics"`
		} `json:"channels"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Channels, 2)

	// Names come back sorted.
	assert.Equal(t, channel.Email, resp.Channels[0].Name)
	assert.Equal(t, "es", resp.Channels[0].Language)
	assert.False(t, resp.Channels[0].Metrics)

	assert.Equal(t, channel.Facebook, resp.Channels[1].Name)
	assert.True(t, resp.Channels[1].Metrics)
}

func TestUploadMedia(t *testing.T) {
	srv, media := newTestServer(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "front.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	srv.Router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Key string `json:"key"`
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.Key, "media/"))
	assert.True(t, strings.HasSuffix(resp.Key, ".jpg"))
	assert.Equal(t, "https://cdn.test/"+resp.Key, resp.URL)
	assert.Equal(t, []byte("jpeg bytes"), media.uploads[resp.Key])
}

func TestUploadMediaMissingFile(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", strings.NewReader(""))
	srv.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRespondErrorMapping(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		err  error
		code int
	}{
		{err: service.ErrPostNotFound, code: http.StatusNotFound},
		{err: service.ErrPropertyNotFound, code: http.StatusNotFound},
		{err: service.ErrAlreadyInProgress, code: http.StatusConflict},
		{err: service.ErrPostArchived, code: http.StatusConflict},
		{err: service.ErrInvalidTransition, code: http.StatusConflict},
		{err: service.ErrUnknownChannel, code: http.StatusBadRequest},
		{err: service.ErrChannelNotTarget, code: http.StatusBadRequest},
		{err: service.ErrScheduleInPast, code: http.StatusBadRequest},
		{err: errors.New("database gone"), code: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		srv.respondError(c, tt.err)
		assert.Equal(t, tt.code, w.Code, "error %v", tt.err)
	}
}
