package website

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/amitsajwan/realestate-ai-sub013/internal/config"
	"github.com/amitsajwan/realestate-ai-sub013/internal/service/channel"
	"github.com/amitsajwan/realestate-ai-sub013/pkg/util"
)

// WebsitePublisher pushes posts to the agency website through its CMS API.
type WebsitePublisher struct {
	logger   *zap.Logger
	client   *http.Client
	baseURL  string
	apiKey   string
	language string
}

// CMS API request/response structures
type WebsitePostRequest struct {
	Slug       string   `json:"slug"`
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Language   string   `json:"language"`
	PropertyID string   `json:"property_id"`
	ImageURLs  []string `json:"image_urls,omitempty"`
}

type WebsitePostResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type WebsiteStatsResponse struct {
	Views  int64 `json:"views"`
	Clicks int64 `json:"clicks"`
}

func NewWebsitePublisher(cfg config.WebsiteConfig, logger *zap.Logger) *WebsitePublisher {
	return &WebsitePublisher{
		logger:   logger,
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		language: cfg.Language,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (p *WebsitePublisher) Name() string {
	return channel.Website
}

func (p *WebsitePublisher) Language() string {
	return p.language
}

// Publish creates a listing page. The slug comes from the post title so
// the page URL stays stable across retries.
func (p *WebsitePublisher) Publish(ctx context.Context, req channel.Request) (*channel.Result, error) {
	payload := WebsitePostRequest{
		Slug:     util.GenerateSlug(req.Title),
		Title:    req.Title,
		Body:     req.Body,
		Language: req.Language,
	}
	if req.Property != nil {
		payload.PropertyID = req.Property.ID
	}
	payload.ImageURLs = req.MediaURLs

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/posts", p.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, channel.Transient(channel.Website, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		p.logger.Error("CMS API error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response_body", string(body)))
		return nil, channel.FromHTTPStatus(channel.Website, resp.StatusCode, string(body))
	}

	var postResp WebsitePostResponse
	if err := json.Unmarshal(body, &postResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	p.logger.Info("Website post published",
		zap.String("post_id", req.PostID),
		zap.String("external_id", postResp.ID),
		zap.String("url", postResp.URL))

	return &channel.Result{
		ExternalID:  postResp.ID,
		URL:         postResp.URL,
		PublishedAt: time.Now(),
	}, nil
}

// Unpublish takes the listing page down.
func (p *WebsitePublisher) Unpublish(ctx context.Context, externalID string) error {
	endpoint := fmt.Sprintf("%s/api/posts/%s", p.baseURL, externalID)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return channel.Transient(channel.Website, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return channel.FromHTTPStatus(channel.Website, resp.StatusCode, string(body))
	}
	return nil
}

// FetchMetrics reads page view stats from the CMS.
func (p *WebsitePublisher) FetchMetrics(ctx context.Context, externalID string) (*channel.Metrics, error) {
	endpoint := fmt.Sprintf("%s/api/posts/%s/stats", p.baseURL, externalID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, channel.Transient(channel.Website, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, channel.FromHTTPStatus(channel.Website, resp.StatusCode, string(body))
	}

	var stats WebsiteStatsResponse
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &channel.Metrics{
		Impressions: stats.Views,
		Clicks:      stats.Clicks,
	}, nil
}

func (p *WebsitePublisher) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", p.apiKey)
}
