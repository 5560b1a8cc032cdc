package facebook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/amitsajwan/realestate-ai-sub013/internal/config"
	"github.com/amitsajwan/realestate-ai-sub013/internal/service/channel"
)

// FacebookPublisher posts to a Facebook page through the Graph API.
type FacebookPublisher struct {
	logger      *zap.Logger
	client      *http.Client
	apiBase     string
	pageID      string
	accessToken string
	language    string
}

// Graph API request/response structures
type FacebookFeedRequest struct {
	Message string `json:"message"`
	Link    string `json:"link,omitempty"`
}

type FacebookPhotoRequest struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

type FacebookPostResponse struct {
	ID     string `json:"id"`
	PostID string `json:"post_id,omitempty"`
}

type FacebookErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

type FacebookInsightsResponse struct {
	Data []struct {
		Name   string `json:"name"`
		Values []struct {
			Value int64 `json:"value"`
		} `json:"values"`
	} `json:"data"`
}

func NewFacebookPublisher(cfg config.FacebookConfig, logger *zap.Logger) *FacebookPublisher {
	return &FacebookPublisher{
		logger:      logger,
		apiBase:     cfg.APIBase,
		pageID:      cfg.PageID,
		accessToken: cfg.AccessToken,
		language:    cfg.Language,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (p *FacebookPublisher) Name() string {
	return channel.Facebook
}

func (p *FacebookPublisher) Language() string {
	return p.language
}

// Publish creates a page post. With media the first photo is attached,
// otherwise a plain feed post goes out.
func (p *FacebookPublisher) Publish(ctx context.Context, req channel.Request) (*channel.Result, error) {
	var (
		resp *FacebookPostResponse
		err  error
	)
	if len(req.MediaURLs) > 0 {
		resp, err = p.createPhotoPost(ctx, req.MediaURLs[0], req.Body)
	} else {
		resp, err = p.createFeedPost(ctx, req.Body)
	}
	if err != nil {
		return nil, err
	}

	externalID := resp.PostID
	if externalID == "" {
		externalID = resp.ID
	}

	p.logger.Info("Facebook post published",
		zap.String("post_id", req.PostID),
		zap.String("external_id", externalID))

	return &channel.Result{
		ExternalID:  externalID,
		URL:         fmt.Sprintf("https://www.facebook.com/%s", externalID),
		PublishedAt: time.Now(),
	}, nil
}

// Unpublish deletes the page post.
func (p *FacebookPublisher) Unpublish(ctx context.Context, externalID string) error {
	endpoint := fmt.Sprintf("%s/%s?access_token=%s", p.apiBase, externalID, url.QueryEscape(p.accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return channel.Transient(channel.Facebook, "request failed", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return p.apiError(resp.StatusCode, body)
	}
	return nil
}

// FetchMetrics reads post insights: impressions, clicks, engaged users.
func (p *FacebookPublisher) FetchMetrics(ctx context.Context, externalID string) (*channel.Metrics, error) {
	endpoint := fmt.Sprintf("%s/%s/insights?metric=post_impressions,post_clicks,post_engaged_users&access_token=%s",
		p.apiBase, externalID, url.QueryEscape(p.accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, channel.Transient(channel.Facebook, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.apiError(resp.StatusCode, body)
	}

	var insights FacebookInsightsResponse
	if err := json.Unmarshal(body, &insights); err != nil {
		return nil, fmt.Errorf("failed to parse insights response: %w", err)
	}

	metrics := &channel.Metrics{}
	for _, entry := range insights.Data {
		if len(entry.Values) == 0 {
			continue
		}
		value := entry.Values[0].Value
		switch entry.Name {
		case "post_impressions":
			metrics.Impressions = value
		case "post_clicks":
			metrics.Clicks = value
		case "post_engaged_users":
			metrics.Engagement = value
		}
	}
	return metrics, nil
}

// Helper methods

func (p *FacebookPublisher) createFeedPost(ctx context.Context, message string) (*FacebookPostResponse, error) {
	endpoint := fmt.Sprintf("%s/%s/feed?access_token=%s", p.apiBase, p.pageID, url.QueryEscape(p.accessToken))
	return p.post(ctx, endpoint, FacebookFeedRequest{Message: message})
}

func (p *FacebookPublisher) createPhotoPost(ctx context.Context, photoURL, message string) (*FacebookPostResponse, error) {
	endpoint := fmt.Sprintf("%s/%s/photos?access_token=%s", p.apiBase, p.pageID, url.QueryEscape(p.accessToken))
	return p.post(ctx, endpoint, FacebookPhotoRequest{URL: photoURL, Message: message})
}

func (p *FacebookPublisher) post(ctx context.Context, endpoint string, payload interface{}) (*FacebookPostResponse, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, channel.Transient(channel.Facebook, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.apiError(resp.StatusCode, body)
	}

	var postResp FacebookPostResponse
	if err := json.Unmarshal(body, &postResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &postResp, nil
}

func (p *FacebookPublisher) apiError(status int, body []byte) error {
	var errResp FacebookErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		p.logger.Error("Graph API error",
			zap.Int("status_code", status),
			zap.String("error_type", errResp.Error.Type),
			zap.String("message", errResp.Error.Message))
		return channel.FromHTTPStatus(channel.Facebook, status, errResp.Error.Message)
	}
	return channel.FromHTTPStatus(channel.Facebook, status, string(body))
}
