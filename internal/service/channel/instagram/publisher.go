package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/amitsajwan/realestate-ai-sub013/internal/config"
	"github.com/amitsajwan/realestate-ai-sub013/internal/service/channel"
)

// InstagramPublisher posts to an Instagram business account through the
// Graph API. Instagram is image-first: publishing goes through a media
// container that is created and then published in a second call.
type InstagramPublisher struct {
	logger            *zap.Logger
	client            *http.Client
	apiBase           string
	businessAccountID string
	accessToken       string
	language          string
}

// Graph API request/response structures
type InstagramContainerRequest struct {
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
}

type InstagramPublishRequest struct {
	CreationID string `json:"creation_id"`
}

type InstagramIDResponse struct {
	ID string `json:"id"`
}

type InstagramErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

type InstagramInsightsResponse struct {
	Data []struct {
		Name   string `json:"name"`
		Values []struct {
			Value int64 `json:"value"`
		} `json:"values"`
	} `json:"data"`
}

func NewInstagramPublisher(cfg config.InstagramConfig, logger *zap.Logger) *InstagramPublisher {
	return &InstagramPublisher{
		logger:            logger,
		apiBase:           cfg.APIBase,
		businessAccountID: cfg.BusinessAccountID,
		accessToken:       cfg.AccessToken,
		language:          cfg.Language,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (p *InstagramPublisher) Name() string {
	return channel.Instagram
}

func (p *InstagramPublisher) Language() string {
	return p.language
}

// Publish creates a media container for the first photo and publishes it.
// A post without media cannot go to Instagram at all.
func (p *InstagramPublisher) Publish(ctx context.Context, req channel.Request) (*channel.Result, error) {
	if len(req.MediaURLs) == 0 {
		return nil, channel.Permanent(channel.Instagram, "media_required",
			errors.New("instagram posts require at least one image"))
	}

	container, err := p.createContainer(ctx, req.MediaURLs[0], req.Body)
	if err != nil {
		return nil, err
	}

	published, err := p.publishContainer(ctx, container.ID)
	if err != nil {
		return nil, err
	}

	p.logger.Info("Instagram post published",
		zap.String("post_id", req.PostID),
		zap.String("external_id", published.ID))

	return &channel.Result{
		ExternalID:  published.ID,
		PublishedAt: time.Now(),
	}, nil
}

// Unpublish deletes the media object.
func (p *InstagramPublisher) Unpublish(ctx context.Context, externalID string) error {
	endpoint := fmt.Sprintf("%s/%s?access_token=%s", p.apiBase, externalID, url.QueryEscape(p.accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return channel.Transient(channel.Instagram, "request failed", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return p.apiError(resp.StatusCode, body)
	}
	return nil
}

// FetchMetrics reads media insights: impressions and total interactions.
func (p *InstagramPublisher) FetchMetrics(ctx context.Context, externalID string) (*channel.Metrics, error) {
	endpoint := fmt.Sprintf("%s/%s/insights?metric=impressions,total_interactions&access_token=%s",
		p.apiBase, externalID, url.QueryEscape(p.accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, channel.Transient(channel.Instagram, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.apiError(resp.StatusCode, body)
	}

	var insights InstagramInsightsResponse
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
		case "impressions":
			metrics.Impressions = value
		case "total_interactions":
			metrics.Engagement = value
		}
	}
	return metrics, nil
}

// Helper methods

func (p *InstagramPublisher) createContainer(ctx context.Context, imageURL, caption string) (*InstagramIDResponse, error) {
	endpoint := fmt.Sprintf("%s/%s/media?access_token=%s", p.apiBase, p.businessAccountID, url.QueryEscape(p.accessToken))
	return p.post(ctx, endpoint, InstagramContainerRequest{ImageURL: imageURL, Caption: caption})
}

func (p *InstagramPublisher) publishContainer(ctx context.Context, creationID string) (*InstagramIDResponse, error) {
	endpoint := fmt.Sprintf("%s/%s/media_publish?access_token=%s", p.apiBase, p.businessAccountID, url.QueryEscape(p.accessToken))
	return p.post(ctx, endpoint, InstagramPublishRequest{CreationID: creationID})
}

func (p *InstagramPublisher) post(ctx context.Context, endpoint string, payload interface{}) (*InstagramIDResponse, error) {
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
		return nil, channel.Transient(channel.Instagram, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.apiError(resp.StatusCode, body)
	}

	var idResp InstagramIDResponse
	if err := json.Unmarshal(body, &idResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &idResp, nil
}

func (p *InstagramPublisher) apiError(status int, body []byte) error {
	var errResp InstagramErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		p.logger.Error("Graph API error",
			zap.Int("status_code", status),
			zap.String("error_type", errResp.Error.Type),
			zap.String("message", errResp.Error.Message))
		return channel.FromHTTPStatus(channel.Instagram, status, errResp.Error.Message)
	}
	return channel.FromHTTPStatus(channel.Instagram, status, string(body))
}
