package linkedin

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

// LinkedInPublisher posts as an organization through the UGC Posts API.
type LinkedInPublisher struct {
	logger          *zap.Logger
	client          *http.Client
	apiBase         string
	organizationURN string
	accessToken     string
	language        string
}

// UGC Posts API request/response structures
type LinkedInUGCPostRequest struct {
	Author          string                  `json:"author"`
	LifecycleState  string                  `json:"lifecycleState"`
	SpecificContent LinkedInSpecificContent `json:"specificContent"`
	Visibility      LinkedInVisibility      `json:"visibility"`
}

type LinkedInSpecificContent struct {
	ShareContent LinkedInShareContent `json:"com.linkedin.ugc.ShareContent"`
}

type LinkedInShareContent struct {
	ShareCommentary    LinkedInText    `json:"shareCommentary"`
	ShareMediaCategory string          `json:"shareMediaCategory"`
	Media              []LinkedInMedia `json:"media,omitempty"`
}

type LinkedInText struct {
	Text string `json:"text"`
}

type LinkedInMedia struct {
	Status      string       `json:"status"`
	OriginalURL string       `json:"originalUrl"`
	Title       LinkedInText `json:"title"`
}

type LinkedInVisibility struct {
	MemberNetworkVisibility string `json:"com.linkedin.ugc.MemberNetworkVisibility"`
}

type LinkedInUGCPostResponse struct {
	ID string `json:"id"`
}

func NewLinkedInPublisher(cfg config.LinkedInConfig, logger *zap.Logger) *LinkedInPublisher {
	return &LinkedInPublisher{
		logger:          logger,
		apiBase:         cfg.APIBase,
		organizationURN: cfg.OrganizationURN,
		accessToken:     cfg.AccessToken,
		language:        cfg.Language,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (p *LinkedInPublisher) Name() string {
	return channel.LinkedIn
}

func (p *LinkedInPublisher) Language() string {
	return p.language
}

// Publish creates a public organization share. Media URLs go out as link
// attachments; LinkedIn fetches the previews itself.
func (p *LinkedInPublisher) Publish(ctx context.Context, req channel.Request) (*channel.Result, error) {
	shareContent := LinkedInShareContent{
		ShareCommentary:    LinkedInText{Text: req.Body},
		ShareMediaCategory: "NONE",
	}
	if len(req.MediaURLs) > 0 {
		shareContent.ShareMediaCategory = "ARTICLE"
		for _, mediaURL := range req.MediaURLs {
			shareContent.Media = append(shareContent.Media, LinkedInMedia{
				Status:      "READY",
				OriginalURL: mediaURL,
				Title:       LinkedInText{Text: req.Title},
			})
		}
	}

	payload := LinkedInUGCPostRequest{
		Author:         p.organizationURN,
		LifecycleState: "PUBLISHED",
		SpecificContent: LinkedInSpecificContent{
			ShareContent: shareContent,
		},
		Visibility: LinkedInVisibility{
			MemberNetworkVisibility: "PUBLIC",
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/ugcPosts", p.apiBase)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, channel.Transient(channel.LinkedIn, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		p.logger.Error("UGC Posts API error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response_body", string(body)))
		return nil, channel.FromHTTPStatus(channel.LinkedIn, resp.StatusCode, string(body))
	}

	var postResp LinkedInUGCPostResponse
	if err := json.Unmarshal(body, &postResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	externalID := postResp.ID
	if externalID == "" {
		externalID = resp.Header.Get("X-RestLi-Id")
	}

	p.logger.Info("LinkedIn post published",
		zap.String("post_id", req.PostID),
		zap.String("external_id", externalID))

	return &channel.Result{
		ExternalID:  externalID,
		URL:         fmt.Sprintf("https://www.linkedin.com/feed/update/%s", externalID),
		PublishedAt: time.Now(),
	}, nil
}

// Unpublish deletes the share.
func (p *LinkedInPublisher) Unpublish(ctx context.Context, externalID string) error {
	endpoint := fmt.Sprintf("%s/ugcPosts/%s", p.apiBase, url.PathEscape(externalID))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return channel.Transient(channel.LinkedIn, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return channel.FromHTTPStatus(channel.LinkedIn, resp.StatusCode, string(body))
	}
	return nil
}

func (p *LinkedInPublisher) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.accessToken)
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
}
