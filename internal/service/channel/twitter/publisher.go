package twitter

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

// Tweets cap out at 280 characters; longer bodies get truncated with an
// ellipsis rather than rejected.
const maxTweetLength = 280

// TwitterPublisher posts tweets through the v2 API with an app bearer token.
type TwitterPublisher struct {
	logger      *zap.Logger
	client      *http.Client
	apiBase     string
	bearerToken string
	language    string
}

// v2 API request/response structures
type TweetRequest struct {
	Text string `json:"text"`
}

type TweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

type TweetDeleteResponse struct {
	Data struct {
		Deleted bool `json:"deleted"`
	} `json:"data"`
}

type TweetMetricsResponse struct {
	Data struct {
		PublicMetrics struct {
			ImpressionCount int64 `json:"impression_count"`
			LikeCount       int64 `json:"like_count"`
			RetweetCount    int64 `json:"retweet_count"`
			ReplyCount      int64 `json:"reply_count"`
		} `json:"public_metrics"`
	} `json:"data"`
}

func NewTwitterPublisher(cfg config.TwitterConfig, logger *zap.Logger) *TwitterPublisher {
	return &TwitterPublisher{
		logger:      logger,
		apiBase:     cfg.APIBase,
		bearerToken: cfg.BearerToken,
		language:    cfg.Language,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (p *TwitterPublisher) Name() string {
	return channel.Twitter
}

func (p *TwitterPublisher) Language() string {
	return p.language
}

// Publish posts the body as a tweet, truncated to the platform limit.
func (p *TwitterPublisher) Publish(ctx context.Context, req channel.Request) (*channel.Result, error) {
	text := util.Truncate(req.Body, maxTweetLength)

	jsonData, err := json.Marshal(TweetRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/2/tweets", p.apiBase)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, channel.Transient(channel.Twitter, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		p.logger.Error("Twitter API error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response_body", string(body)))
		return nil, channel.FromHTTPStatus(channel.Twitter, resp.StatusCode, string(body))
	}

	var tweetResp TweetResponse
	if err := json.Unmarshal(body, &tweetResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	p.logger.Info("Tweet published",
		zap.String("post_id", req.PostID),
		zap.String("external_id", tweetResp.Data.ID))

	return &channel.Result{
		ExternalID:  tweetResp.Data.ID,
		URL:         fmt.Sprintf("https://twitter.com/i/web/status/%s", tweetResp.Data.ID),
		PublishedAt: time.Now(),
	}, nil
}

// Unpublish deletes the tweet.
func (p *TwitterPublisher) Unpublish(ctx context.Context, externalID string) error {
	endpoint := fmt.Sprintf("%s/2/tweets/%s", p.apiBase, externalID)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return channel.Transient(channel.Twitter, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return channel.FromHTTPStatus(channel.Twitter, resp.StatusCode, string(body))
	}

	var deleteResp TweetDeleteResponse
	if err := json.Unmarshal(body, &deleteResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if !deleteResp.Data.Deleted {
		return fmt.Errorf("tweet %s was not deleted", externalID)
	}
	return nil
}

// FetchMetrics reads the tweet's public metrics. Impressions come straight
// through; engagement is likes plus retweets plus replies.
func (p *TwitterPublisher) FetchMetrics(ctx context.Context, externalID string) (*channel.Metrics, error) {
	endpoint := fmt.Sprintf("%s/2/tweets/%s?tweet.fields=public_metrics", p.apiBase, externalID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, channel.Transient(channel.Twitter, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, channel.FromHTTPStatus(channel.Twitter, resp.StatusCode, string(body))
	}

	var metricsResp TweetMetricsResponse
	if err := json.Unmarshal(body, &metricsResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	pm := metricsResp.Data.PublicMetrics
	return &channel.Metrics{
		Impressions: pm.ImpressionCount,
		Engagement:  pm.LikeCount + pm.RetweetCount + pm.ReplyCount,
	}, nil
}

func (p *TwitterPublisher) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.bearerToken)
}
