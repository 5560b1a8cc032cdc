package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/amitsajwan/realestate-ai-sub013/internal/config"
	"github.com/amitsajwan/realestate-ai-sub013/internal/models"
)

// Client generates marketing copy for properties through an OpenAI-style
// chat completions API.
type Client struct {
	logger     *zap.Logger
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	styleHints string
}

// Chat completions request/response structures
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func NewClient(cfg config.GeneratorConfig, logger *zap.Logger) (*Client, error) {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid generator timeout: %w", err)
	}

	return &Client{
		logger:     logger,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		styleHints: cfg.StyleHints,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Generate produces one marketing body for the property in the given
// language. Channel formatting (length limits, hashtags) is left to the
// channel adapters.
func (c *Client) Generate(ctx context.Context, property *models.Property, language string) (string, error) {
	payload := ChatCompletionRequest{
		Model: c.model,
		Messages: []ChatMessage{
			{Role: "system", Content: c.systemPrompt(language)},
			{Role: "user", Content: propertyPrompt(property)},
		},
		Temperature: 0.7,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/chat/completions", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Completion API error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response_body", string(body)))
		return "", fmt.Errorf("completion API returned status %d: %s", resp.StatusCode, string(body))
	}

	var completion ChatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("completion API error: %s", completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("completion API returned no choices")
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("completion API returned empty content")
	}

	c.logger.Debug("Content generated",
		zap.String("property_id", property.ID),
		zap.String("language", language),
		zap.Int("length", len(text)))

	return text, nil
}

func (c *Client) systemPrompt(language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a real estate marketing copywriter. Write an engaging property listing post in %s. ", languageName(language))
	b.WriteString("Keep it under 200 words, lead with the strongest selling point, and end with a call to action. ")
	b.WriteString("Do not invent details that are not in the property facts.")
	if c.styleHints != "" {
		b.WriteString(" Style: ")
		b.WriteString(c.styleHints)
	}
	return b.String()
}

func propertyPrompt(p *models.Property) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", p.Title)
	fmt.Fprintf(&b, "Location: %s, %s\n", p.Address, p.City)
	fmt.Fprintf(&b, "Price: %.0f %s\n", p.Price, p.Currency)
	fmt.Fprintf(&b, "Bedrooms: %d, Bathrooms: %d, Area: %.0f sqm\n", p.Bedrooms, p.Bathrooms, p.AreaSqm)
	if len(p.Amenities) > 0 {
		fmt.Fprintf(&b, "Amenities: %s\n", strings.Join(p.Amenities, ", "))
	}
	if p.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", p.Description)
	}
	return b.String()
}

func languageName(code string) string {
	names := map[string]string{
		"en": "English",
		"es": "Spanish",
		"fr": "French",
		"de": "German",
		"hi": "Hindi",
		"mr": "Marathi",
		"pt": "Portuguese",
		"zh": "Chinese",
	}
	if name, ok := names[code]; ok {
		return name
	}
	return code
}
