package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/amitsajwan/realestate-ai-sub013/internal/config"
	"github.com/amitsajwan/realestate-ai-sub013/internal/models"
	"github.com/amitsajwan/realestate-ai-sub013/internal/service/channel"
)

func newTestPublisher() *EmailPublisher {
	return NewEmailPublisher(config.EmailConfig{
		SMTPHost:    "smtp.test",
		SMTPPort:    587,
		FromName:    "Acme Realty",
		FromEmail:   "news@acme.test",
		ListAddress: "subscribers@acme.test",
		Language:    "en",
	}, zap.NewNop())
}

func TestPublishHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newTestPublisher()
	_, err := p.Publish(ctx, channel.Request{Title: "t", Body: "b"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUnpublishIsNoOp(t *testing.T) {
	p := newTestPublisher()
	assert.NoError(t, p.Unpublish(context.Background(), "<abc@smtp.test>"))
}

func TestComposeHTML(t *testing.T) {
	p := newTestPublisher()
	html := p.composeHTML(channel.Request{
		Title:     "Sea View Apartment",
		Body:      "Line one\nLine two",
		MediaURLs: []string{"https://cdn.test/media/front.jpg"},
		Property: &models.Property{
			Address:   "12 Hill Road",
			City:      "Mumbai",
			Price:     250000,
			Currency:  "USD",
			Bedrooms:  2,
			Bathrooms: 2,
			AreaSqm:   88,
		},
	})

	require.Contains(t, html, "<h2>Sea View Apartment</h2>")
	assert.Contains(t, html, "Line one<br>\nLine two")
	assert.Contains(t, html, "<li>12 Hill Road, Mumbai</li>")
	assert.Contains(t, html, "<li>250000 USD</li>")
	assert.Contains(t, html, "<li>2 bed / 2 bath / 88 sqm</li>")
	assert.Contains(t, html, `<img src="https://cdn.test/media/front.jpg"`)
}
