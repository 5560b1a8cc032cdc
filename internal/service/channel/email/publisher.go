package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/amitsajwan/realestate-ai-sub013/internal/config"
	"github.com/amitsajwan/realestate-ai-sub013/internal/service/channel"
)

// EmailPublisher sends posts to the subscriber list over SMTP.
type EmailPublisher struct {
	logger      *zap.Logger
	dialer      *gomail.Dialer
	fromName    string
	fromEmail   string
	listAddress string
	language    string
}

func NewEmailPublisher(cfg config.EmailConfig, logger *zap.Logger) *EmailPublisher {
	return &EmailPublisher{
		logger:      logger,
		dialer:      gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		fromName:    cfg.FromName,
		fromEmail:   cfg.FromEmail,
		listAddress: cfg.ListAddress,
		language:    cfg.Language,
	}
}

func (p *EmailPublisher) Name() string {
	return channel.Email
}

func (p *EmailPublisher) Language() string {
	return p.language
}

// Publish sends the post as an HTML newsletter to the list address. The
// generated Message-ID doubles as the external post ID.
func (p *EmailPublisher) Publish(ctx context.Context, req channel.Request) (*channel.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), p.dialer.Host)

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(p.fromEmail, p.fromName))
	m.SetHeader("To", p.listAddress)
	m.SetHeader("Subject", req.Title)
	m.SetHeader("Message-ID", messageID)
	m.SetBody("text/html", p.composeHTML(req))

	if err := p.dialer.DialAndSend(m); err != nil {
		return nil, channel.Transient(channel.Email, "smtp send failed", err)
	}

	p.logger.Info("Newsletter sent",
		zap.String("post_id", req.PostID),
		zap.String("message_id", messageID),
		zap.String("list", p.listAddress))

	return &channel.Result{
		ExternalID:  messageID,
		PublishedAt: time.Now(),
	}, nil
}

// Unpublish is a no-op: a sent email cannot be recalled.
func (p *EmailPublisher) Unpublish(ctx context.Context, externalID string) error {
	p.logger.Info("Email cannot be recalled, skipping",
		zap.String("message_id", externalID))
	return nil
}

func (p *EmailPublisher) composeHTML(req channel.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>%s</h2>\n", req.Title)
	fmt.Fprintf(&b, "<p>%s</p>\n", strings.ReplaceAll(req.Body, "\n", "<br>\n"))

	if prop := req.Property; prop != nil {
		fmt.Fprintf(&b, "<ul>\n")
		fmt.Fprintf(&b, "<li>%s, %s</li>\n", prop.Address, prop.City)
		fmt.Fprintf(&b, "<li>%.0f %s</li>\n", prop.Price, prop.Currency)
		fmt.Fprintf(&b, "<li>%d bed / %d bath / %.0f sqm</li>\n", prop.Bedrooms, prop.Bathrooms, prop.AreaSqm)
		fmt.Fprintf(&b, "</ul>\n")
	}

	for _, mediaURL := range req.MediaURLs {
		fmt.Fprintf(&b, `<img src="%s" alt="%s" style="max-width:600px">`+"\n", mediaURL, req.Title)
	}
	return b.String()
}
