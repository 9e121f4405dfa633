package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/keighl/postmark"
)

type Email struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	Tag      string
}

type Mailer interface {
	Send(ctx context.Context, e Email) error
}

// PostmarkMailer sends through the Postmark API.
type PostmarkMailer struct {
	client *postmark.Client
	from   string
}

func NewPostmarkMailer(serverToken, from string) *PostmarkMailer {
	return &PostmarkMailer{client: postmark.NewClient(serverToken, ""), from: from}
}

// WithBaseURL points the client at another API host.
func (m *PostmarkMailer) WithBaseURL(url string, hc *http.Client) *PostmarkMailer {
	m.client.BaseURL = url
	if hc != nil {
		m.client.HTTPClient = hc
	}
	return m
}

func (m *PostmarkMailer) Send(ctx context.Context, e Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := m.client.SendEmail(postmark.Email{
		From:     m.from,
		To:       e.To,
		Subject:  e.Subject,
		HtmlBody: e.HTMLBody,
		TextBody: e.TextBody,
		Tag:      e.Tag,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if res.ErrorCode != 0 {
		return fmt.Errorf("postmark rejected email: %d %s", res.ErrorCode, res.Message)
	}
	return nil
}

// LogMailer only logs emails; used when no Postmark token is configured.
type LogMailer struct {
	Log *slog.Logger
}

func (m *LogMailer) Send(ctx context.Context, e Email) error {
	m.Log.InfoContext(ctx, "email not sent, no postmark token",
		slog.String("to", e.To),
		slog.String("subject", e.Subject),
		slog.String("tag", e.Tag))
	return nil
}
