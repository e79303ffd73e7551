package channels

import "context"

// SendWebhookSettings describes one outbound HTTP request.
type SendWebhookSettings struct {
	URL         string
	User        string
	Password    string
	Body        string
	HTTPMethod  string
	HTTPHeader  map[string]string
	ContentType string

	// Validation inspects a 2xx response. Services that report failures
	// inside a successful response (the Slack chat API) use it.
	Validation func(body []byte, statusCode int) error
}

// SendEmailSettings describes one outbound email.
type SendEmailSettings struct {
	To          []string
	SingleEmail bool
	Subject     string
	Body        string
}

// WebhookSender performs the network call for HTTP based integrations.
type WebhookSender interface {
	SendWebhook(ctx context.Context, cmd *SendWebhookSettings) error
}

// EmailSender delivers email notifications.
type EmailSender interface {
	SendEmail(ctx context.Context, cmd *SendEmailSettings) error
}
