// Package slack delivers alert groups to Slack, either through an incoming
// webhook or the chat.postMessage API.
package slack

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/slack-go/slack"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
	domainerrors "github.com/altuslabsxyz/alert-dispatch/internal/domain/errors"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/channels"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/template"
)

// Notifier sends alert groups to Slack.
type Notifier struct {
	channels.Base
	cfg            *Config
	sender         channels.WebhookSender
	tmpl           *template.Template
	messageBuilder *MessageBuilder
}

// NewNotifier creates a Slack notifier.
func NewNotifier(cfg *Config, sender channels.WebhookSender, tmpl *template.Template, opts ...channels.Option) *Notifier {
	return &Notifier{
		Base:           channels.NewBase(Type, opts...),
		cfg:            cfg,
		sender:         sender,
		tmpl:           tmpl,
		messageBuilder: NewMessageBuilder(cfg),
	}
}

// Notify renders the group and posts it to Slack.
func (n *Notifier) Notify(ctx context.Context, alerts ...*entity.Alert) (bool, error) {
	group := entity.NewAlertGroup("", nil, alerts...)
	exp := n.tmpl.Expander(ctx, alerts)

	title := exp.Text(n.cfg.Title)
	text := exp.Text(n.cfg.Text)
	if err := exp.Err(); err != nil {
		n.Logger.Debug("failed to render slack message", "uid", n.UID, "error", err)
		return false, err
	}

	msg := n.messageBuilder.BuildMessage(group.Status(), title, text, template.AlertListURL(n.tmpl.ExternalURLFor(ctx)))
	body, err := json.Marshal(msg)
	if err != nil {
		return false, domainerrors.NewInternalError("marshalling slack payload", err)
	}

	cmd := &channels.SendWebhookSettings{
		URL:         n.cfg.URL,
		Body:        string(body),
		HTTPMethod:  http.MethodPost,
		ContentType: "application/json; charset=utf-8",
	}
	if n.cfg.UsesChatAPI() {
		cmd.HTTPHeader = map[string]string{"Authorization": "Bearer " + n.cfg.Token}
		cmd.Validation = validateChatResponse
	}

	if err := n.sender.SendWebhook(ctx, cmd); err != nil {
		n.Logger.Debug("failed to send slack message", "uid", n.UID, "error", err)
		return false, err
	}
	return true, nil
}

// validateChatResponse turns {"ok": false} answers of the chat API into
// rejections. The API reports failures with status 200.
func validateChatResponse(body []byte, statusCode int) error {
	var resp slack.SlackResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domainerrors.Wrap(err, domainerrors.CategoryRejected, "decoding slack response").
			WithField("status_code", statusCode)
	}
	if !resp.Ok {
		return domainerrors.NewRejectedError(statusCode, resp.Error)
	}
	return nil
}
