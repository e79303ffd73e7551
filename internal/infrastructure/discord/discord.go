// Package discord delivers alert groups to a Discord channel webhook.
package discord

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
	domainerrors "github.com/altuslabsxyz/alert-dispatch/internal/domain/errors"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/channels"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/template"
)

// Type is the integration type string.
const Type = "discord"

// Config is the validated Discord configuration.
type Config struct {
	WebhookURL         string
	Content            string
	Username           string
	AvatarURL          string
	UseDiscordUsername bool
}

// NewConfig validates a Discord settings document.
//
// Recognised keys: url (required), message, username, avatar_url and
// use_discord_username.
func NewConfig(settings channels.Settings) (*Config, error) {
	webhookURL, err := settings.RequiredString("url", "could not find webhook url property in settings")
	if err != nil {
		return nil, err
	}

	cfg := &Config{WebhookURL: webhookURL}
	if cfg.Content, err = settings.String("message", template.DefaultMessage); err != nil {
		return nil, err
	}
	if cfg.Username, err = settings.String("username", channels.DefaultUsername); err != nil {
		return nil, err
	}
	if cfg.AvatarURL, err = settings.String("avatar_url", ""); err != nil {
		return nil, err
	}
	if cfg.UseDiscordUsername, err = settings.Bool("use_discord_username", false); err != nil {
		return nil, err
	}
	return cfg, nil
}

type payload struct {
	Content   string  `json:"content"`
	Username  string  `json:"username,omitempty"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Embeds    []embed `json:"embeds"`
}

type embed struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Color  int64  `json:"color"`
	Footer footer `json:"footer"`
	Type   string `json:"type"`
}

type footer struct {
	IconURL string `json:"icon_url"`
	Text    string `json:"text"`
}

// Notifier sends alert groups to Discord.
type Notifier struct {
	channels.Base
	cfg    *Config
	sender channels.WebhookSender
	tmpl   *template.Template
}

// NewNotifier creates a Discord notifier.
func NewNotifier(cfg *Config, sender channels.WebhookSender, tmpl *template.Template, opts ...channels.Option) *Notifier {
	return &Notifier{
		Base:   channels.NewBase(Type, opts...),
		cfg:    cfg,
		sender: sender,
		tmpl:   tmpl,
	}
}

// Notify renders the group and posts it to the webhook.
func (n *Notifier) Notify(ctx context.Context, alerts ...*entity.Alert) (bool, error) {
	group := entity.NewAlertGroup("", nil, alerts...)
	exp := n.tmpl.Expander(ctx, alerts)

	msg := payload{
		Content: exp.Text(n.cfg.Content),
		Embeds: []embed{{
			Title: exp.Text(template.DefaultTitle),
			URL:   template.AlertListURL(n.tmpl.ExternalURLFor(ctx)),
			Color: channels.ColorInt(channels.Color(group.Status())),
			Footer: footer{
				IconURL: channels.FooterIconURL,
				Text:    channels.FooterText(),
			},
			Type: "rich",
		}},
		AvatarURL: n.cfg.AvatarURL,
	}
	if !n.cfg.UseDiscordUsername {
		msg.Username = n.cfg.Username
	}
	if err := exp.Err(); err != nil {
		n.Logger.Debug("failed to render discord message", "uid", n.UID, "error", err)
		return false, err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return false, domainerrors.NewInternalError("marshalling discord payload", err)
	}

	cmd := &channels.SendWebhookSettings{
		URL:         n.cfg.WebhookURL,
		Body:        string(body),
		HTTPMethod:  http.MethodPost,
		ContentType: "application/json",
	}
	if err := n.sender.SendWebhook(ctx, cmd); err != nil {
		n.Logger.Debug("failed to send discord message", "uid", n.UID, "error", err)
		return false, err
	}
	return true, nil
}
