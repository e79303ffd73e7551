package slack

import (
	"strings"

	"github.com/slack-go/slack"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/channels"
)

// MessageBuilder assembles Slack payloads from rendered text.
type MessageBuilder struct {
	cfg *Config
}

// NewMessageBuilder creates a builder for one integration.
func NewMessageBuilder(cfg *Config) *MessageBuilder {
	return &MessageBuilder{cfg: cfg}
}

// BuildMessage creates the webhook message for a rendered alert group.
// The group summary is a single attachment; mentions go in a section block.
func (b *MessageBuilder) BuildMessage(status entity.AlertStatus, title, text, alertListURL string) *slack.WebhookMessage {
	msg := &slack.WebhookMessage{
		Channel:   b.cfg.Recipient,
		Username:  b.cfg.Username,
		IconEmoji: b.cfg.IconEmoji,
		IconURL:   b.cfg.IconURL,
		Attachments: []slack.Attachment{{
			Color:      channels.Color(status),
			Title:      title,
			TitleLink:  alertListURL,
			Fallback:   title,
			Text:       text,
			Footer:     channels.FooterText(),
			FooterIcon: channels.FooterIconURL,
			MarkdownIn: []string{"text"},
		}},
	}

	if mentions := b.mentions(); mentions != "" {
		msg.Text = mentions
		msg.Blocks = &slack.Blocks{BlockSet: []slack.Block{
			slack.NewSectionBlock(
				slack.NewTextBlockObject(slack.MarkdownType, mentions, false, false),
				nil, nil,
			),
		}}
	}
	return msg
}

// mentions renders the configured channel, user and group mentions.
func (b *MessageBuilder) mentions() string {
	var parts []string
	switch b.cfg.MentionChannel {
	case MentionChannelHere:
		parts = append(parts, "<!here|here>")
	case MentionChannelChannel:
		parts = append(parts, "<!channel|channel>")
	}
	for _, u := range b.cfg.MentionUsers {
		parts = append(parts, "<@"+u+">")
	}
	for _, g := range b.cfg.MentionGroups {
		parts = append(parts, "<!subteam^"+g+">")
	}
	return strings.Join(parts, " ")
}
