package slack

import (
	"strings"

	domainerrors "github.com/altuslabsxyz/alert-dispatch/internal/domain/errors"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/channels"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/template"
)

// Type is the integration type string.
const Type = "slack"

// ChatAPIEndpoint is used when a bot token is configured without a webhook url.
const ChatAPIEndpoint = "https://slack.com/api/chat.postMessage"

// Channel mention values accepted by mention_channel.
const (
	MentionChannelHere    = "here"
	MentionChannelChannel = "channel"
)

// Config is the validated Slack configuration.
type Config struct {
	URL            string
	Token          string
	Recipient      string
	Username       string
	IconEmoji      string
	IconURL        string
	MentionChannel string
	MentionUsers   []string
	MentionGroups  []string
	Title          string
	Text           string
}

// UsesChatAPI reports whether messages go through chat.postMessage.
func (c *Config) UsesChatAPI() bool {
	return c.URL == ChatAPIEndpoint
}

// NewConfig validates a Slack settings document.
func NewConfig(settings channels.Settings) (*Config, error) {
	var (
		cfg = &Config{}
		err error
	)

	if cfg.URL, err = settings.String("url", ""); err != nil {
		return nil, err
	}
	if cfg.Token, err = settings.String("token", ""); err != nil {
		return nil, err
	}
	if cfg.Recipient, err = settings.String("recipient", ""); err != nil {
		return nil, err
	}
	if cfg.URL == "" {
		if cfg.Token == "" {
			return nil, domainerrors.NewConfigurationError("could not find url property in settings")
		}
		cfg.URL = ChatAPIEndpoint
	}
	if cfg.UsesChatAPI() {
		if cfg.Token == "" {
			return nil, domainerrors.NewConfigurationError("token must be specified when using the Slack chat API")
		}
		if cfg.Recipient == "" {
			return nil, domainerrors.NewConfigurationError("recipient must be specified when using the Slack chat API")
		}
	}

	if cfg.Username, err = settings.String("username", channels.DefaultUsername); err != nil {
		return nil, err
	}
	if cfg.IconEmoji, err = settings.String("icon_emoji", ""); err != nil {
		return nil, err
	}
	if cfg.IconURL, err = settings.String("icon_url", ""); err != nil {
		return nil, err
	}

	if cfg.MentionChannel, err = settings.String("mention_channel", ""); err != nil {
		return nil, err
	}
	switch cfg.MentionChannel {
	case "", MentionChannelHere, MentionChannelChannel:
	default:
		return nil, domainerrors.NewConfigurationErrorf("invalid value for mention_channel: %q", cfg.MentionChannel)
	}

	users, err := settings.String("mention_users", "")
	if err != nil {
		return nil, err
	}
	cfg.MentionUsers = splitList(users)

	groups, err := settings.String("mention_groups", "")
	if err != nil {
		return nil, err
	}
	cfg.MentionGroups = splitList(groups)

	if cfg.Title, err = settings.String("title", template.DefaultTitle); err != nil {
		return nil, err
	}
	if cfg.Text, err = settings.String("text", template.DefaultMessage); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
