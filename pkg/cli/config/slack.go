package config

import (
	"github.com/m-mizutani/ghchangelog/pkg/domain/interfaces"
	"github.com/m-mizutani/ghchangelog/pkg/infra/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds Slack notification configuration
type Slack struct {
	WebhookURL string `masq:"secret"`
}

// Flags returns CLI flags for Slack configuration
func (c *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL notified after the changelog is written",
			Destination: &c.WebhookURL,
			Sources:     cli.EnvVars("GHCHANGELOG_SLACK_WEBHOOK_URL"),
		},
	}
}

// Notifier returns a Slack notifier, or nil if no webhook is configured
func (c *Slack) Notifier() interfaces.Notifier {
	if c.WebhookURL == "" {
		return nil
	}
	return slack.NewNotifier(c.WebhookURL)
}
