package slack

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/m-mizutani/ghchangelog/pkg/domain/interfaces"
	"github.com/m-mizutani/ghchangelog/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// maxListedTags bounds the tags spelled out in a message
const maxListedTags = 10

type notifier struct {
	webhookURL string
	httpClient *http.Client
}

// Option configures the notifier
type Option func(*notifier)

// WithHTTPClient sets the HTTP client used to post messages
func WithHTTPClient(c *http.Client) Option {
	return func(n *notifier) {
		n.httpClient = c
	}
}

// NewNotifier returns a Notifier posting to a Slack incoming webhook
func NewNotifier(webhookURL string, opts ...Option) interfaces.Notifier {
	n := &notifier{
		webhookURL: webhookURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify posts a summary of result
func (n *notifier) Notify(ctx context.Context, result *model.ChangelogResult) error {
	msg := &slack.WebhookMessage{
		Text: Message(result),
	}

	if err := slack.PostWebhookCustomHTTPContext(ctx, n.webhookURL, n.httpClient, msg); err != nil {
		return goerr.Wrap(err, "failed to post Slack message")
	}
	return nil
}

// Message renders the text posted for result
func Message(result *model.ChangelogResult) string {
	target := result.OutputPath
	if target == "" || target == "-" {
		target = "stdout"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Changelog written to `%s`", target)

	switch len(result.Tags) {
	case 0:
		b.WriteString(" with no releases")
		return b.String()
	case 1:
		b.WriteString(" with 1 release: ")
	default:
		fmt.Fprintf(&b, " with %d releases: ", len(result.Tags))
	}

	tags := result.Tags
	if len(tags) > maxListedTags {
		tags = tags[:maxListedTags]
	}
	for i, tag := range tags {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "`%s`", tag)
	}
	if rest := len(result.Tags) - len(tags); rest > 0 {
		fmt.Fprintf(&b, " and %d more", rest)
	}

	return b.String()
}
