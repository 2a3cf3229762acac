package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/containerwarden/warden/internal/domain"
)

// ShoutrrrSink publishes events as notification messages through
// whatever provider the configured URL resolves to (Discord, Slack,
// ntfy, SMTP, ...). Grounded on the teacher's
// NotificationService.sendShoutrrrNotification.
type ShoutrrrSink struct {
	url string
}

// NewShoutrrrSink builds a sink targeting a pre-built Shoutrrr URL, as
// produced by BuildShoutrrrURL from the configured provider section.
func NewShoutrrrSink(url string) *ShoutrrrSink {
	return &ShoutrrrSink{url: url}
}

// NewShoutrrrSinkFromConfig resolves the configured notification
// provider section into a Shoutrrr URL and builds a sink for it.
func NewShoutrrrSinkFromConfig(provider string, config domain.NotifyConfig) (*ShoutrrrSink, error) {
	url, err := BuildShoutrrrURL(provider, config)
	if err != nil {
		return nil, fmt.Errorf("notify: resolve shoutrrr url for provider %q: %w", provider, err)
	}
	return NewShoutrrrSink(url), nil
}

func (s *ShoutrrrSink) Publish(ctx context.Context, e Event) error {
	sender, err := shoutrrr.CreateSender(s.url)
	if err != nil {
		return fmt.Errorf("notify: create shoutrrr sender: %w", err)
	}

	params := &types.Params{}
	params.SetTitle(fmt.Sprintf("%s: %s", e.Type, e.StableID))

	message := e.Message
	if message == "" {
		message = fmt.Sprintf("%s %s for %s (%s)", e.Type, e.Status, e.StableID, e.Name)
	}

	errs := sender.Send(message, params)
	var msgs []string
	for _, err := range errs {
		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	if len(msgs) > 0 {
		return fmt.Errorf("notify: shoutrrr send failed: %s", strings.Join(msgs, "; "))
	}
	return nil
}
