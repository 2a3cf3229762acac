package notify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/containerwarden/warden/internal/domain"
)

func TestBuildShoutrrrURL_Discord(t *testing.T) {
	url, err := BuildShoutrrrURL("discord", domain.NotifyConfig{
		WebhookURL: "https://discord.com/api/webhooks/123/abcTOKEN",
	})
	require.NoError(t, err)
	require.Equal(t, "discord://abcTOKEN@123", url)
}

func TestBuildShoutrrrURL_WebhookRequiresURL(t *testing.T) {
	_, err := BuildShoutrrrURL("webhook", domain.NotifyConfig{})
	require.Error(t, err)
}

func TestNewShoutrrrSinkFromConfig_PropagatesBuildError(t *testing.T) {
	_, err := NewShoutrrrSinkFromConfig("discord", domain.NotifyConfig{})
	require.Error(t, err)
}

func TestNewShoutrrrSinkFromConfig_BuildsSinkOnValidConfig(t *testing.T) {
	sink, err := NewShoutrrrSinkFromConfig("ntfy", domain.NotifyConfig{
		URL:   "https://ntfy.sh",
		Topic: "warden-alerts",
	})
	require.NoError(t, err)
	require.NotNil(t, sink)
}
