// internal/workers/ai-matching/notify-matched-providers/models.go
package notifymatchedproviders

import "provider-discovery/internal/models"

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"

	StatusSent   = "sent"
	StatusFailed = "failed"
)

type Input struct {
	Analysis    models.ProjectAnalysis `json:"analysis"`
	Matches     []models.MatchResult   `json:"matches"`
	ProjectID   string                 `json:"projectId,omitempty"`
	Description string                 `json:"description,omitempty"`
}

type Output struct {
	Notified      bool           `json:"notified"`
	SkippedReason string         `json:"skippedReason,omitempty"`
	Notifications []Notification `json:"notifications"`
}

// Notification is the outcome of one message to one provider.
type Notification struct {
	NotificationID string `json:"notificationId"`
	ProviderID     string `json:"providerId"`
	Channel        string `json:"channel"`
	Recipient      string `json:"recipient"`
	Status         string `json:"status"`
	MessageID      string `json:"messageId,omitempty"`
	Error          string `json:"error,omitempty"`
}
