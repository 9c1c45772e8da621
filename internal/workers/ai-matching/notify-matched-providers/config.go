// internal/workers/ai-matching/notify-matched-providers/config.go
package notifymatchedproviders

import (
	"time"

	"provider-discovery/internal/common/config"
)

type Config struct {
	Timeout       time.Duration
	FromEmail     string
	EmailEnabled  bool
	SMSEnabled    bool
	MaxRecipients int
	// Concurrency bounds in-flight SES/SNS calls.
	Concurrency int
}

func NewConfig(appCfg *config.Config) *Config {
	n := appCfg.Notifications
	return &Config{
		Timeout:       config.GetDuration(config.GetWorkerConfig(appCfg, TaskType).Timeout),
		FromEmail:     n.FromEmail,
		EmailEnabled:  n.EmailEnabled && n.FromEmail != "",
		SMSEnabled:    n.SMSEnabled,
		MaxRecipients: n.MaxRecipients,
		Concurrency:   4,
	}
}
