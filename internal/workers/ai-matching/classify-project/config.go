// internal/workers/ai-matching/classify-project/config.go
package classifyproject

import (
	"time"

	"provider-discovery/internal/common/config"
)

type Config struct {
	Timeout   time.Duration
	MaxImages int
}

// NewConfig leaves room above the classifier's own call timeout so the
// fallback always has time to run.
func NewConfig(appCfg *config.Config) *Config {
	timeout := config.GetDuration(config.GetWorkerConfig(appCfg, TaskType).Timeout)
	if floor := config.GetDuration(appCfg.APIs.Classifier.Timeout) + 2*time.Second; timeout < floor {
		timeout = floor
	}
	return &Config{
		Timeout:   timeout,
		MaxImages: 5,
	}
}
