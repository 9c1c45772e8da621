// internal/workers/ai-matching/rank-matches/config.go
package rankmatches

import (
	"time"

	"provider-discovery/internal/common/config"
)

type Config struct {
	Timeout    time.Duration
	MaxResults int
	SourceName string
}

func NewConfig(appCfg *config.Config) *Config {
	return &Config{
		Timeout:    config.GetDuration(config.GetWorkerConfig(appCfg, TaskType).Timeout),
		MaxResults: appCfg.Matching.MaxResults,
		SourceName: appCfg.Search.Source,
	}
}
