// internal/workers/provider/search-providers/config.go
package searchproviders

import (
	"time"

	"provider-discovery/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// SourceName labels source errors, e.g. "postgres".
	SourceName string
}

func NewConfig(appCfg *config.Config) *Config {
	return &Config{
		Timeout:    config.GetDuration(config.GetWorkerConfig(appCfg, TaskType).Timeout),
		SourceName: appCfg.Search.Source,
	}
}
