// internal/workers/provider/parse-search-filters/config.go
package parsesearchfilters

import (
	"time"

	"provider-discovery/internal/common/config"
)

type Config struct {
	Timeout         time.Duration
	DefaultPageSize int
	MaxPageSize     int
}

func NewConfig(appCfg *config.Config) *Config {
	return &Config{
		Timeout:         config.GetDuration(config.GetWorkerConfig(appCfg, TaskType).Timeout),
		DefaultPageSize: 20,
		MaxPageSize:     appCfg.Search.MaxPageSize,
	}
}
