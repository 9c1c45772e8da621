// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	APIs          APIsConfig              `mapstructure:"apis"`
	Classifier    ClassifierConfig        `mapstructure:"classifier"`
	Matching      MatchingConfig          `mapstructure:"matching"`
	Search        SearchConfig            `mapstructure:"search"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	HealthPort  int    `mapstructure:"health_port"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses     []string `mapstructure:"addresses"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`
	ProviderIndex string   `mapstructure:"provider_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	Classifier struct {
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
		Timeout int    `mapstructure:"timeout"` // milliseconds, clamped to 8000..15000
	} `mapstructure:"classifier"`
}

// CategoryConfig is one row of the fallback service catalog.
type CategoryConfig struct {
	Name     string   `mapstructure:"name"`
	Keywords []string `mapstructure:"keywords"`
	CostMin  float64  `mapstructure:"cost_min"`
	CostMax  float64  `mapstructure:"cost_max"`
}

// ClassifierConfig tunes the offline fallback. An empty catalog keeps the built-in table.
type ClassifierConfig struct {
	FallbackConfidence float64          `mapstructure:"fallback_confidence"`
	Currency           string           `mapstructure:"currency"`
	GenericCategory    string           `mapstructure:"generic_category"`
	GenericCostMin     float64          `mapstructure:"generic_cost_min"`
	GenericCostMax     float64          `mapstructure:"generic_cost_max"`
	Catalog            []CategoryConfig `mapstructure:"catalog"`
}

// MatchingConfig overrides the compatibility weight table. Weights must sum to 100.
type MatchingConfig struct {
	Weights struct {
		ServiceOverlap float64 `mapstructure:"service_overlap"`
		Rating         float64 `mapstructure:"rating"`
		Verified       float64 `mapstructure:"verified"`
		Featured       float64 `mapstructure:"featured"`
		Experience     float64 `mapstructure:"experience"`
	} `mapstructure:"weights"`
	ReviewThreshold int `mapstructure:"review_threshold"`
	MaxResults      int `mapstructure:"max_results"`
}

// SearchConfig selects the provider source and the caching/sequencing windows.
type SearchConfig struct {
	Source      string `mapstructure:"source"` // postgres | elasticsearch
	CacheTTL    int    `mapstructure:"cache_ttl"`    // milliseconds, 0 disables caching
	SequenceTTL int    `mapstructure:"sequence_ttl"` // milliseconds
	MaxPageSize int    `mapstructure:"max_page_size"`
}

// NotificationConfig holds settings for the notify-matched-providers worker.
type NotificationConfig struct {
	AWSRegion     string `mapstructure:"aws_region"`
	FromEmail     string `mapstructure:"from_email"`
	EmailEnabled  bool   `mapstructure:"email_enabled"`
	SMSEnabled    bool   `mapstructure:"sms_enabled"`
	MaxRecipients int    `mapstructure:"max_recipients"`
}

type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
