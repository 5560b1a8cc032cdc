package config

import (
	yamlenv "github.com/ifuryst/go-yaml-env"

	"github.com/amitsajwan/realestate-ai-sub013/pkg/logger"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logger    logger.Config   `yaml:"logger"`
	Publish   PublishConfig   `yaml:"publish"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Generator GeneratorConfig `yaml:"generator"`
	Channels  ChannelsConfig  `yaml:"channels"`
	Events    EventsConfig    `yaml:"events"`
	Media     MediaConfig     `yaml:"media"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	Host     string `yaml:"host"`
	Mode     string `yaml:"mode"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type DatabaseConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	TimeZone string `yaml:"timezone"`
}

// PublishConfig tunes the orchestrator: per-channel call timeout and the
// retry policy shared by all channel adapters. Durations are Go duration
// strings ("30s", "2m").
type PublishConfig struct {
	ChannelTimeout string `yaml:"channel_timeout"`
	MaxAttempts    int    `yaml:"max_attempts"`
	RetryBaseDelay string `yaml:"retry_base_delay"`
	RetryMaxDelay  string `yaml:"retry_max_delay"`
	// StaleClaimAfter is how long a post may sit in publishing before an
	// explicit publish or retry request may take the claim over (crashed
	// instance recovery).
	StaleClaimAfter string `yaml:"stale_claim_after"`
}

type SchedulerConfig struct {
	PollInterval string `yaml:"poll_interval"`
	BatchSize    int    `yaml:"batch_size"`
	Enabled      bool   `yaml:"enabled"`
}

type AnalyticsConfig struct {
	PollInterval string `yaml:"poll_interval"`
	BatchSize    int    `yaml:"batch_size"`
	Enabled      bool   `yaml:"enabled"`
}

type GeneratorConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	Timeout    string `yaml:"timeout"`
	StyleHints string `yaml:"style_hints"`
}

type ChannelsConfig struct {
	Facebook  FacebookConfig  `yaml:"facebook"`
	Instagram InstagramConfig `yaml:"instagram"`
	LinkedIn  LinkedInConfig  `yaml:"linkedin"`
	Twitter   TwitterConfig   `yaml:"twitter"`
	Website   WebsiteConfig   `yaml:"website"`
	Email     EmailConfig     `yaml:"email"`
}

type FacebookConfig struct {
	Enabled     bool   `yaml:"enabled"`
	APIBase     string `yaml:"api_base"`
	PageID      string `yaml:"page_id"`
	AccessToken string `yaml:"access_token"`
	Language    string `yaml:"language"`
}

type InstagramConfig struct {
	Enabled           bool   `yaml:"enabled"`
	APIBase           string `yaml:"api_base"`
	BusinessAccountID string `yaml:"business_account_id"`
	AccessToken       string `yaml:"access_token"`
	Language          string `yaml:"language"`
}

type LinkedInConfig struct {
	Enabled         bool   `yaml:"enabled"`
	APIBase         string `yaml:"api_base"`
	OrganizationURN string `yaml:"organization_urn"`
	AccessToken     string `yaml:"access_token"`
	Language        string `yaml:"language"`
}

type TwitterConfig struct {
	Enabled     bool   `yaml:"enabled"`
	APIBase     string `yaml:"api_base"`
	BearerToken string `yaml:"bearer_token"`
	Language    string `yaml:"language"`
}

type WebsiteConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Language string `yaml:"language"`
}

type EmailConfig struct {
	Enabled      bool   `yaml:"enabled"`
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUsername string `yaml:"smtp_username"`
	SMTPPassword string `yaml:"smtp_password"`
	FromName     string `yaml:"from_name"`
	FromEmail    string `yaml:"from_email"`
	ListAddress  string `yaml:"list_address"`
	Language     string `yaml:"language"`
}

type EventsConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type MediaConfig struct {
	Bucket  string `yaml:"bucket"`
	Region  string `yaml:"region"`
	BaseURL string `yaml:"base_url"`
}

func LoadConfig(configPath string) (*Config, error) {
	cfg, err := yamlenv.LoadConfig[Config](configPath)
	if err != nil {
		return nil, err
	}

	// Set default values
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5460
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.TimeZone == "" {
		cfg.Database.TimeZone = "UTC"
	}
	if cfg.Publish.ChannelTimeout == "" {
		cfg.Publish.ChannelTimeout = "30s"
	}
	if cfg.Publish.MaxAttempts == 0 {
		cfg.Publish.MaxAttempts = 3
	}
	if cfg.Publish.RetryBaseDelay == "" {
		cfg.Publish.RetryBaseDelay = "2s"
	}
	if cfg.Publish.RetryMaxDelay == "" {
		cfg.Publish.RetryMaxDelay = "1m"
	}
	if cfg.Publish.StaleClaimAfter == "" {
		cfg.Publish.StaleClaimAfter = "10m"
	}
	if cfg.Scheduler.PollInterval == "" {
		cfg.Scheduler.PollInterval = "30s"
	}
	if cfg.Scheduler.BatchSize == 0 {
		cfg.Scheduler.BatchSize = 20
	}
	if cfg.Analytics.PollInterval == "" {
		cfg.Analytics.PollInterval = "5m"
	}
	if cfg.Analytics.BatchSize == 0 {
		cfg.Analytics.BatchSize = 50
	}
	if cfg.Generator.BaseURL == "" {
		cfg.Generator.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = "gpt-4o-mini"
	}
	if cfg.Generator.Timeout == "" {
		cfg.Generator.Timeout = "45s"
	}
	if cfg.Channels.Facebook.APIBase == "" {
		cfg.Channels.Facebook.APIBase = "https://graph.facebook.com/v19.0"
	}
	if cfg.Channels.Instagram.APIBase == "" {
		cfg.Channels.Instagram.APIBase = "https://graph.facebook.com/v19.0"
	}
	if cfg.Channels.LinkedIn.APIBase == "" {
		cfg.Channels.LinkedIn.APIBase = "https://api.linkedin.com/v2"
	}
	if cfg.Channels.Twitter.APIBase == "" {
		cfg.Channels.Twitter.APIBase = "https://api.twitter.com/2"
	}
	if cfg.Channels.Email.SMTPPort == 0 {
		cfg.Channels.Email.SMTPPort = 587
	}
	if cfg.Events.Exchange == "" {
		cfg.Events.Exchange = "realestate.posts"
	}
	if cfg.Media.Region == "" {
		cfg.Media.Region = "us-east-1"
	}

	return cfg, nil
}
