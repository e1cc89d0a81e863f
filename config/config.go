/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT                   = "5010"
	DEFAULT_NOTIFICATION_QUEUE     = "notifications"
	DEFAULT_REQUEST_TIMEOUT_SEC    = 30
	DEFAULT_READ_MODEL_TTL_SEC     = 60
	DEFAULT_NOTIFICATION_RETRIES   = 5
	DEFAULT_WEBHOOK_LOCK_TIMEOUT_S = 10
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL               bool   `json:"ssl" envconfig:"TRADEDESK_SERVER_SSL"`
	Secure            bool   `json:"secure" envconfig:"TRADEDESK_SERVER_SECURE"`
	SecretKey         string `json:"secret_key" envconfig:"TRADEDESK_SERVER_SECRET_KEY"`
	Domain            string `json:"domain" envconfig:"TRADEDESK_SERVER_SSL_DOMAIN"`
	Email             string `json:"ssl_email" envconfig:"TRADEDESK_SERVER_SSL_EMAIL"`
	Port              string `json:"port" envconfig:"TRADEDESK_SERVER_PORT"`
	RequestTimeoutSec int    `json:"request_timeout_sec" envconfig:"TRADEDESK_SERVER_REQUEST_TIMEOUT_SEC"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"TRADEDESK_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"TRADEDESK_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"TRADEDESK_REDIS_SKIP_TLS_VERIFY"`
}

// ProviderConfig holds the shared secret used to sign a provider's callbacks.
type ProviderConfig struct {
	Secret string `json:"secret"`
}

type ProvidersConfig struct {
	Pix      ProviderConfig `json:"pix"`
	KYC      ProviderConfig `json:"kyc"`
	Internal ProviderConfig `json:"internal"`
	// Other maps additional provider tags to their secrets.
	Other           map[string]ProviderConfig `json:"other"`
	ReplayWindowSec int                       `json:"replay_window_sec" envconfig:"TRADEDESK_WEBHOOK_REPLAY_WINDOW_SEC"`
	LockTimeoutSec  int                       `json:"lock_timeout_sec" envconfig:"TRADEDESK_WEBHOOK_LOCK_TIMEOUT_SEC"`
}

type QueueConfig struct {
	NotificationQueue string `json:"notification_queue" envconfig:"TRADEDESK_QUEUE_NOTIFICATION"`
	MaxRetryAttempts  int    `json:"max_retry_attempts" envconfig:"TRADEDESK_QUEUE_MAX_RETRY_ATTEMPTS"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"TRADEDESK_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"TRADEDESK_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"TRADEDESK_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type CacheConfig struct {
	ReadModelTTLSec int `json:"read_model_ttl_sec" envconfig:"TRADEDESK_CACHE_READ_MODEL_TTL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url" envconfig:"TRADEDESK_SLACK_WEBHOOK_URL"`
}

type WebhookTarget struct {
	Url     string            `json:"url" envconfig:"TRADEDESK_NOTIFICATION_WEBHOOK_URL"`
	Headers map[string]string `json:"headers"`
}

type Notification struct {
	Slack   SlackWebhook  `json:"slack"`
	Webhook WebhookTarget `json:"webhook"`
}

type Configuration struct {
	ProjectName     string           `json:"project_name" envconfig:"TRADEDESK_PROJECT_NAME"`
	EnableTelemetry bool             `json:"enable_telemetry" envconfig:"TRADEDESK_ENABLE_TELEMETRY"`
	Server          ServerConfig     `json:"server"`
	DataSource      DataSourceConfig `json:"data_source"`
	Redis           RedisConfig      `json:"redis"`
	Providers       ProvidersConfig  `json:"providers"`
	Queue           QueueConfig      `json:"queue"`
	Cache           CacheConfig      `json:"cache"`
	Notification    Notification     `json:"notification"`
	RateLimit       RateLimitConfig  `json:"rate_limit"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("tradedesk", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called tradedesk.json with your config")
	}
	return c, nil
}

// ProviderSecret resolves the webhook signing secret for a provider tag.
// The second return value is false when no non-empty secret is configured.
func (cnf *Configuration) ProviderSecret(provider string) (string, bool) {
	var secret string
	provider = strings.ToLower(provider)
	switch provider {
	case "pix":
		secret = cnf.Providers.Pix.Secret
	case "kyc":
		secret = cnf.Providers.KYC.Secret
	case "internal":
		secret = cnf.Providers.Internal.Secret
	default:
		if p, ok := cnf.Providers.Other[provider]; ok {
			secret = p.Secret
		}
	}
	return secret, secret != ""
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "TradeDesk"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Server.RequestTimeoutSec <= 0 {
		cnf.Server.RequestTimeoutSec = DEFAULT_REQUEST_TIMEOUT_SEC
	}

	if cnf.Queue.NotificationQueue == "" {
		cnf.Queue.NotificationQueue = DEFAULT_NOTIFICATION_QUEUE
	}
	if cnf.Queue.MaxRetryAttempts <= 0 {
		cnf.Queue.MaxRetryAttempts = DEFAULT_NOTIFICATION_RETRIES
	}

	if cnf.Cache.ReadModelTTLSec <= 0 {
		cnf.Cache.ReadModelTTLSec = DEFAULT_READ_MODEL_TTL_SEC
	}

	if cnf.Providers.ReplayWindowSec < 0 {
		cnf.Providers.ReplayWindowSec = 0
	}
	if cnf.Providers.LockTimeoutSec <= 0 {
		cnf.Providers.LockTimeoutSec = DEFAULT_WEBHOOK_LOCK_TIMEOUT_S
	}
	// Provider tags are matched case-insensitively.
	if len(cnf.Providers.Other) > 0 {
		other := make(map[string]ProviderConfig, len(cnf.Providers.Other))
		for tag, p := range cnf.Providers.Other {
			other[strings.ToLower(strings.TrimSpace(tag))] = p
		}
		cnf.Providers.Other = other
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
