package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full service configuration, loaded from the environment with
// optional .env overrides.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	ESHost string `env:"ES_HOST" envDefault:"elasticsearch"`
	ESPort string `env:"ES_PORT" envDefault:"9200"`

	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"csv_sync"`

	AWSRegion   string `env:"AWS_REGION" envDefault:"us-east-1"`
	SQSQueueURL string `env:"SQS_QUEUE_URL"`

	CompanyIndex string `env:"COMPANY_INDEX" envDefault:"primary_company_list_data"`
	RecordIndex  string `env:"RECORD_INDEX" envDefault:"primary_record_list_data"`

	CompanyCheckField  string `env:"COMPANY_CHECK_FIELD" envDefault:"company_website"`
	CompanySearchField string `env:"COMPANY_SEARCH_FIELD" envDefault:"company_website.keyword"`
	RecordCheckField   string `env:"RECORD_CHECK_FIELD" envDefault:"email"`
	RecordSearchField  string `env:"RECORD_SEARCH_FIELD" envDefault:"email.keyword"`

	CallTimeout time.Duration `env:"CALL_TIMEOUT" envDefault:"10s"`
	AuditDBPath string        `env:"AUDIT_DB_PATH" envDefault:"csv_sync.db"`
}

// ESAddress renders the Elasticsearch base URL.
func (c Config) ESAddress() string {
	return fmt.Sprintf("http://%s:%s", c.ESHost, c.ESPort)
}

// Load reads .env when present, then parses the environment. A malformed
// environment is fatal: the service must not start half-configured.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.SQSQueueURL == "" {
		return nil, fmt.Errorf("SQS_QUEUE_URL is required")
	}
	return cfg, nil
}
