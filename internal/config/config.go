// Package config declares the process-wide Config struct and the small
// reflection-based env-var loader the teacher uses
// (common.SetConfigFromEnvVars), adapted to this core's own variable set.
package config

import (
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Config is the top-level configuration for the entire process, loaded
// once at startup and never mutated. Every variable spec.md §6 names is
// represented here, plus the ambient ones the teacher always carries.
type Config struct {
	EnvName       string `env:"ENV_NAME"`
	ServerAddress string `env:"SERVER_ADDRESS"`
	LogLevel      string `env:"LOG_LEVEL"`

	DatabaseURL     string `env:"DATABASE_URL"`
	DatabaseReplica string `env:"DATABASE_REPLICA_URL"`
	MigrationsPath  string `env:"MIGRATIONS_PATH"`

	SessionStoreURL string `env:"SESSION_STORE_URL"`

	TBAddress string `env:"TB_ADDRESS"`

	MongoURL      string `env:"MONGO_URL"`
	MongoDatabase string `env:"MONGO_DATABASE"`

	RabbitMQURL      string `env:"RABBITMQ_URL"`
	RabbitMQExchange string `env:"RABBITMQ_EXCHANGE"`
	RabbitMQQueue    string `env:"RABBITMQ_QUEUE"`
	RabbitMQKey      string `env:"RABBITMQ_KEY"`

	MockWebhookURL string `env:"MOCK_WEBHOOK_URL"`

	HoldTimeoutSeconds  int64 `env:"HOLD_TIMEOUT_SECONDS"`
	SweepIntervalSeconds int64 `env:"SWEEP_INTERVAL_SECONDS"`
	SweepGraceSeconds    int64 `env:"SWEEP_GRACE_SECONDS"`
	SweepBatchLimit      int64 `env:"SWEEP_BATCH_LIMIT"`

	GoodieSupply  int64 `env:"GOODIE_SUPPLY"`
	TicketSupplyA int64 `env:"TICKET_SUPPLY_A"`
	TicketSupplyB int64 `env:"TICKET_SUPPLY_B"`

	AdminBasicAuth string `env:"ADMIN_BASIC_AUTH"`
	WebhookSecret  string `env:"WEBHOOK_SECRET"`

	RateLimitPerMinute int64 `env:"RATE_LIMIT_PER_MINUTE"`
}

// Defaults applied after loading for any field still at its zero value,
// mirroring spec.md §6's documented defaults.
func (c *Config) applyDefaults() {
	if c.ServerAddress == "" {
		c.ServerAddress = ":3001"
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.MigrationsPath == "" {
		c.MigrationsPath = "migrations"
	}

	if c.MongoDatabase == "" {
		c.MongoDatabase = "reserve_core"
	}

	if c.RabbitMQExchange == "" {
		c.RabbitMQExchange = "payments"
	}

	if c.RabbitMQQueue == "" {
		c.RabbitMQQueue = "payments.webhooks"
	}

	if c.RabbitMQKey == "" {
		c.RabbitMQKey = "payment.event"
	}

	if c.HoldTimeoutSeconds == 0 {
		c.HoldTimeoutSeconds = 300
	}

	if c.SweepIntervalSeconds == 0 {
		c.SweepIntervalSeconds = 10
	}

	if c.SweepGraceSeconds == 0 {
		c.SweepGraceSeconds = 30
	}

	if c.SweepBatchLimit == 0 {
		c.SweepBatchLimit = 200
	}

	if c.GoodieSupply == 0 {
		c.GoodieSupply = 100
	}

	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 30
	}
}

// New loads Config from the process environment.
func New() (*Config, error) {
	cfg := &Config{}

	if err := setFromEnvVars(cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	return cfg, nil
}

// setFromEnvVars builds a struct by setting its fields from the "env"
// tag, ported from the teacher's common.SetConfigFromEnvVars. Supported
// types: string, bool, and the signed integer kinds.
func setFromEnvVars(s any) error {
	v := reflect.ValueOf(s)

	t := v.Type()
	if t.Kind() != reflect.Ptr {
		return errors.New("s must be a pointer")
	}

	e := t.Elem()
	for i := 0; i < e.NumField(); i++ {
		f := e.Field(i)

		tag, ok := f.Tag.Lookup("env")
		if !ok {
			continue
		}

		name := strings.Split(tag, ",")[0]

		fv := v.Elem().FieldByName(f.Name)
		if !fv.CanSet() {
			continue
		}

		raw, present := os.LookupEnv(name)
		if !present {
			continue
		}

		switch fv.Kind() {
		case reflect.Bool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return errors.Errorf("parse bool env var %s: %v", name, err)
			}

			fv.SetBool(b)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return errors.Errorf("parse int env var %s: %v", name, err)
			}

			fv.SetInt(n)
		default:
			fv.SetString(raw)
		}
	}

	return nil
}
