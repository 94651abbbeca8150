package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/billflow/billflow/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig
	Billing    BillingConfig `validate:"required"`
	Reminder   ReminderConfig
	Delivery   DeliveryConfig
	Sweep      SweepConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// BillingConfig carries document numbering and default terms
type BillingConfig struct {
	InvoiceNumberPrefix  string `validate:"required"`
	EstimateNumberPrefix string `validate:"required"`
	DefaultPaymentTerms  int    `validate:"gte=0"`
}

// ReminderConfig carries the reminder cadence rules
type ReminderConfig struct {
	CooldownDays      int `validate:"gte=0"`
	MaxReminders      int `validate:"gte=0"`
	DueSoonWindowDays int `validate:"gte=0"`
}

// DeliveryConfig carries the outbound delivery queue settings
type DeliveryConfig struct {
	Topic string
}

// SweepConfig carries the in-process sweep schedules (cron expressions).
// Empty specs disable the in-process scheduler; an external cron can hit the
// HTTP endpoints instead.
type SweepConfig struct {
	RecurringSpec string
	ReminderSpec  string
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/billflow")

	v.SetEnvPrefix("BILLFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(types.ModeLocal))
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("billing.invoicenumberprefix", "INV")
	v.SetDefault("billing.estimatenumberprefix", "EST")
	v.SetDefault("billing.defaultpaymentterms", 30)
	v.SetDefault("reminder.cooldowndays", 3)
	v.SetDefault("reminder.maxreminders", 5)
	v.SetDefault("reminder.duesoonwindowdays", 7)
	v.SetDefault("delivery.topic", "delivery_jobs")
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development,
// scripts and tests.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelInfo},
		Billing: BillingConfig{
			InvoiceNumberPrefix:  "INV",
			EstimateNumberPrefix: "EST",
			DefaultPaymentTerms:  30,
		},
		Reminder: ReminderConfig{
			CooldownDays:      3,
			MaxReminders:      5,
			DueSoonWindowDays: 7,
		},
		Delivery: DeliveryConfig{Topic: "delivery_jobs"},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User, c.Password, c.DBName, c.Host, c.Port, c.SSLMode,
	)
}
