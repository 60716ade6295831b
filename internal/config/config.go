// Package config provides configuration parsing and validation for grantcue.
package config

import (
	"fmt"
)

// Config holds all configuration parameters for the grantcue service.
type Config struct {
	HTTPPort          string
	PostgresDSN       string
	KafkaBrokers      string
	AlertChangedTopic string
	RedisAddr         string
	JWTSecret         string
	SchedulerToken    string
	AppBaseURL        string
	EmailFrom         string
	EmailProvider     string
}

// Validate checks that all required configuration fields are set and have valid values.
// Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("http-port cannot be empty")
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres-dsn cannot be empty")
	}
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	if c.AlertChangedTopic == "" {
		return fmt.Errorf("alert-changed-topic cannot be empty")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt-secret cannot be empty")
	}
	if c.SchedulerToken == "" {
		return fmt.Errorf("scheduler-token cannot be empty")
	}
	if c.AppBaseURL == "" {
		return fmt.Errorf("app-base-url cannot be empty")
	}
	if c.EmailFrom == "" {
		return fmt.Errorf("email-from cannot be empty")
	}
	switch c.EmailProvider {
	case "resend", "ses", "smtp":
	default:
		return fmt.Errorf("email-provider must be one of resend, ses, smtp")
	}
	return nil
}
