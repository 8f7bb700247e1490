package main

import (
	"fmt"

	"github.com/victorgomez09/sgc/internal/auth/service"
	"github.com/victorgomez09/sgc/internal/auth/validation"
	"github.com/victorgomez09/sgc/internal/config"
	"github.com/victorgomez09/sgc/internal/notify"
)

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func buildAuthConfig(cfg config.Auth) service.AuthConfig {
	policy := validation.DefaultPasswordPolicy()
	if cfg.PasswordMinLength > 0 {
		policy.MinLength = cfg.PasswordMinLength
	}

	return service.AuthConfig{
		JWTSecret:            []byte(cfg.JWTSecret),
		TokenTTL:             cfg.TokenTTL,
		MaxLoginAttempts:     cfg.MaxLoginAttempts,
		TokenCleanupInterval: cfg.TokenCleanupInterval,
		TokenRetention:       cfg.TokenRetention,
		PasswordPolicy:       policy,
	}
}

func buildNotifyConfig(cfg config.Alerting) notify.Config {
	return notify.Config{
		Enabled:   cfg.Enabled,
		SMTPHost:  cfg.SMTPHost,
		SMTPPort:  cfg.SMTPPort,
		FromEmail: cfg.FromEmail,
		FromPass:  cfg.FromPass,
		ToEmails:  cfg.ToEmails,
	}
}
