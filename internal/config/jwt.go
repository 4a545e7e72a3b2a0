package config

import "fmt"

// DefaultJWTExpirationHours is the session lifetime when none is configured.
const DefaultJWTExpirationHours = 24

// JWTConfig holds configuration for session token generation and validation.
// It is read from the jwt section or JWT_SECRET and JWT_EXPIRATION_HOURS.
type JWTConfig struct {
	Secret          string `mapstructure:"secret"`
	ExpirationHours int    `mapstructure:"expiration-hours"`
}

// Validate checks the token settings. A secret is required whenever accounts are enabled.
func (c *JWTConfig) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required when a database is configured")
	}
	if len(c.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes, got: %d", len(c.Secret))
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
