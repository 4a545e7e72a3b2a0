package config

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is used when no cost is configured.
const DefaultBcryptCost = 12

// PasswordConfig holds configuration for password hashing and verification.
type PasswordConfig struct {
	BcryptCost int    `mapstructure:"bcrypt-cost"`
	Pepper     string `mapstructure:"pepper"` // optional global secret appended before hashing
}

// Validate checks that the cost is in the supported range.
func (c *PasswordConfig) Validate() error {
	if c.BcryptCost < 10 || c.BcryptCost > 14 {
		return fmt.Errorf("bcrypt cost out of range: %d (must be 10-14)", c.BcryptCost)
	}
	return nil
}

func (c *PasswordConfig) peppered(pw string) []byte {
	if c.Pepper != "" {
		return []byte(pw + c.Pepper)
	}
	return []byte(pw)
}

// HashPassword hashes a password using bcrypt (with optional pepper).
func (c *PasswordConfig) HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(c.peppered(pw), c.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword verifies a password against a stored hash (with optional pepper).
func (c *PasswordConfig) VerifyPassword(pw, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), c.peppered(pw)) == nil
}
