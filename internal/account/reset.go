// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/samber/oops"
)

// Reset token configuration.
const (
	ResetTokenBytes = 20 // 20 bytes = 40 hex chars
	// DefaultResetTTL bounds the redemption window when callers do not
	// specify one.
	DefaultResetTTL = time.Hour

	placeholderPasswordBytes = 10
)

// GenerateResetToken creates a secure random opaque token. The token
// is drawn from crypto/rand independently of password salts.
func GenerateResetToken() (string, error) {
	buf := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", oops.Code("RESET_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", ResetTokenBytes).
			Wrap(err)
	}
	return hex.EncodeToString(buf), nil
}

// generatePlaceholderPassword creates the random throwaway password
// assigned at reset issuance. It is never disclosed; its only purpose
// is to revoke the previous password immediately.
func generatePlaceholderPassword() (string, error) {
	buf := make([]byte, placeholderPasswordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", oops.Code("RESET_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", placeholderPasswordBytes).
			Wrap(err)
	}
	return hex.EncodeToString(buf), nil
}
