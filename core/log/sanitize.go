// Package log provides secure logging utilities with data sanitization capabilities.
package log

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
)

// SanitizationMode controls how sensitive data is handled in logs
type SanitizationMode int

const (
	// ProductionMode hashes sensitive data for production use
	ProductionMode SanitizationMode = iota
	// DevelopmentMode shows truncated sensitive data for debugging
	DevelopmentMode
	// DebugMode shows full sensitive data (only for development)
	DebugMode
)

var currentMode = ProductionMode

func init() {
	if mode := os.Getenv("LOCKSVC_LOG_MODE"); mode != "" {
		SetMode(ParseMode(mode))
	}
}

// ParseMode maps a mode name to a SanitizationMode. Unknown names map to ProductionMode.
func ParseMode(mode string) SanitizationMode {
	switch strings.ToLower(mode) {
	case "development":
		return DevelopmentMode
	case "debug":
		return DebugMode
	default:
		return ProductionMode
	}
}

// SetMode changes the process-wide sanitization mode.
func SetMode(mode SanitizationMode) {
	currentMode = mode
}

// SanitizeOwnerID sanitizes lock owner identities for logging
func SanitizeOwnerID(ownerID string) string {
	if ownerID == "" {
		return ""
	}

	switch currentMode {
	case DevelopmentMode:
		if len(ownerID) <= 8 {
			return ownerID
		}
		return ownerID[:4] + "****"
	case DebugMode:
		return ownerID
	default:
		hash := sha256.Sum256([]byte(ownerID))
		return fmt.Sprintf("owner_hash:%x", hash[:6])
	}
}

// SanitizeOwnerName sanitizes human readable owner names. Names are personal
// data, so only debug mode shows them in full.
func SanitizeOwnerName(ownerName string) string {
	if ownerName == "" {
		return ""
	}

	switch currentMode {
	case DebugMode:
		return ownerName
	case DevelopmentMode:
		r := []rune(ownerName)
		return string(r[:1]) + "***"
	default:
		return "***"
	}
}
