package log

import (
	"strings"
	"testing"
)

func withMode(t *testing.T, mode SanitizationMode) {
	t.Helper()
	previous := currentMode
	SetMode(mode)
	t.Cleanup(func() { SetMode(previous) })
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input string
		want  SanitizationMode
	}{
		{"production", ProductionMode},
		{"Development", DevelopmentMode},
		{"DEBUG", DebugMode},
		{"", ProductionMode},
		{"verbose", ProductionMode},
	}

	for _, tt := range tests {
		if got := ParseMode(tt.input); got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeOwnerIDProduction(t *testing.T) {
	withMode(t, ProductionMode)

	got := SanitizeOwnerID("user123")
	if !strings.HasPrefix(got, "owner_hash:") || strings.Contains(got, "user123") {
		t.Errorf("SanitizeOwnerID() = %q, want a hash", got)
	}
	if got != SanitizeOwnerID("user123") {
		t.Error("hash must be stable for the same owner")
	}
	if got == SanitizeOwnerID("user124") {
		t.Error("different owners must hash differently")
	}
	if SanitizeOwnerID("") != "" {
		t.Error("empty owner must stay empty")
	}
}

func TestSanitizeOwnerIDDevelopmentAndDebug(t *testing.T) {
	withMode(t, DevelopmentMode)
	if got := SanitizeOwnerID("short"); got != "short" {
		t.Errorf("SanitizeOwnerID(short) = %q", got)
	}
	if got := SanitizeOwnerID("a-rather-long-owner"); got != "a-ra****" {
		t.Errorf("SanitizeOwnerID(long) = %q, want a-ra****", got)
	}

	SetMode(DebugMode)
	if got := SanitizeOwnerID("a-rather-long-owner"); got != "a-rather-long-owner" {
		t.Errorf("SanitizeOwnerID() in debug = %q", got)
	}
}

func TestSanitizeOwnerName(t *testing.T) {
	withMode(t, ProductionMode)
	if got := SanitizeOwnerName("Alice"); got != "***" {
		t.Errorf("production SanitizeOwnerName() = %q", got)
	}

	SetMode(DevelopmentMode)
	if got := SanitizeOwnerName("张三"); got != "张***" {
		t.Errorf("development SanitizeOwnerName() = %q, want first rune kept", got)
	}

	SetMode(DebugMode)
	if got := SanitizeOwnerName("Alice"); got != "Alice" {
		t.Errorf("debug SanitizeOwnerName() = %q", got)
	}
}
