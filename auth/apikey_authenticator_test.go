package auth

import (
	"context"
	"errors"
	"testing"
)

func TestAPIKeyAuthenticator(t *testing.T) {
	a := NewAPIKeyAuthenticator([]string{"secret-one", " ", "secret-two"})
	if !a.Enabled() {
		t.Fatal("Enabled() = false with configured keys")
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "bearer token", token: "Bearer secret-one"},
		{name: "bare token", token: "secret-two"},
		{name: "padded token", token: "Bearer  secret-one "},
		{name: "unknown token", token: "Bearer nope", wantErr: ErrAuthenticationFailed},
		{name: "empty header", token: "", wantErr: ErrMissingToken},
		{name: "bearer only", token: "Bearer ", wantErr: ErrMissingToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clientID, err := a.Authenticate(context.Background(), tt.token)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Authenticate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if clientID == "" || clientID == "secret-one" || clientID == "secret-two" {
				t.Errorf("Authenticate() clientID = %q, want a derived id", clientID)
			}
		})
	}
}

func TestAPIKeyAuthenticatorStableClientIDs(t *testing.T) {
	a := NewAPIKeyAuthenticator([]string{"alpha", "beta"})

	first, _ := a.Authenticate(context.Background(), "alpha")
	again, _ := a.Authenticate(context.Background(), "Bearer alpha")
	other, _ := a.Authenticate(context.Background(), "beta")

	if first != again {
		t.Errorf("client id changed between calls: %q vs %q", first, again)
	}
	if first == other {
		t.Errorf("distinct keys share client id %q", first)
	}
}

func TestAPIKeyAuthenticatorDisabled(t *testing.T) {
	if NewAPIKeyAuthenticator(nil).Enabled() {
		t.Error("Enabled() = true without keys")
	}
}
