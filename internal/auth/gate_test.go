package auth

import (
	"errors"
	"testing"
)

func TestNewTokenGateRejectsEmptySecret(t *testing.T) {
	if _, err := NewTokenGate("   "); err == nil {
		t.Fatalf("expected error for blank secret")
	}
}

func TestAuthorizeDistinguishesMissingFromInvalid(t *testing.T) {
	gate, err := NewTokenGate("secret-token")
	if err != nil {
		t.Fatalf("failed to construct gate: %v", err)
	}

	tests := []struct {
		name     string
		header   string
		expected error
	}{
		{name: "no-header", header: "", expected: ErrMissingCredential},
		{name: "wrong-scheme", header: "Basic c2VjcmV0", expected: ErrMissingCredential},
		{name: "empty-token", header: "Bearer   ", expected: ErrMissingCredential},
		{name: "wrong-token", header: "Bearer not-the-secret", expected: ErrInvalidCredential},
		{name: "valid", header: "Bearer secret-token", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.Authorize(tt.header)
			if tt.expected == nil {
				if err != nil {
					t.Fatalf("expected authorization to succeed, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}
