package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewVerifier_EmptySecret(t *testing.T) {
	t.Parallel()

	_, err := NewVerifier("")
	if !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}

func TestVerifier_Verify(t *testing.T) {
	t.Parallel()

	v, err := NewVerifier("s3cret-token")
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"exact match", "s3cret-token", true},
		{"empty", "", false},
		{"prefix", "s3cret", false},
		{"longer", "s3cret-token-extra", false},
		{"case differs", "S3CRET-TOKEN", false},
		{"whitespace", " s3cret-token", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := v.Verify(tt.token); got != tt.want {
				t.Errorf("Verify(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	a := Fingerprint("token-a")
	if a != Fingerprint("token-a") {
		t.Error("fingerprint must be deterministic")
	}
	if a == Fingerprint("token-b") {
		t.Error("different tokens should have different fingerprints")
	}
	if len(a) != 16 {
		t.Errorf("fingerprint length = %d, want 16", len(a))
	}
	if strings.Contains(a, "token") {
		t.Error("fingerprint must not contain the token")
	}
}

func TestCallerContext(t *testing.T) {
	t.Parallel()

	if CallerFromContext(context.Background()) != nil {
		t.Error("expected nil caller on empty context")
	}
	if FingerprintFromContext(context.Background()) != "" {
		t.Error("expected empty fingerprint on empty context")
	}

	ctx := ContextWithCaller(context.Background(), &Caller{Fingerprint: "abcd"})
	if got := FingerprintFromContext(ctx); got != "abcd" {
		t.Errorf("FingerprintFromContext = %q, want abcd", got)
	}
}
