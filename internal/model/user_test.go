package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestIsValidEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{"simple", "jdoe@example.com", true},
		{"plus tag", "j.doe+tag@mail.example.org", true},
		{"empty", "", false},
		{"no at", "jdoe.example.com", false},
		{"no domain dot", "jdoe@localhost", false},
		{"display name", "John <jdoe@example.com>", false},
		{"trailing at", "jdoe@", false},
		{"spaces", "j doe@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestUser_Validate(t *testing.T) {
	t.Parallel()

	u := &User{ID: 7, Email: "not-an-email"}
	err := u.Validate()
	if !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("Validate() error = %v, want ErrInvalidEmail", err)
	}

	u.Email = "ok@example.com"
	if err := u.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestPaginatedResponse_JSONShape(t *testing.T) {
	t.Parallel()

	resp := PaginatedResponse{
		Data:     []User{{ID: 1, FirstName: "Ann", LastName: "Lee", Email: "ann@example.com", Gender: "Female", IPAddress: "10.0.0.1"}},
		Total:    25,
		Page:     1,
		PageSize: 10,
	}

	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	out := string(b)
	for _, field := range []string{`"data":[`, `"total":25`, `"page":1`, `"page_size":10`, `"next_cursor":null`, `"first_name":"Ann"`, `"ip_address":"10.0.0.1"`} {
		if !strings.Contains(out, field) {
			t.Errorf("expected %s in %s", field, out)
		}
	}
}

func TestNewErrorResponse(t *testing.T) {
	t.Parallel()

	b, _ := json.Marshal(NewErrorResponse("User not found", ""))
	if string(b) != `{"error":"User not found","details":null}` {
		t.Errorf("unexpected JSON: %s", b)
	}

	resp := NewErrorResponse("Search Failed", "boom")
	if resp.DetailsOrEmpty() != "boom" {
		t.Errorf("DetailsOrEmpty() = %q, want boom", resp.DetailsOrEmpty())
	}
}
