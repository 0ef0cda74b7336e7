package helpers

import (
	"context"
	"testing"
)

func TestSpotsLeftMessage(t *testing.T) {
	tests := []struct {
		name      string
		confirmed int64
		capacity  int64
		want      string
	}{
		{"plenty of room", 10, 150, "Only 140 spots left!"},
		{"one spot left is singular", 149, 150, "Only 1 spot left!"},
		{"at capacity", 150, 150, "Event is full"},
		{"over capacity", 151, 150, "Event is full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SpotsLeftMessage(tt.confirmed, tt.capacity)
			if got != tt.want {
				t.Errorf("SpotsLeftMessage(%d, %d) = %q, want %q", tt.confirmed, tt.capacity, got, tt.want)
			}
		})
	}
}

func TestGetUserInfoFromContext(t *testing.T) {
	ctx := context.Background()

	if _, ok := GetUserInfoFromContext(ctx); ok {
		t.Error("expected no user info on empty context")
	}

	ctx = context.WithValue(ctx, USER_INFO_CTX_KEY, UserInfo{Sub: "auth-user-123", Email: "test@example.com"})
	userInfo, ok := GetUserInfoFromContext(ctx)
	if !ok {
		t.Fatal("expected user info on context")
	}
	if userInfo.Sub != "auth-user-123" {
		t.Errorf("got sub %q, want %q", userInfo.Sub, "auth-user-123")
	}

	// A UserInfo with no subject is not a valid identity
	ctx = context.WithValue(context.Background(), USER_INFO_CTX_KEY, UserInfo{Email: "test@example.com"})
	if _, ok := GetUserInfoFromContext(ctx); ok {
		t.Error("expected user info without sub to be rejected")
	}
}

func TestGetRsvpCapacity(t *testing.T) {
	t.Setenv("RSVP_CAPACITY", "")
	if got := GetRsvpCapacity(); got != DEFAULT_RSVP_CAPACITY {
		t.Errorf("got %d, want default %d", got, DEFAULT_RSVP_CAPACITY)
	}

	t.Setenv("RSVP_CAPACITY", "200")
	if got := GetRsvpCapacity(); got != 200 {
		t.Errorf("got %d, want 200", got)
	}

	t.Setenv("RSVP_CAPACITY", "not-a-number")
	if got := GetRsvpCapacity(); got != DEFAULT_RSVP_CAPACITY {
		t.Errorf("got %d, want default %d on bad value", got, DEFAULT_RSVP_CAPACITY)
	}
}
