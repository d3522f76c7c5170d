package utils

import (
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"whiteboard/internal/models"
)

func TestGenerateAndValidateRoomToken(t *testing.T) {
	prev := jwtSecret
	t.Cleanup(func() { jwtSecret = prev })
	jwtSecret = []byte("secret-key")

	tokenStr, err := GenerateRoomToken("room-1", "user-1", "Ms Chen", models.RoleTeacher, time.Hour)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	claims, err := ValidateRoomToken(tokenStr)
	if err != nil {
		t.Fatalf("expected valid token, got error %v", err)
	}
	if claims.RoomID != "room-1" || claims.UserID != "user-1" {
		t.Fatalf("unexpected claims: %#v", claims)
	}
	if claims.DisplayName != "Ms Chen" || claims.Role != models.RoleTeacher {
		t.Fatalf("unexpected identity claims: %#v", claims)
	}
}

func TestValidateRoomTokenInvalid(t *testing.T) {
	prev := jwtSecret
	t.Cleanup(func() { jwtSecret = prev })
	jwtSecret = []byte("secret-a")

	badToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &RoomTokenClaims{
		RoomID: "r",
		UserID: "u",
	}).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	if _, err := ValidateRoomToken(badToken); err == nil {
		t.Fatalf("expected validation failure")
	}
}

func TestValidateRoomTokenUnexpectedMethod(t *testing.T) {
	prev := jwtSecret
	t.Cleanup(func() { jwtSecret = prev })
	jwtSecret = []byte("secret-a")

	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodRS256, &RoomTokenClaims{
		RoomID: "r",
		UserID: "u",
	}).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := ValidateRoomToken(tokenStr); err == nil || !strings.Contains(err.Error(), "unexpected signing method") {
		t.Fatalf("expected signing method error, got %v", err)
	}
}

func TestValidateRoomTokenExpired(t *testing.T) {
	prev := jwtSecret
	t.Cleanup(func() { jwtSecret = prev })
	jwtSecret = []byte("secret-b")

	tokenStr, err := GenerateRoomToken("r", "u", "n", models.RoleStudent, -time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := ValidateRoomToken(tokenStr); err == nil {
		t.Fatalf("expected expiration error")
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	const token = "abc123"
	value, err := ExtractTokenFromHeader("Bearer " + token)
	if err != nil || value != token {
		t.Fatalf("unexpected result %q err=%v", value, err)
	}

	for _, header := range []string{"", "Token " + token, "Bearer"} {
		if _, err := ExtractTokenFromHeader(header); err == nil {
			t.Fatalf("expected error for header %q", header)
		}
	}
}
