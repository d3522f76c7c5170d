package utils

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"whiteboard/internal/models"
)

var jwtSecret []byte

func init() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "your-secret-key" // Default for development
	}
	jwtSecret = []byte(secret)
}

// RoomTokenClaims is the identity the booking side established for a
// participant before handing it a whiteboard URL.
type RoomTokenClaims struct {
	RoomID      string      `json:"roomId"`
	UserID      string      `json:"userId"`
	DisplayName string      `json:"displayName"`
	Role        models.Role `json:"role"`
	jwt.RegisteredClaims
}

// GenerateRoomToken signs a room access token for a participant.
func GenerateRoomToken(roomID, userID, displayName string, role models.Role, ttl time.Duration) (string, error) {
	claims := &RoomTokenClaims{
		RoomID:      roomID,
		UserID:      userID,
		DisplayName: displayName,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}

// ValidateRoomToken validates a JWT token and returns the claims
func ValidateRoomToken(tokenString string) (*RoomTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RoomTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	return token.Claims.(*RoomTokenClaims), nil
}

// ExtractTokenFromHeader extracts the token from the Authorization header
func ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("authorization header missing")
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return "", errors.New("invalid authorization header format")
	}

	return authHeader[7:], nil
}
