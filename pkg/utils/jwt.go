package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired is returned when a token's expiry has passed
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for any other verification failure
	ErrTokenInvalid = errors.New("invalid token")
)

var (
	jwtSecret string
	jwtExpiry time.Duration
)

// InitJWT initializes the JWT signing secret and token expiry
func InitJWT(secret string, expiry time.Duration) {
	jwtSecret = secret
	jwtExpiry = expiry
}

// Claims represents JWT custom claims
type Claims struct {
	UserID     uint   `json:"user_id"`
	HospitalID uint   `json:"hospital_id"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken issues a signed, time-limited session token
func GenerateToken(userID, hospitalID uint, role string) (string, error) {
	claims := Claims{
		UserID:     userID,
		HospitalID: hospitalID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(jwtExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// ValidateToken validates and parses a session token. Expired tokens are
// distinguished from otherwise invalid ones.
func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrTokenInvalid
}
