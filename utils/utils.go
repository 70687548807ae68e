package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const BcryptCost = 12

// ClaimUserID is the JWT claim carrying the numeric user id.
const ClaimUserID = "user_id"

var ErrInvalidToken = errors.New("invalid token")

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func GenerateJWT(userID int, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		ClaimUserID: userID,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseJWT verifies an HS256 token and returns its positive user id.
func ParseJWT(tokenString string, secret []byte) (int, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}

	var userID int
	switch v := claims[ClaimUserID].(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%w: '%s' claim is not an integer", ErrInvalidToken, ClaimUserID)
		}
		userID = int(v)
	case string:
		id, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%w: '%s' claim is not an integer", ErrInvalidToken, ClaimUserID)
		}
		userID = id
	default:
		return 0, fmt.Errorf("%w: missing '%s' claim", ErrInvalidToken, ClaimUserID)
	}
	if userID <= 0 {
		return 0, fmt.Errorf("%w: invalid user id %d", ErrInvalidToken, userID)
	}
	return userID, nil
}
