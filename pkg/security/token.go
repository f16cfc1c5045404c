package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

// AuthTokenTTL is how long a session token stays valid after login
const AuthTokenTTL = time.Hour * 24 * 30

var ErrTokenInvalid = errors.New("token invalid or expired")

// MakeAuthToken mints a signed session token bound to a user ID
func MakeAuthToken(userID string) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"type":    "auth",
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(AuthTokenTTL).Unix(),
	})

	return t.SignedString([]byte(viper.GetString("jwt.secret")))
}

// VerifyAuthToken checks the signature and expiry of a session token
// and returns the user ID it is bound to
func VerifyAuthToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}

		return []byte(viper.GetString("jwt.secret")), nil
	})
	if err != nil || !token.Valid {
		return "", ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrTokenInvalid
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", ErrTokenInvalid
	}

	expRaw, ok := claims["exp"]
	if !ok {
		return "", ErrTokenInvalid
	}

	exp, ok := expRaw.(float64)
	if !ok || time.Now().Unix() >= int64(exp) {
		return "", ErrTokenInvalid
	}

	return userID, nil
}
