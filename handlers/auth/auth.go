package auth

import (
	"errors"
	"fmt"
	"nest-server/core"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

var (
	mu        sync.RWMutex
	jwtSecret []byte
)

// AppClaims represents the custom claims for the JWT.
type AppClaims struct {
	jwt.RegisteredClaims
	Login string `json:"login"`
	Name  string `json:"name,omitempty"`
}

// UserName is the owner recorded on content created with these claims.
func (c *AppClaims) UserName() core.Owner {
	if c.Login != "" {
		return core.Owner(c.Login)
	}
	return core.Owner(c.Subject)
}

// InitAuth loads the signing secret from JWT_SECRET.
func InitAuth() {
	SetSecret([]byte(os.Getenv("JWT_SECRET")))
	if len(Secret()) == 0 {
		logrus.Warn("JWT_SECRET is not set. Authentication will not work.")
	}
}

func SetSecret(secret []byte) {
	mu.Lock()
	jwtSecret = secret
	mu.Unlock()
}

func Secret() []byte {
	mu.RLock()
	defer mu.RUnlock()
	return jwtSecret
}

// CreateJWT issues an HS256 token for login, valid for ttl.
func CreateJWT(login string, ttl time.Duration) (string, error) {
	secret := Secret()
	if len(secret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}
	now := time.Now()
	claims := AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   login,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Login: login,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func ParseJWT(tokenString string) (*AppClaims, error) {
	secret := Secret()
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &AppClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AppClaims); ok && token.Valid {
		if claims.UserName().Anonymous() {
			return nil, fmt.Errorf("token carries no user name")
		}
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
