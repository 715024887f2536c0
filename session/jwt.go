package session

import (
	"os"
	"time"

	"stagegate/authority"

	"github.com/golang-jwt/jwt/v5"
)

const AccessTokenExpiration = 2 * time.Hour

var jwtSecretFunc = jwtSecretFromEnv

func jwtSecretFromEnv() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "stagegate-dev-secret"
	}
	return []byte(secret)
}

// AccessTokenClaims carries the identity and the flattened capability list, so the
// frontend need not re-query them. The capability gate still reloads capabilities
// from the database on every request.
type AccessTokenClaims struct {
	Username     string   `json:"username"`
	Fio          string   `json:"fio"`
	Role         string   `json:"role"`
	Capabilities []string `json:"capabilities"`

	jwt.RegisteredClaims
}

func BuildAccessToken(identity Identity, roleName string, perms authority.Permissions, signingTime time.Time) (string, error) {
	claims := AccessTokenClaims{
		Username:     identity.Name,
		Fio:          identity.Nickname,
		Role:         roleName,
		Capabilities: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			IssuedAt:  jwt.NewNumericDate(signingTime),
			ExpiresAt: jwt.NewNumericDate(signingTime.Add(AccessTokenExpiration)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecretFunc())
}

func ParseAccessToken(token string) (*AccessTokenClaims, error) {
	claims := AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return jwtSecretFunc(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return &claims, nil
}
