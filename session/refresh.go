package session

import (
	"time"

	"stagegate/bizerror"

	"github.com/fundwit/go-commons/types"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const RefreshTokenExpiration = 30 * 24 * time.Hour

// RefreshTokenCache maps refresh tokens to user ids. Server side only:
// logout and rotation take effect immediately.
var RefreshTokenCache = cache.New(RefreshTokenExpiration, 10*time.Minute)

func IssueRefreshToken(uid types.ID) string {
	token := uuid.New().String()
	RefreshTokenCache.Set(token, uid, cache.DefaultExpiration)
	return token
}

// RotateRefreshToken consumes a refresh token and returns the user it was
// issued to. The old token is invalid afterwards whether or not the caller
// completes the exchange.
func RotateRefreshToken(token string) (types.ID, error) {
	value, found := RefreshTokenCache.Get(token)
	if !found {
		return 0, bizerror.ErrUnauthenticated
	}
	RefreshTokenCache.Delete(token)

	uid, ok := value.(types.ID)
	if !ok {
		return 0, bizerror.ErrUnauthenticated
	}
	return uid, nil
}

func RevokeRefreshToken(token string) {
	RefreshTokenCache.Delete(token)
}
