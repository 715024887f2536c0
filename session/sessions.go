package session

import (
	"strings"

	"stagegate/authority"
	"stagegate/bizerror"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

const KeySecCtx = "SecCtx"

// LoadPermsFunc is wired to account.LoadPerms at bootstrap; the indirection keeps
// this package free of a dependency on the account package.
var LoadPermsFunc func(uid types.ID) (authority.Permissions, string, error)

func ExtractSessionFromGinContext(ctx *gin.Context) *Session {
	value, found := ctx.Get(KeySecCtx)
	if !found {
		return &Session{Context: ctx.Request.Context()}
	}
	s0, ok := value.(*Session)
	if !ok || s0.Token == "" {
		return &Session{Context: ctx.Request.Context()}
	}
	s := s0.Clone()
	s.Context = ctx.Request.Context() // trace context
	return &s
}

func InjectSessionIntoGinContext(ctx *gin.Context, s *Session) {
	if s != nil && s.Token != "" {
		ctx.Set(KeySecCtx, s)
	}
}

// AuthFilter requires a valid bearer access token. Capabilities are reloaded from
// the database on every request: a capability revoked mid-session is gone on the
// very next request.
func AuthFilter() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if header == "" {
			panic(bizerror.ErrUnauthenticated)
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			panic(bizerror.ErrUnauthenticated)
		}
		claims, err := ParseAccessToken(parts[1])
		if err != nil {
			panic(bizerror.ErrUnauthenticated)
		}
		uid, err := types.ParseID(claims.Subject)
		if err != nil {
			panic(bizerror.ErrUnauthenticated)
		}

		perms, roleName, err := LoadPermsFunc(uid)
		if err != nil {
			panic(err)
		}

		s := &Session{
			Token:    parts[1],
			Identity: Identity{ID: uid, Name: claims.Username, Nickname: claims.Fio},
			Perms:    perms,
			RoleName: roleName,
		}
		InjectSessionIntoGinContext(ctx, s)
		ctx.Next()
	}
}
