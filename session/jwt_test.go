package session_test

import (
	"testing"
	"time"

	"stagegate/authority"
	"stagegate/bizerror"
	"stagegate/session"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func TestAccessToken(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should round-trip identity and capabilities", func(t *testing.T) {
		identity := session.Identity{ID: 123, Name: "ann", Nickname: "Ann Lee"}
		perms := authority.Permissions{"IS_FINANCIER", "IS_STAFF"}
		signingTime := time.Now()

		token, err := session.BuildAccessToken(identity, "financier", perms, signingTime)
		Expect(err).To(BeNil())
		Expect(token).ToNot(BeZero())

		claims, err := session.ParseAccessToken(token)
		Expect(err).To(BeNil())
		Expect(claims.Subject).To(Equal("123"))
		Expect(claims.Username).To(Equal("ann"))
		Expect(claims.Fio).To(Equal("Ann Lee"))
		Expect(claims.Role).To(Equal("financier"))
		Expect(claims.Capabilities).To(Equal([]string{"IS_FINANCIER", "IS_STAFF"}))
		Expect(claims.ExpiresAt.Sub(claims.IssuedAt.Time)).To(Equal(session.AccessTokenExpiration))
	})

	t.Run("should reject expired tokens", func(t *testing.T) {
		identity := session.Identity{ID: 1, Name: "ann"}
		token, err := session.BuildAccessToken(identity, "", nil, time.Now().Add(-3*time.Hour))
		Expect(err).To(BeNil())

		claims, err := session.ParseAccessToken(token)
		Expect(claims).To(BeNil())
		Expect(err).ToNot(BeNil())
	})

	t.Run("should reject tampered tokens", func(t *testing.T) {
		identity := session.Identity{ID: 1, Name: "ann"}
		token, err := session.BuildAccessToken(identity, "", nil, time.Now())
		Expect(err).To(BeNil())

		claims, err := session.ParseAccessToken(token + "x")
		Expect(claims).To(BeNil())
		Expect(err).ToNot(BeNil())
	})
}

func TestRefreshToken(t *testing.T) {
	RegisterTestingT(t)

	t.Run("rotation should consume the old token", func(t *testing.T) {
		token := session.IssueRefreshToken(types.ID(55))

		uid, err := session.RotateRefreshToken(token)
		Expect(err).To(BeNil())
		Expect(uid).To(Equal(types.ID(55)))

		uid, err = session.RotateRefreshToken(token)
		Expect(uid).To(BeZero())
		Expect(err).To(Equal(bizerror.ErrUnauthenticated))
	})

	t.Run("revoked tokens should not rotate", func(t *testing.T) {
		token := session.IssueRefreshToken(types.ID(55))
		session.RevokeRefreshToken(token)

		_, err := session.RotateRefreshToken(token)
		Expect(err).To(Equal(bizerror.ErrUnauthenticated))
	})

	t.Run("unknown tokens should be rejected", func(t *testing.T) {
		_, err := session.RotateRefreshToken("nope")
		Expect(err).To(Equal(bizerror.ErrUnauthenticated))
	})
}
