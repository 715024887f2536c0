package account

import (
	"errors"
	"net/http"
	"time"

	"stagegate/bizerror"
	"stagegate/common"
	"stagegate/persistence"
	"stagegate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/jinzhu/gorm"
)

type LoginRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`

	Identity     session.Identity `json:"identity"`
	Role         string           `json:"role"`
	Capabilities []string         `json:"capabilities"`
}

func RegisterSessionsRestAPI(r *gin.Engine) {
	g := r.Group("/v1/sessions")
	g.POST("", handleLogin)
	g.POST("refresh", handleRefresh)
	g.DELETE("", handleLogout)
}

func RegisterSessionRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/session", middleWares...)
	g.GET("", handleSessionDetail)
}

func handleLogin(c *gin.Context) {
	login := LoginRequest{}
	if err := c.ShouldBindBodyWith(&login, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	user := User{}
	err := db.Where(&User{Name: login.Name, Secret: HashSha256(login.Password)}).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			recordLoginFailure(login.Name, db)
			panic(bizerror.ErrUnauthenticated)
		}
		panic(err)
	}
	if !user.IsActive {
		panic(bizerror.ErrForbidden)
	}

	pair, err := buildTokenPair(&user)
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, pair)
}

func handleRefresh(c *gin.Context) {
	request := RefreshRequest{}
	if err := c.ShouldBindBodyWith(&request, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}

	uid, err := session.RotateRefreshToken(request.RefreshToken)
	if err != nil {
		panic(err)
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	user := User{}
	if err := db.Where(&User{ID: uid}).First(&user).Error; err != nil {
		panic(bizerror.ErrUnauthenticated)
	}
	if !user.IsActive {
		panic(bizerror.ErrForbidden)
	}

	pair, err := buildTokenPair(&user)
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, pair)
}

func handleLogout(c *gin.Context) {
	request := RefreshRequest{}
	if err := c.ShouldBindBodyWith(&request, binding.JSON); err == nil {
		session.RevokeRefreshToken(request.RefreshToken)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func handleSessionDetail(c *gin.Context) {
	sec := session.ExtractSessionFromGinContext(c)
	if sec.Token == "" {
		panic(bizerror.ErrUnauthenticated)
	}
	c.JSON(http.StatusOK, sec)
}

func buildTokenPair(user *User) (*TokenPair, error) {
	perms, roleName, err := LoadPermsFunc(user.ID)
	if err != nil {
		return nil, err
	}

	identity := session.Identity{ID: user.ID, Name: user.Name, Nickname: user.Fio}
	accessToken, err := session.BuildAccessToken(identity, roleName, perms, time.Now())
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: session.IssueRefreshToken(user.ID),
		Identity:     identity,
		Role:         roleName,
		Capabilities: perms,
	}, nil
}

func recordLoginFailure(name string, db *gorm.DB) {
	db.Model(&User{}).Where("name = ?", name).
		Update("last_login_time_fail", types.CurrentTimestamp())
}
