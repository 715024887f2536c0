package actionlog

import (
	"errors"
	"net/http"

	"stagegate/common"
	"stagegate/misc"
	"stagegate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathActionLogs = "/v1/action-logs"

func RegisterActionLogsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathActionLogs, middleWares...)
	g.GET("", handleQueryActions)
	g.GET("my-notifications", handleMyNotifications)
	g.GET("unread-count", handleUnreadCount)
	g.POST(":id/mark-identified", handleMarkIdentified)
}

func handleQueryActions(c *gin.Context) {
	query := ActionQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	records, err := QueryActionsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}

func handleMyNotifications(c *gin.Context) {
	briefs, err := QueryMyNotificationsFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: briefs, Total: uint64(len(briefs))})
}

func handleUnreadCount(c *gin.Context) {
	count, err := UnreadCountFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

func handleMarkIdentified(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}
	if err := MarkIdentifiedFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, gin.H{"identified": true})
}
