package search

import (
	"net/http"

	"stagegate/common"
	"stagegate/misc"
	"stagegate/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathActionLogSearch = "/v1/action-logs/search"

func RegisterSearchRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	handlers := append([]gin.HandlerFunc{}, middleWares...)
	handlers = append(handlers, handleSearchActionLogs)
	r.GET(PathActionLogSearch, handlers...)
}

func handleSearchActionLogs(c *gin.Context) {
	query := ActionLogSearch{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	records, err := SearchActionLogsFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}
