package indices

import (
	"net/http"

	"stagegate/session"

	"github.com/gin-gonic/gin"
)

var PathIndexRebuilds = "/v1/index-rebuilds"

func RegisterIndicesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathIndexRebuilds, middleWares...)
	g.POST("", handleIndexRebuild)
}

func handleIndexRebuild(c *gin.Context) {
	if err := RebuildActionLogIndexFunc(session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}
