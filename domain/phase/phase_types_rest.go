package phase

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

var PathPhaseTypes = "/v1/phase-types"

func RegisterPhaseTypesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathPhaseTypes, middleWares...)
	g.GET("", handleQueryPhaseTypes)
}

func handleQueryPhaseTypes(c *gin.Context) {
	phaseTypes, err := QueryPhaseTypesFunc()
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, phaseTypes)
}
