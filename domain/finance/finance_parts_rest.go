package finance

import (
	"errors"
	"net/http"

	"stagegate/common"
	"stagegate/domain"
	"stagegate/misc"
	"stagegate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathFinanceParts = "/v1/finance-parts"

type decisionBody struct {
	Comment string `json:"comment"`
}

func RegisterFinancePartsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathFinanceParts, middleWares...)
	g.GET("", handleQueryFinanceParts)
	g.POST("", handleCreateFinancePart)
	g.PUT(":id", handleUpdateFinancePart)
	g.POST(":id/send-to-tech-dir", handleSendToTechDir)
	g.POST(":id/tech-dir-confirm", handleTechDirConfirm)
	g.POST(":id/tech-dir-refuse", handleTechDirRefuse)
}

func parseIdParam(c *gin.Context) types.ID {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}
	return id
}

func bindDecision(c *gin.Context) decisionBody {
	body := decisionBody{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
			panic(&common.ErrBadParam{Cause: err})
		}
	}
	return body
}

func handleQueryFinanceParts(c *gin.Context) {
	projectId, err := types.ParseID(c.Query("projectId"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: errors.New("invalid projectId '" + c.Query("projectId") + "'")})
	}
	parts, err := QueryFinancePartsFunc(projectId, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: parts, Total: uint64(len(parts))})
}

func handleCreateFinancePart(c *gin.Context) {
	creation := domain.FinancePartCreating{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	fp, err := CreateFinancePartFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, fp)
}

func handleUpdateFinancePart(c *gin.Context) {
	updating := domain.FinancePartUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := UpdateFinancePartFunc(parseIdParam(c), &updating, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleSendToTechDir(c *gin.Context) {
	body := bindDecision(c)
	if err := SendToTechDirFunc(parseIdParam(c), body.Comment, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleTechDirConfirm(c *gin.Context) {
	body := bindDecision(c)
	if err := TechDirConfirmFunc(parseIdParam(c), body.Comment, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleTechDirRefuse(c *gin.Context) {
	body := bindDecision(c)
	if err := TechDirRefuseFunc(parseIdParam(c), body.Comment, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}
