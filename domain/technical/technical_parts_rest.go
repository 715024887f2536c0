package technical

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

var PathTechnicalParts = "/v1/technical-parts"

type decisionBody struct {
	Comment string `json:"comment"`
}

func RegisterTechnicalPartsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathTechnicalParts, middleWares...)
	g.GET("", handleQueryTechnicalParts)
	g.POST("", handleCreateTechnicalPart)
	g.PUT(":id", handleUpdateTechnicalPart)
	g.POST(":id/head-confirm", handleHeadConfirm)
	g.POST(":id/head-refuse", handleHeadRefuse)
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

func handleQueryTechnicalParts(c *gin.Context) {
	financePartId, err := types.ParseID(c.Query("financePartId"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: errors.New("invalid financePartId '" + c.Query("financePartId") + "'")})
	}
	parts, err := QueryTechnicalPartsFunc(financePartId, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: parts, Total: uint64(len(parts))})
}

func handleCreateTechnicalPart(c *gin.Context) {
	creation := domain.TechnicalPartCreating{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	tp, err := CreateTechnicalPartFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, tp)
}

func handleUpdateTechnicalPart(c *gin.Context) {
	updating := domain.TechnicalPartUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := UpdateTechnicalPartFunc(parseIdParam(c), &updating, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleHeadConfirm(c *gin.Context) {
	body := bindDecision(c)
	if err := HeadConfirmFunc(parseIdParam(c), body.Comment, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleHeadRefuse(c *gin.Context) {
	body := bindDecision(c)
	if err := HeadRefuseFunc(parseIdParam(c), body.Comment, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}
