package project

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

var PathProjects = "/v1/projects"

type decisionBody struct {
	Comment string `json:"comment"`
}

func RegisterProjectsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathProjects, middleWares...)
	g.GET("", handleQueryProjects)
	g.POST("", handleCreateProject)
	g.GET(":id", handleDetailProject)
	g.PUT(":id", handleUpdateProject)
	g.GET(":id/phases", handleProjectPhases)
	g.POST(":id/financier-confirm", handleFinancierConfirm)
	g.POST(":id/financier-refuse", handleFinancierRefuse)
	g.POST(":id/gip-confirm", handleGipConfirm)
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

func handleQueryProjects(c *gin.Context) {
	query := domain.ProjectQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	projects, err := QueryProjectsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: projects, Total: uint64(len(projects))})
}

func handleCreateProject(c *gin.Context) {
	creation := domain.ProjectCreating{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	p, err := CreateProjectFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, p)
}

func handleDetailProject(c *gin.Context) {
	detail, err := DetailProjectFunc(parseIdParam(c), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, detail)
}

func handleUpdateProject(c *gin.Context) {
	updating := domain.ProjectUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := UpdateProjectFunc(parseIdParam(c), &updating, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleProjectPhases(c *gin.Context) {
	records, err := ProjectPhasesFunc(parseIdParam(c), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}

func handleFinancierConfirm(c *gin.Context) {
	body := bindDecision(c)
	if err := FinancierConfirmFunc(parseIdParam(c), body.Comment, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleFinancierRefuse(c *gin.Context) {
	body := bindDecision(c)
	if err := FinancierRefuseFunc(parseIdParam(c), body.Comment, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleGipConfirm(c *gin.Context) {
	body := bindDecision(c)
	if err := GipConfirmFunc(parseIdParam(c), body.Comment, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}
