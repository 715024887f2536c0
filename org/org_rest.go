package org

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

var (
	PathDepartments  = "/v1/departments"
	PathJobPositions = "/v1/job-positions"
)

func RegisterOrgRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	d := r.Group(PathDepartments, middleWares...)
	d.GET("", handleQueryDepartments)
	d.POST("", handleCreateDepartment)
	d.PUT(":id", handleUpdateDepartment)
	d.DELETE(":id", handleDeleteDepartment)

	t := r.Group("/v1/departments-tree", middleWares...)
	t.GET("", handleDepartmentTree)

	p := r.Group(PathJobPositions, middleWares...)
	p.GET("", handleQueryJobPositions)
	p.POST("", handleCreateJobPosition)
	p.PUT(":id", handleUpdateJobPosition)
	p.DELETE(":id", handleDeleteJobPosition)
}

func parseIdParam(c *gin.Context) types.ID {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}
	return id
}

func handleQueryDepartments(c *gin.Context) {
	records, err := QueryDepartmentsFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}

func handleDepartmentTree(c *gin.Context) {
	roots, err := DepartmentTreeFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: roots, Total: uint64(len(roots))})
}

func handleCreateDepartment(c *gin.Context) {
	creation := DepartmentCreating{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	record, err := CreateDepartmentFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleUpdateDepartment(c *gin.Context) {
	updating := DepartmentUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := UpdateDepartmentFunc(parseIdParam(c), &updating, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleDeleteDepartment(c *gin.Context) {
	if err := DeleteDepartmentFunc(parseIdParam(c), session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}

func handleQueryJobPositions(c *gin.Context) {
	var departmentId types.ID
	if raw := c.Query("departmentId"); raw != "" {
		id, err := types.ParseID(raw)
		if err != nil {
			panic(&common.ErrBadParam{Cause: errors.New("invalid departmentId '" + raw + "'")})
		}
		departmentId = id
	}
	records, err := QueryJobPositionsFunc(departmentId, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}

func handleCreateJobPosition(c *gin.Context) {
	creation := JobPositionCreating{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	record, err := CreateJobPositionFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleUpdateJobPosition(c *gin.Context) {
	updating := JobPositionUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := UpdateJobPositionFunc(parseIdParam(c), &updating, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleDeleteJobPosition(c *gin.Context) {
	if err := DeleteJobPositionFunc(parseIdParam(c), session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}
