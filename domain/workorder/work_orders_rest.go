package workorder

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

var PathWorkOrders = "/v1/work-orders"

type decisionBody struct {
	Comment string `json:"comment"`
}

type holdBody struct {
	Reason    string   `json:"reason"`
	HoldedFor types.ID `json:"holdedFor"`
}

func RegisterWorkOrdersRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathWorkOrders, middleWares...)
	g.GET("", handleQueryWorkOrders)
	g.POST("", handleCreateWorkOrder)
	g.PUT(":id", handleUpdateWorkOrder)
	g.POST(":id/staff-confirm", handleStaffConfirm)
	g.POST(":id/staff-refuse", handleStaffRefuse)
	g.POST(":id/complete", handleCompleteWorkOrder)
	g.POST(":id/finished-confirm", handleFinishedConfirm)
	g.POST(":id/finished-refuse", handleFinishedRefuse)
	g.POST(":id/finished-unlock", handleFinishedUnlock)
	g.POST(":id/hold", handleHoldWorkOrder)
	g.POST(":id/unhold", handleUnholdWorkOrder)
	g.GET(":id/files", handleQueryWorkOrderFiles)
	g.POST(":id/files", handleCreateWorkOrderFile)

	f := r.Group("/v1/work-order-files", middleWares...)
	f.GET(":id", handleDetailWorkOrderFile)
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

func handleQueryWorkOrders(c *gin.Context) {
	technicalPartId, err := types.ParseID(c.Query("technicalPartId"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: errors.New("invalid technicalPartId '" + c.Query("technicalPartId") + "'")})
	}
	orders, err := QueryWorkOrdersFunc(technicalPartId, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: orders, Total: uint64(len(orders))})
}

func handleCreateWorkOrder(c *gin.Context) {
	creation := domain.WorkOrderCreating{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	wo, err := CreateWorkOrderFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, wo)
}

func handleUpdateWorkOrder(c *gin.Context) {
	updating := domain.WorkOrderUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := UpdateWorkOrderFunc(parseIdParam(c), &updating, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleStaffConfirm(c *gin.Context) {
	body := bindDecision(c)
	if err := StaffConfirmFunc(parseIdParam(c), body.Comment, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleStaffRefuse(c *gin.Context) {
	body := bindDecision(c)
	if err := StaffRefuseFunc(parseIdParam(c), body.Comment, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleCompleteWorkOrder(c *gin.Context) {
	completion := domain.WorkOrderCompletion{}
	if err := c.ShouldBindBodyWith(&completion, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := CompleteWorkOrderFunc(parseIdParam(c), &completion, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleFinishedConfirm(c *gin.Context) {
	body := bindDecision(c)
	if err := FinishedConfirmFunc(parseIdParam(c), body.Comment, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleFinishedRefuse(c *gin.Context) {
	body := bindDecision(c)
	if err := FinishedRefuseFunc(parseIdParam(c), body.Comment, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleFinishedUnlock(c *gin.Context) {
	body := bindDecision(c)
	if err := FinishedUnlockFunc(parseIdParam(c), body.Comment, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleHoldWorkOrder(c *gin.Context) {
	body := holdBody{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
			panic(&common.ErrBadParam{Cause: err})
		}
	}
	if err := HoldWorkOrderFunc(parseIdParam(c), body.Reason, body.HoldedFor,
		session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleUnholdWorkOrder(c *gin.Context) {
	if err := UnholdWorkOrderFunc(parseIdParam(c), session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleQueryWorkOrderFiles(c *gin.Context) {
	records, err := QueryWorkOrderFilesFunc(parseIdParam(c), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}

func handleCreateWorkOrderFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	src, err := file.Open()
	if err != nil {
		panic(err)
	}
	defer src.Close()

	uploading := WorkOrderFileUploading{OriginalName: c.PostForm("fileOriginalName"), Size: file.Size}
	if uploading.OriginalName == "" {
		uploading.OriginalName = file.Filename
	}

	record, err := CreateWorkOrderFileFunc(parseIdParam(c), &uploading, src, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleDetailWorkOrderFile(c *gin.Context) {
	record, content, err := DetailWorkOrderFileFunc(parseIdParam(c), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.Header("Content-Disposition", `attachment; filename="`+record.OriginalName+`"`)
	c.Data(http.StatusOK, "application/octet-stream", content)
}
