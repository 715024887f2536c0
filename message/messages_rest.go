package message

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
	PathEntityMessages = "/v1/entity-messages"
	PathUserTasks      = "/v1/user-tasks"
)

func RegisterMessagesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathEntityMessages, middleWares...)
	g.GET("", handleQueryEntityMessages)
	g.POST("", handleCreateEntityMessage)

	t := r.Group(PathUserTasks, middleWares...)
	t.GET("", handleQueryMyTasks)
	t.POST("", handleCreateUserTask)
	t.POST(":id/mark-done", handleMarkTaskDone)
	t.GET(":id/chat-messages", handleQueryChatMessages)
	t.POST(":id/chat-messages", handleCreateChatMessage)
	t.GET(":id/chat-files", handleQueryChatFiles)
	t.POST(":id/chat-files", handleCreateChatFile)

	f := r.Group("/v1/chat-files", middleWares...)
	f.GET(":id", handleDetailChatFile)
}

func parseIdParam(c *gin.Context) types.ID {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}
	return id
}

func handleQueryEntityMessages(c *gin.Context) {
	query := EntityMessageQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	records, err := QueryEntityMessagesFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}

func handleCreateEntityMessage(c *gin.Context) {
	creation := EntityMessageCreating{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	record, err := CreateEntityMessageFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleQueryMyTasks(c *gin.Context) {
	records, err := QueryMyTasksFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}

func handleCreateUserTask(c *gin.Context) {
	creation := UserTaskCreating{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	record, err := CreateUserTaskFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleMarkTaskDone(c *gin.Context) {
	if err := MarkTaskDoneFunc(parseIdParam(c), session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, gin.H{"done": true})
}

func handleQueryChatMessages(c *gin.Context) {
	records, err := QueryChatMessagesFunc(parseIdParam(c), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}

func handleCreateChatMessage(c *gin.Context) {
	creation := ChatMessageCreating{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	record, err := CreateChatMessageFunc(parseIdParam(c), &creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleQueryChatFiles(c *gin.Context) {
	records, err := QueryChatFilesFunc(parseIdParam(c), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}

func handleCreateChatFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	src, err := file.Open()
	if err != nil {
		panic(err)
	}
	defer src.Close()

	uploading := ChatFileUploading{OriginalName: c.PostForm("fileOriginalName"), Size: file.Size}
	if uploading.OriginalName == "" {
		uploading.OriginalName = file.Filename
	}

	record, err := CreateChatFileFunc(parseIdParam(c), &uploading, src, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleDetailChatFile(c *gin.Context) {
	record, content, err := DetailChatFileFunc(parseIdParam(c), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.Header("Content-Disposition", `attachment; filename="`+record.FileOriginalName+`"`)
	c.Data(http.StatusOK, "application/octet-stream", content)
}
