package account

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

func RegisterUsersRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	users := r.Group("/v1/users", middleWares...)
	users.GET("", handleQueryUsers)
	users.POST("", handleCreateUser)
	users.GET("with-capability", handleUsersWithCapability)
	users.PUT(":id", handleUpdateUser)
	users.PUT(":id/password", handleSetUserPassword)
	users.POST(":id/pause", handlePauseUser)
	users.POST(":id/activate", handleActivateUser)
	users.PUT(":id/staff", handleUpdateStaffUser)
	users.PUT(":id/vacation", handleToggleVacation)
	users.PUT(":id/business-trip", handleToggleBusinessTrip)
	users.GET(":id/profile-image", handleDetailProfileImage)
	users.PUT(":id/profile-image", handleUpdateProfileImage)

	sessionUsers := r.Group("/v1/session-users", middleWares...)
	sessionUsers.PUT("basic-auths", handleUpdateBasicAuth)

	roles := r.Group("/v1/roles", middleWares...)
	roles.GET("", handleQueryRoles)
	roles.POST("", handleCreateRole)
	roles.PUT(":id", handleUpdateRole)
	roles.DELETE(":id", handleDeleteRole)
}

func parseIdParam(c *gin.Context) types.ID {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}
	return id
}

func handleQueryUsers(c *gin.Context) {
	query := UserQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	users, total, err := QueryUsersFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: users, Total: total})
}

func handleCreateUser(c *gin.Context) {
	creation := UserCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	info, err := CreateUserFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, info)
}

func handleUsersWithCapability(c *gin.Context) {
	capability := c.Query("capability")
	if capability == "" {
		panic(&common.ErrBadParam{Cause: errors.New("capability is required")})
	}
	infos, err := UsersWithCapabilityFunc(capability, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, infos)
}

func handleUpdateUser(c *gin.Context) {
	updating := AdminUserUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := UpdateUserFunc(parseIdParam(c), &updating, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleSetUserPassword(c *gin.Context) {
	request := SetPasswordRequest{}
	if err := c.ShouldBindBodyWith(&request, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := SetUserPasswordFunc(parseIdParam(c), &request, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handlePauseUser(c *gin.Context) {
	if err := PauseUserFunc(parseIdParam(c), session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleActivateUser(c *gin.Context) {
	if err := ActivateUserFunc(parseIdParam(c), session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleUpdateStaffUser(c *gin.Context) {
	updating := StaffUserUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := UpdateStaffUserFunc(parseIdParam(c), &updating, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleToggleVacation(c *gin.Context) {
	toggle := VacationToggle{}
	if err := c.ShouldBindBodyWith(&toggle, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := ToggleVacationFunc(parseIdParam(c), &toggle, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleToggleBusinessTrip(c *gin.Context) {
	toggle := BusinessTripToggle{}
	if err := c.ShouldBindBodyWith(&toggle, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := ToggleBusinessTripFunc(parseIdParam(c), &toggle, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleUpdateBasicAuth(c *gin.Context) {
	updating := BasicAuthUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := UpdateBasicAuthSecretFunc(&updating, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleQueryRoles(c *gin.Context) {
	details, err := QueryRolesFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, details)
}

func handleCreateRole(c *gin.Context) {
	creation := RoleCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	detail, err := CreateRoleFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, detail)
}

func handleUpdateRole(c *gin.Context) {
	updating := RoleUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := UpdateRoleFunc(parseIdParam(c), &updating, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleDeleteRole(c *gin.Context) {
	if err := DeleteRoleFunc(parseIdParam(c), session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}

func handleUpdateProfileImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	src, err := file.Open()
	if err != nil {
		panic(err)
	}
	defer src.Close()

	key, err := UpdateProfileImageFunc(parseIdParam(c), file.Size, src, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, gin.H{"profileImageKey": key})
}

func handleDetailProfileImage(c *gin.Context) {
	content, err := DetailProfileImageFunc(parseIdParam(c), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.Data(http.StatusOK, "application/octet-stream", content)
}
