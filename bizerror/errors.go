package bizerror

import (
	"errors"
	"fmt"
	"net/http"

	"stagegate/common"
)

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("record not found")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrDuplicated         = errors.New("duplicated value")
	ErrStageNotReady      = errors.New("pipeline stage not ready")
	ErrUnknownCapability  = errors.New("unknown capability")
	ErrPathTypeMismatch   = errors.New("path type mismatch for existing full id")
	ErrSuperuserProtected = errors.New("operation not allowed on superuser")
)

// ErrFileTooLarge is raised when an uploaded file exceeds the per-type size cap.
type ErrFileTooLarge struct {
	Limit int64
	Size  int64
}

func (e *ErrFileTooLarge) Error() string {
	return fmt.Sprintf("file size %d exceeds limit %d", e.Size, e.Limit)
}
func (e *ErrFileTooLarge) Respond() *common.BizErrorDetail {
	return &common.BizErrorDetail{Status: http.StatusBadRequest, Code: "bad_request.file_too_large",
		Message: e.Error(), Data: map[string]int64{"limit": e.Limit, "size": e.Size}}
}
