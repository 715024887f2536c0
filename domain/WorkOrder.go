package domain

import (
	"fmt"

	"github.com/fundwit/go-commons/types"
)

type WorkOrder struct {
	ID              types.ID `json:"id" gorm:"primary_key"`
	TechnicalPartID types.ID `json:"technicalPartId"`
	// denormalized ancestor keys: FullID must be computable without joins
	FinancePartID types.ID `json:"financePartId"`
	ProjectID     types.ID `json:"projectId"`

	No   int    `json:"no"`
	Name string `json:"name"`

	StartDate  string `json:"startDate"`
	FinishDate string `json:"finishDate"`

	StaffID types.ID `json:"staffId"`

	StaffConfirm     bool            `json:"staffConfirm"`
	StaffConfirmTime types.Timestamp `json:"staffConfirmTime" sql:"type:DATETIME(6)"`

	Answer     string          `json:"answer" sql:"type:TEXT"`
	AnswerTime types.Timestamp `json:"answerTime" sql:"type:DATETIME(6)"`
	Remark     string          `json:"remark" sql:"type:TEXT"`

	Finished     bool            `json:"finished"`
	FinishedTime types.Timestamp `json:"finishedTime" sql:"type:DATETIME(6)"`

	Holded       bool            `json:"holded"`
	HoldedTime   types.Timestamp `json:"holdedTime" sql:"type:DATETIME(6)"`
	HoldedReason string          `json:"holdedReason" sql:"type:TEXT"`
	HoldedForID  types.ID        `json:"holdedForId"`

	CreatorID  types.ID        `json:"creatorId"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
}

func (o *WorkOrder) TableName() string {
	return "work_orders"
}

func (o *WorkOrder) FullID() string {
	return fmt.Sprintf("%d/%d/%d/%d/", o.ProjectID, o.FinancePartID, o.TechnicalPartID, o.ID)
}

func (o *WorkOrder) PathType() string {
	return PathTypeWorkOrder
}

type WorkOrderFile struct {
	ID          types.ID `json:"id" gorm:"primary_key"`
	WorkOrderID types.ID `json:"workOrderId"`

	StorageKey   string          `json:"storageKey"`
	OriginalName string          `json:"originalName"`
	Size         int64           `json:"size"`
	UploadTime   types.Timestamp `json:"uploadTime" sql:"type:DATETIME(6)"`
}

func (f *WorkOrderFile) TableName() string {
	return "work_order_files"
}

type WorkOrderCreating struct {
	TechnicalPartID types.ID `json:"technicalPartId" binding:"required"`
	No              int      `json:"no" binding:"required"`
	Name            string   `json:"name" binding:"required"`
	StartDate       string   `json:"startDate" binding:"required"`
	FinishDate      string   `json:"finishDate" binding:"required"`
	StaffID         types.ID `json:"staffId" binding:"required"`
	Remark          string   `json:"remark"`
}

type WorkOrderUpdating struct {
	No         int      `json:"no"`
	Name       string   `json:"name"`
	StartDate  string   `json:"startDate"`
	FinishDate string   `json:"finishDate"`
	StaffID    types.ID `json:"staffId"`
	Remark     string   `json:"remark"`
}

type WorkOrderCompletion struct {
	Answer string `json:"answer" binding:"required"`
}
