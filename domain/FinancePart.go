package domain

import (
	"fmt"

	"github.com/fundwit/go-commons/types"
)

type FinancePart struct {
	ID        types.ID `json:"id" gorm:"primary_key"`
	ProjectID types.ID `json:"projectId" gorm:"unique_index:uni_fin_part_no;unique_index:uni_fin_part_name"`

	PartNo string `json:"partNo" gorm:"unique_index:uni_fin_part_no"`
	Name   string `json:"name" gorm:"unique_index:uni_fin_part_name"`
	Price  int64  `json:"price"`

	StartDate  string `json:"startDate"`
	FinishDate string `json:"finishDate"`

	SendToTechDir     bool            `json:"sendToTechDir"`
	SendToTechDirTime types.Timestamp `json:"sendToTechDirTime" sql:"type:DATETIME(6)"`

	TechDirConfirm     bool            `json:"techDirConfirm"`
	TechDirConfirmTime types.Timestamp `json:"techDirConfirmTime" sql:"type:DATETIME(6)"`

	CreatorID  types.ID        `json:"creatorId"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
}

func (p *FinancePart) TableName() string {
	return "project_finance_parts"
}

func (p *FinancePart) FullID() string {
	return fmt.Sprintf("%d/%d/", p.ProjectID, p.ID)
}

func (p *FinancePart) PathType() string {
	return PathTypeFinPart
}

type FinancePartCreating struct {
	ProjectID types.ID `json:"projectId" binding:"required"`
	PartNo    string   `json:"partNo" binding:"required"`
	Name      string   `json:"name" binding:"required"`
	Price     int64    `json:"price" binding:"required"`

	StartDate  string `json:"startDate" binding:"required"`
	FinishDate string `json:"finishDate" binding:"required"`
}

type FinancePartUpdating struct {
	PartNo string `json:"partNo"`
	Name   string `json:"name"`
	Price  int64  `json:"price"`

	StartDate  string `json:"startDate"`
	FinishDate string `json:"finishDate"`
}
