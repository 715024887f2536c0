package domain

import (
	"fmt"

	"github.com/fundwit/go-commons/types"
)

type TechnicalPart struct {
	ID            types.ID `json:"id" gorm:"primary_key"`
	FinancePartID types.ID `json:"financePartId"`
	// denormalized ancestor key: FullID must be computable without joins
	ProjectID types.ID `json:"projectId"`

	PartNo string `json:"partNo"`
	Name   string `json:"name"`

	// department head (nach-otdel) the part is assigned to
	HeadID types.ID `json:"headId"`

	StartDate  string `json:"startDate"`
	FinishDate string `json:"finishDate"`

	HeadConfirm     bool            `json:"headConfirm"`
	HeadConfirmTime types.Timestamp `json:"headConfirmTime" sql:"type:DATETIME(6)"`

	CreatorID  types.ID        `json:"creatorId"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
}

func (p *TechnicalPart) TableName() string {
	return "project_technical_parts"
}

func (p *TechnicalPart) FullID() string {
	return fmt.Sprintf("%d/%d/%d/", p.ProjectID, p.FinancePartID, p.ID)
}

func (p *TechnicalPart) PathType() string {
	return PathTypeTechPart
}

type TechnicalPartCreating struct {
	FinancePartID types.ID `json:"financePartId" binding:"required"`
	PartNo        string   `json:"partNo" binding:"required"`
	Name          string   `json:"name" binding:"required"`
	HeadID        types.ID `json:"headId" binding:"required"`
	StartDate     string   `json:"startDate" binding:"required"`
	FinishDate    string   `json:"finishDate" binding:"required"`
}

type TechnicalPartUpdating struct {
	PartNo     string   `json:"partNo"`
	Name       string   `json:"name"`
	HeadID     types.ID `json:"headId"`
	StartDate  string   `json:"startDate"`
	FinishDate string   `json:"finishDate"`
}
