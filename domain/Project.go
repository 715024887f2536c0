package domain

import (
	"fmt"

	"github.com/fundwit/go-commons/types"
)

type Project struct {
	ID             types.ID `json:"id" gorm:"primary_key"`
	Name           string   `json:"name" gorm:"unique_index:uni_project_name"`
	ContractNumber string   `json:"contractNumber"`
	TotalPrice     int64    `json:"totalPrice"`
	CurrencyID     types.ID `json:"currencyId"`

	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`

	FinancierID          types.ID        `json:"financierId"`
	FinancierConfirm     bool            `json:"financierConfirm"`
	FinancierConfirmTime types.Timestamp `json:"financierConfirmTime" sql:"type:DATETIME(6)"`

	GipID          types.ID        `json:"gipId"`
	GipConfirm     bool            `json:"gipConfirm"`
	GipConfirmTime types.Timestamp `json:"gipConfirmTime" sql:"type:DATETIME(6)"`

	PartnerID types.ID `json:"partnerId"`

	CreatorID  types.ID        `json:"creatorId"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6)"`
}

func (p *Project) TableName() string {
	return "projects"
}

func (p *Project) FullID() string {
	return fmt.Sprintf("%d/", p.ID)
}

func (p *Project) PathType() string {
	return PathTypeProject
}

type ProjectCreating struct {
	Name           string   `json:"name" binding:"required"`
	ContractNumber string   `json:"contractNumber"`
	TotalPrice     int64    `json:"totalPrice" binding:"required"`
	CurrencyID     types.ID `json:"currencyId"`
	StartDate      string   `json:"startDate" binding:"required"`
	EndDate        string   `json:"endDate" binding:"required"`
	FinancierID    types.ID `json:"financierId" binding:"required"`
	GipID          types.ID `json:"gipId"`
	PartnerID      types.ID `json:"partnerId"`
}

type ProjectUpdating struct {
	Name           string   `json:"name"`
	ContractNumber string   `json:"contractNumber"`
	TotalPrice     int64    `json:"totalPrice"`
	CurrencyID     types.ID `json:"currencyId"`
	StartDate      string   `json:"startDate"`
	EndDate        string   `json:"endDate"`
	FinancierID    types.ID `json:"financierId"`
	GipID          types.ID `json:"gipId"`
	PartnerID      types.ID `json:"partnerId"`
}

type ProjectQuery struct {
	Name string `form:"name"`
}
