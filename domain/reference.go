package domain

import (
	"github.com/fundwit/go-commons/types"
)

type Currency struct {
	ID          types.ID `json:"id" gorm:"primary_key"`
	Name        string   `json:"name" gorm:"unique_index:uni_currency_name"`
	Description string   `json:"description"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
}

func (c *Currency) TableName() string {
	return "currencies"
}

const DefaultCurrencyName = "UZS"

type Department struct {
	ID       types.ID `json:"id" gorm:"primary_key"`
	Name     string   `json:"name" gorm:"unique_index:uni_department_name"`
	ParentID types.ID `json:"parentId"`

	CreatorID  types.ID        `json:"creatorId"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6)"`
}

func (d *Department) TableName() string {
	return "departments"
}

type JobPosition struct {
	ID           types.ID `json:"id" gorm:"primary_key"`
	Name         string   `json:"name" gorm:"unique_index:uni_position_per_department"`
	Description  string   `json:"description" sql:"type:TEXT"`
	DepartmentID types.ID `json:"departmentId" gorm:"unique_index:uni_position_per_department"`
	ParentID     types.ID `json:"parentId"`

	CreatorID  types.ID        `json:"creatorId"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6)"`
}

func (p *JobPosition) TableName() string {
	return "job_positions"
}

type Partner struct {
	ID   types.ID `json:"id" gorm:"primary_key"`
	Name string   `json:"name" gorm:"unique_index:uni_partner_name"`
	Inn  string   `json:"inn"`

	CreatorID  types.ID        `json:"creatorId"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6)"`
}

func (p *Partner) TableName() string {
	return "partners"
}

type Translation struct {
	ID  types.ID `json:"id" gorm:"primary_key"`
	Key string   `json:"key" gorm:"unique_index:uni_translation_key"`
	En  string   `json:"en"`
	Ru  string   `json:"ru"`
	Uz  string   `json:"uz"`

	TranslatedByID types.ID        `json:"translatedById"`
	CreateTime     types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
	UpdateTime     types.Timestamp `json:"updateTime" sql:"type:DATETIME(6)"`
}

func (t *Translation) TableName() string {
	return "app_translations"
}
