package account

import (
	"github.com/fundwit/go-commons/types"
)

type User struct {
	ID     types.ID `json:"id" gorm:"primary_key"`
	Name   string   `json:"name" gorm:"unique_index:uni_user_name"`
	Secret string   `json:"-"`

	Fio         string `json:"fio"`
	PhoneNumber string `json:"phoneNumber"`

	DepartmentID types.ID `json:"departmentId"`
	PositionID   types.ID `json:"positionId"`
	RoleID       types.ID `json:"roleId"`

	IsActive    bool `json:"isActive"`
	IsSuperuser bool `json:"isSuperuser"`

	ProfileImageKey   string `json:"profileImageKey"`
	Birthday          string `json:"birthday"`
	Address           string `json:"address" sql:"type:TEXT"`
	Pnfl              string `json:"pnfl"`
	PositionStartDate string `json:"positionStartDate"`

	OnVacation       bool            `json:"onVacation"`
	OnVacationUpdate types.Timestamp `json:"onVacationUpdate" sql:"type:DATETIME(6)"`
	OnVacationStart  string          `json:"onVacationStart"`
	OnVacationEnd    string          `json:"onVacationEnd"`

	OnBusinessTrip       bool            `json:"onBusinessTrip"`
	OnBusinessTripUpdate types.Timestamp `json:"onBusinessTripUpdate" sql:"type:DATETIME(6)"`
	OnBusinessTripStart  string          `json:"onBusinessTripStart"`
	OnBusinessTripEnd    string          `json:"onBusinessTripEnd"`

	LastLoginTimeFail types.Timestamp `json:"lastLoginTimeFail" sql:"type:DATETIME(6)"`

	CreatorID  types.ID        `json:"creatorId"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6)"`
}

func (u *User) TableName() string {
	return "staff_users"
}

func (u User) DisplayName() string {
	if u.Fio != "" {
		return u.Fio
	}
	return u.Name
}

type UserInfo struct {
	ID   types.ID `json:"id"`
	Name string   `json:"name"`
	Fio  string   `json:"fio"`

	DepartmentID types.ID `json:"departmentId"`
	PositionID   types.ID `json:"positionId"`
	RoleID       types.ID `json:"roleId"`
}

func (u UserInfo) DisplayName() string {
	if u.Fio != "" {
		return u.Fio
	}
	return u.Name
}

type UserCreation struct {
	Name        string   `json:"name" binding:"required"`
	Secret      string   `json:"secret" binding:"required,gte=6"`
	Fio         string   `json:"fio" binding:"required"`
	PhoneNumber string   `json:"phoneNumber" binding:"required"`
	RoleID      types.ID `json:"roleId"`
}

type AdminUserUpdating struct {
	Fio         string    `json:"fio"`
	PhoneNumber string    `json:"phoneNumber"`
	RoleID      *types.ID `json:"roleId"`
}

type SetPasswordRequest struct {
	Password        string `json:"password" binding:"required,gte=8"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type BasicAuthUpdating struct {
	OriginalSecret string `json:"originalSecret"`
	NewSecret      string `json:"newSecret" binding:"required,gte=6"`
}

type StaffUserUpdating struct {
	Fio               string   `json:"fio"`
	PositionID        types.ID `json:"positionId"`
	PositionStartDate string   `json:"positionStartDate"`
	DepartmentID      types.ID `json:"departmentId"`
	Birthday          string   `json:"birthday"`
	Address           string   `json:"address"`
	Pnfl              string   `json:"pnfl"`
	PhoneNumber       string   `json:"phoneNumber"`
}

type VacationToggle struct {
	OnVacation bool   `json:"onVacation"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

type BusinessTripToggle struct {
	OnBusinessTrip bool   `json:"onBusinessTrip"`
	Start          string `json:"start"`
	End            string `json:"end"`
}

type UserQuery struct {
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

type RoleCreation struct {
	Name         string   `json:"name" binding:"required"`
	Capabilities []string `json:"capabilities"`
}

type RoleUpdating struct {
	Name         string   `json:"name"`
	Capabilities []string `json:"capabilities"`
}
