package authority

import (
	"strings"

	"github.com/fundwit/go-commons/types"
)

// Capability tokens form a closed set: role bindings outside this set are
// rejected at write time.
const (
	CapAdmin     = "IS_ADMIN"
	CapFinDir    = "IS_FIN_DIR"
	CapTechDir   = "IS_TECH_DIR"
	CapFinancier = "IS_FINANCIER"
	CapGip       = "IS_GIP"
	CapNachOtdel = "IS_NACH_OTDEL"
	CapStaff     = "IS_STAFF"
)

var knownCapabilities = []string{
	CapAdmin, CapFinDir, CapTechDir, CapFinancier, CapGip, CapNachOtdel, CapStaff,
}

func KnownCapabilities() []string {
	r := make([]string, len(knownCapabilities))
	copy(r, knownCapabilities)
	return r
}

func IsKnownCapability(token string) bool {
	for _, c := range knownCapabilities {
		if c == token {
			return true
		}
	}
	return false
}

type Permissions []string

func (p Permissions) HasCapability(token string) bool {
	for _, v := range p {
		if strings.EqualFold(v, token) {
			return true
		}
	}
	return false
}

func (p Permissions) HasAnyCapability(tokens ...string) bool {
	for _, t := range tokens {
		if p.HasCapability(t) {
			return true
		}
	}
	return false
}

type Role struct {
	ID   types.ID `json:"id" gorm:"primary_key"`
	Name string   `json:"name" gorm:"unique_index:uni_role_name"`

	CreatorID  types.ID        `json:"creatorId"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
}

func (r *Role) TableName() string {
	return "user_roles"
}

type RoleCapabilityBinding struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	RoleID     types.ID `json:"roleId" gorm:"unique_index:uni_role_cap"`
	Capability string   `json:"capability" gorm:"unique_index:uni_role_cap"`
}

func (r *RoleCapabilityBinding) TableName() string {
	return "role_capability_bindings"
}
