package account

import (
	"errors"
	"os"

	"stagegate/authority"
	"stagegate/bizerror"
	"stagegate/idgen"
	"stagegate/persistence"
	"stagegate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	systemAdminRole        = authority.Role{ID: 1, Name: "system-admin"}
	systemAdminRoleBinding = authority.RoleCapabilityBinding{ID: 1, RoleID: 1, Capability: authority.CapAdmin}
)

var (
	roleIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	LoadPermsFunc  = LoadPerms
	CreateRoleFunc = CreateRole
	UpdateRoleFunc = UpdateRole
	DeleteRoleFunc = DeleteRole
	QueryRolesFunc = QueryRoles
)

type RoleDetail struct {
	authority.Role

	Capabilities []string `json:"capabilities"`
}

// DefaultSecurityConfiguration seeds the builtin admin role and the
// superuser account so a fresh deployment is reachable.
func DefaultSecurityConfiguration() error {
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := db.Save(&systemAdminRole).Error; err != nil {
		return err
	}
	if err := db.Save(&systemAdminRoleBinding).Error; err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		admin := User{}
		err := tx.Model(&User{}).Where(&User{ID: 1}).First(&admin).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			initialAdminPassword := os.ExpandEnv("${INITIAL_ADMIN_PASSWORD}")
			if initialAdminPassword == "" {
				initialAdminPassword = "admin123"
			}
			admin = User{
				ID:          1,
				Name:        "admin",
				Secret:      HashSha256(initialAdminPassword),
				Fio:         "Administrator",
				RoleID:      systemAdminRole.ID,
				IsActive:    true,
				IsSuperuser: true,
				CreateTime:  types.CurrentTimestamp(),
				UpdateTime:  types.CurrentTimestamp(),
			}
			if err := tx.Save(&admin).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadPerms resolves the current capability set and role name of a user
// directly from the database, so capability revocation takes effect on the
// next request regardless of what an already issued token claims.
func LoadPerms(uid types.ID) (authority.Permissions, string, error) {
	db := persistence.ActiveDataSourceManager.GormDB()

	user := User{}
	if err := db.Where(&User{ID: uid}).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", bizerror.ErrUnauthenticated
		}
		return nil, "", err
	}
	if !user.IsActive {
		return nil, "", bizerror.ErrForbidden
	}

	perms := authority.Permissions{}
	if user.RoleID == 0 {
		return perms, "", nil
	}

	role := authority.Role{}
	if err := db.Where(&authority.Role{ID: user.RoleID}).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return perms, "", nil
		}
		return nil, "", err
	}

	var capabilities []string
	if err := db.Model(&authority.RoleCapabilityBinding{}).
		Where(&authority.RoleCapabilityBinding{RoleID: role.ID}).
		Pluck("capability", &capabilities).Error; err != nil {
		return nil, "", err
	}
	return authority.Permissions(capabilities), role.Name, nil
}

func CreateRole(c *RoleCreation, sec *session.Session) (*RoleDetail, error) {
	if !sec.Perms.HasCapability(authority.CapAdmin) {
		return nil, bizerror.ErrForbidden
	}
	if err := checkCapabilities(c.Capabilities); err != nil {
		return nil, err
	}

	role := authority.Role{
		ID:         idgen.NextID(roleIdWorker),
		Name:       c.Name,
		CreatorID:  sec.Identity.ID,
		CreateTime: types.CurrentTimestamp(),
	}
	db := persistence.ActiveDataSourceManager.GormDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		existing := authority.Role{}
		err := tx.Where(&authority.Role{Name: c.Name}).First(&existing).Error
		if err == nil {
			return bizerror.ErrDuplicated
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(&role).Error; err != nil {
			return err
		}
		return saveCapabilityBindings(tx, role.ID, c.Capabilities)
	})
	if err != nil {
		return nil, err
	}
	return &RoleDetail{Role: role, Capabilities: normalizedCapabilities(c.Capabilities)}, nil
}

func UpdateRole(id types.ID, u *RoleUpdating, sec *session.Session) error {
	if !sec.Perms.HasCapability(authority.CapAdmin) {
		return bizerror.ErrForbidden
	}
	if err := checkCapabilities(u.Capabilities); err != nil {
		return err
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		role := authority.Role{}
		if err := tx.Where(&authority.Role{ID: id}).First(&role).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}
		if u.Name != "" && u.Name != role.Name {
			conflict := authority.Role{}
			err := tx.Where(&authority.Role{Name: u.Name}).First(&conflict).Error
			if err == nil {
				return bizerror.ErrDuplicated
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err := tx.Model(&authority.Role{}).Where("id = ?", id).
				Update("name", u.Name).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("role_id = ?", id).
			Delete(&authority.RoleCapabilityBinding{}).Error; err != nil {
			return err
		}
		return saveCapabilityBindings(tx, id, u.Capabilities)
	})
}

func DeleteRole(id types.ID, sec *session.Session) error {
	if !sec.Perms.HasCapability(authority.CapAdmin) {
		return bizerror.ErrForbidden
	}
	if id == systemAdminRole.ID {
		return bizerror.ErrSuperuserProtected
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).
			Delete(&authority.RoleCapabilityBinding{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&User{}).Where("role_id = ?", id).
			Update("role_id", 0).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&authority.Role{}).Error
	})
}

func QueryRoles(sec *session.Session) ([]RoleDetail, error) {
	if !sec.Perms.HasCapability(authority.CapAdmin) {
		return nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	var roles []authority.Role
	if err := db.Model(&authority.Role{}).Order("name ASC").Find(&roles).Error; err != nil {
		return nil, err
	}

	details := make([]RoleDetail, 0, len(roles))
	for _, role := range roles {
		var capabilities []string
		if err := db.Model(&authority.RoleCapabilityBinding{}).
			Where(&authority.RoleCapabilityBinding{RoleID: role.ID}).
			Pluck("capability", &capabilities).Error; err != nil {
			return nil, err
		}
		if capabilities == nil {
			capabilities = []string{}
		}
		details = append(details, RoleDetail{Role: role, Capabilities: capabilities})
	}
	return details, nil
}

func checkCapabilities(capabilities []string) error {
	for _, capability := range capabilities {
		if !authority.IsKnownCapability(capability) {
			return bizerror.ErrUnknownCapability
		}
	}
	return nil
}

func normalizedCapabilities(capabilities []string) []string {
	if capabilities == nil {
		return []string{}
	}
	return capabilities
}

func saveCapabilityBindings(tx *gorm.DB, roleId types.ID, capabilities []string) error {
	for _, capability := range capabilities {
		binding := authority.RoleCapabilityBinding{
			ID:         idgen.NextID(roleIdWorker),
			RoleID:     roleId,
			Capability: capability,
		}
		if err := tx.Create(&binding).Error; err != nil {
			return err
		}
	}
	return nil
}
