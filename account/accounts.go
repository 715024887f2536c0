package account

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"stagegate/audit"
	"stagegate/authority"
	"stagegate/bizerror"
	"stagegate/common"
	"stagegate/idgen"
	"stagegate/persistence"
	"stagegate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	userIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateUserFunc            = CreateUser
	UpdateUserFunc            = UpdateUser
	SetUserPasswordFunc       = SetUserPassword
	PauseUserFunc             = PauseUser
	ActivateUserFunc          = ActivateUser
	QueryUsersFunc            = QueryUsers
	UsersWithCapabilityFunc   = UsersWithCapability
	UpdateStaffUserFunc       = UpdateStaffUser
	ToggleVacationFunc        = ToggleVacation
	ToggleBusinessTripFunc    = ToggleBusinessTrip
	UpdateBasicAuthSecretFunc = UpdateBasicAuthSecret
)

func HashSha256(raw string) string {
	h := sha256.New()
	h.Write([]byte(raw))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}

func CreateUser(c *UserCreation, sec *session.Session) (*UserInfo, error) {
	if !sec.Perms.HasCapability(authority.CapAdmin) {
		return nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	user := User{
		ID:          idgen.NextID(userIdWorker),
		Name:        c.Name,
		Secret:      HashSha256(c.Secret),
		Fio:         c.Fio,
		PhoneNumber: c.PhoneNumber,
		RoleID:      c.RoleID,
		IsActive:    true,
		CreatorID:   sec.Identity.ID,
		CreateTime:  types.CurrentTimestamp(),
		UpdateTime:  types.CurrentTimestamp(),
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		existing := User{}
		err := tx.Where(&User{Name: c.Name}).First(&existing).Error
		if err == nil {
			return bizerror.ErrDuplicated
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return audit.CreateRecordFunc(tx, audit.SourceStaffUser, user.ID, user.DisplayName(),
			audit.CategoryCreated, snapshotOfUser(&user, tx), &sec.Identity)
	})
	if err != nil {
		return nil, err
	}
	return &UserInfo{ID: user.ID, Name: user.Name, Fio: user.Fio, RoleID: user.RoleID}, nil
}

func UpdateUser(id types.ID, u *AdminUserUpdating, sec *session.Session) error {
	if !sec.Perms.HasCapability(authority.CapAdmin) {
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		user := User{}
		if err := tx.Where(&User{ID: id}).First(&user).Error; err != nil {
			return err
		}

		changes := map[string]interface{}{"update_time": types.CurrentTimestamp()}
		if u.Fio != "" {
			changes["fio"] = u.Fio
		}
		if u.PhoneNumber != "" {
			changes["phone_number"] = u.PhoneNumber
		}
		// role is cleared when absent from the request
		if u.RoleID == nil {
			changes["role_id"] = 0
		} else {
			changes["role_id"] = *u.RoleID
		}

		if err := tx.Model(&User{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			return err
		}

		updated := User{}
		if err := tx.Where(&User{ID: id}).First(&updated).Error; err != nil {
			return err
		}
		return audit.CreateRecordFunc(tx, audit.SourceStaffUser, updated.ID, updated.DisplayName(),
			audit.CategoryPropertyUpdated, snapshotOfUser(&updated, tx), &sec.Identity)
	})
}

func SetUserPassword(id types.ID, r *SetPasswordRequest, sec *session.Session) error {
	if !sec.Perms.HasCapability(authority.CapAdmin) {
		return bizerror.ErrForbidden
	}
	if r.Password != r.ConfirmPassword {
		return &common.ErrBadParam{Cause: errors.New("passwords do not match")}
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		user := User{}
		if err := tx.Where(&User{ID: id}).First(&user).Error; err != nil {
			return err
		}
		return tx.Model(&User{}).Where("id = ?", id).Updates(map[string]interface{}{
			"secret":      HashSha256(r.Password),
			"update_time": types.CurrentTimestamp(),
		}).Error
	})
}

func PauseUser(id types.ID, sec *session.Session) error {
	return setUserActive(id, false, sec)
}

func ActivateUser(id types.ID, sec *session.Session) error {
	return setUserActive(id, true, sec)
}

func setUserActive(id types.ID, active bool, sec *session.Session) error {
	if !sec.Perms.HasCapability(authority.CapAdmin) {
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		user := User{}
		if err := tx.Where(&User{ID: id}).First(&user).Error; err != nil {
			return err
		}
		if user.IsSuperuser {
			return bizerror.ErrSuperuserProtected
		}
		return tx.Model(&User{}).Where("id = ?", id).Updates(map[string]interface{}{
			"is_active":   active,
			"update_time": types.CurrentTimestamp(),
		}).Error
	})
}

func QueryUsers(q *UserQuery, sec *session.Session) ([]User, uint64, error) {
	if !sec.Perms.HasCapability(authority.CapAdmin) {
		return nil, 0, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	query := db.Model(&User{})
	if q.Search != "" {
		query = query.Where("fio LIKE ? OR name LIKE ?", "%"+q.Search+"%", "%"+q.Search+"%")
	}

	var total uint64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}

	var users []User
	if err := query.Order("update_time DESC").Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UsersWithCapability lists users whose role carries the capability; pipeline
// screens use it to pick financiers, GIPs, heads and staff.
func UsersWithCapability(capability string, sec *session.Session) ([]UserInfo, error) {
	if !authority.IsKnownCapability(capability) {
		return nil, bizerror.ErrUnknownCapability
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	var roleIds []types.ID
	if err := db.Model(&authority.RoleCapabilityBinding{}).
		Where(&authority.RoleCapabilityBinding{Capability: capability}).
		Pluck("role_id", &roleIds).Error; err != nil {
		return nil, err
	}
	if len(roleIds) == 0 {
		return []UserInfo{}, nil
	}

	var users []UserInfo
	if err := db.Model(&User{}).Where("role_id IN (?) AND is_active = ?", roleIds, true).
		Scan(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func UpdateStaffUser(id types.ID, u *StaffUserUpdating, sec *session.Session) error {
	if !sec.Perms.HasCapability(authority.CapAdmin) && sec.Identity.ID != id {
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		user := User{}
		if err := tx.Where(&User{ID: id}).First(&user).Error; err != nil {
			return err
		}

		if err := tx.Model(&User{}).Where("id = ?", id).Updates(map[string]interface{}{
			"fio":                 u.Fio,
			"position_id":         u.PositionID,
			"position_start_date": u.PositionStartDate,
			"department_id":       u.DepartmentID,
			"birthday":            u.Birthday,
			"address":             u.Address,
			"pnfl":                u.Pnfl,
			"phone_number":        u.PhoneNumber,
			"update_time":         types.CurrentTimestamp(),
		}).Error; err != nil {
			return err
		}

		updated := User{}
		if err := tx.Where(&User{ID: id}).First(&updated).Error; err != nil {
			return err
		}
		return audit.CreateRecordFunc(tx, audit.SourceStaffUser, updated.ID, updated.DisplayName(),
			audit.CategoryPropertyUpdated, snapshotOfUser(&updated, tx), &sec.Identity)
	})
}

// ToggleVacation flips the vacation flag; the companion update timestamp is
// stamped on every change.
func ToggleVacation(id types.ID, t *VacationToggle, sec *session.Session) error {
	if !sec.Perms.HasCapability(authority.CapAdmin) && sec.Identity.ID != id {
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Model(&User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"on_vacation":        t.OnVacation,
		"on_vacation_update": types.CurrentTimestamp(),
		"on_vacation_start":  t.Start,
		"on_vacation_end":    t.End,
		"update_time":        types.CurrentTimestamp(),
	}).Error
}

func ToggleBusinessTrip(id types.ID, t *BusinessTripToggle, sec *session.Session) error {
	if !sec.Perms.HasCapability(authority.CapAdmin) && sec.Identity.ID != id {
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Model(&User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"on_business_trip":        t.OnBusinessTrip,
		"on_business_trip_update": types.CurrentTimestamp(),
		"on_business_trip_start":  t.Start,
		"on_business_trip_end":    t.End,
		"update_time":             types.CurrentTimestamp(),
	}).Error
}

func UpdateBasicAuthSecret(u *BasicAuthUpdating, sec *session.Session) error {
	db := persistence.ActiveDataSourceManager.GormDB()
	user := User{}
	if err := db.Where(&User{ID: sec.Identity.ID, Secret: HashSha256(u.OriginalSecret)}).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return bizerror.ErrInvalidPassword
		}
		return err
	}

	return db.Model(&User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"secret":      HashSha256(u.NewSecret),
		"update_time": types.CurrentTimestamp(),
	}).Error
}
