package account

import (
	"strconv"

	"stagegate/audit"
	"stagegate/authority"
	"stagegate/domain"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

// snapshotOfUser flattens the user state for the audit trail, with foreign
// keys resolved to display names so diffs read naturally. Lookup failures
// degrade to the raw id.
func snapshotOfUser(u *User, db *gorm.DB) audit.Snapshot {
	return audit.Snapshot{
		"name":              u.Name,
		"fio":               u.Fio,
		"phoneNumber":       u.PhoneNumber,
		"department":        departmentDesc(u.DepartmentID, db),
		"position":          positionDesc(u.PositionID, db),
		"role":              roleDesc(u.RoleID, db),
		"isActive":          strconv.FormatBool(u.IsActive),
		"birthday":          u.Birthday,
		"address":           u.Address,
		"pnfl":              u.Pnfl,
		"positionStartDate": u.PositionStartDate,
		"onVacation":        strconv.FormatBool(u.OnVacation),
		"onBusinessTrip":    strconv.FormatBool(u.OnBusinessTrip),
	}
}

func departmentDesc(id types.ID, db *gorm.DB) string {
	if id == 0 {
		return ""
	}
	record := domain.Department{}
	if err := db.Where(&domain.Department{ID: id}).First(&record).Error; err != nil {
		return id.String()
	}
	return record.Name
}

func positionDesc(id types.ID, db *gorm.DB) string {
	if id == 0 {
		return ""
	}
	record := domain.JobPosition{}
	if err := db.Where(&domain.JobPosition{ID: id}).First(&record).Error; err != nil {
		return id.String()
	}
	return record.Name
}

func roleDesc(id types.ID, db *gorm.DB) string {
	if id == 0 {
		return ""
	}
	record := authority.Role{}
	if err := db.Where(&authority.Role{ID: id}).First(&record).Error; err != nil {
		return id.String()
	}
	return record.Name
}
