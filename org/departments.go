package org

import (
	"errors"

	"stagegate/account"
	"stagegate/authority"
	"stagegate/bizerror"
	"stagegate/common"
	"stagegate/domain"
	"stagegate/idgen"
	"stagegate/persistence"
	"stagegate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	orgIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateDepartmentFunc = CreateDepartment
	UpdateDepartmentFunc = UpdateDepartment
	DeleteDepartmentFunc = DeleteDepartment
	QueryDepartmentsFunc = QueryDepartments
	DepartmentTreeFunc   = DepartmentTree
)

type DepartmentCreating struct {
	Name     string   `json:"name" binding:"required"`
	ParentID types.ID `json:"parentId"`
}

type DepartmentUpdating struct {
	Name     string    `json:"name"`
	ParentID *types.ID `json:"parentId"`
}

type DepartmentNode struct {
	domain.Department
	Children []*DepartmentNode `json:"children"`
}

func CreateDepartment(c *DepartmentCreating, sec *session.Session) (*domain.Department, error) {
	if !sec.Perms.HasCapability(authority.CapAdmin) {
		return nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	record := domain.Department{}
	err := db.Transaction(func(tx *gorm.DB) error {
		existing := domain.Department{}
		err := tx.Where(&domain.Department{Name: c.Name}).First(&existing).Error
		if err == nil {
			return bizerror.ErrDuplicated
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if c.ParentID != 0 {
			if err := tx.Where(&domain.Department{ID: c.ParentID}).
				First(&domain.Department{}).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return bizerror.ErrNotFound
				}
				return err
			}
		}

		now := types.CurrentTimestamp()
		record = domain.Department{
			ID:         idgen.NextID(orgIdWorker),
			Name:       c.Name,
			ParentID:   c.ParentID,
			CreatorID:  sec.Identity.ID,
			CreateTime: now,
			UpdateTime: now,
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func UpdateDepartment(id types.ID, u *DepartmentUpdating, sec *session.Session) error {
	if !sec.Perms.HasCapability(authority.CapAdmin) {
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&domain.Department{ID: id}).
			First(&domain.Department{}).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}

		changes := map[string]interface{}{}
		if u.Name != "" {
			changes["name"] = u.Name
		}
		if u.ParentID != nil {
			if *u.ParentID == id {
				return &common.ErrBadParam{Cause: errors.New("department can not be its own parent")}
			}
			changes["parent_id"] = *u.ParentID
		}
		if len(changes) == 0 {
			return nil
		}
		changes["update_time"] = types.CurrentTimestamp()

		return tx.Model(&domain.Department{}).Where("id = ?", id).Updates(changes).Error
	})
}

// DeleteDepartment refuses when the department still has child departments,
// job positions, or staff members.
func DeleteDepartment(id types.ID, sec *session.Session) error {
	if !sec.Perms.HasCapability(authority.CapAdmin) {
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		var children int
		if err := tx.Model(&domain.Department{}).Where("parent_id = ?", id).
			Count(&children).Error; err != nil {
			return err
		}
		if children > 0 {
			return &common.ErrBadParam{Cause: errors.New("department has child departments")}
		}

		var positions int
		if err := tx.Model(&domain.JobPosition{}).Where("department_id = ?", id).
			Count(&positions).Error; err != nil {
			return err
		}
		if positions > 0 {
			return &common.ErrBadParam{Cause: errors.New("department has job positions")}
		}

		var members int
		if err := tx.Model(&account.User{}).Where("department_id = ?", id).
			Count(&members).Error; err != nil {
			return err
		}
		if members > 0 {
			return &common.ErrBadParam{Cause: errors.New("department has staff members")}
		}

		return tx.Delete(&domain.Department{}, "id = ?", id).Error
	})
}

func QueryDepartments(sec *session.Session) ([]domain.Department, error) {
	db := persistence.ActiveDataSourceManager.TracedGormDB(sec.Context)
	var records []domain.Department
	if err := db.Order("name ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// DepartmentTree assembles the self-parented rows into a forest. Rows whose
// parent is missing are surfaced as roots rather than dropped.
func DepartmentTree(sec *session.Session) ([]*DepartmentNode, error) {
	records, err := QueryDepartmentsFunc(sec)
	if err != nil {
		return nil, err
	}

	nodes := map[types.ID]*DepartmentNode{}
	for i := range records {
		nodes[records[i].ID] = &DepartmentNode{Department: records[i], Children: []*DepartmentNode{}}
	}

	var roots []*DepartmentNode
	for i := range records {
		node := nodes[records[i].ID]
		parent, found := nodes[records[i].ParentID]
		if records[i].ParentID == 0 || !found {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots, nil
}
