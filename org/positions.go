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
)

var (
	CreateJobPositionFunc = CreateJobPosition
	UpdateJobPositionFunc = UpdateJobPosition
	DeleteJobPositionFunc = DeleteJobPosition
	QueryJobPositionsFunc = QueryJobPositions
)

type JobPositionCreating struct {
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description"`
	DepartmentID types.ID `json:"departmentId" binding:"required"`
	ParentID     types.ID `json:"parentId"`
}

type JobPositionUpdating struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ParentID    *types.ID `json:"parentId"`
}

func CreateJobPosition(c *JobPositionCreating, sec *session.Session) (*domain.JobPosition, error) {
	if !sec.Perms.HasCapability(authority.CapAdmin) {
		return nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	record := domain.JobPosition{}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&domain.Department{ID: c.DepartmentID}).
			First(&domain.Department{}).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}

		existing := domain.JobPosition{}
		err := tx.Where(&domain.JobPosition{Name: c.Name, DepartmentID: c.DepartmentID}).
			First(&existing).Error
		if err == nil {
			return bizerror.ErrDuplicated
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := types.CurrentTimestamp()
		record = domain.JobPosition{
			ID:           idgen.NextID(orgIdWorker),
			Name:         c.Name,
			Description:  c.Description,
			DepartmentID: c.DepartmentID,
			ParentID:     c.ParentID,
			CreatorID:    sec.Identity.ID,
			CreateTime:   now,
			UpdateTime:   now,
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func UpdateJobPosition(id types.ID, u *JobPositionUpdating, sec *session.Session) error {
	if !sec.Perms.HasCapability(authority.CapAdmin) {
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		position := domain.JobPosition{}
		if err := tx.Where(&domain.JobPosition{ID: id}).First(&position).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}

		changes := map[string]interface{}{}
		if u.Name != "" && u.Name != position.Name {
			existing := domain.JobPosition{}
			err := tx.Where(&domain.JobPosition{Name: u.Name, DepartmentID: position.DepartmentID}).
				First(&existing).Error
			if err == nil {
				return bizerror.ErrDuplicated
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			changes["name"] = u.Name
		}
		if u.Description != "" {
			changes["description"] = u.Description
		}
		if u.ParentID != nil {
			changes["parent_id"] = *u.ParentID
		}
		if len(changes) == 0 {
			return nil
		}
		changes["update_time"] = types.CurrentTimestamp()

		return tx.Model(&domain.JobPosition{}).Where("id = ?", id).Updates(changes).Error
	})
}

// DeleteJobPosition refuses while staff members still hold the position.
func DeleteJobPosition(id types.ID, sec *session.Session) error {
	if !sec.Perms.HasCapability(authority.CapAdmin) {
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		var holders int
		if err := tx.Model(&account.User{}).Where("position_id = ?", id).
			Count(&holders).Error; err != nil {
			return err
		}
		if holders > 0 {
			return &common.ErrBadParam{Cause: errors.New("job position has staff members")}
		}
		return tx.Delete(&domain.JobPosition{}, "id = ?", id).Error
	})
}

func QueryJobPositions(departmentId types.ID, sec *session.Session) ([]domain.JobPosition, error) {
	db := persistence.ActiveDataSourceManager.TracedGormDB(sec.Context)

	query := db.Order("name ASC")
	if departmentId != 0 {
		query = query.Where(&domain.JobPosition{DepartmentID: departmentId})
	}

	var records []domain.JobPosition
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
