package refdata

import (
	"errors"

	"stagegate/authority"
	"stagegate/bizerror"
	"stagegate/domain"
	"stagegate/idgen"
	"stagegate/persistence"
	"stagegate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	CreatePartnerFunc = CreatePartner
	UpdatePartnerFunc = UpdatePartner
	DeletePartnerFunc = DeletePartner
	QueryPartnersFunc = QueryPartners
)

type PartnerCreating struct {
	Name string `json:"name" binding:"required"`
	Inn  string `json:"inn"`
}

type PartnerUpdating struct {
	Name string `json:"name"`
	Inn  string `json:"inn"`
}

func CreatePartner(c *PartnerCreating, sec *session.Session) (*domain.Partner, error) {
	if !sec.Perms.HasAnyCapability(authority.CapAdmin, authority.CapFinDir) {
		return nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	record := domain.Partner{}
	err := db.Transaction(func(tx *gorm.DB) error {
		existing := domain.Partner{}
		err := tx.Where(&domain.Partner{Name: c.Name}).First(&existing).Error
		if err == nil {
			return bizerror.ErrDuplicated
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := types.CurrentTimestamp()
		record = domain.Partner{
			ID:         idgen.NextID(refdataIdWorker),
			Name:       c.Name,
			Inn:        c.Inn,
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

func UpdatePartner(id types.ID, u *PartnerUpdating, sec *session.Session) error {
	if !sec.Perms.HasAnyCapability(authority.CapAdmin, authority.CapFinDir) {
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&domain.Partner{ID: id}).First(&domain.Partner{}).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}

		changes := map[string]interface{}{}
		if u.Name != "" {
			changes["name"] = u.Name
		}
		if u.Inn != "" {
			changes["inn"] = u.Inn
		}
		if len(changes) == 0 {
			return nil
		}
		changes["update_time"] = types.CurrentTimestamp()

		return tx.Model(&domain.Partner{}).Where("id = ?", id).Updates(changes).Error
	})
}

// DeletePartner refuses while projects still reference the partner.
func DeletePartner(id types.ID, sec *session.Session) error {
	if !sec.Perms.HasCapability(authority.CapAdmin) {
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Transaction(func(tx *gorm.DB) error {
		var referenced int
		if err := tx.Model(&domain.Project{}).Where("partner_id = ?", id).
			Count(&referenced).Error; err != nil {
			return err
		}
		if referenced > 0 {
			return bizerror.ErrForbidden
		}
		return tx.Delete(&domain.Partner{}, "id = ?", id).Error
	})
}

func QueryPartners(sec *session.Session) ([]domain.Partner, error) {
	db := persistence.ActiveDataSourceManager.TracedGormDB(sec.Context)
	var records []domain.Partner
	if err := db.Order("name ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
