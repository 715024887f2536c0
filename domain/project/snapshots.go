package project

import (
	"strconv"

	"stagegate/account"
	"stagegate/audit"
	"stagegate/domain"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

func snapshotOfProject(p *domain.Project, db *gorm.DB) audit.Snapshot {
	return audit.Snapshot{
		"name":             p.Name,
		"contractNumber":   p.ContractNumber,
		"totalPrice":       strconv.FormatInt(p.TotalPrice, 10),
		"currency":         currencyDesc(p.CurrencyID, db),
		"startDate":        p.StartDate,
		"endDate":          p.EndDate,
		"financier":        userDesc(p.FinancierID, db),
		"financierConfirm": strconv.FormatBool(p.FinancierConfirm),
		"gip":              userDesc(p.GipID, db),
		"gipConfirm":       strconv.FormatBool(p.GipConfirm),
		"partner":          partnerDesc(p.PartnerID, db),
	}
}

func currencyDesc(id types.ID, db *gorm.DB) string {
	if id == 0 {
		return ""
	}
	record := domain.Currency{}
	if err := db.Where(&domain.Currency{ID: id}).First(&record).Error; err != nil {
		return id.String()
	}
	return record.Name
}

func partnerDesc(id types.ID, db *gorm.DB) string {
	if id == 0 {
		return ""
	}
	record := domain.Partner{}
	if err := db.Where(&domain.Partner{ID: id}).First(&record).Error; err != nil {
		return id.String()
	}
	return record.Name
}

func userDesc(id types.ID, db *gorm.DB) string {
	if id == 0 {
		return ""
	}
	record := account.User{}
	if err := db.Where(&account.User{ID: id}).First(&record).Error; err != nil {
		return id.String()
	}
	return record.DisplayName()
}
