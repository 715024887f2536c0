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
	"github.com/sony/sonyflake"
)

var (
	refdataIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateCurrencyFunc  = CreateCurrency
	QueryCurrenciesFunc = QueryCurrencies
)

type CurrencyCreating struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// DefaultCurrencyConfiguration makes sure the national currency exists.
func DefaultCurrencyConfiguration() error {
	db := persistence.ActiveDataSourceManager.GormDB()
	existing := domain.Currency{}
	err := db.Where(&domain.Currency{Name: domain.DefaultCurrencyName}).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return db.Create(&domain.Currency{
		ID:         idgen.NextID(refdataIdWorker),
		Name:       domain.DefaultCurrencyName,
		CreateTime: types.CurrentTimestamp(),
	}).Error
}

func CreateCurrency(c *CurrencyCreating, sec *session.Session) (*domain.Currency, error) {
	if !sec.Perms.HasCapability(authority.CapAdmin) {
		return nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	existing := domain.Currency{}
	err := db.Where(&domain.Currency{Name: c.Name}).First(&existing).Error
	if err == nil {
		return nil, bizerror.ErrDuplicated
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	record := domain.Currency{
		ID:          idgen.NextID(refdataIdWorker),
		Name:        c.Name,
		Description: c.Description,
		CreateTime:  types.CurrentTimestamp(),
	}
	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func QueryCurrencies(sec *session.Session) ([]domain.Currency, error) {
	db := persistence.ActiveDataSourceManager.TracedGormDB(sec.Context)
	var records []domain.Currency
	if err := db.Order("name ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
