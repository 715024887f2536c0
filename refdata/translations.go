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
	SaveTranslationFunc   = SaveTranslation
	DeleteTranslationFunc = DeleteTranslation
	QueryTranslationsFunc = QueryTranslations
)

type TranslationSaving struct {
	Key string `json:"key" binding:"required"`
	En  string `json:"en"`
	Ru  string `json:"ru"`
	Uz  string `json:"uz"`
}

// SaveTranslation upserts by key, so the UI can submit the whole bundle
// without caring which keys already exist.
func SaveTranslation(s *TranslationSaving, sec *session.Session) (*domain.Translation, error) {
	if !sec.Perms.HasCapability(authority.CapAdmin) {
		return nil, bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	record := domain.Translation{}
	err := db.Transaction(func(tx *gorm.DB) error {
		now := types.CurrentTimestamp()
		err := tx.Where(&domain.Translation{Key: s.Key}).First(&record).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if errors.Is(err, gorm.ErrRecordNotFound) {
			record = domain.Translation{
				ID:             idgen.NextID(refdataIdWorker),
				Key:            s.Key,
				En:             s.En,
				Ru:             s.Ru,
				Uz:             s.Uz,
				TranslatedByID: sec.Identity.ID,
				CreateTime:     now,
				UpdateTime:     now,
			}
			return tx.Create(&record).Error
		}

		changes := map[string]interface{}{
			"en":               s.En,
			"ru":               s.Ru,
			"uz":               s.Uz,
			"translated_by_id": sec.Identity.ID,
			"update_time":      now,
		}
		if err := tx.Model(&domain.Translation{}).Where("id = ?", record.ID).
			Updates(changes).Error; err != nil {
			return err
		}
		return tx.Where(&domain.Translation{ID: record.ID}).First(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func DeleteTranslation(id types.ID, sec *session.Session) error {
	if !sec.Perms.HasCapability(authority.CapAdmin) {
		return bizerror.ErrForbidden
	}
	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Delete(&domain.Translation{}, "id = ?", id).Error
}

// QueryTranslations is open to every signed-in user; the UI loads the bundle
// at startup.
func QueryTranslations(sec *session.Session) ([]domain.Translation, error) {
	db := persistence.ActiveDataSourceManager.TracedGormDB(sec.Context)
	var records []domain.Translation
	if err := db.Order("`key` ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
